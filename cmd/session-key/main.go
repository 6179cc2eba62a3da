package main

import (
	"flag"
	"os"

	"github.com/valusophy/city/internal/platform/config"
	"github.com/valusophy/city/internal/tools/sessionkey"
)

func main() {
	cfg, err := sessionkey.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	if err := sessionkey.Run(cfg, os.Stdout); err != nil {
		config.Exitf("generate key: %v", err)
	}
}
