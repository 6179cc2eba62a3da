// Package server wires storage, services, and the HTTP surface into the
// city server process.
package server

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	platformcmd "github.com/valusophy/city/internal/platform/cmd"
	"github.com/valusophy/city/internal/platform/storage/sqlitedb"
	"github.com/valusophy/city/internal/random"
	"github.com/valusophy/city/internal/services/applications"
	applicationsqlite "github.com/valusophy/city/internal/services/applications/storage/sqlite"
	"github.com/valusophy/city/internal/services/auth/provider"
	"github.com/valusophy/city/internal/services/auth/session"
	authsqlite "github.com/valusophy/city/internal/services/auth/storage/sqlite"
	"github.com/valusophy/city/internal/services/media"
	"github.com/valusophy/city/internal/services/media/fsstore"
	"github.com/valusophy/city/internal/services/media/gcs"
	"github.com/valusophy/city/internal/services/penthouse"
	penthousesqlite "github.com/valusophy/city/internal/services/penthouse/storage/sqlite"
	"github.com/valusophy/city/internal/services/posts"
	postsqlite "github.com/valusophy/city/internal/services/posts/storage/sqlite"
	"github.com/valusophy/city/internal/services/projects"
	projectsqlite "github.com/valusophy/city/internal/services/projects/storage/sqlite"
	"github.com/valusophy/city/internal/services/residents"
	residentsqlite "github.com/valusophy/city/internal/services/residents/storage/sqlite"
	"github.com/valusophy/city/internal/services/web"
)

// Media backends selectable at startup.
const (
	MediaBackendFS  = "fs"
	MediaBackendGCS = "gcs"
)

// Config holds the server command configuration.
type Config struct {
	HTTPAddr string `env:"VALUSOPHY_CITY_HTTP_ADDR" envDefault:"localhost:8080"`
	DBPath   string `env:"VALUSOPHY_CITY_DB_PATH"   envDefault:"city.db"`

	MediaBackend   string `env:"VALUSOPHY_CITY_MEDIA_BACKEND"  envDefault:"fs"`
	MediaDir       string `env:"VALUSOPHY_CITY_MEDIA_DIR"      envDefault:"media"`
	MediaBaseURL   string `env:"VALUSOPHY_CITY_MEDIA_BASE_URL" envDefault:"http://localhost:8080/media"`
	GCSBucket      string `env:"VALUSOPHY_CITY_GCS_BUCKET"`
	GCSCredentials string `env:"VALUSOPHY_CITY_GCS_CREDENTIALS"`

	OperatorEmail string `env:"VALUSOPHY_CITY_OPERATOR_EMAIL"`
}

// ParseConfig loads environment defaults and then parses flags.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := platformcmd.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "SQLite database path")
	fs.StringVar(&cfg.MediaBackend, "media-backend", cfg.MediaBackend, "media backend (fs or gcs)")
	if err := platformcmd.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the city server with telemetry and blocks until the
// context ends.
func Run(ctx context.Context, cfg Config) error {
	return platformcmd.RunWithTelemetry(ctx, platformcmd.ServiceServer, func(ctx context.Context) error {
		return run(ctx, cfg)
	})
}

func run(ctx context.Context, cfg Config) error {
	db, err := sqlitedb.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Printf("close database: %v", closeErr)
		}
	}()

	residentStore, err := residentsqlite.New(db)
	if err != nil {
		return fmt.Errorf("init resident store: %w", err)
	}
	postStore, err := postsqlite.New(db)
	if err != nil {
		return fmt.Errorf("init post store: %w", err)
	}
	blockStore, err := penthousesqlite.New(db)
	if err != nil {
		return fmt.Errorf("init penthouse store: %w", err)
	}
	projectStore, err := projectsqlite.New(db)
	if err != nil {
		return fmt.Errorf("init project store: %w", err)
	}
	stateStore, err := authsqlite.New(db)
	if err != nil {
		return fmt.Errorf("init auth state store: %w", err)
	}
	applicationStore, err := applicationsqlite.New(db)
	if err != nil {
		return fmt.Errorf("init application store: %w", err)
	}

	mediaStore, mediaDir, err := newMediaStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init media store: %w", err)
	}
	if closer, ok := mediaStore.(interface{ Close() error }); ok {
		defer func() {
			if closeErr := closer.Close(); closeErr != nil {
				log.Printf("close media store: %v", closeErr)
			}
		}()
	}

	seed, err := random.NewSeed()
	if err != nil {
		return fmt.Errorf("seed apartment assignment: %w", err)
	}
	provisioner := residents.NewProvisioner(residentStore, seed)

	sessions, err := session.LoadConfigFromEnv()
	if err != nil {
		return fmt.Errorf("load session config: %w", err)
	}
	providerCfg, err := provider.LoadConfigFromEnv()
	if err != nil {
		return fmt.Errorf("load oauth config: %w", err)
	}

	sender, err := applications.NewSMTPSenderFromEnv()
	if err != nil {
		return fmt.Errorf("init smtp sender: %w", err)
	}
	var appSender applications.Sender
	if sender != nil {
		appSender = sender
	}

	server, err := web.NewServer(web.Config{
		HTTPAddr: cfg.HTTPAddr,
		Deps: web.Deps{
			Posts:        posts.NewService(postStore, provisioner, mediaStore),
			Penthouse:    penthouse.NewService(blockStore, provisioner),
			Projects:     projects.NewService(projectStore, provisioner),
			Applications: applications.NewService(applicationStore, appSender, cfg.OperatorEmail),
			Residents:    provisioner,
			Auth:         provider.NewHandler(providerCfg, stateStore, sessions),
			Sessions:     sessions,
			MediaDir:     mediaDir,
		},
	})
	if err != nil {
		return fmt.Errorf("init web server: %w", err)
	}

	if err := server.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("serve web: %w", err)
	}
	return nil
}

// newMediaStore selects the media backend. The second return value is
// the local directory to serve under /media/, empty for remote stores.
func newMediaStore(ctx context.Context, cfg Config) (media.Store, string, error) {
	switch strings.TrimSpace(cfg.MediaBackend) {
	case MediaBackendGCS:
		store, err := gcs.New(ctx, cfg.GCSBucket, cfg.GCSCredentials)
		if err != nil {
			return nil, "", err
		}
		return store, "", nil
	case MediaBackendFS, "":
		store, err := fsstore.New(cfg.MediaDir, cfg.MediaBaseURL)
		if err != nil {
			return nil, "", err
		}
		return store, store.Root(), nil
	default:
		return nil, "", fmt.Errorf("unknown media backend %q", cfg.MediaBackend)
	}
}
