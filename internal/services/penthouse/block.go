// Package penthouse manages resident profile pages built from positioned
// blocks. Each block kind carries its own content payload, validated here
// before anything reaches storage.
package penthouse

import (
	"encoding/json"
	"fmt"
	"strings"

	apperrors "github.com/valusophy/city/internal/platform/errors"
)

// Block kinds.
const (
	KindHeader  = "header"
	KindText    = "text"
	KindImage   = "image"
	KindVideo   = "video"
	KindGallery = "gallery"
	KindLink    = "link"
	KindDivider = "divider"
)

// Block widths.
const (
	WidthFull  = "full"
	WidthHalf  = "half"
	WidthThird = "third"
)

// HeaderContent is the payload of a header block.
type HeaderContent struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
}

// TextContent is the payload of a text block.
type TextContent struct {
	Text string `json:"text"`
}

// ImageContent is the payload of an image block.
type ImageContent struct {
	URL     string `json:"url"`
	Caption string `json:"caption,omitempty"`
}

// VideoContent is the payload of a video block.
type VideoContent struct {
	URL string `json:"url"`
}

// GalleryContent is the payload of a gallery block.
type GalleryContent struct {
	URLs []string `json:"urls"`
}

// LinkContent is the payload of a link block.
type LinkContent struct {
	URL   string `json:"url"`
	Label string `json:"label,omitempty"`
}

// normalizeWidth applies the default width and rejects unknown values.
func normalizeWidth(width string) (string, error) {
	width = strings.TrimSpace(width)
	switch width {
	case "":
		return WidthFull, nil
	case WidthFull, WidthHalf, WidthThird:
		return width, nil
	default:
		return "", apperrors.WithMetadata(
			apperrors.CodeBlockInvalidWidth,
			"unsupported block width",
			map[string]string{"width": width},
		)
	}
}

// validateContent checks the payload shape for a block kind and returns the
// canonical serialized form.
func validateContent(kind string, raw json.RawMessage) (json.RawMessage, error) {
	invalid := func(message string) error {
		return apperrors.WithMetadata(
			apperrors.CodeBlockInvalidContent,
			message,
			map[string]string{"kind": kind},
		)
	}

	switch kind {
	case KindHeader:
		var content HeaderContent
		if err := unmarshalContent(raw, &content); err != nil {
			return nil, invalid("malformed header content")
		}
		if strings.TrimSpace(content.Title) == "" {
			return nil, invalid("header title is required")
		}
		return marshalContent(content)
	case KindText:
		var content TextContent
		if err := unmarshalContent(raw, &content); err != nil {
			return nil, invalid("malformed text content")
		}
		if strings.TrimSpace(content.Text) == "" {
			return nil, invalid("text is required")
		}
		return marshalContent(content)
	case KindImage:
		var content ImageContent
		if err := unmarshalContent(raw, &content); err != nil {
			return nil, invalid("malformed image content")
		}
		if strings.TrimSpace(content.URL) == "" {
			return nil, invalid("image url is required")
		}
		return marshalContent(content)
	case KindVideo:
		var content VideoContent
		if err := unmarshalContent(raw, &content); err != nil {
			return nil, invalid("malformed video content")
		}
		if strings.TrimSpace(content.URL) == "" {
			return nil, invalid("video url is required")
		}
		return marshalContent(content)
	case KindGallery:
		var content GalleryContent
		if err := unmarshalContent(raw, &content); err != nil {
			return nil, invalid("malformed gallery content")
		}
		if len(content.URLs) == 0 {
			return nil, invalid("gallery needs at least one url")
		}
		for _, url := range content.URLs {
			if strings.TrimSpace(url) == "" {
				return nil, invalid("gallery urls must be non-blank")
			}
		}
		return marshalContent(content)
	case KindLink:
		var content LinkContent
		if err := unmarshalContent(raw, &content); err != nil {
			return nil, invalid("malformed link content")
		}
		if strings.TrimSpace(content.URL) == "" {
			return nil, invalid("link url is required")
		}
		return marshalContent(content)
	case KindDivider:
		// Dividers carry no payload.
		return json.RawMessage("{}"), nil
	default:
		return nil, apperrors.WithMetadata(
			apperrors.CodeBlockInvalidKind,
			"unsupported block kind",
			map[string]string{"kind": kind},
		)
	}
}

func unmarshalContent(raw json.RawMessage, target any) error {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	return json.Unmarshal(raw, target)
}

func marshalContent(content any) (json.RawMessage, error) {
	data, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("marshal block content: %w", err)
	}
	return data, nil
}
