package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"
)

// Format is the output format of list-style commands.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// Formats lists the accepted --output values.
var Formats = []Format{FormatText, FormatJSON, FormatTOML}

// ParseFormat validates an --output value. The empty string means text.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatTOML:
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (expected text, json or toml)", s)
	}
}

// Export writes records under key as a JSON object or a TOML document.
// TOML needs a top-level table, so both formats share the same shape.
func Export(w io.Writer, format Format, key string, records any) error {
	doc := map[string]any{key: records}
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode %s as json: %w", key, err)
		}
		return nil
	case FormatTOML:
		if err := toml.NewEncoder(w).Encode(doc); err != nil {
			return fmt.Errorf("failed to encode %s as toml: %w", key, err)
		}
		return nil
	default:
		return fmt.Errorf("export does not support format %q", format)
	}
}
