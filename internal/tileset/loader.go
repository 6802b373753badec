package tileset

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"slices"
	"strings"
)

// Source fetches the raw metadata document.
type Source interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Load fetches, parses and validates the metadata at metadataURL. Relative
// tile templates are resolved against metadataURL.
func Load(ctx context.Context, src Source, metadataURL string) (*Tileset, error) {
	data, err := src.Fetch(ctx, metadataURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tileset metadata: %w", err)
	}

	ts, err := Parse(data)
	if err != nil {
		return nil, err
	}

	m := ts.Source
	m.Tiles = slices.Clone(m.Tiles)
	resolved := false
	for i, tmpl := range m.Tiles {
		abs, err := resolveTemplate(metadataURL, tmpl)
		if err != nil {
			return nil, fmt.Errorf("%w: tiles[%d]: %w", ErrInvalidMetadata, i, err)
		}
		if abs != tmpl {
			m.Tiles[i] = abs
			resolved = true
		}
	}
	if !resolved {
		return ts, nil
	}
	return New(m)
}

// resolveTemplate joins a relative template onto the directory of base. It
// works on strings so that placeholder braces are never escaped.
func resolveTemplate(base, tmpl string) (string, error) {
	if strings.Contains(tmpl, "://") {
		return tmpl, nil
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("failed to parse metadata url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return tmpl, nil
	}
	origin := u.Scheme + "://" + u.Host
	if strings.HasPrefix(tmpl, "/") {
		return origin + tmpl, nil
	}
	return origin + path.Join("/", path.Dir(u.Path), tmpl), nil
}
