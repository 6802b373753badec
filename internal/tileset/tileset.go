// Package tileset reads and validates the tile-set metadata document and
// turns tile addresses into fetchable URLs.
package tileset

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jaennil/guide_helper/backend/tileview/internal/pyramid"
)

var ErrInvalidMetadata = errors.New("invalid tileset metadata")

const (
	DefaultMinZoom = 0
	DefaultMaxZoom = 22
)

type Scheme string

const (
	SchemeXYZ Scheme = "xyz"
	SchemeTMS Scheme = "tms"
)

// Metadata is the tile-set document as published (TileJSON-like).
type Metadata struct {
	Name        string    `json:"name,omitempty"`
	Tiles       []string  `json:"tiles" validate:"required,min=1,dive,required"`
	Bounds      []float64 `json:"bounds,omitempty" validate:"omitempty,len=4"`
	MinZoom     *int      `json:"minzoom,omitempty" validate:"omitempty,min=0,max=30"`
	MaxZoom     *int      `json:"maxzoom,omitempty" validate:"omitempty,min=0,max=30"`
	Scheme      string    `json:"scheme,omitempty" validate:"omitempty,oneof=xyz tms"`
	CRS         string    `json:"crs,omitempty" validate:"omitempty,oneof=EPSG:3857 EPSG:900913"`
	Attribution string    `json:"attribution,omitempty"`
}

// Tileset is validated metadata resolved into the form the tile cache uses.
type Tileset struct {
	Name        string
	Attribution string
	Templates   []Template
	MinZoom     int
	MaxZoom     int
	Scheme      Scheme

	// Extent is the root tile extent in map units.
	Extent pyramid.Bounds
	// DataBounds is the part of Extent holding data; tiles outside it are
	// never requested.
	DataBounds pyramid.Bounds

	Source Metadata
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Parse decodes and validates a metadata document.
func Parse(data []byte) (*Tileset, error) {
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMetadata, err)
	}
	return New(m)
}

// New validates m and resolves defaults.
func New(m Metadata) (*Tileset, error) {
	if err := validate.Struct(m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMetadata, err)
	}

	ts := &Tileset{
		Name:        m.Name,
		Attribution: m.Attribution,
		MinZoom:     DefaultMinZoom,
		MaxZoom:     DefaultMaxZoom,
		Scheme:      SchemeXYZ,
		Extent:      pyramid.WebMercator,
		DataBounds:  pyramid.WebMercator,
		Source:      m,
	}
	if m.MinZoom != nil {
		ts.MinZoom = *m.MinZoom
	}
	if m.MaxZoom != nil {
		ts.MaxZoom = *m.MaxZoom
	}
	if ts.MinZoom > ts.MaxZoom {
		return nil, fmt.Errorf("%w: minzoom %d is above maxzoom %d", ErrInvalidMetadata, ts.MinZoom, ts.MaxZoom)
	}
	if m.Scheme != "" {
		ts.Scheme = Scheme(m.Scheme)
	}

	for i, raw := range m.Tiles {
		tmpl, err := ParseTemplate(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: tiles[%d]: %w", ErrInvalidMetadata, i, err)
		}
		ts.Templates = append(ts.Templates, tmpl)
	}

	if len(m.Bounds) == 4 {
		b, err := dataBounds(m.Bounds)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidMetadata, err)
		}
		ts.DataBounds = b
	}

	return ts, nil
}

// dataBounds projects [west, south, east, north] degrees to map units. A
// west edge east of the east edge crosses the antimeridian and keeps the full
// width of the world.
func dataBounds(b []float64) (pyramid.Bounds, error) {
	west, south, east, north := b[0], b[1], b[2], b[3]
	for _, lon := range []float64{west, east} {
		if lon < -180 || lon > 180 {
			return pyramid.Bounds{}, fmt.Errorf("bounds longitude %v out of range", lon)
		}
	}
	for _, lat := range []float64{south, north} {
		if lat < -90 || lat > 90 {
			return pyramid.Bounds{}, fmt.Errorf("bounds latitude %v out of range", lat)
		}
	}
	if south > north {
		return pyramid.Bounds{}, fmt.Errorf("bounds south %v is above north %v", south, north)
	}

	minX, minY := pyramid.LonLatToMercator(west, south)
	maxX, maxY := pyramid.LonLatToMercator(east, north)
	if west > east {
		minX, maxX = pyramid.WebMercator.MinX, pyramid.WebMercator.MaxX
	}
	return pyramid.Bounds{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}, nil
}

// URL returns the URL of a. The column is wrapped; with several templates
// one is picked by (column + row) mod count so requests spread over hosts.
func (ts *Tileset) URL(a pyramid.Address) string {
	w := a.Wrapped()
	tmpl := ts.Templates[(w.Column+w.Row)%len(ts.Templates)]
	return tmpl.Expand(w, ts.Scheme, ts.Extent)
}

// Covers reports whether a intersects the data bounds.
func (ts *Tileset) Covers(a pyramid.Address) bool {
	return pyramid.TileBounds(ts.Extent, a.Wrapped()).Intersects(ts.DataBounds)
}

// ClampZoom folds z into [MinZoom, MaxZoom].
func (ts *Tileset) ClampZoom(z int) int {
	return max(ts.MinZoom, min(ts.MaxZoom, z))
}
