package tileset

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jaennil/guide_helper/backend/tileview/internal/pyramid"
)

var ErrInvalidTemplate = errors.New("invalid url template")

// Template is a tile URL with placeholders:
//
//	{z} {x} {y}        zoom, wrapped column, row (flipped for tms)
//	{-y}               row counted from the south
//	{prefix}           hex shard: hex(x mod 16) followed by hex(y mod 16)
//	{quadkey}          quadtree key
//	{bbox-epsg-3857}   minx,miny,maxx,maxy in meters
type Template string

// ParseTemplate checks that raw can address every tile.
func ParseTemplate(raw string) (Template, error) {
	hasXYZ := strings.Contains(raw, "{z}") && strings.Contains(raw, "{x}") &&
		(strings.Contains(raw, "{y}") || strings.Contains(raw, "{-y}"))
	if !hasXYZ && !strings.Contains(raw, "{quadkey}") && !strings.Contains(raw, "{bbox-epsg-3857}") {
		return "", fmt.Errorf("%w: %q addresses no tile placeholder", ErrInvalidTemplate, raw)
	}
	return Template(raw), nil
}

// Expand fills the placeholders for the wrapped address a.
func (t Template) Expand(a pyramid.Address, scheme Scheme, extent pyramid.Bounds) string {
	flipped := pyramid.GridSize(a.Zoom) - 1 - a.Row
	y := a.Row
	if scheme == SchemeTMS {
		y = flipped
	}

	result := string(t)
	result = strings.ReplaceAll(result, "{z}", strconv.Itoa(a.Zoom))
	result = strings.ReplaceAll(result, "{x}", strconv.Itoa(a.Column))
	result = strings.ReplaceAll(result, "{y}", strconv.Itoa(y))
	result = strings.ReplaceAll(result, "{-y}", strconv.Itoa(flipped))
	if strings.Contains(result, "{prefix}") {
		result = strings.ReplaceAll(result, "{prefix}", fmt.Sprintf("%x%x", a.Column%16, y%16))
	}
	if strings.Contains(result, "{quadkey}") {
		result = strings.ReplaceAll(result, "{quadkey}", pyramid.Quadkey(a))
	}
	if strings.Contains(result, "{bbox-epsg-3857}") {
		b := pyramid.TileBounds(extent, a)
		bbox := strings.Join([]string{
			formatFloat(b.MinX), formatFloat(b.MinY), formatFloat(b.MaxX), formatFloat(b.MaxY),
		}, ",")
		result = strings.ReplaceAll(result, "{bbox-epsg-3857}", bbox)
	}
	return result
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
