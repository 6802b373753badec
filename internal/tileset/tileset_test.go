package tileset

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/jaennil/guide_helper/backend/tileview/internal/pyramid"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	ts, err := Parse([]byte(`{"tiles":["https://a.example.com/{z}/{x}/{y}.png"]}`))
	require.NoError(t, err)
	require.Equal(t, DefaultMinZoom, ts.MinZoom)
	require.Equal(t, DefaultMaxZoom, ts.MaxZoom)
	require.Equal(t, SchemeXYZ, ts.Scheme)
	require.Equal(t, pyramid.WebMercator, ts.Extent)
	require.Equal(t, pyramid.WebMercator, ts.DataBounds)
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{"tiles":`},
		{"missing tiles", `{"minzoom":0}`},
		{"empty tiles", `{"tiles":[]}`},
		{"empty template", `{"tiles":[""]}`},
		{"template without placeholders", `{"tiles":["https://example.com/tile.png"]}`},
		{"zoom out of range", `{"tiles":["{z}/{x}/{y}"],"maxzoom":31}`},
		{"negative zoom", `{"tiles":["{z}/{x}/{y}"],"minzoom":-1}`},
		{"min above max", `{"tiles":["{z}/{x}/{y}"],"minzoom":5,"maxzoom":3}`},
		{"unknown scheme", `{"tiles":["{z}/{x}/{y}"],"scheme":"wmts"}`},
		{"unknown crs", `{"tiles":["{z}/{x}/{y}"],"crs":"EPSG:4326"}`},
		{"short bounds", `{"tiles":["{z}/{x}/{y}"],"bounds":[0,0,1]}`},
		{"south above north", `{"tiles":["{z}/{x}/{y}"],"bounds":[0,10,1,5]}`},
		{"longitude out of range", `{"tiles":["{z}/{x}/{y}"],"bounds":[-190,0,1,5]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			require.Truef(t, errors.Is(err, ErrInvalidMetadata), "%v", err)
		})
	}
}

func TestURLPlaceholders(t *testing.T) {
	shift := strconv.FormatFloat(pyramid.OriginShift, 'f', -1, 64)

	tests := []struct {
		name   string
		tmpl   string
		scheme Scheme
		addr   pyramid.Address
		want   string
	}{
		{"xyz", "https://t/{z}/{x}/{y}.png", SchemeXYZ, pyramid.Address{Zoom: 3, Column: 5, Row: 1}, "https://t/3/5/1.png"},
		{"wrapped column", "https://t/{z}/{x}/{y}.png", SchemeXYZ, pyramid.Address{Zoom: 2, Column: -1, Row: 0}, "https://t/2/3/0.png"},
		{"tms flips y", "https://t/{z}/{x}/{y}.png", SchemeTMS, pyramid.Address{Zoom: 3, Column: 5, Row: 1}, "https://t/3/5/6.png"},
		{"explicit flip", "https://t/{z}/{x}/{-y}.png", SchemeXYZ, pyramid.Address{Zoom: 3, Column: 5, Row: 1}, "https://t/3/5/6.png"},
		{"prefix", "https://t/{prefix}/{z}/{x}/{y}", SchemeXYZ, pyramid.Address{Zoom: 6, Column: 27, Row: 45}, "https://t/bd/6/27/45"},
		{"quadkey", "https://t/{quadkey}.jpeg", SchemeXYZ, pyramid.Address{Zoom: 3, Column: 3, Row: 5}, "https://t/213.jpeg"},
		{"bbox", "https://t/wms?bbox={bbox-epsg-3857}", SchemeXYZ, pyramid.Address{Zoom: 1, Column: 1, Row: 0}, "https://t/wms?bbox=0,0," + shift + "," + shift},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, err := New(Metadata{Tiles: []string{tt.tmpl}, Scheme: string(tt.scheme)})
			require.NoError(t, err)
			require.Equal(t, tt.want, ts.URL(tt.addr))
		})
	}
}

func TestURLSpreadsTemplates(t *testing.T) {
	ts, err := New(Metadata{Tiles: []string{
		"https://a/{z}/{x}/{y}",
		"https://b/{z}/{x}/{y}",
		"https://c/{z}/{x}/{y}",
	}})
	require.NoError(t, err)

	require.Equal(t, "https://a/4/0/0", ts.URL(pyramid.Address{Zoom: 4, Column: 0, Row: 0}))
	require.Equal(t, "https://b/4/1/0", ts.URL(pyramid.Address{Zoom: 4, Column: 1, Row: 0}))
	require.Equal(t, "https://c/4/1/1", ts.URL(pyramid.Address{Zoom: 4, Column: 1, Row: 1}))
	// column -15 wraps to 1 at zoom 4
	require.Equal(t, "https://c/4/1/1", ts.URL(pyramid.Address{Zoom: 4, Column: -15, Row: 1}))
}

func TestCovers(t *testing.T) {
	ts, err := New(Metadata{
		Tiles:  []string{"https://t/{z}/{x}/{y}"},
		Bounds: []float64{0, 0, 10, 10},
	})
	require.NoError(t, err)

	require.True(t, ts.Covers(pyramid.Address{Zoom: 0}))
	require.True(t, ts.Covers(pyramid.Address{Zoom: 1, Column: 1, Row: 0}))
	require.False(t, ts.Covers(pyramid.Address{Zoom: 1, Column: 0, Row: 0}))
	require.False(t, ts.Covers(pyramid.Address{Zoom: 1, Column: 1, Row: 1}))
	// the east copy of the north-east quadrant
	require.True(t, ts.Covers(pyramid.Address{Zoom: 1, Column: 3, Row: 0}))
}

func TestCoversAntimeridianBounds(t *testing.T) {
	ts, err := New(Metadata{
		Tiles:  []string{"https://t/{z}/{x}/{y}"},
		Bounds: []float64{170, -10, -170, 10},
	})
	require.NoError(t, err)
	require.True(t, ts.Covers(pyramid.Address{Zoom: 1, Column: 0, Row: 1}))
	require.True(t, ts.Covers(pyramid.Address{Zoom: 1, Column: 1, Row: 0}))
}

type staticSource map[string][]byte

func (s staticSource) Fetch(_ context.Context, url string) ([]byte, error) {
	data, ok := s[url]
	if !ok {
		return nil, errors.New("not found")
	}
	return data, nil
}

func TestLoadResolvesRelativeTemplates(t *testing.T) {
	src := staticSource{
		"https://maps.example.com/styles/base/tiles.json": []byte(`{
			"tiles": ["{z}/{x}/{y}.png", "/abs/{z}/{x}/{y}.png", "https://cdn.example.com/{z}/{x}/{y}.png"],
			"minzoom": 2,
			"maxzoom": 14,
			"attribution": "example"
		}`),
	}

	ts, err := Load(context.Background(), src, "https://maps.example.com/styles/base/tiles.json")
	require.NoError(t, err)
	require.Equal(t, []Template{
		"https://maps.example.com/styles/base/{z}/{x}/{y}.png",
		"https://maps.example.com/abs/{z}/{x}/{y}.png",
		"https://cdn.example.com/{z}/{x}/{y}.png",
	}, ts.Templates)
	require.Equal(t, 2, ts.MinZoom)
	require.Equal(t, 14, ts.MaxZoom)
	require.Equal(t, "example", ts.Attribution)
}

func TestLoadPropagatesErrors(t *testing.T) {
	_, err := Load(context.Background(), staticSource{}, "https://missing/tiles.json")
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrInvalidMetadata))

	src := staticSource{"https://bad/tiles.json": []byte(`{"name":"no tiles"}`)}
	_, err = Load(context.Background(), src, "https://bad/tiles.json")
	require.Truef(t, errors.Is(err, ErrInvalidMetadata), "%v", err)
}

func TestClampZoom(t *testing.T) {
	ts, err := Parse([]byte(`{"tiles":["{z}/{x}/{y}"],"minzoom":3,"maxzoom":9}`))
	require.NoError(t, err)
	require.Equal(t, 3, ts.ClampZoom(0))
	require.Equal(t, 5, ts.ClampZoom(5))
	require.Equal(t, 9, ts.ClampZoom(12))
}
