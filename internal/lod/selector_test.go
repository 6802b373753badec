package lod

import (
	"math"
	"testing"

	"github.com/jaennil/guide_helper/backend/tileview/internal/pyramid"
)

func TestSelect(t *testing.T) {
	s := Selector{Footprint: 1024, MinZoom: 2, MaxZoom: 8}

	tests := []struct {
		name  string
		scale float64
		want  int
	}{
		{"exact level", 1024.0 / 16, 4},
		{"rounds down", 1024.0 / 22, 4},
		{"rounds up", 1024.0 / 23, 5},
		{"clamped low", 1024, 2},
		{"clamped high", 0.001, 8},
		{"non-positive", 0, 8},
		{"negative", -5, 8},
		{"nan", math.NaN(), 2},
		{"infinite", math.Inf(1), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Select(tt.scale); got != tt.want {
				t.Errorf("Select(%v) = %d, want %d", tt.scale, got, tt.want)
			}
		})
	}
}

func TestSelectIsMonotonic(t *testing.T) {
	s := Selector{
		Footprint: RootFootprint(pyramid.WebMercator, 256),
		MinZoom:   0,
		MaxZoom:   22,
	}

	prev := s.Select(1e-3)
	for scale := 1e-3; scale < 1e6; scale *= 1.07 {
		got := s.Select(scale)
		if got > prev {
			t.Fatalf("Select(%v) = %d, above %d for a smaller scale", scale, got, prev)
		}
		prev = got
	}
	if prev != 0 {
		t.Errorf("Select at the largest scale = %d, want 0", prev)
	}
}

func TestRootFootprint(t *testing.T) {
	got := RootFootprint(pyramid.WebMercator, 256)
	want := pyramid.EarthCircumference / 256
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("RootFootprint = %v, want %v", got, want)
	}
}
