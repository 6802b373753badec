package pyramid

import "math"

const (
	// EarthCircumference is the equatorial circumference in meters.
	EarthCircumference = 40075016.685578488
	// OriginShift is half the earth's circumference.
	OriginShift = EarthCircumference / 2.0
	// MaxLatitude is the latitude at which web mercator becomes a square.
	MaxLatitude = 85.05112877980659
)

// WebMercator is the root tile extent of EPSG:3857 in meters.
var WebMercator = Bounds{
	MinX: -OriginShift,
	MinY: -OriginShift,
	MaxX: OriginShift,
	MaxY: OriginShift,
}

// LonLatToMercator converts WGS84 degrees to EPSG:3857 meters. Latitude is
// clamped to the square web mercator range.
func LonLatToMercator(lon, lat float64) (x, y float64) {
	lat = math.Max(-MaxLatitude, math.Min(MaxLatitude, lat))
	x = lon * OriginShift / 180.0
	y = math.Log(math.Tan((90.0+lat)*math.Pi/360.0)) / (math.Pi / 180.0)
	y = y * OriginShift / 180.0
	return x, y
}
