package dto

type ViewportRequest struct {
	MinX  *float64 `json:"min_x" validate:"required"`
	MinY  *float64 `json:"min_y" validate:"required"`
	MaxX  *float64 `json:"max_x" validate:"required"`
	MaxY  *float64 `json:"max_y" validate:"required"`
	Scale float64  `json:"scale" validate:"required,gt=0"`
}

type ViewportResponse struct {
	MinX  float64 `json:"min_x"`
	MinY  float64 `json:"min_y"`
	MaxX  float64 `json:"max_x"`
	MaxY  float64 `json:"max_y"`
	Scale float64 `json:"scale"`
}

type TilesetResponse struct {
	Name        string    `json:"name,omitempty"`
	Attribution string    `json:"attribution,omitempty"`
	MinZoom     int       `json:"minzoom"`
	MaxZoom     int       `json:"maxzoom"`
	Scheme      string    `json:"scheme"`
	Tiles       []string  `json:"tiles"`
	Bounds      []float64 `json:"bounds"`
}

type TileResponse struct {
	URL    string `json:"url"`
	Z      int    `json:"z"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type StatsResponse struct {
	Pending     int `json:"pending"`
	Ready       int `json:"ready"`
	Unavailable int `json:"unavailable"`
}

type FrameResponse struct {
	Frame      uint64         `json:"frame"`
	Zoom       int            `json:"zoom"`
	Tiles      []TileResponse `json:"tiles"`
	Stats      StatsResponse  `json:"stats"`
	RenderedAt string         `json:"rendered_at"`
}

type HealthResponse struct {
	Status        string `json:"status"`
	TilesetLoaded bool   `json:"tileset_loaded"`
	LastFrame     uint64 `json:"last_frame"`
}
