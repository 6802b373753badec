package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jaennil/guide_helper/backend/tileview/internal/infrastructure/http/v1/dto"
	"github.com/jaennil/guide_helper/backend/tileview/internal/pyramid"
	"github.com/jaennil/guide_helper/backend/tileview/internal/usecase"
)

func (h *Handler) Tileset(c *gin.Context) {
	ts, err := h.viewerUseCase.Tileset()
	if err != nil {
		if errors.Is(err, usecase.ErrNoTileset) {
			h.RespondWithError(c, http.StatusServiceUnavailable, err)
			return
		}
		h.RespondWithInternalServerError(c, err)
		return
	}

	tiles := make([]string, len(ts.Templates))
	for i, t := range ts.Templates {
		tiles[i] = string(t)
	}

	resp := dto.TilesetResponse{
		Name:        ts.Name,
		Attribution: ts.Attribution,
		MinZoom:     ts.MinZoom,
		MaxZoom:     ts.MaxZoom,
		Scheme:      string(ts.Scheme),
		Tiles:       tiles,
		Bounds:      []float64{ts.DataBounds.MinX, ts.DataBounds.MinY, ts.DataBounds.MaxX, ts.DataBounds.MaxY},
	}

	h.RespondWithJSON(c, http.StatusOK, "got tileset", resp)
}

func (h *Handler) SetViewport(c *gin.Context) {
	var req dto.ViewportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, ErrFailedToDecodeRequestBody)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			h.RespondWithError(c, http.StatusUnprocessableEntity,
				fmt.Errorf("%w: %s failed on %s", ErrInvalidRequest, verrs[0].Field(), verrs[0].Tag()))
			return
		}
		h.RespondWithError(c, http.StatusUnprocessableEntity, ErrInvalidRequest)
		return
	}

	v := usecase.Viewport{
		Bounds: pyramid.Bounds{MinX: *req.MinX, MinY: *req.MinY, MaxX: *req.MaxX, MaxY: *req.MaxY},
		Scale:  req.Scale,
	}
	if err := h.viewerUseCase.SetViewport(v); err != nil {
		if errors.Is(err, usecase.ErrInvalidViewport) {
			h.RespondWithError(c, http.StatusUnprocessableEntity, err)
			return
		}
		h.RespondWithInternalServerError(c, err)
		return
	}

	requestLogger(c).Debug("viewport updated", "bounds", v.Bounds, "scale", v.Scale)

	h.RespondWithJSON(c, http.StatusOK, "viewport set", viewportResponse(v))
}

func (h *Handler) Viewport(c *gin.Context) {
	v, ok := h.viewerUseCase.Viewport()
	if !ok {
		h.RespondWithError(c, http.StatusNotFound, usecase.ErrNoViewport)
		return
	}

	h.RespondWithJSON(c, http.StatusOK, "got viewport", viewportResponse(v))
}

func (h *Handler) Frame(c *gin.Context) {
	f, err := h.viewerUseCase.LastFrame()
	if err != nil {
		if errors.Is(err, usecase.ErrNoFrame) {
			h.RespondWithError(c, http.StatusNotFound, err)
			return
		}
		h.RespondWithInternalServerError(c, err)
		return
	}

	tiles := make([]dto.TileResponse, 0, len(f.Tiles))
	for _, t := range f.Tiles {
		tiles = append(tiles, dto.TileResponse{
			URL:    t.URL,
			Z:      t.Address.Zoom,
			X:      t.Address.Column,
			Y:      t.Address.Row,
			Width:  t.Payload.Width(),
			Height: t.Payload.Height(),
		})
	}

	resp := dto.FrameResponse{
		Frame: f.Number,
		Zoom:  f.Window.Zoom,
		Tiles: tiles,
		Stats: dto.StatsResponse{
			Pending:     f.Stats.Pending,
			Ready:       f.Stats.Ready,
			Unavailable: f.Stats.Unavailable,
		},
		RenderedAt: f.RenderedAt.UTC().Format(time.RFC3339Nano),
	}

	h.RespondWithJSON(c, http.StatusOK, "got frame", resp)
}

func viewportResponse(v usecase.Viewport) dto.ViewportResponse {
	return dto.ViewportResponse{
		MinX:  v.Bounds.MinX,
		MinY:  v.Bounds.MinY,
		MaxX:  v.Bounds.MaxX,
		MaxY:  v.Bounds.MaxY,
		Scale: v.Scale,
	}
}
