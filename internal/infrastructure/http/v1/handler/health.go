package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jaennil/guide_helper/backend/tileview/internal/infrastructure/http/v1/dto"
)

// Healthz reports liveness. The service is alive before a tileset loads, so
// readiness is carried in the body instead of the status code.
func (h *Handler) Healthz(c *gin.Context) {
	resp := dto.HealthResponse{Status: "ok"}

	if _, err := h.viewerUseCase.Tileset(); err == nil {
		resp.TilesetLoaded = true
	}
	if f, err := h.viewerUseCase.LastFrame(); err == nil {
		resp.LastFrame = f.Number
	}

	h.RespondWithJSON(c, http.StatusOK, "alive", resp)
}

// NoRoute answers unknown paths with the usual envelope.
func (h *Handler) NoRoute(c *gin.Context) {
	h.RespondWithError(c, http.StatusNotFound, ErrRouteNotFound)
}
