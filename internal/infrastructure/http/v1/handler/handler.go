package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jaennil/guide_helper/backend/tileview/internal/usecase"
	"github.com/jaennil/guide_helper/backend/tileview/pkg/logger"
)

type response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type Handler struct {
	validate      *validator.Validate
	viewerUseCase *usecase.ViewerUseCase
}

func NewHandler(v *validator.Validate, uc *usecase.ViewerUseCase) *Handler {
	return &Handler{
		validate:      v,
		viewerUseCase: uc,
	}
}

func (h *Handler) RespondWithInternalServerError(c *gin.Context, err error) {
	l := requestLogger(c)
	l.Error("internal http_server error",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"ip", c.ClientIP(),
		"error", err,
	)

	h.RespondWithError(c, http.StatusInternalServerError, InternalServerError)
}

func (h *Handler) RespondWithJSON(c *gin.Context, code int, message string, data any) {
	success := code < 400

	r := response{
		Success: success,
		Message: message,
		Data:    data,
	}

	c.JSON(code, r)
}

func (h *Handler) RespondWithError(c *gin.Context, code int, err error) {
	h.RespondWithJSON(c, code, err.Error(), nil)
}

func requestLogger(c *gin.Context) logger.Logger {
	if l, ok := c.Get("logger"); ok {
		if l, ok := l.(logger.Logger); ok {
			return l
		}
	}
	return logger.FromContext(c.Request.Context())
}
