package http_server

import (
	"context"
	"log"
	"net"
	"net/http"

	"github.com/jaennil/guide_helper/backend/tileview/pkg/config"
)

// NewServer builds the viewer's API server. Request contexts derive from ctx,
// so in-flight handlers observe shutdown. errorLog may be nil.
func NewServer(ctx context.Context, cfg config.Server, handler http.Handler, errorLog *log.Logger) *http.Server {
	return &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		ErrorLog:          errorLog,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}
}
