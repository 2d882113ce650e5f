// Package handler is the serverless entry point. The platform invokes Handler
// for every request; the Fiber app is built once per instance.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/arturoeanton/chatcpt-gateway/internal/server"
	"github.com/arturoeanton/chatcpt-gateway/pkg/config"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
)

var (
	once    sync.Once
	app     http.HandlerFunc
	initErr error
)

func setup() {
	cfg := config.Load()
	if initErr = cfg.Validate(); initErr != nil {
		return
	}
	fiberApp, _, err := server.Build(context.Background(), cfg)
	if err != nil {
		initErr = err
		return
	}
	app = adaptor.FiberApp(fiberApp)
}

// Handler serves one request.
func Handler(w http.ResponseWriter, r *http.Request) {
	once.Do(setup)
	if initErr != nil {
		slog.Error("serverless init failed", "error", initErr)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Internal server error"}`))
		return
	}
	app(w, r)
}
