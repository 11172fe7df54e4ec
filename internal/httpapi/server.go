package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"carsales/internal/domain"
)

type Server struct {
	HTTPServer *http.Server
}

// NewEngine returns a gin engine with the API routes registered.
func NewEngine(assistant Assistant, store domain.AssetStore) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	NewHandler(assistant, store).RegisterRoutes(r)
	return r
}

func NewServer(addr string, assistant Assistant, store domain.AssetStore) *Server {
	return &Server{HTTPServer: &http.Server{
		Addr:         addr,
		Handler:      NewEngine(assistant, store),
		ReadTimeout:  20 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.HTTPServer.Shutdown(ctx)
}
