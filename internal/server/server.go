// Package server wires the HTTP and websocket surface: the index page, the
// shared-ticker websocket endpoint, and the observability endpoints.
package server

import (
	"context"
	"fmt"
	"html/template"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/RichD/stock-audible/internal/broadcast"
	"github.com/RichD/stock-audible/internal/config"
	"github.com/RichD/stock-audible/internal/ticker"
	"github.com/RichD/stock-audible/web"
)

type Server struct {
	echo          *echo.Echo
	config        *config.Config
	hub           *broadcast.Hub
	scheduler     *ticker.Scheduler
	store         *ticker.Store
	indexTemplate *template.Template
}

func NewServer(cfg *config.Config, hub *broadcast.Hub, scheduler *ticker.Scheduler, store *ticker.Store) (*Server, error) {
	indexTmpl, err := template.ParseFS(web.Templates, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse index template: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	srv := &Server{
		echo:          e,
		config:        cfg,
		hub:           hub,
		scheduler:     scheduler,
		store:         store,
		indexTemplate: indexTmpl,
	}

	srv.registerRoutes()

	return srv, nil
}

func (s *Server) Start() error {
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
