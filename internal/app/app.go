package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"ataxx/internal/config"
	"ataxx/internal/server/game"
	httpserver "ataxx/internal/server/http"
	"ataxx/internal/store"
)

// Server wires config, storage, sessions and the HTTP layer together.
type Server struct {
	cfg     *config.Config
	records store.Store
	games   *game.Manager
	hub     *httpserver.Hub
	http    *http.Server
}

func New(ctx context.Context, cfg *config.Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	records, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	games := game.NewManager(
		game.WithStore(records),
		game.WithMaxDepth(cfg.Engine.MaxDepth),
	)
	hub := httpserver.NewHub(games)
	h := httpserver.NewHandler(games,
		httpserver.WithRecords(records),
		httpserver.WithDefaultTier(cfg.Engine.DefaultTier),
	)
	router := httpserver.NewRouter(h, hub, cfg.Server.WebDir, cfg.Server.MobileWebDir)

	return &Server{
		cfg:     cfg,
		records: records,
		games:   games,
		hub:     hub,
		http: &http.Server{
			Addr:        cfg.Addr(),
			Handler:     httpserver.WithCORS(router, cfg.Server.AllowedOrigins),
			ReadTimeout: 15 * time.Second,
			// AI 搜索可能较久
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}, nil
}

func (s *Server) Games() *game.Manager { return s.games }

// Run serves until ctx is cancelled, then shuts down gracefully. ready, when not nil, receives
// the bound address once the listener is up.
func (s *Server) Run(ctx context.Context, ready chan<- string) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.http.Addr, err)
	}
	addr := ln.Addr().String()
	log.Info().Str("addr", addr).Str("web", s.cfg.Server.WebDir).Str("storage", s.cfg.Storage.Driver).Msg("server-listening")
	if ready != nil {
		ready <- addr
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.hub.Run(gctx) })
	g.Go(func() error {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("server-shutting-down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	if s.records != nil {
		if cerr := s.records.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	log.Info().Msg("server-stopped")
	return err
}
