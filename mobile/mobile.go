package mobile

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/rs/zerolog/log"

	"ataxx/internal/app"
	"ataxx/internal/config"
	"ataxx/internal/logging"
)

var (
	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}
)

// StartServer starts the local HTTP server in the background and returns once it listens.
// webDir: physical path to the extracted web assets
// dbPath: SQLite file for finished games; empty disables recording
// port: port to listen on, e.g. "2888"
func StartServer(webDir string, dbPath string, port string) error {
	mu.Lock()
	defer mu.Unlock()
	if cancel != nil {
		return fmt.Errorf("server already running")
	}

	p, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("bad port %q: %w", port, err)
	}
	if err := logging.Setup("info", false); err != nil {
		return err
	}

	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = p
	cfg.Server.WebDir = webDir
	if dbPath != "" {
		cfg.Storage.Driver = config.DriverSQLite
		cfg.Storage.SQLitePath = dbPath
	}

	ctx, stop := context.WithCancel(context.Background())
	srv, err := app.New(ctx, cfg)
	if err != nil {
		stop()
		return err
	}

	// Run in background so it doesn't block the Android UI thread
	ready := make(chan string, 1)
	failed := make(chan error, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := srv.Run(ctx, ready); err != nil {
			log.Error().Err(err).Msg("mobile-server")
			failed <- err
		}
	}()

	select {
	case <-ready:
	case err := <-failed:
		stop()
		return err
	}
	cancel, stopped = stop, done
	return nil
}

// StopServer shuts the server down and waits for it; a no-op when nothing runs.
func StopServer() {
	mu.Lock()
	defer mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-stopped
	cancel, stopped = nil, nil
}
