package main

import (
	"context"
	"flag"
	"net"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"

	"github.com/rs/zerolog/log"

	"ataxx/internal/app"
	"ataxx/internal/config"
	"ataxx/internal/logging"
)

func openBrowser(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default: // linux / bsd
		cmd = exec.Command("xdg-open", url)
	}

	_ = cmd.Start() // 不阻塞，不关心错误（某些服务器环境可能无图形界面）
}

func main() {
	configPath := flag.String("config", "", "JSON config file (default $ATAXX_CONFIG)")
	addr := flag.String("addr", "", "listen address, overrides the config (e.g. :2888)")
	webDir := flag.String("web", "", "directory with index.html / js / css")
	storage := flag.String("storage", "", "none | sqlite | mongo")
	logLevel := flag.String("log-level", "", "trace | debug | info | warn | error")
	browser := flag.Bool("open", true, "open the default browser once listening")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if *addr != "" {
		host, port, err := net.SplitHostPort(*addr)
		if err != nil {
			log.Fatal().Err(err).Str("addr", *addr).Msg("bad -addr")
		}
		if host != "" {
			cfg.Server.Host = host
		}
		if cfg.Server.Port, err = strconv.Atoi(port); err != nil {
			log.Fatal().Err(err).Str("addr", *addr).Msg("bad -addr")
		}
	}
	if *webDir != "" {
		cfg.Server.WebDir = *webDir
	}
	if *storage != "" {
		cfg.Storage.Driver = *storage
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if err := logging.Setup(cfg.Log.Level, cfg.Log.Pretty); err != nil {
		log.Fatal().Err(err).Msg("logging")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("startup")
	}

	ready := make(chan string, 1)
	go func() {
		bound, ok := <-ready
		if !ok || !*browser {
			return
		}
		_, port, _ := net.SplitHostPort(bound)
		openBrowser("http://127.0.0.1:" + port + "/")
	}()

	if err := srv.Run(ctx, ready); err != nil {
		log.Fatal().Err(err).Msg("server")
	}
	close(ready)
}
