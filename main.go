package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/akamensky/argparse"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/screepers/screeps-proxy/handlers"
	"github.com/screepers/screeps-proxy/pkg/archive"
	"github.com/screepers/screeps-proxy/pkg/config"
	"github.com/screepers/screeps-proxy/pkg/rewrite"
	"github.com/screepers/screeps-proxy/pkg/routecodec"
	"github.com/screepers/screeps-proxy/pkg/serverlist"
)

func main() {
	parser := argparse.NewParser("screeps-proxy", "Serves the bundled Screeps client locally and proxies it to arbitrary backends")
	packagePath := parser.String("p", "package", &argparse.Options{
		Help: "Path to the client package.nw archive; probed from the Steam install when omitted"})
	host := parser.String("", "host", &argparse.Options{
		Default: "localhost", Help: "Local listen host"})
	port := parser.Int("", "port", &argparse.Options{
		Default: 8080, Help: "Local listen port"})
	backend := parser.String("", "backend", &argparse.Options{
		Help: "Pin every request to this backend origin, disabling the /(origin)/path addressing scheme"})
	internalBackend := parser.String("", "internal-backend", &argparse.Options{
		Help: "Origin used for outbound calls in place of the public backend origin"})
	beautify := parser.Flag("", "beautify", &argparse.Options{
		Help: "Pretty-print served scripts"})
	serverList := parser.String("", "server-list", &argparse.Options{
		Default: "servers.yml", Help: "YAML file listing servers for the landing page"})

	if err := parser.Parse(os.Args); err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, "could not initialize logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg := config.Config{
		Host:            *host,
		Port:            *port,
		Backend:         strings.TrimRight(*backend, "/"),
		InternalBackend: strings.TrimRight(*internalBackend, "/"),
		Beautify:        *beautify,
		ServerListPath:  *serverList,
	}

	pkgPath := *packagePath
	if pkgPath == "" {
		pkgPath, err = findPackage()
		if err != nil {
			logger.Fatal("client package not found; pass --package", zap.Error(err))
		}
	}

	store, err := archive.Open(pkgPath)
	if err != nil {
		logger.Fatal("loading client package", zap.Error(err))
	}
	defer store.Close()

	servers, err := serverlist.Load(cfg.ServerListPath)
	if err != nil {
		logger.Fatal("loading server list", zap.Error(err))
	}

	codec := routecodec.New(cfg.Backend)
	pipeline := rewrite.New(cfg, logger)
	dispatcher := handlers.NewDispatcher(cfg, codec, store, pipeline, logger)
	sockets := handlers.NewWebSocketProxy(cfg, codec, logger)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(sockets.Middleware)
	if !codec.Override() {
		app.Get("/", handlers.Landing(servers))
	}
	app.All("/*", dispatcher.Handle)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		logger.Info("shutting down")
		// Closes the listener; in-flight requests run to completion.
		if err := app.Shutdown(); err != nil {
			logger.Warn("shutdown", zap.Error(err))
		}
	}()

	logger.Info("listening",
		zap.String("addr", cfg.LocalHost()),
		zap.String("package", pkgPath),
		zap.String("backend", cfg.Backend))
	if err := app.Listen(cfg.LocalHost()); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

// findPackage probes the conventional Steam install locations for the
// client archive.
func findPackage() (string, error) {
	home, _ := os.UserHomeDir()

	var candidates []string
	switch runtime.GOOS {
	case "darwin":
		candidates = []string{
			filepath.Join(home, "Library/Application Support/Steam/steamapps/common/Screeps/package.nw"),
		}
	case "windows":
		candidates = []string{
			`C:\Program Files (x86)\Steam\steamapps\common\Screeps\package.nw`,
			`C:\Program Files\Steam\steamapps\common\Screeps\package.nw`,
		}
	default:
		candidates = []string{
			filepath.Join(home, ".steam/steam/steamapps/common/Screeps/package.nw"),
			filepath.Join(home, ".local/share/Steam/steamapps/common/Screeps/package.nw"),
		}
	}

	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", errors.New("no package.nw under " + strings.Join(candidates, ", "))
}
