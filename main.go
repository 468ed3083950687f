package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/fatih/color"
	"golang.org/x/sync/errgroup"
)

type cliFlags struct {
	configFile       *string
	port             *int
	root             *string
	credentialsFile  *string
	redirectLocation *string
	readTimeout      *time.Duration
	writeTimeout     *time.Duration
	maxConnections   *int
	explicitErrors   *bool
	metricsAddr      *string
}

func defineFlags(fs *flag.FlagSet) *cliFlags {
	return &cliFlags{
		configFile:       fs.String("config", "", "TOML config file"),
		port:             fs.Int("port", 8080, "port number"),
		root:             fs.String("root", "public", "directory to serve"),
		credentialsFile:  fs.String("credentials", "public/login.txt", "file with username:password lines"),
		redirectLocation: fs.String("redirect", defaultRedirectLocation, "Location sent for GET /redirect"),
		readTimeout:      fs.Duration("read-timeout", 30*time.Second, "request read timeout"),
		writeTimeout:     fs.Duration("write-timeout", 30*time.Second, "response write timeout"),
		maxConnections:   fs.Int("max-connections", 0, "concurrent connection limit (0 = unlimited)"),
		explicitErrors:   fs.Bool("explicit-errors", false, "answer malformed requests with 400 and unsupported ones with 501"),
		metricsAddr:      fs.String("metrics", "", "address for the Prometheus /metrics listener"),
	}
}

// loadConfig defines the flags on fs, parses args and layers defaults, the
// config file, positional arguments (<port> <public_folder>) and explicitly
// set flags, in that order.
func loadConfig(fs *flag.FlagSet, args []string) (Config, error) {
	f := defineFlags(fs)
	cfg := DefaultConfig()
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if *f.configFile != "" {
		if err := LoadConfigFile(*f.configFile, &cfg); err != nil {
			return cfg, err
		}
	}

	switch rest := fs.Args(); len(rest) {
	case 0:
	case 2:
		p, err := strconv.Atoi(rest[0])
		if err != nil {
			return cfg, fmt.Errorf("invalid port %q", rest[0])
		}
		cfg.Port = p
		cfg.Root = rest[1]
	default:
		return cfg, fmt.Errorf("usage: %s [flags] [<port> <public_folder>]", fs.Name())
	}

	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "port":
			cfg.Port = *f.port
		case "root":
			cfg.Root = *f.root
		case "credentials":
			cfg.CredentialsFile = *f.credentialsFile
		case "redirect":
			cfg.RedirectLocation = *f.redirectLocation
		case "read-timeout":
			cfg.ReadTimeout.Duration = *f.readTimeout
		case "write-timeout":
			cfg.WriteTimeout.Duration = *f.writeTimeout
		case "max-connections":
			cfg.MaxConnections = *f.maxConnections
		case "explicit-errors":
			cfg.ExplicitErrors = *f.explicitErrors
		case "metrics":
			cfg.MetricsAddr = *f.metricsAddr
		}
	})
	cfg.applyDefaults()
	return cfg, cfg.Validate()
}

func serve(ctx context.Context, cfg Config) error {
	srv := NewServer(cfg, NewSite(cfg))
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(ctx)
	})
	if cfg.MetricsAddr != "" {
		ms := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsHandler()}
		g.Go(func() error {
			if err := ms.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			return ms.Close()
		})
	}
	return g.Wait()
}

func banner(cfg Config) {
	color.New(color.FgGreen, color.Bold).Printf("Serving %s on port %d\n", cfg.Root, cfg.Port)
	color.New(color.FgCyan).Printf("Credentials: %s\n", cfg.CredentialsFile)
	if cfg.MaxConnections > 0 {
		color.New(color.FgCyan).Printf("Connection limit: %d\n", cfg.MaxConnections)
	}
	if cfg.MetricsAddr != "" {
		color.New(color.FgCyan).Printf("Metrics: http://%s/metrics\n", cfg.MetricsAddr)
	}
	fmt.Println("Press Ctrl+C to stop")
}

func main() {
	cfg, err := loadConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("E %v", err)
	}
	banner(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := serve(ctx, cfg); err != nil {
		log.Fatalf("E %v", err)
	}
	log.Printf("I server stopped")
}
