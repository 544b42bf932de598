package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github/itish2003/pdfquery/config"
	"github/itish2003/pdfquery/controller"
	"github/itish2003/pdfquery/services"
	"github/itish2003/pdfquery/views"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
)

// Version is set at build time.
var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if err := newApp(logger).Run(ctx, os.Args); err != nil && !errors.Is(err, context.Canceled) {
		logger.Errorf("FATAL: %v", err)
		os.Exit(1)
	}
}

// newApp builds the command line. Without a subcommand it serves the web page.
func newApp(logger *logrus.Logger) *cli.Command {
	return &cli.Command{
		Name:    "pdfquery",
		Usage:   "Upload a PDF to the question-answering service and query it",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "service-url",
				Usage: "Base URL of the PDF service (overrides PDFQUERY_SERVICE_URL)",
			},
			&cli.DurationFlag{
				Name:  "http-timeout",
				Usage: "Timeout for calls to the PDF service, 0 for none (overrides PDFQUERY_HTTP_TIMEOUT)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn or error (overrides LOG_LEVEL)",
			},
			&cli.StringFlag{
				Name:  "listen-addr",
				Usage: "Address the web front-end listens on (overrides PDFQUERY_LISTEN_ADDR)",
			},
			&cli.DurationFlag{
				Name:  "session-ttl",
				Usage: "How long an idle browser session is kept (overrides PDFQUERY_SESSION_TTL)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "web",
				Usage:  "Serve the upload/query page and its JSON API (default)",
				Action: webAction(logger),
			},
			{
				Name:   "shell",
				Usage:  "Upload and query from the terminal",
				Action: shellAction(logger),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Present() {
				return fmt.Errorf("unknown command %q, see --help", cmd.Args().First())
			}
			return webAction(logger)(ctx, cmd)
		},
	}
}

// loadConfig reads the environment and config file, then applies the flags
// that were given on the command line.
func loadConfig(cmd *cli.Command, logger *logrus.Logger) (*config.Config, error) {
	cfg, err := config.Load(logger, func(c *config.Config) {
		if cmd.IsSet("service-url") {
			c.ServiceURL = cmd.String("service-url")
		}
		if cmd.IsSet("http-timeout") {
			c.HTTPTimeout = cmd.Duration("http-timeout")
		}
		if cmd.IsSet("log-level") {
			c.LogLevel = cmd.String("log-level")
		}
		if cmd.IsSet("listen-addr") {
			c.ListenAddr = cmd.String("listen-addr")
		}
		if cmd.IsSet("session-ttl") {
			c.SessionTTL = cmd.Duration("session-ttl")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newPDFService(cfg *config.Config, logger *logrus.Logger) services.PDFService {
	// Timeout is zero unless configured: calls to the service may take as
	// long as the service needs.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}
	return services.NewPDFService(httpClient, cfg.ServiceURL, logger)
}

func webAction(logger *logrus.Logger) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd, logger)
		if err != nil {
			return err
		}
		logger.SetLevel(cfg.Level())
		return runWeb(ctx, cfg, newPDFService(cfg, logger), logger)
	}
}

func shellAction(logger *logrus.Logger) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd, logger)
		if err != nil {
			return err
		}
		// Keep log lines from interleaving with the shell unless a level was configured.
		logger.SetLevel(cfg.LevelOr(logrus.WarnLevel))

		root := cmd.Root()
		view := views.NewConsoleView(root.Writer)
		gate := services.NewUploadGate(newPDFService(cfg, logger), view, logger)
		shell := controller.NewShellController(gate, view, root.Reader, root.Writer, logger)
		return shell.Run(ctx)
	}
}

func runWeb(ctx context.Context, cfg *config.Config, pdfService services.PDFService, logger *logrus.Logger) error {
	if logger.GetLevel() < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	sessions := services.NewSessionStore(pdfService, cfg.SessionTTL, logger)
	go sessions.Run(ctx, time.Minute)

	webController := controller.NewWebController(sessions, logger, Version)
	router := controller.NewRouter(webController, logger)

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("Server shutdown did not complete cleanly")
		}
	}()

	logger.Infof("pdfquery web front-end starting on %s", cfg.ListenAddr)
	logger.Infof("External service: %s", cfg.ServiceURL)
	logger.Infof("Health check available at: %s/health", cfg.ListenAddr)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}
