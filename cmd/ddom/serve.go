package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	ddom "github.com/declarative-dom/ddom-sub003"
	"github.com/declarative-dom/ddom-sub003/internal/config"
	"github.com/declarative-dom/ddom-sub003/internal/diag"
	"github.com/declarative-dom/ddom-sub003/pkg/declare"
	"github.com/declarative-dom/ddom-sub003/pkg/live"
	"github.com/declarative-dom/ddom-sub003/pkg/source"
)

func serveCmd() *cobra.Command {
	var (
		addr       string
		configPath string
		logLevel   string
		logFormat  string
	)

	cmd := &cobra.Command{
		Use:   "serve [document]",
		Short: "Serve a document with live updates",
		Long: `Serve a document over HTTP and WebSocket.

Every connected browser gets the current collections as HTML plus a
patch stream that follows source changes. Sessions survive reconnects
within the resume window.

The document defaults to the one named in ddom.json. Listen address
precedence: --addr, then the document's server block, then ddom.json,
then :8090.

Examples:
  ddom serve
  ddom serve board.hcl
  ddom serve --addr=:3000`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docArg := ""
			if len(args) == 1 {
				docArg = args[0]
			}
			return runServe(docArg, addr, configPath, logLevel, logFormat)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from document or ddom.json)")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file (default ddom.json in the working directory or a parent)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	cmd.Flags().StringVar(&logFormat, "log-format", "", "Log format: text, json, auto")

	return cmd
}

func runServe(docArg, addr, configPath, logLevel, logFormat string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	// Apply command-line overrides
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	docPath, err := resolveDocument(docArg, cfg)
	if err != nil {
		return err
	}

	spec, err := declare.Load(docPath)
	if err != nil {
		return err
	}

	logger := newLogger(cfg)

	liveCfg := serverConfig(cfg, spec)
	if addr != "" {
		liveCfg.Addr = addr
	}
	liveCfg.Logger = logger
	liveCfg.Engine = ddom.Config{
		ObjectStore: objectStore(cfg, spec),
		Logger:      logger,
	}

	srv, err := live.NewServer(spec, liveCfg)
	if err != nil {
		return err
	}

	// Print banner
	printBanner()
	fmt.Println("  serve")
	fmt.Println()
	info("document     %s", shortPath(docPath))
	info("collections  %d", len(spec.Collections))
	info("listening    %s", liveCfg.Addr)
	if hasS3Source(spec) && cfg.S3.AccessKey == "" {
		warn("s3 sources will use anonymous credentials")
	}
	fmt.Println()

	// Handle signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\n\n  Shutting down...")
		cancel()
	}()

	return srv.ListenAndServe(ctx)
}

// loadConfig loads the project config: an explicit path, the nearest
// ddom.json or ddom.yaml walking up from the working directory, or
// defaults when no project file exists.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	root, err := config.FindProjectRoot(wd)
	if err != nil {
		return config.New(), nil
	}
	return config.Load(root)
}

// resolveDocument picks the document path: the argument if given,
// otherwise the config's document relative to the config file.
func resolveDocument(arg string, cfg *config.Config) (string, error) {
	if arg != "" {
		return arg, nil
	}
	path := cfg.DocumentPath()
	if _, err := os.Stat(path); err != nil {
		return "", diag.New("DDM080").
			WithDetail("No document at " + path).
			WithSuggestion("Pass a document path, or run 'ddom init' to start a project")
	}
	return path, nil
}

// newLogger builds the slog logger the config asks for. Format "auto"
// picks text on a terminal and JSON otherwise.
func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel()}
	switch cfg.Log.Format {
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	case "text":
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	default:
		if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
			return slog.New(slog.NewTextHandler(os.Stderr, opts))
		}
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
}

// serverConfig maps the project config onto a live server config. The
// document's server block wins for the fields it carries.
func serverConfig(cfg *config.Config, spec *declare.Spec) *live.Config {
	lc := live.DefaultConfig()
	if cfg.Server.Addr != "" {
		lc.Addr = cfg.Server.Addr
	}
	lc.SessionTTL = cfg.ResumeWindow()
	lc.HeartbeatInterval = cfg.HeartbeatInterval()
	lc.ReadTimeout = cfg.ReadTimeout()
	lc.WriteTimeout = cfg.WriteTimeout()
	lc.ShutdownTimeout = cfg.ShutdownTimeout()
	if cfg.Server.MaxMessageSize > 0 {
		lc.MaxMessageSize = cfg.Server.MaxMessageSize
	}
	if cfg.Session.HistorySize > 0 {
		lc.HistorySize = cfg.Session.HistorySize
	}
	if cfg.Metrics.Namespace != "" {
		lc.Namespace = cfg.Metrics.Namespace
	}

	if spec.Server.Addr != "" {
		lc.Addr = spec.Server.Addr
	}
	if spec.Server.SessionTTL > 0 {
		lc.SessionTTL = spec.Server.SessionTTL
	}
	return lc
}

// objectStore builds the S3 client for documents with s3 sources. The
// endpoint and path-style settings make local MinIO work; without an
// access key the client goes anonymous.
func objectStore(cfg *config.Config, spec *declare.Spec) source.ObjectStore {
	if !hasS3Source(spec) {
		return nil
	}

	opts := s3.Options{
		Region:       cfg.S3.Region,
		UsePathStyle: cfg.S3.PathStyle,
	}
	if cfg.S3.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.S3.Endpoint)
	}
	if cfg.S3.AccessKey != "" {
		creds := aws.Credentials{
			AccessKeyID:     cfg.S3.AccessKey,
			SecretAccessKey: cfg.S3.SecretKey,
		}
		opts.Credentials = aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return creds, nil
		})
	} else {
		opts.Credentials = aws.AnonymousCredentials{}
	}
	return s3.New(opts)
}

func hasS3Source(spec *declare.Spec) bool {
	for _, src := range spec.Sources {
		if src.Kind == declare.KindS3 {
			return true
		}
	}
	return false
}

// shortPath trims the working directory prefix for display.
func shortPath(path string) string {
	wd, err := os.Getwd()
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(wd, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
