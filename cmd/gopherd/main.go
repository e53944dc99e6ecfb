package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/marmos91/gopherd/internal/logger"
	"github.com/marmos91/gopherd/pkg/config"
	"github.com/marmos91/gopherd/pkg/server"
	storebadger "github.com/marmos91/gopherd/pkg/store/badger"
)

const usage = `gopherd - Gopher protocol server

Usage:
  gopherd <command> [flags]

Commands:
  start    Start the server
  init     Write a default configuration file
  schema   Write the JSON schema of the configuration file
  import   Load a directory tree into a badger mount store

Run 'gopherd <command> -h' for command flags.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	// A .env file next to the binary may supply GOPHERD_* overrides.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env: %v\n", err)
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "start":
		err = runStart(args)
	case "init":
		err = runInit(args)
	case "schema":
		err = runSchema(args)
	case "import":
		err = runImport(args)
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n%s", cmd, usage)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runStart(args []string) error {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file (default: $XDG_CONFIG_HOME/gopherd/config.yaml)")
	_ = fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	closeLog, err := setupLogging(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	logger.Info("gopherd starting: advertising %s:%d", cfg.Gopher.Host, cfg.Gopher.Port)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	metricsResult := config.InitializeMetrics(cfg)

	app, err := config.BuildApplication(ctx, cfg, metricsResult.StoreMetrics)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("Error closing stores: %v", err)
		}
	}()

	opts := []server.Option{server.WithStopTimeout(cfg.Server.ShutdownTimeout)}
	if metricsResult.Server != nil {
		opts = append(opts, server.WithMetricsServer(metricsResult.Server))
	}
	srv := server.New(app.Application, opts...)

	adapters, err := config.CreateAdapters(cfg, metricsResult.GopherMetrics)
	if err != nil {
		return err
	}
	for _, a := range adapters {
		if err := srv.AddAdapter(a); err != nil {
			return fmt.Errorf("failed to add %s adapter: %w", a.Protocol(), err)
		}
	}

	logger.Info("Server is running. Press Ctrl+C to stop.")

	if err := srv.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func setupLogging(cfg config.LoggingConfig) (func() error, error) {
	logger.SetLevel(cfg.Level)
	if err := logger.SetFormat(cfg.Format); err != nil {
		return nil, err
	}

	w, closeFn, err := logger.OpenOutput(cfg.Output)
	if err != nil {
		return nil, err
	}
	logger.SetOutput(w)
	return closeFn, nil
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	force := fs.Bool("force", false, "Overwrite an existing config file")
	path := fs.String("config", "", "Write to this path instead of the default location")
	_ = fs.Parse(args)

	if *path != "" {
		if err := config.InitConfigToPath(*path, *force); err != nil {
			return err
		}
		fmt.Printf("Configuration written to %s\n", *path)
		return nil
	}

	written, err := config.InitConfig(*force)
	if err != nil {
		return err
	}
	fmt.Printf("Configuration written to %s\n", written)
	return nil
}

func runSchema(args []string) error {
	fs := flag.NewFlagSet("schema", flag.ExitOnError)
	_ = fs.Parse(args)

	out := "config.schema.json"
	if fs.NArg() > 0 {
		out = fs.Arg(0)
	}

	schema, err := config.Schema()
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, schema, 0644); err != nil {
		return fmt.Errorf("failed to write schema file: %w", err)
	}

	fmt.Printf("JSON schema written to %s\n", out)
	return nil
}

func runImport(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	db := fs.String("db", "", "BadgerDB directory (created if missing)")
	from := fs.String("from", "", "Directory tree to import")
	prefix := fs.String("prefix", "", "Key prefix, matching the mount's badger.prefix")
	logLevel := fs.String("log-level", "INFO", "Log level (DEBUG, INFO, WARN, ERROR)")
	_ = fs.Parse(args)

	if *db == "" || *from == "" {
		fs.Usage()
		return fmt.Errorf("--db and --from are required")
	}
	logger.SetLevel(*logLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	st, err := storebadger.New(ctx, storebadger.Config{Path: *db, Prefix: *prefix})
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	n, err := st.Import(ctx, *from)
	if err != nil {
		return fmt.Errorf("import stopped after %d file(s): %w", n, err)
	}

	logger.Info("Imported %d file(s) from %s into %s", n, *from, *db)
	return nil
}
