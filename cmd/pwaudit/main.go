package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/ericfisherdev/pwaudit/internal/adapter/driven/csvsource"
	"github.com/ericfisherdev/pwaudit/internal/adapter/driven/report"
	httphandler "github.com/ericfisherdev/pwaudit/internal/adapter/driving/http"
	"github.com/ericfisherdev/pwaudit/internal/config"
)

const usage = `usage:
  pwaudit [run] [input.csv]   evaluate a CSV file and write reports
  pwaudit serve               serve the HTTP API`

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

// parseCommand splits args into a subcommand and its arguments. run is the
// default, so a first argument that is neither a command nor a flag is taken
// as run's input path.
func parseCommand(args []string) (string, []string) {
	if len(args) == 0 {
		return "run", nil
	}
	switch first := args[0]; {
	case first == "run", first == "serve", first == "help", strings.HasPrefix(first, "-"):
		return first, args[1:]
	default:
		return "run", args
	}
}

func run(args []string) error {
	cmd, args := parseCommand(args)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case "run":
		return runAudit(ctx, cfg, args)
	case "serve":
		return serve(ctx, cfg)
	case "help", "-h", "--help":
		fmt.Println(usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
}

// runAudit evaluates one CSV file, writes the configured reports and prints a
// summary to stdout.
func runAudit(ctx context.Context, cfg *config.Config, args []string) error {
	input := cfg.InputPath
	if len(args) > 0 {
		input = args[0]
	}
	if input == "" {
		return fmt.Errorf("no input file: pass one or set PWAUDIT_INPUT_PATH\n%s", usage)
	}

	a, err := newApp(cfg, slog.Default())
	if err != nil {
		return err
	}
	defer a.close()

	rep, err := a.audit.Run(ctx, csvsource.New(input))
	if rep != nil {
		if werr := report.WriteSummary(os.Stdout, rep); werr != nil {
			slog.Error("write summary", "error", werr)
		}
	}
	return err
}

func serve(ctx context.Context, cfg *config.Config) error {
	a, err := newApp(cfg, slog.Default())
	if err != nil {
		return err
	}
	defer a.close()

	// Warm the corpus so the first request does not pay for the load.
	if cfg.HasCorpus() {
		if _, err := a.corpora.Current(ctx); err != nil {
			if cfg.CorpusRequired {
				return err
			}
			slog.Warn("corpus unavailable at startup", "source", cfg.CorpusSource, "error", err)
		}
	}

	go a.corpora.RefreshEvery(ctx, cfg.CorpusRefreshInterval)

	h := httphandler.NewHandler(a.audit, a.corpora, a.archive, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httphandler.NewServeMux(h, slog.Default()),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
