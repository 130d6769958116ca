// Command gusto-mcp exposes the Gusto API as MCP tools.
//
// Usage:
//
//	gusto-mcp            # serve MCP over stdio
//	gusto-mcp http       # serve MCP and JSON routes over HTTP
//	gusto-mcp tools      # print the tool catalog
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"gusto-mcp/internal/config"
	"gusto-mcp/internal/gusto"
	"gusto-mcp/internal/server"
	"gusto-mcp/internal/telemetry"
	"gusto-mcp/internal/tools"
)

const serverName = "gusto-mcp"

var version = "1.0.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           serverName,
		Short:         "MCP server for the Gusto payroll API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStdio(cmd.Context(), configPath, cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")

	root.AddCommand(&cobra.Command{
		Use:   "stdio",
		Short: "Serve MCP over stdin/stdout",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStdio(cmd.Context(), configPath, cmd.ErrOrStderr())
		},
	})
	root.AddCommand(httpCmd(&configPath))
	root.AddCommand(toolsCmd())
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", serverName, version)
		},
	})
	return root
}

func httpCmd(configPath *string) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "http",
		Short: "Serve MCP (streamable HTTP) and JSON tool routes over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHTTP(cmd.Context(), *configPath, port, cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (overrides PORT)")
	return cmd
}

func toolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Print the tool catalog as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(tools.Catalog())
		},
	}
}

// app is everything a transport needs, built from one Config.
type app struct {
	cfg        config.Config
	logger     *slog.Logger
	dispatcher *tools.Dispatcher
	telemetry  *telemetry.Providers
}

func setup(ctx context.Context, configPath string, stderr io.Writer) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		if errors.Is(err, config.ErrMissingToken) {
			fmt.Fprintln(stderr, "Obtain an OAuth2 access token from Gusto's developer portal")
		}
		return nil, err
	}

	logger := newLogger(cfg.Log, stderr)
	slog.SetDefault(logger)

	providers, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName:    serverName,
		ServiceVersion: version,
		Endpoint:       cfg.Telemetry.OTLPEndpoint,
		Insecure:       cfg.Telemetry.Insecure,
	})
	if err != nil {
		logger.Error("telemetry setup failed", "error", err)
		return nil, err
	}
	observer, err := telemetry.NewToolObserver(providers.Meter.Meter(serverName), providers.Tracer.Tracer(serverName))
	if err != nil {
		logger.Error("telemetry instruments failed", "error", err)
		return nil, err
	}

	upstreamCfg := gusto.Config{
		BaseURL:     cfg.UpstreamBaseURL(),
		AccessToken: cfg.Gusto.AccessToken,
		UserAgent:   serverName + "/" + version,
	}
	client := gusto.New(upstreamCfg, &http.Client{Timeout: cfg.Gusto.Timeout})
	d, err := tools.NewDispatcher(client, tools.WithLogger(logger), tools.WithObserver(observer))
	if err != nil {
		logger.Error("tool catalog check failed", "error", err)
		return nil, err
	}
	logger.Debug("configured upstream", "gusto", upstreamCfg)
	return &app{cfg: cfg, logger: logger, dispatcher: d, telemetry: providers}, nil
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.telemetry.Shutdown(ctx); err != nil {
		a.logger.Warn("telemetry shutdown", "error", err)
	}
}

func runStdio(ctx context.Context, configPath string, stderr io.Writer) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx, configPath, stderr)
	if err != nil {
		return err
	}
	defer a.close()

	srv := server.NewMCPServer(a.dispatcher, serverName, version)
	a.logger.Info(serverName+" MCP server running on stdio", "tools", len(a.dispatcher.Tools()))
	if err := server.RunStdio(ctx, srv); err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Error("stdio server stopped", "error", err)
		return err
	}
	return nil
}

func runHTTP(ctx context.Context, configPath, port string, stderr io.Writer) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx, configPath, stderr)
	if err != nil {
		return err
	}
	defer a.close()

	if port == "" {
		port = a.cfg.HTTP.Port
	}
	if a.cfg.HTTP.Token == "" {
		a.logger.Warn("MCP_TOKEN not set; /mcp routes are open. Set MCP_TOKEN to secure them.")
	}

	s := server.New(server.Config{
		Token:   a.cfg.HTTP.Token,
		Name:    serverName,
		Version: version,
		Logger:  a.logger,
	}, a.dispatcher)
	httpSrv := &http.Server{
		Addr:              ":" + port,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		tls := a.cfg.HTTP.CertFile != ""
		a.logger.Info(serverName+" MCP server running on http", "addr", httpSrv.Addr, "tls", tls)
		if tls {
			errCh <- httpSrv.ListenAndServeTLS(a.cfg.HTTP.CertFile, a.cfg.HTTP.KeyFile)
			return
		}
		a.logger.Warn("TLS_CERT_FILE and TLS_KEY_FILE not set; serving plain HTTP. Run behind a TLS-terminating proxy.")
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("server error", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	level, _ := config.ParseLevel(cfg.Level)
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
