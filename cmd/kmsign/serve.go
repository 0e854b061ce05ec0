package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kmsign/kmsign/config"
	"github.com/kmsign/kmsign/credentials"
	kmsignhttp "github.com/kmsign/kmsign/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the signature verification server",
	Long: `Start an HTTP server that checks the Signature Version 4 signature
of every request it receives and answers with a verification report.

The report carries the server-side canonical request and string to sign,
so a client whose signature was rejected can diff them against its own.
GET /healthz reports server health; every other path and method is
treated as a request to inspect.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("host", "", "interface to listen on (default: all interfaces)")
	serveCmd.Flags().Int("port", 8642, "HTTP server port (env: KMSIGN_SERVER_PORT)")
	serveCmd.Flags().String("keys-file", "", "JSON file mapping access key IDs to secret keys (env: KMSIGN_AUTH_KEYS_FILE)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	store, err := credentials.NewStore(credentials.Config{
		Keys: cfg.Auth.KeyMap(),
		File: cfg.Auth.KeysFile,
	})
	if err != nil {
		return fmt.Errorf("load credentials: %w", err)
	}

	if len(cfg.Auth.Keys) == 0 && cfg.Auth.KeysFile == "" {
		slog.Warn("no access keys configured, every signature will be reported as unknown key")
	}

	verifier := kmsignhttp.NewVerifier(kmsignhttp.VerifierConfig{
		Region:  cfg.Auth.Region,
		Service: cfg.Auth.Service,
	}, store)

	handlerConfig := kmsignhttp.HandlerConfig{CORS: cfg.CORS}
	handler := kmsignhttp.NewHandler(&handlerConfig, verifier)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	server := &http.Server{
		Addr:         addr,
		Handler:      handler.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
	}()

	slog.Info("starting server", "addr", addr, "region", cfg.Auth.Region, "service", cfg.Auth.Service)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
