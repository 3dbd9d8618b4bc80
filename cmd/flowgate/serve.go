package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/flowgate/flowgate/core/config"
	"github.com/flowgate/flowgate/core/logger"
	"github.com/flowgate/flowgate/core/server"
	"github.com/flowgate/flowgate/pkg/letsencrypt"
)

type serveFlags struct {
	hostname string
	email    string
	addr     string
	staging  bool
	jsonLogs bool
}

func runServe(cmd *cobra.Command, flags serveFlags) error {
	var cfg server.Config
	if err := config.Load(&cfg); err != nil {
		return err
	}

	// Flags win over environment.
	if flags.hostname != "" {
		cfg.Hostname = flags.hostname
	}
	if flags.email != "" {
		cfg.Email = flags.email
	}
	if flags.addr != "" {
		cfg.Addr = flags.addr
	}
	if flags.staging {
		cfg.Staging = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logOpts := []logger.Option{
		logger.WithAttr(slog.String("service", "flowgate"), slog.String("version", version)),
	}
	if flags.jsonLogs {
		logOpts = append(logOpts, logger.WithJSONFormatter())
	}
	log := logger.New(logOpts...)
	logger.SetAsDefault(log)

	// The challenge store is shared: the issuer presents tokens to it, the
	// redirect listener serves them on the challenge port.
	store := letsencrypt.NewChallengeStore()

	issuerOpts := []letsencrypt.Option{letsencrypt.WithProvider(store)}
	if cfg.Staging {
		issuerOpts = append(issuerOpts, letsencrypt.WithStaging())
	}
	issuer, err := letsencrypt.New([]string{cfg.Hostname}, cfg.Email, issuerOpts...)
	if err != nil {
		return fmt.Errorf("configure issuer: %w", err)
	}

	srv, err := server.NewAutoTLS(cfg, issuer, store, server.WithAutoTLSLogger(log))
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintln(w, "flowgate", version)
	})

	log.Info("starting",
		logger.Component("cli"),
		logger.Domain(cfg.Hostname),
		slog.String("addr", cfg.Addr),
		slog.Bool("staging", cfg.Staging),
	)
	return srv.Run(cmd.Context(), mux)
}
