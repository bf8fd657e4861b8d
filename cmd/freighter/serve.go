package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/freighter-sh/freighter/pkg/auth"
	"github.com/freighter-sh/freighter/pkg/auth/preauth"
	"github.com/freighter-sh/freighter/pkg/config"
	"github.com/freighter-sh/freighter/pkg/lfs"
	"github.com/freighter-sh/freighter/pkg/storage"
	"github.com/freighter-sh/freighter/pkg/transfer"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the server",
	Args:  cobra.NoArgs,
	RunE: func(c *cobra.Command, _ []string) error {
		ctx := c.Context()
		cfg := config.DefaultConfig()
		if cfg.Exist() {
			if err := cfg.ParseFile(); err != nil {
				return fmt.Errorf("parse config file: %w", err)
			}
		} else {
			if err := cfg.WriteConfig(); err != nil {
				return fmt.Errorf("write config file: %w", err)
			}
		}

		if err := cfg.ParseEnv(); err != nil {
			return fmt.Errorf("parse environment variables: %w", err)
		}

		ctx = config.WithContext(ctx, cfg)
		if err := setupContext(&ctx, cfg); err != nil {
			return err
		}

		s, err := NewServer(ctx)
		if err != nil {
			return fmt.Errorf("start server: %w", err)
		}

		lch := make(chan error, 1)
		done := make(chan os.Signal, 1)
		doneOnce := sync.OnceFunc(func() { close(done) })

		signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

		go func() {
			lch <- s.Start()
			doneOnce()
		}()

		select {
		case err := <-lch:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
		case <-done:
		}

		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return s.Shutdown(ctx)
	},
}

// setupContext wires the storage backend, transfer adapters and
// authenticator chain into the server context.
func setupContext(ctx *context.Context, cfg *config.Config) error {
	logger := log.FromContext(*ctx)

	pair, err := preauth.NewPair(cfg)
	if err != nil {
		return fmt.Errorf("load signing key: %w", err)
	}
	issuer := preauth.NewIssuer(pair, cfg.HTTP.PublicURL)

	strg, err := newStorage(cfg)
	if err != nil {
		return err
	}

	registry, err := newRegistry(cfg, strg, issuer, logger)
	if err != nil {
		return err
	}

	chain := auth.NewChain(
		preauth.NewAuthenticator(issuer, cfg.Auth.TokenCacheSize),
		auth.NewAnonymous(auth.AnonPolicy(cfg.Auth.Anon)),
	)

	*ctx = storage.WithContext(*ctx, strg)
	*ctx = transfer.WithContext(*ctx, registry)
	*ctx = auth.ChainWithContext(*ctx, chain)
	return nil
}

func newStorage(cfg *config.Config) (storage.Storage, error) {
	switch cfg.Storage.Backend {
	case "local":
		return storage.NewLocalStorage(cfg.Storage.Local.Path), nil
	case "s3":
		return storage.NewS3Storage(cfg.Storage.S3)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// newRegistry pairs the configured transfer modes with the backend's
// capabilities.
func newRegistry(cfg *config.Config, strg storage.Storage, issuer *preauth.Issuer, logger *log.Logger) (*transfer.Registry, error) {
	if err := transfer.ValidateWantDigest(cfg.Transfer.WantDigest); err != nil {
		return nil, fmt.Errorf("invalid want_digest: %w", err)
	}

	endpoints := transfer.NewEndpoints(cfg.HTTP.PublicURL)
	actionLifetime := time.Duration(cfg.Transfer.ActionLifetime) * time.Second
	verifyLifetime := time.Duration(cfg.Transfer.VerifyLifetime) * time.Second

	registry := transfer.NewRegistry()
	for _, name := range cfg.Transfer.Adapters {
		switch name {
		case lfs.TransferBasic:
			if s, ok := strg.(storage.External); ok {
				registry.Register(transfer.NewBasicExternalAdapter(s, issuer, endpoints, actionLifetime, verifyLifetime))
			} else if s, ok := strg.(storage.Streaming); ok {
				registry.Register(transfer.NewBasicStreamingAdapter(s, issuer, endpoints, actionLifetime, verifyLifetime))
			} else {
				return nil, fmt.Errorf("storage backend %q supports no basic transfer", cfg.Storage.Backend)
			}
		case lfs.TransferMultipartBasic:
			s, ok := strg.(storage.Multipart)
			if !ok {
				logger.Warn("storage backend has no multipart support, skipping adapter",
					"backend", cfg.Storage.Backend)
				continue
			}
			registry.Register(transfer.NewMultipartAdapter(s, issuer, endpoints, cfg.Transfer.MaxPartSize, actionLifetime, verifyLifetime, cfg.Transfer.WantDigest))
		default:
			return nil, fmt.Errorf("unknown transfer adapter %q", name)
		}
	}

	return registry, nil
}
