package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/motoshop/storefront"
	"github.com/motoshop/storefront/components"
	"github.com/motoshop/storefront/internal/config"
	"github.com/motoshop/storefront/lib/client"
	"github.com/motoshop/storefront/pages"
)

const shutdownTimeout = 10 * time.Second

// handler wires the backend client, the components and the pages into the
// configured router.
func (a *app) handler() (http.Handler, error) {
	cfg := a.cfg
	table, err := cfg.EndpointTable()
	if err != nil {
		return nil, err
	}
	key, generated, err := cfg.Key()
	if err != nil {
		return nil, err
	}
	if generated {
		a.logger.Warn("no props_key configured, using a random key; component URLs break on restart")
	}

	api := client.New(cfg.APIHost, table,
		client.WithTimeout(cfg.RequestTimeout),
		client.WithLogger(a.logger.Named("client")))

	reg, err := storefront.NewRegistry(key,
		storefront.WithRegistryLogger(a.logger.Named("components")),
		storefront.WithLoginPath(pages.LoginPath))
	if err != nil {
		return nil, err
	}
	set := components.NewSet(api,
		components.WithLogger(a.logger.Named("components")),
		components.WithSecureCookies(cfg.SecureCookies),
		components.WithSessionTTL(cfg.SessionTTL))
	set.Register(reg)

	h := pages.NewHandlers(set,
		pages.WithLogger(a.logger.Named("http")),
		pages.WithSecureCookies(cfg.SecureCookies))
	if cfg.Engine == config.EngineEcho {
		return pages.NewEcho(reg, h), nil
	}
	return pages.NewRouter(reg, h), nil
}

// serve runs the HTTP server until ctx ends or a signal arrives.
func (a *app) serve(ctx context.Context) error {
	handler, err := a.handler()
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              a.cfg.Listen,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("listening",
			zap.String("addr", a.cfg.Listen),
			zap.String("engine", a.cfg.Engine),
			zap.String("api_host", a.cfg.APIHost))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// printEndpoints writes one line per backend operation.
func (a *app) printEndpoints(w io.Writer) error {
	table, err := a.cfg.EndpointTable()
	if err != nil {
		return err
	}
	for _, op := range table.Operations() {
		if _, err := fmt.Fprintf(w, "%-18s %s%s\n", op, a.cfg.APIHost, table[op]); err != nil {
			return err
		}
	}
	return nil
}
