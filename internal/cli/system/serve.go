package system

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/julianstephens/nudge/internal/api"
	"github.com/julianstephens/nudge/internal/cli"
	"github.com/julianstephens/nudge/internal/config"
	"github.com/julianstephens/nudge/internal/logger"
)

type ServeCmd struct {
	Addr    string        `help:"Listen address. Overrides api.addr from the config."`
	Refresh time.Duration `help:"How often to top up today's queue and clean old task-of-the-day records. 0 disables." default:"1h"`

	// Version is reported by /healthz.
	Version string `kong:"-"`
}

func (cmd *ServeCmd) Run(ctx *cli.Context) error {
	apiCfg := config.APIConfig{
		Addr:            "127.0.0.1:7420",
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
	if ctx.Config != nil {
		apiCfg = ctx.Config.API
	}
	if cmd.Addr != "" {
		apiCfg.Addr = cmd.Addr
	}

	ln, err := net.Listen("tcp", apiCfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", apiCfg.Addr, err)
	}

	srv := &http.Server{
		Handler:      api.New(ctx.Entities, ctx.Scheduler, ctx.Selector, cmd.Version),
		ReadTimeout:  apiCfg.ReadTimeout,
		WriteTimeout: apiCfg.WriteTimeout,
		IdleTimeout:  apiCfg.IdleTimeout,
	}

	ctx.Printf("nudge serving on http://%s\n", ln.Addr())
	logger.Info("api server started", "addr", ln.Addr().String())

	g, gctx := errgroup.WithContext(ctx.Ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		ctx.Println("\nshutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), apiCfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if cmd.Refresh > 0 {
		g.Go(func() error {
			cmd.refreshLoop(gctx, ctx)
			return nil
		})
	}
	return g.Wait()
}

// refreshLoop keeps today's queue filled while the server runs. Failures
// are logged and retried on the next tick.
func (cmd *ServeCmd) refreshLoop(ctx context.Context, c *cli.Context) {
	refresh := func() {
		added, err := c.Scheduler.GenerateForToday(ctx)
		if err != nil {
			logger.Warn("queue refresh failed", "error", err)
		} else if len(added) > 0 {
			logger.Info("queue refreshed", "added", len(added))
		}
		if _, err := c.Selector.Cleanup(ctx); err != nil {
			logger.Warn("task of the day cleanup failed", "error", err)
		}
	}

	refresh()
	ticker := time.NewTicker(cmd.Refresh)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refresh()
		}
	}
}
