package container

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"perfpulse/internal/api"
	"perfpulse/ui"
)

// ServeOptions selects which servers to run
type ServeOptions struct {
	API bool
	UI  bool
}

// Serve builds the service over a notifying report store and runs the
// selected servers until ctx is cancelled or one of them fails. Both
// servers share the same reports.
func (c *Container) Serve(ctx context.Context, opts ServeOptions) error {
	if c.Source == nil {
		if err := c.InitSource(ctx, time.Now()); err != nil {
			return err
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	hub := ui.NewReportHub(ctx, c.Logger)
	store := ui.NewNotifyingStore(c.Registry, hub)
	if err := c.InitService(store); err != nil {
		return err
	}

	if opts.API {
		server := api.NewServer(api.Config{
			MaxConcurrentAnalyses: c.Config.Server.MaxConcurrentAnalyses,
		}, c.Service, store, c.Collector, c.Logger)
		addr := ":" + c.Config.Server.Port
		g.Go(func() error { return server.ListenAndServe(ctx, addr) })
	}

	if opts.UI {
		gin.SetMode(c.Config.Server.GinMode)
		server, err := ui.NewServer(c.Service, store, hub, c.Logger)
		if err != nil {
			return err
		}
		addr := ":" + c.Config.Server.UIPort
		g.Go(func() error { return server.ListenAndServe(ctx, addr) })
	}

	return g.Wait()
}
