package main

import (
	"context"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aleister1102/releasewatch/internal/scheduler"
	"github.com/aleister1102/releasewatch/internal/users"
	"github.com/aleister1102/releasewatch/internal/web"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler and the web interface until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			noWeb, _ := cmd.Flags().GetBool("no-web")
			return runServe(cmd.Context(), configPathFrom(cmd), noWeb)
		},
	}
	cmd.Flags().Bool("no-web", false, "Run only the scheduler, even if the web interface is enabled")
	return cmd
}

func runServe(parent context.Context, configPath string, noWeb bool) error {
	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	webCfg := a.provider.Current().Config().WebConfig
	runWeb := webCfg.Enabled && !noWeb

	var (
		hub  *web.Hub
		opts []scheduler.Option
	)
	if runWeb {
		hub = web.NewHub(a.logger)
		opts = append(opts, scheduler.WithPublisher(hub))
	}
	sched := a.newScheduler(opts...)

	var server *web.Server
	var cache *web.PageCache
	if runWeb {
		userStore, err := users.NewStore(webCfg.UsersFile, a.logger)
		if err != nil {
			return err
		}
		cache = web.NewPageCache(ctx, webCfg.Redis, a.logger)
		defer cache.Close()

		server, err = web.NewServer(webCfg, web.Deps{
			Config:    a.provider,
			State:     a.state,
			Users:     userStore,
			Scheduler: sched,
			History:   a.history,
			Archive:   a.archive,
			Sites:     a.plausible,
			Hub:       hub,
			Cache:     cache,
		}, a.logger)
		if err != nil {
			return err
		}
	}

	var wg sync.WaitGroup
	errCh := make(chan error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := sched.Start(ctx); err != nil {
			errCh <- err
			stop()
		}
	}()

	if server != nil {
		wg.Add(2)
		go func() {
			defer wg.Done()
			hub.Run(ctx)
		}()
		go func() {
			defer wg.Done()
			if err := server.Run(ctx); err != nil {
				a.logger.Error().Err(err).Msg("Web interface stopped with error")
				errCh <- err
				stop()
			}
		}()
	} else {
		a.logger.Info().Msg("Web interface disabled")
	}

	<-ctx.Done()
	a.logger.Info().Msg("Shutdown requested, waiting for running cycles to finish")
	wg.Wait()
	close(errCh)
	return <-errCh
}
