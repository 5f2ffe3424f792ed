package main

import (
	"context"
	"fmt"

	"github.com/aleister1102/releasewatch/internal/common"
	"github.com/aleister1102/releasewatch/internal/config"
	"github.com/aleister1102/releasewatch/internal/plausible"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newSitesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sites",
		Short: "List the sites visible to the configured Plausible token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSites(cmd.Context(), configPathFrom(cmd))
		},
	}
}

func runSites(ctx context.Context, configPath string) error {
	cfg, _, log, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	snap, err := config.NewSnapshot(cfg)
	if err != nil {
		return err
	}

	httpClient, err := common.NewHTTPClientFactory(log).CreateAPIClient(snap.FetchTimeout())
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	sites, err := plausible.NewClient(httpClient, cfg.Plausible.URL, log).ListSites(ctx, cfg.Plausible.Token)
	if err != nil {
		return err
	}

	configured := make(map[string]bool, len(cfg.Plausible.Sites))
	for _, s := range cfg.Plausible.Sites {
		configured[s] = true
	}
	for _, s := range sites {
		if configured[s] {
			fmt.Printf("%s %s\n", s, color.GreenString("(watched)"))
		} else {
			fmt.Println(s)
		}
	}
	return nil
}
