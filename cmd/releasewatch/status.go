package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/aleister1102/releasewatch/internal/config"
	"github.com/aleister1102/releasewatch/internal/datastore"
	"github.com/aleister1102/releasewatch/internal/models"
	"github.com/aleister1102/releasewatch/internal/monitor"
	"github.com/aleister1102/releasewatch/internal/scheduler"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show stored markers and the latest recorded cycles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("history")
			return runStatus(cmd.Context(), configPathFrom(cmd), limit)
		},
	}
	cmd.Flags().IntP("history", "n", 10, "Number of history rows to show")
	return cmd
}

func runStatus(ctx context.Context, configPath string, limit int) error {
	cfg, _, log, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	snap, err := config.NewSnapshot(cfg)
	if err != nil {
		return err
	}
	state, err := datastore.NewStateStore(cfg.StorageConfig, log)
	if err != nil {
		return err
	}
	record, err := state.Snapshot()
	if err != nil {
		return err
	}

	color.New(color.Bold).Println("Repositories")
	repos := tablewriter.NewTable(os.Stdout)
	repos.Header([]string{"Repository", "Last release", "Cached tag"})
	for _, repo := range monitor.SortedRepos(cfg.GitHub.Repos, record.GitHub) {
		tag := ""
		if payload, err := state.GetCachedRelease(repo); err == nil {
			tag = payload.Tag
		}
		if err := repos.Append([]string{repo, markerCell(record.GitHub[repo], snap.Location()), tag}); err != nil {
			return fmt.Errorf("an error occurred while appending to the table: %w", err)
		}
	}
	if err := repos.Render(); err != nil {
		return fmt.Errorf("an error occurred while rendering the table: %w", err)
	}

	fmt.Println()
	color.New(color.Bold).Println("Sites")
	fmt.Printf("Report time %s (%s), last report %s\n", cfg.Plausible.ReportTime, cfg.Plausible.Timezone, orNever(record.Plausible.LastReport))
	sites := tablewriter.NewTable(os.Stdout)
	sites.Header([]string{"Site", "Reported day", "Checked at"})
	for _, site := range cfg.Plausible.Sites {
		if err := sites.Append([]string{site, orNever(record.Plausible.Markers[site]), record.Plausible.CheckedSites[site]}); err != nil {
			return fmt.Errorf("an error occurred while appending to the table: %w", err)
		}
	}
	if err := sites.Render(); err != nil {
		return fmt.Errorf("an error occurred while rendering the table: %w", err)
	}

	history, err := scheduler.NewHistoryDB(cfg.SchedulerConfig.SQLiteDBPath, 0, log)
	if err != nil {
		return err
	}
	defer history.Close()

	if ctx == nil {
		ctx = context.Background()
	}
	entries, err := history.RecentCycles(ctx, "", limit)
	if err != nil {
		return err
	}

	fmt.Println()
	color.New(color.Bold).Println("Recent cycles")
	cycles := tablewriter.NewTable(os.Stdout)
	cycles.Header([]string{"Started", "Group", "Trigger", "Status", "Notified", "Unchanged", "Failed", "Duration", "Error"})
	for _, e := range entries {
		row := []string{
			e.StartedAt.Format(monitor.DisplayTimeLayout),
			e.Group,
			e.Trigger,
			statusLabel(e.Status),
			strconv.Itoa(e.Notified),
			strconv.Itoa(e.Unchanged),
			strconv.Itoa(e.Failed),
			e.Duration().Round(time.Millisecond).String(),
			e.Error,
		}
		if err := cycles.Append(row); err != nil {
			return fmt.Errorf("an error occurred while appending to the table: %w", err)
		}
	}
	if err := cycles.Render(); err != nil {
		return fmt.Errorf("an error occurred while rendering the table: %w", err)
	}
	return nil
}

func markerCell(marker string, loc *time.Location) string {
	if marker == "" {
		return color.New(color.Faint).Sprint("never")
	}
	return monitor.FormatMarker(marker, loc)
}

func orNever(v string) string {
	if v == "" {
		return "never"
	}
	return v
}

func statusLabel(status string) string {
	switch status {
	case models.CycleStatusCompleted:
		return color.GreenString(status)
	case models.CycleStatusFailed:
		return color.RedString(status)
	default:
		return color.YellowString(status)
	}
}
