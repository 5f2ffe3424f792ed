package main

import (
	"context"
	"fmt"

	"github.com/aleister1102/releasewatch/internal/models"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "check [github|plausible|all]",
		Short:     "Run one synchronous check cycle and exit",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"github", "plausible", "all"},
		Example:   "releasewatch check plausible --manual",
		RunE: func(cmd *cobra.Command, args []string) error {
			group := "github"
			if len(args) == 1 {
				group = args[0]
			}
			manual, _ := cmd.Flags().GetBool("manual")
			return runCheck(cmd.Context(), configPathFrom(cmd), group, manual)
		},
	}
	cmd.Flags().Bool("manual", false, "Treat the run as manual: stats are reported regardless of the report time")
	return cmd
}

func checkKinds(group string) ([]models.EntityKind, error) {
	switch group {
	case string(models.KindRelease):
		return []models.EntityKind{models.KindRelease}, nil
	case string(models.KindStats):
		return []models.EntityKind{models.KindStats}, nil
	case "all":
		return []models.EntityKind{models.KindRelease, models.KindStats}, nil
	default:
		return nil, fmt.Errorf("unknown group %q, expected github, plausible or all", group)
	}
}

func runCheck(ctx context.Context, configPath, group string, manual bool) error {
	kinds, err := checkKinds(group)
	if err != nil {
		return err
	}

	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	if ctx == nil {
		ctx = context.Background()
	}
	trigger := models.TriggerTimer
	if manual {
		trigger = models.TriggerManual
	}

	sched := a.newScheduler()
	var firstErr error
	for _, kind := range kinds {
		summary, err := sched.RunOnce(ctx, kind, trigger)
		printSummary(summary)
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func printSummary(summary models.CycleSummary) {
	status := color.GreenString(summary.Status)
	if summary.Status != models.CycleStatusCompleted {
		status = color.RedString(summary.Status)
	}
	fmt.Printf("%s cycle %s: %s (notified %d, unchanged %d, failed %d)\n",
		summary.Group, summary.ID, status,
		summary.Count(models.OutcomeNotified),
		summary.Count(models.OutcomeUnchanged),
		summary.Count(models.OutcomeFetchFailed))

	for _, r := range summary.Results {
		line := fmt.Sprintf("  %-40s %s", r.Key, outcomeLabel(r.Outcome))
		if r.Error != "" {
			line += " " + color.New(color.Faint).Sprint(r.Error)
		}
		fmt.Println(line)
	}
	if summary.Error != "" {
		fmt.Println("  " + color.RedString(summary.Error))
	}
}

func outcomeLabel(o models.Outcome) string {
	switch o {
	case models.OutcomeNotified:
		return color.GreenString(string(o))
	case models.OutcomeFetchFailed:
		return color.YellowString(string(o))
	default:
		return string(o)
	}
}
