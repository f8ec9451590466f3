package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/DAAIDev/AgentBoxDev/internal/health"
	"github.com/DAAIDev/AgentBoxDev/pkg/types"
)

func newCheckHealthCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check-health <deployment-slug>",
		Short: "Probe a deployment's components and record the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			st, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			checker := health.NewChecker(st, logger.Named("health"),
				health.WithTimeout(cfg.HealthProbeTimeout),
				health.WithDegradedThreshold(cfg.HealthDegradedThreshold),
			)
			report, err := checker.Check(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}
}

func statusColor(status string) *color.Color {
	switch status {
	case types.HealthHealthy:
		return color.New(color.FgGreen)
	case types.HealthDegraded:
		return color.New(color.FgYellow)
	case types.HealthDown:
		return color.New(color.FgRed, color.Bold)
	default:
		return color.New(color.Faint)
	}
}

// printReport lists components in their fixed order.
func printReport(w io.Writer, report *health.Report) {
	fmt.Fprintf(w, "%s (checked %s)\n", report.DeploymentSlug, report.CheckedAt.Format("2006-01-02 15:04:05 MST"))
	for _, componentType := range types.ComponentTypes {
		res, ok := report.Results[componentType]
		if !ok {
			continue
		}
		line := fmt.Sprintf("  %-11s %s", componentType, statusColor(res.Status).Sprint(res.Status))
		if res.ResponseTimeMS != nil {
			line += fmt.Sprintf("  %dms", *res.ResponseTimeMS)
		}
		if res.Error != "" {
			line += "  " + res.Error
		}
		fmt.Fprintln(w, line)
	}
}
