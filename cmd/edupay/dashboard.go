package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/edupay/internal/cli"
	"github.com/Veraticus/edupay/internal/common"
	"github.com/Veraticus/edupay/internal/dashboard"
	"github.com/Veraticus/edupay/internal/model"
)

func dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show the payments overview",
		Long: `Summarize the most recent transactions: totals, status distribution
and the last seven days.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.requireAuth(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			summary, err := dashboard.Overview(ctx, a.client, time.Now())
			if err != nil {
				common.LogError(err, "Dashboard data unavailable", nil)
				fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatWarning("Could not load dashboard data"))
			}

			fmt.Fprintln(out, cli.FormatTitle("Dashboard"))
			return cli.WriteSummary(out, summary)
		},
	}
}

func schoolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schools",
		Short: "Show per-school statistics",
		Long: `Fetch every known school's transactions and report the total count,
sampled amount and success rate. A school that fails to load is shown
without figures.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.requireAuth(); err != nil {
				return err
			}

			bar := cli.NewProgressBar(os.Stderr, len(model.Schools), "Loading schools")
			stats := dashboard.SchoolStats(ctx, a.client, a.cfg.SchoolsSample, func() { cli.Step(bar) })

			term, _ := cmd.Flags().GetString("search")
			stats = dashboard.FilterSchools(stats, term)

			if len(stats) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("No schools match "+term))
				return nil
			}
			return cli.WriteSchoolStats(cmd.OutOrStdout(), stats)
		},
	}
	cmd.Flags().String("search", "", "filter schools by name")
	return cmd
}
