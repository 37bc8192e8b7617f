package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/followup/internal/app"
	"github.com/MrSnakeDoc/followup/internal/config"
	"github.com/MrSnakeDoc/followup/internal/domain"
	"github.com/MrSnakeDoc/followup/internal/logger"
	"github.com/MrSnakeDoc/followup/internal/records"
	"github.com/MrSnakeDoc/followup/internal/reminder"
	"github.com/MrSnakeDoc/followup/internal/store"
	"github.com/MrSnakeDoc/followup/internal/timer"
	"github.com/MrSnakeDoc/followup/internal/version"
)

// --- serve ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the reminder loop (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func runServe(cmd *cobra.Command) error {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.PrettyLog)
	defer func() { _ = log.Sync() }()

	a, err := app.New(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	return a.Run(cmd.Context())
}

// --- agenda ---

var agendaCmd = &cobra.Command{
	Use:   "agenda",
	Short: "Print the follow-up agenda from the configured store",
	Long: `Print the follow-up agenda grouped into priority buckets.

Examples:
  followup agenda
  followup agenda --tab pending
  FOLLOWUP_STORE=sqlite followup agenda --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tabFlag, _ := cmd.Flags().GetString("tab")
		asJSON, _ := cmd.Flags().GetBool("json")

		tab, err := domain.ParseTab(tabFlag)
		if err != nil {
			return err
		}

		cfg := config.Load()
		log := logger.New(cfg.LogLevel, cfg.PrettyLog)

		backends, err := app.OpenBackends(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer backends.Close()

		svc := records.NewService(store.NewRecords(backends.KV), cfg.Location, log)
		groups, err := svc.List(cmd.Context(), tab)
		if err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(groups)
		}
		return printAgenda(cmd.OutOrStdout(), groups)
	},
}

func init() {
	agendaCmd.Flags().String("tab", "all", "records to show: all, pending or contacted")
	agendaCmd.Flags().Bool("json", false, "print the groups as JSON")
}

func printAgenda(w io.Writer, groups []domain.Group) error {
	if len(groups) == 0 {
		_, err := fmt.Fprintln(w, "No records.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, g := range groups {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		fmt.Fprintf(tw, "%s (%d)\n", g.Label, len(g.Records))
		for _, r := range g.Records {
			name := r.StoreName
			if name == "" {
				name = "Unknown store"
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", name, r.Status, r.FollowUpTime, r.PageURL)
		}
	}
	return tw.Flush()
}

// --- reconcile ---

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Re-arm reminder timers from the stored records and list them",
	Long: `Cancel every reminder timer and arm one per pending record with a future
follow-up time. With FOLLOWUP_TIMERS=redis the timers are armed in the shared
queue; with local timers the command only reports what a server would arm.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := config.Load()
		log := logger.New(cfg.LogLevel, cfg.PrettyLog)

		backends, err := app.OpenBackends(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer backends.Close()

		all, err := store.NewRecords(backends.KV).Load(ctx)
		if err != nil {
			return err
		}

		scheduler := reminder.NewScheduler(backends.Timers, cfg.Location, log)
		armed := scheduler.ReconcileAll(ctx, all, time.Now())

		entries, err := scheduler.Active(ctx)
		if err != nil {
			return err
		}
		return printTimers(cmd.OutOrStdout(), armed, len(all), entries)
	},
}

func printTimers(w io.Writer, armed, total int, entries []timer.Entry) error {
	timer.SortEntries(entries)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Armed %d reminder(s) for %d record(s)\n", armed, total)
	for _, e := range entries {
		fmt.Fprintf(tw, "  %s\t%s\n", e.Key, e.When.Format(time.RFC3339))
	}
	return tw.Flush()
}

// --- version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.String())
	},
}
