package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/wonny/marketsim/internal/report"
	"github.com/wonny/marketsim/internal/store"
	"github.com/wonny/marketsim/internal/tui"
)

// runsCmd represents the runs command
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect stored runs",
	Long: `List and inspect results kept in the run store.
Without DATABASE_URL the store is in memory and starts empty.

Subcommands:
  list          - list recent runs
  show [run_id] - print one run
  view [run_id] - open one run in the interactive viewer

Example:
  go run ./cmd/marketsim runs list --limit 10
  go run ./cmd/marketsim runs show 3f0c... --json`,
}

var (
	runsListCmd = &cobra.Command{
		Use:   "list",
		Short: "List recent runs",
		RunE:  listRuns,
	}

	runsShowCmd = &cobra.Command{
		Use:   "show [run_id]",
		Short: "Print one run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	runsViewCmd = &cobra.Command{
		Use:   "view [run_id]",
		Short: "Open one run in the viewer",
		Args:  cobra.ExactArgs(1),
		RunE:  viewRun,
	}
)

var (
	runsLimit int
	runsJSON  bool
)

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsViewCmd)

	// view is also reachable at the top level
	rootCmd.AddCommand(&cobra.Command{
		Use:   "view [run_id]",
		Short: runsViewCmd.Short,
		Args:  cobra.ExactArgs(1),
		RunE:  viewRun,
	})

	runsListCmd.Flags().IntVar(&runsLimit, "limit", store.DefaultListLimit, "maximum runs to list")
	runsShowCmd.Flags().BoolVar(&runsJSON, "json", false, "print the full result as JSON")
}

func withStore(fn func(ctx context.Context, runs store.RunStore) error) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStack(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	return fn(ctx, st.runs)
}

func listRuns(cmd *cobra.Command, args []string) error {
	return withStore(func(ctx context.Context, runs store.RunStore) error {
		list, err := runs.List(ctx, runsLimit)
		if err != nil {
			return fmt.Errorf("list runs: %w", err)
		}
		if len(list) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no stored runs")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), formatRunList(list))
		return nil
	})
}

func showRun(cmd *cobra.Command, args []string) error {
	return withStore(func(ctx context.Context, runs store.RunStore) error {
		res, err := runs.Get(ctx, args[0])
		if err != nil {
			return fmt.Errorf("get run %s: %w", args[0], err)
		}
		if runsJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}
		return report.Console(cmd.OutOrStdout(), res)
	})
}

func viewRun(cmd *cobra.Command, args []string) error {
	return withStore(func(ctx context.Context, runs store.RunStore) error {
		res, err := runs.Get(ctx, args[0])
		if err != nil {
			return fmt.Errorf("get run %s: %w", args[0], err)
		}
		return tui.Run(tui.New(res))
	})
}

func formatRunList(list []store.RunSummary) string {
	rows := make([][]string, 0, len(list))
	for _, r := range list {
		rows = append(rows, []string{
			r.RunID,
			r.Name,
			fmt.Sprint(r.Seed),
			fmt.Sprintf("%d/%d/%d", r.Agents, r.Stocks, r.Days),
			fmt.Sprint(r.Trades),
			fmt.Sprintf("%.2f", r.FinalPriceIndex),
			r.FinishedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(report.BorderColor)).
		Headers("Run", "Name", "Seed", "Agents/Stocks/Days", "Trades", "Price Index", "Finished").
		Rows(rows...).
		Render()
}
