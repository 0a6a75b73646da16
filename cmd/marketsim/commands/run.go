package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/marketsim/internal/loader"
	"github.com/wonny/marketsim/internal/report"
	"github.com/wonny/marketsim/internal/scenario"
	"github.com/wonny/marketsim/internal/simulation"
	"github.com/wonny/marketsim/internal/tui"
	"github.com/wonny/marketsim/pkg/httputil"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one simulation",
	Long: `Run one simulation and print the summary, agents and stocks.

Settings come from SIM_* environment variables, then the scenario file,
then flags. Tables are read from --data-dir, --html, --html-url, the
scenario, or the embedded set, in that order.

Example:
  go run ./cmd/marketsim run --agents 10 --stocks 5 --days 100 --seed 42
  go run ./cmd/marketsim run --scenario scenarios/baseline.yaml --csv-out out/
  go run ./cmd/marketsim run --view`,
	RunE: runSimulation,
}

var (
	runScenario string
	runAgents   int
	runStocks   int
	runDays     int
	runSeed     int64
	runDataDir  string
	runHTML     string
	runHTMLURL  string
	runCSVOut   string
	runSave     bool
	runView     bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runScenario, "scenario", "", "scenario YAML file")
	runCmd.Flags().IntVar(&runAgents, "agents", 0, "number of agents")
	runCmd.Flags().IntVar(&runStocks, "stocks", 0, "number of stocks")
	runCmd.Flags().IntVar(&runDays, "days", 0, "number of days")
	runCmd.Flags().Int64Var(&runSeed, "seed", 0, "random seed (0 = time seeded)")
	runCmd.Flags().StringVar(&runDataDir, "data-dir", "", "directory with companies.csv and stocks.csv")
	runCmd.Flags().StringVar(&runHTML, "html", "", "HTML file with #companies and #stocks tables")
	runCmd.Flags().StringVar(&runHTMLURL, "html-url", "", "URL of an HTML page with #companies and #stocks tables")
	runCmd.Flags().StringVar(&runCSVOut, "csv-out", "", "export indices, agents and stocks as CSV into this directory")
	runCmd.Flags().BoolVar(&runSave, "save", false, "store the result in the run store")
	runCmd.Flags().BoolVar(&runView, "view", false, "follow the run in the interactive viewer")
	runCmd.MarkFlagsMutuallyExclusive("data-dir", "html", "html-url")
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}

	simCfg := defaultConfig(cfg)
	src := defaultSource(cfg)
	name := ""

	if runScenario != "" {
		sc, _, err := scenario.Load(runScenario)
		if err != nil {
			return fmt.Errorf("load scenario: %w", err)
		}
		simCfg = sc.Config(simCfg)
		src = sc.Source()
		name = sc.Name

		hash, err := scenario.Hash(sc)
		if err == nil {
			log.WithFields(map[string]interface{}{
				"scenario": sc.Name,
				"hash":     hash,
			}).Info("Scenario loaded")
		}
	}

	flags := cmd.Flags()
	if flags.Changed("agents") {
		simCfg.Agents = runAgents
	}
	if flags.Changed("stocks") {
		simCfg.Stocks = runStocks
	}
	if flags.Changed("days") {
		simCfg.Days = runDays
	}
	if flags.Changed("seed") {
		simCfg.Seed = runSeed
	}
	switch {
	case runDataDir != "":
		src = loader.NewCSVSource(runDataDir)
	case runHTML != "":
		src = loader.NewHTMLFile(runHTML)
	case runHTMLURL != "":
		src = loader.NewHTMLURL(runHTMLURL, httputil.New(log))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var res *simulation.Result
	if runView {
		res, err = runWithViewer(ctx, simCfg, src, name)
	} else {
		res, err = simulation.Simulate(ctx, simCfg, src, log, simulation.WithName(name))
		if err == nil {
			err = report.Console(cmd.OutOrStdout(), res)
		}
	}
	if err != nil {
		return err
	}

	if runCSVOut != "" {
		files, err := report.ExportCSV(runCSVOut, res)
		if err != nil {
			return fmt.Errorf("export csv: %w", err)
		}
		for _, f := range files {
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", f)
		}
	}

	if runSave {
		st, err := openStack(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.runs.Save(ctx, res); err != nil {
			return fmt.Errorf("save run: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "saved run %s\n", res.RunID)
	}

	return nil
}

// runWithViewer simulates in the background and feeds each day to the viewer.
// Logging is silenced so it does not tear the full-screen view.
func runWithViewer(ctx context.Context, cfg simulation.Config, src loader.Source, name string) (*simulation.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan tui.Event, 16)
	done := make(chan struct{})
	var res *simulation.Result
	var runErr error

	go func() {
		defer close(done)
		defer close(events)
		res, runErr = simulation.Simulate(ctx, cfg, src, nil,
			simulation.WithName(name),
			simulation.WithDayHook(func(rec simulation.DayRecord) {
				select {
				case events <- tui.Event{Day: &rec}:
				case <-ctx.Done():
				}
			}),
		)
		ev := tui.Event{Result: res, Err: runErr}
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	}()

	viewErr := tui.Run(tui.NewLive(events))
	cancel()
	<-done

	if runErr != nil {
		return nil, runErr
	}
	if viewErr != nil {
		return nil, fmt.Errorf("viewer: %w", viewErr)
	}
	return res, nil
}
