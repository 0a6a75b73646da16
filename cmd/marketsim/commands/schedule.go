package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/marketsim/internal/scenario"
	"github.com/wonny/marketsim/internal/scheduler"
	"github.com/wonny/marketsim/internal/scheduler/jobs"
	"github.com/wonny/marketsim/pkg/config"
	"github.com/wonny/marketsim/pkg/logger"
)

// scheduleCmd represents the schedule command
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run simulations periodically",
	Long: `Run a simulation on a cron schedule and store every result.

The schedule comes from --cron or SCHEDULE_CRON, the scenario from
--scenario or SCHEDULE_SCENARIO. Without a scenario the SIM_* defaults
and embedded tables are used.

Subcommands:
  start   - start the scheduler daemon
  once    - run the job one time and exit

Example:
  go run ./cmd/marketsim schedule start --cron "*/15 * * * *"
  go run ./cmd/marketsim schedule once --scenario scenarios/baseline.yaml`,
}

var (
	scheduleStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler",
		RunE:  runScheduler,
	}

	scheduleOnceCmd = &cobra.Command{
		Use:   "once",
		Short: "Run the scheduled job once",
		RunE:  runScheduledOnce,
	}
)

var (
	scheduleCron     string
	scheduleScenario string
)

func init() {
	rootCmd.AddCommand(scheduleCmd)
	scheduleCmd.AddCommand(scheduleStartCmd)
	scheduleCmd.AddCommand(scheduleOnceCmd)

	scheduleCmd.PersistentFlags().StringVar(&scheduleCron, "cron", "", "cron expression (default from SCHEDULE_CRON)")
	scheduleCmd.PersistentFlags().StringVar(&scheduleScenario, "scenario", "", "scenario YAML file (default from SCHEDULE_SCENARIO)")
}

func runScheduler(cmd *cobra.Command, args []string) error {
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

	sched, job, err := initScheduler(cfg, st, log)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	sched.Start()
	next, _ := sched.NextRun(job.Name())
	fmt.Fprintf(cmd.OutOrStdout(), "Scheduler started: %s (%s), next run %s\n",
		job.Name(), job.Schedule(), next.Format("2006-01-02 15:04:05"))

	<-ctx.Done()
	sched.Stop()

	stats := sched.GetJobStats()[job.Name()]
	log.WithFields(map[string]interface{}{
		"runs":     stats.TotalRuns,
		"failures": stats.FailureCount,
	}).Info("Scheduler finished")
	return nil
}

func runScheduledOnce(cmd *cobra.Command, args []string) error {
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

	sched, job, err := initScheduler(cfg, st, log)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	result, err := sched.RunJob(ctx, job.Name())
	if err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("job %s failed: %s", job.Name(), result.Error)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Job %s completed in %s\n", job.Name(), result.Duration)
	return nil
}

func initScheduler(cfg *config.Config, st *stack, log *logger.Logger) (*scheduler.Scheduler, *jobs.SimulationJob, error) {
	spec := cfg.Schedule.Cron
	if scheduleCron != "" {
		spec = scheduleCron
	}
	if err := scheduler.ValidateSchedule(spec); err != nil {
		return nil, nil, err
	}

	path := cfg.Schedule.Scenario
	if scheduleScenario != "" {
		path = scheduleScenario
	}

	name := "default"
	simCfg := defaultConfig(cfg)
	src := defaultSource(cfg)
	if path != "" {
		sc, _, err := scenario.Load(path)
		if err != nil {
			return nil, nil, fmt.Errorf("load scenario: %w", err)
		}
		name = sc.Name
		simCfg = sc.Config(simCfg)
		src = sc.Source()
	}
	if err := simCfg.Validate(); err != nil {
		return nil, nil, err
	}

	job := jobs.NewSimulationJob(name, spec, simCfg, src, st.runs, log)
	sched := scheduler.New(log)
	if err := sched.AddJob(job); err != nil {
		return nil, nil, err
	}
	return sched, job, nil
}
