package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tamperstat/app"
	"tamperstat/internal"
	"tamperstat/internal/config"
	"tamperstat/internal/errors"
)

// cliEnv is built once before any subcommand runs
type cliEnv struct {
	configPath string
	logLevel   string

	cfg     *config.Config
	logger  *internal.Logger
	service *app.EvaluationService
}

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(errors.ExitCode(err))
	}
}

func newRootCmd() *cobra.Command {
	env := &cliEnv{}

	rootCmd := &cobra.Command{
		Use:   "tamperstat",
		Short: "Statistics over tamper and spacing trial result tables",
		Long: `Evaluate the result tables written by the restriction-map spacing and
tamper trials: correlation and threshold classification of site features
against the tampered/acceptable outcome, reference rank estimates, position
uniformity tests, acceptance rates and plot data files.

Configuration is read from the environment (and a .env file), optionally
overlaid by a YAML file given with --config or TAMPERSTAT_CONFIG.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return env.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if env.logger != nil {
				_ = env.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&env.configPath, "config", "", "YAML config file (default $TAMPERSTAT_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&env.logLevel, "log-level", "", "ERROR|WARN|INFO|DEBUG|TRACE (default $LOG_LEVEL or INFO)")

	rootCmd.AddCommand(
		newCorrelateCmd(env),
		newClassifyCmd(env),
		newDetectorCmd(env),
		newRankCmd(env),
		newUniformityCmd(env),
		newRatesCmd(env),
		newSitesCmd(env),
		newCheckCmd(env),
		newGraphCmd(env),
		newBoxplotCmd(env),
		newReportCmd(env),
		newRunsCmd(env),
		newSynthCmd(env),
	)
	return rootCmd
}

func (e *cliEnv) init() error {
	cfg, err := config.Load(e.configPath)
	if err != nil {
		return err
	}
	level := cfg.Log.Level
	if e.logLevel != "" {
		level = e.logLevel
	}
	e.cfg = cfg
	e.logger = internal.NewLogger(internal.ParseLogLevel(level))
	e.service = app.NewEvaluationService(cfg.Analysis, e.logger)
	return nil
}

// load parses the table named by the command's single argument
func (e *cliEnv) load(path string) (*app.LoadedTable, error) {
	return e.service.Load(path)
}
