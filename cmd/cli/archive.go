package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"tamperstat/adapters/archive"
	"tamperstat/adapters/excel"
	"tamperstat/domain/core"
	"tamperstat/domain/run"
	"tamperstat/internal/errors"
	"tamperstat/internal/testkit"
	"tamperstat/ports"
)

func newReportCmd(env *cliEnv) *cobra.Command {
	var (
		flags       = &rateFlags{}
		htmlPath    string
		xlsxPath    string
		saveArchive bool
	)
	cmd := &cobra.Command{
		Use:   "report [results-file]",
		Short: "Run every section the table supports and print a markdown report",
		Long: `Run rates, site changes, the acceptable check, correlation, the classifier,
the detector, rank estimation and uniformity. Sections whose fields the table
lacks are listed as skipped. The report can also be rendered to HTML, exported
as a workbook with one sheet per section, and archived as a run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd.Context(), cmd, env, args[0], flags, htmlPath, xlsxPath, saveArchive)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&htmlPath, "html", "", "Also write the report as a standalone HTML page")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Also export the report sections to an Excel workbook")
	cmd.Flags().BoolVar(&saveArchive, "archive", false, "Store the run and its metrics in the archive database")
	return cmd
}

func runReport(ctx context.Context, cmd *cobra.Command, env *cliEnv, path string, flags *rateFlags, htmlPath, xlsxPath string, saveArchive bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	lt, err := env.load(path)
	if err != nil {
		return err
	}
	rep, err := env.service.BuildReport(ctx, lt, flags.filter(cmd))
	if err != nil {
		return err
	}

	if saveArchive {
		repo, closeFn, err := openArchive(ctx, env)
		if err != nil {
			return err
		}
		defer closeFn()
		if _, err := env.service.Archive(ctx, repo, lt, rep); err != nil {
			return err
		}
	}

	if htmlPath != "" {
		if err := os.WriteFile(htmlPath, rep.HTML(), 0o644); err != nil {
			return errors.ExportError(htmlPath, err)
		}
		env.logger.Info("wrote HTML report to %s", htmlPath)
	}
	if xlsxPath != "" {
		if err := excel.NewWorkbookWriter().Export(xlsxPath, rep.Sheets()); err != nil {
			return err
		}
		env.logger.Info("wrote workbook to %s", xlsxPath)
	}

	fmt.Fprint(cmd.OutOrStdout(), rep.Markdown())
	return nil
}

func openArchive(ctx context.Context, env *cliEnv) (ports.ArchiveRepository, func(), error) {
	db, err := archive.Open(ctx, env.cfg.Archive.Driver, env.cfg.Archive.DSN)
	if err != nil {
		return nil, nil, err
	}
	return archive.NewRunRepository(db), func() { db.Close() }, nil
}

func newRunsCmd(env *cliEnv) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List archived runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			repo, closeFn, err := openArchive(ctx, env)
			if err != nil {
				return err
			}
			defer closeFn()

			runs, err := repo.ListRuns(ctx, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, r := range runs {
				fmt.Fprintf(out, "%s  %s  %s  %s\n",
					r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Fingerprint.Fingerprint.Short(), r.Source)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list (0 for all)")
	cmd.AddCommand(newShowRunCmd(env))
	return cmd
}

func newShowRunCmd(env *cliEnv) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show [run-id]",
		Short: "Print the metrics archived for a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			repo, closeFn, err := openArchive(ctx, env)
			if err != nil {
				return err
			}
			defer closeFn()

			id := core.RunID(args[0])
			r, err := repo.GetRun(ctx, id)
			if err != nil {
				return err
			}
			metrics, err := repo.ListMetrics(ctx, id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(run.Export{Run: r, Metrics: metrics})
			}
			fmt.Fprintf(out, "run %s\nsource %s\ncreated %s\nfingerprint %s\n\n",
				r.ID, r.Source, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Fingerprint.Fingerprint)
			for _, m := range metrics {
				value := "undefined"
				if m.Defined {
					value = fmt.Sprintf("%g", m.Value)
				}
				fmt.Fprintf(out, "%s\t%s\t%s\t%s\t%s", m.Section, m.Population, m.Subject, m.Name, value)
				if m.Note != "" {
					fmt.Fprintf(out, "\t%s", m.Note)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the run as a JSON export that migrate can import")
	return cmd
}

func newSynthCmd(env *cliEnv) *cobra.Command {
	config := testkit.DefaultTrialConfig()
	var dir string
	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Write synthetic spacing.txt and tamper.txt trial tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				dir = env.cfg.Output.Dir
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return errors.ExportError(dir, err)
			}
			config.ReferencePrefix = env.cfg.Analysis.ReferencePrefix
			config.MaxSegmentLength = int(env.cfg.Analysis.MaxSegmentLength)
			files, err := testkit.WriteTrialFiles(dir, config)
			if err != nil {
				return errors.ExportError(filepath.Clean(dir), err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), files.Spacing)
			fmt.Fprintln(cmd.OutOrStdout(), files.Tamper)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "output-dir", "", "Directory for the generated tables (default $TAMPERSTAT_OUTPUT_DIR or .)")
	cmd.Flags().IntVar(&config.TrialsPerGenome, "trials", config.TrialsPerGenome, "Simulated trials per genome")
	cmd.Flags().Int64Var(&config.Seed, "seed", config.Seed, "Random seed")
	return cmd
}
