package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tamperstat/adapters/plot"
	"tamperstat/domain/core"
	"tamperstat/internal/analysis"
	"tamperstat/internal/errors"
	"tamperstat/internal/report"
)

func newCorrelateCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "correlate [results-file]",
		Short: "Point-biserial correlation of each feature with the outcome",
		Long: `For each population and configured feature print
"<population> <feature> r=<r> p=<p> n=<n>", or the reason the statistic is
undefined. The outcome is tampered for tamper tables and acceptable for
spacing tables unless TAMPERSTAT_OUTCOME says otherwise.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lt, err := env.load(args[0])
			if err != nil {
				return err
			}
			rows, err := env.service.Correlate(lt.Table)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, row := range rows {
				fmt.Fprintln(out, report.CorrelationLine(row))
			}
			return nil
		},
	}
}

func newClassifyCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "classify [results-file]",
		Short: "Mean-threshold classifier sensitivity and specificity per feature",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lt, err := env.load(args[0])
			if err != nil {
				return err
			}
			rows, err := env.service.Classify(lt.Table)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, row := range rows {
				fmt.Fprintln(out, report.ClassificationLine(row))
			}
			return nil
		},
	}
}

func newDetectorCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "detector [results-file]",
		Short: "Score the acc detector column against the outcome",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lt, err := env.load(args[0])
			if err != nil {
				return err
			}
			rows, err := env.service.Detector(lt.Table)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, row := range rows {
				fmt.Fprintln(out, report.DetectorLine(row))
			}
			return nil
		},
	}
}

func newRankCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "rank [results-file]",
		Short: "Rank each reference genome against its tampered simulations",
		Long: `Populations named with the reference prefix (default WH1-) hold the single
result of a real genome. Each is compared with the tampered records of the
simulated population of the same name without the prefix; the fraction of
those records scoring strictly higher is reported per reference and overall.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lt, err := env.load(args[0])
			if err != nil {
				return err
			}
			ranks, tally, err := env.service.Rank(lt.Table)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, r := range ranks {
				fmt.Fprintln(out, report.RankLine(r))
			}
			fmt.Fprintln(out, report.TallyLine(tally))
			return nil
		},
	}
}

func newUniformityCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "uniformity [results-file]",
		Short: "KS and mean-absolute-deviation uniformity of mutation positions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lt, err := env.load(args[0])
			if err != nil {
				return err
			}
			rep, err := env.service.Uniformity(lt.Table)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, report.UniformityReferenceLine(rep.Reference))
			for _, row := range rep.Rows {
				fmt.Fprintln(out, report.UniformityLine(row))
			}
			return nil
		},
	}
}

// rateFlags are shared by rates and report
type rateFlags struct {
	maxCount              int64
	exactCount            int64
	requireNotInterleaved bool
}

func (f *rateFlags) register(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&f.maxCount, "max-count", 0, "Only count results with at most this many mutations")
	cmd.Flags().Int64Var(&f.exactCount, "exact-count", 0, "Only count results with exactly this many mutations")
	cmd.Flags().BoolVar(&f.requireNotInterleaved, "require-not-interleaved", false, "Exclude interleaved alignments")
}

func (f *rateFlags) filter(cmd *cobra.Command) analysis.RateFilter {
	filter := analysis.RateFilter{RequireNotInterleaved: f.requireNotInterleaved}
	if cmd.Flags().Changed("max-count") {
		v := f.maxCount
		filter.MaxCount = &v
	}
	if cmd.Flags().Changed("exact-count") {
		v := f.exactCount
		filter.ExactCount = &v
	}
	return filter
}

func newRatesCmd(env *cliEnv) *cobra.Command {
	flags := &rateFlags{}
	cmd := &cobra.Command{
		Use:   "rates [results-file]",
		Short: "Acceptance rate per population, optionally filtered",
		Long: `Print "<population>: <good>/<total> <percent>%" per population. With any
filter set, the unfiltered rates are printed first and the filtered rates after.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lt, err := env.load(args[0])
			if err != nil {
				return err
			}
			unfiltered, filtered, err := env.service.Rates(lt.Table, flags.filter(cmd))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, r := range unfiltered {
				fmt.Fprintln(out, r)
			}
			if filtered != nil {
				fmt.Fprintln(out)
				for _, r := range filtered {
					fmt.Fprintln(out, r)
				}
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newSitesCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "sites [results-file]",
		Short: "Average number of sites added and removed per population",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lt, err := env.load(args[0])
			if err != nil {
				return err
			}
			changes, err := env.service.Sites(lt.Table)
			if err != nil {
				return err
			}
			for _, c := range changes {
				fmt.Fprintln(cmd.OutOrStdout(), report.SiteLine(c))
			}
			return nil
		},
	}
}

func newCheckCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "check [results-file]",
		Short: "Verify acceptable == unique AND max_length < max segment length",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lt, err := env.load(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			violations, err := env.service.Check(lt.Table)
			if core.IsMissingField(err) {
				fmt.Fprintf(out, "skipped: %v\n", err)
				return nil
			}
			if err != nil {
				return err
			}
			for _, v := range violations {
				fmt.Fprintln(out, v)
			}
			if len(violations) > 0 {
				return errors.InvalidInput(fmt.Sprintf("%d records violate the acceptable invariant", len(violations)))
			}
			fmt.Fprintln(out, "ok")
			return nil
		},
	}
}

func newGraphCmd(env *cliEnv) *cobra.Command {
	var outputDir string
	cmd := &cobra.Command{
		Use:   "graph [results-file]",
		Short: "Write <population>_true.dat and _false.dat (count max_length) files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lt, err := env.load(args[0])
			if err != nil {
				return err
			}
			w, err := plot.NewWriter(firstNonEmpty(outputDir, env.cfg.Output.Dir))
			if err != nil {
				return err
			}
			written, err := env.service.Graph(lt.Table, w)
			if err != nil {
				return err
			}
			for _, name := range written {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory for data files (default $TAMPERSTAT_OUTPUT_DIR or .)")
	return cmd
}

func newBoxplotCmd(env *cliEnv) *cobra.Command {
	var outputDir string
	cmd := &cobra.Command{
		Use:   "boxplot [results-file]",
		Short: "Write per-reference boxplot data files and gnuplot scripts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lt, err := env.load(args[0])
			if err != nil {
				return err
			}
			w, err := plot.NewWriter(firstNonEmpty(outputDir, env.cfg.Output.Dir))
			if err != nil {
				return err
			}
			files, err := env.service.Boxplots(lt.Table, w)
			if err != nil {
				return err
			}
			for _, f := range files {
				fmt.Fprintln(cmd.OutOrStdout(), f.Script)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory for data files and scripts (default $TAMPERSTAT_OUTPUT_DIR or .)")
	return cmd
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
