// main.go
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/pivolan/dataset_profiler/config"
)

var (
	flagOutput        string
	flagDelimiter     string
	flagBins          int
	flagCharts        int
	flagNoHTML        bool
	flagCorrThreshold float64
)

var rootCmd = &cobra.Command{
	Use:   "dataset_profiler <file>",
	Short: "Profile a tabular dataset and render a report directory",
	Long: `dataset_profiler загружает табличный файл (csv, tsv, xlsx, в том числе
в архиве), считает описательную статистику, корреляции и распределения
и складывает рядом каталог отчета: README.md, report.json и графики.`,
	Args:          cobra.ExactArgs(1),
	RunE:          run,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "parent directory for the report folder (default $ANALYZER_OUTPUT_DIR or cwd)")
	rootCmd.Flags().StringVar(&flagDelimiter, "delimiter", "", "column delimiter: ',', ';' or 'tab' (default guessed from extension)")
	rootCmd.Flags().IntVar(&flagBins, "bins", 0, "histogram bin count")
	rootCmd.Flags().IntVar(&flagCharts, "charts", -1, "how many columns get distribution charts")
	rootCmd.Flags().BoolVar(&flagNoHTML, "no-html", false, "skip the interactive html correlation heatmap")
	rootCmd.Flags().Float64Var(&flagCorrThreshold, "corr-threshold", 0, "absolute correlation treated as strong")
}

func run(cmd *cobra.Command, args []string) error {
	// Флаги перекрывают значения из окружения
	cfg := *config.GetConfig()
	if flagOutput != "" {
		cfg.OutputDir = flagOutput
	}
	if flagBins > 0 {
		cfg.HistogramBins = flagBins
	}
	if flagCharts >= 0 {
		cfg.MaxDistCharts = flagCharts
	}
	if flagCorrThreshold > 0 {
		cfg.CorrThreshold = flagCorrThreshold
	}

	delimiter, err := parseDelimiter(flagDelimiter)
	if err != nil {
		return err
	}

	table, err := LoadTable(args[0], LoadOptions{Delimiter: delimiter})
	if err != nil {
		return err
	}
	log.Printf("loaded %s: %d rows, %d columns", table.Title, table.RowCount(), len(table.Columns))

	summaries, missing := ProfileTable(table)
	analysis := AnalyzeTable(table, AnalyzerOptions{
		HistogramBins:  cfg.HistogramBins,
		CorrThreshold:  cfg.CorrThreshold,
		OutlierSigma:   cfg.OutlierSigma,
		KmeansClusters: cfg.KmeansClusters,
	})

	report := BuildReport(table, summaries, missing, analysis)
	dir, err := RenderReport(table, report, cfg, !flagNoHTML)
	if err != nil {
		return err
	}

	fmt.Println(GenerateSummaryTableAscii(summaries))
	fmt.Printf("report written to %s\n", dir)
	return nil
}

func parseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case ",":
		return ',', nil
	case ";":
		return ';', nil
	case "tab", "\t":
		return '\t', nil
	}
	return 0, fmt.Errorf("unsupported delimiter %q", s)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}
}
