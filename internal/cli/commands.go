package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harshilnayi/BlockScope/internal/config"
	"github.com/harshilnayi/BlockScope/internal/engine"
	"github.com/harshilnayi/BlockScope/internal/model"
	"github.com/harshilnayi/BlockScope/internal/report"
	"github.com/harshilnayi/BlockScope/internal/tui"
)

// ErrFailOn is returned when a finding meets the --fail-on threshold.
var ErrFailOn = errors.New("fail-on threshold met")

func AddCommands(root *cobra.Command) {
	root.AddCommand(newScanCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newRulesCmd())
}

func newScanCmd() *cobra.Command {
	var (
		contract      string
		format        string
		failOn        string
		outputFile    string
		baselinePath  string
		writeBaseline string
		useTUI        bool
		verbose       bool
	)
	v := config.NewViper()
	cmd := &cobra.Command{
		Use:   "scan <file.sol>",
		Short: "Scan a Solidity source file for vulnerabilities",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			src, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			cfg, cfgPath, err := config.Load(v, filepath.Dir(path))
			if err != nil {
				return err
			}
			log := newLogger(cmd.ErrOrStderr(), verbose)
			if cfgPath != "" {
				log.Debug("config loaded", "path", cfgPath)
			}

			opts, err := engine.OptionsFromConfig(cfg, log)
			if err != nil {
				return err
			}
			if opts.Baseline, err = engine.LoadBaseline(baselinePath); err != nil {
				return err
			}
			eng, err := engine.New(opts)
			if err != nil {
				return err
			}
			res, scanErr := eng.Scan(cmd.Context(), model.ScanRequest{
				ContractName: contract,
				SourceCode:   string(src),
				FilePath:     path,
				TimeBudget:   cfg.TimeBudget(),
			})

			if useTUI && scanErr == nil {
				if err := tui.Run(res); err != nil {
					return err
				}
			} else if err := render(cmd.OutOrStdout(), outputFile, format, res); err != nil {
				return err
			}
			if scanErr != nil {
				return scanErr
			}
			if err := engine.WriteBaseline(writeBaseline, res.Findings); err != nil {
				return fmt.Errorf("write baseline: %w", err)
			}
			if failOn != "" {
				threshold := model.ParseSeverity(failOn)
				for _, f := range res.Findings {
					if model.SeverityGTE(f.Severity, threshold) {
						return fmt.Errorf("%w: %s finding %s", ErrFailOn, f.Severity, f.RuleID)
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&contract, "contract", "c", "", "Contract name to report (defaults to the first declared contract)")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table|json|sarif")
	cmd.Flags().Int("budget-ms", 0, "Time budget for the scan in milliseconds")
	cmd.Flags().String("severity", "", "Report only findings of this severity or higher (low|medium|high|critical)")
	cmd.Flags().StringVar(&failOn, "fail-on", "", "Fail if a finding of severity or higher is found (low|medium|high|critical)")
	cmd.Flags().StringVarP(&outputFile, "out", "o", "", "Write the report to a file instead of stdout")
	cmd.Flags().StringVar(&baselinePath, "baseline", "", "Hide findings whose fingerprints are in this baseline file")
	cmd.Flags().StringVar(&writeBaseline, "write-baseline", "", "Write a baseline file with finding fingerprints")
	cmd.Flags().BoolVar(&useTUI, "tui", false, "Browse findings in an interactive terminal UI")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")
	_ = v.BindPFlag("time_budget_ms", cmd.Flags().Lookup("budget-ms"))
	_ = v.BindPFlag("severity_threshold", cmd.Flags().Lookup("severity"))
	return cmd
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func render(stdout io.Writer, outputFile, format string, res *model.ScanResult) error {
	w := stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
		color.NoColor = true
	}
	switch strings.ToLower(format) {
	case "json":
		data, err := report.ToJSON(res)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "sarif":
		data, err := report.ToSARIF(res)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "table", "":
		return report.WriteTable(w, res)
	default:
		return fmt.Errorf("unknown format %q (want table, json or sarif)", format)
	}
}
