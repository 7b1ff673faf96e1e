package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/harshilnayi/BlockScope/internal/model"
)

// SeverityColor returns the terminal style of a severity class.
func SeverityColor(s model.Severity) *color.Color {
	switch s {
	case model.SeverityCritical:
		return color.New(color.FgRed, color.Bold)
	case model.SeverityHigh:
		return color.New(color.FgRed)
	case model.SeverityMedium:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgCyan)
	}
}

// WriteTable prints a human-readable summary and one row per finding. Colors follow
// color.NoColor, so output to a file or pipe stays plain.
func WriteTable(w io.Writer, res *model.ScanResult) error {
	title := color.New(color.FgCyan, color.Bold)
	name := res.ContractName
	if res.FilePath != "" {
		name = fmt.Sprintf("%s (%s)", name, res.FilePath)
	}
	title.Fprintf(w, "BlockScope scan: %s\n", name)

	if res.ParseError != nil {
		color.New(color.FgRed, color.Bold).Fprintf(w, "parse error: %s\n", *res.ParseError)
		return nil
	}
	for _, d := range res.Diagnostics {
		color.New(color.FgYellow).Fprintf(w, "warning: line %d: %s\n", d.Line, d.Message)
	}
	if len(res.Findings) > 0 {
		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SEVERITY\tRULE\tLOCATION\tCONF\tSOURCES\tMESSAGE")
		for _, f := range res.Findings {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%s\t%s\n",
				SeverityColor(f.Severity).Sprint(strings.ToUpper(string(f.Severity))),
				f.RuleID, Location(f), f.Confidence, strings.Join(f.Sources(), ","), f.Message)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	fmt.Fprintln(w)
	for _, s := range model.Severities {
		if n := res.SeverityBreakdown[string(s)]; n > 0 {
			SeverityColor(s).Fprintf(w, "  %-9s %d\n", s, n)
		}
	}
	verdict := color.New(color.FgGreen, color.Bold)
	if res.OverallScore < 60 {
		verdict = color.New(color.FgRed, color.Bold)
	} else if res.OverallScore < 80 {
		verdict = color.New(color.FgYellow, color.Bold)
	}
	verdict.Fprintf(w, "Score %d/100: %s\n", res.OverallScore, res.Summary)
	if res.Partial {
		color.New(color.FgYellow).Fprintf(w, "partial result: %s\n", strings.Join(res.Errors, "; "))
	} else if len(res.Errors) > 0 {
		color.New(color.FgYellow).Fprintf(w, "errors: %s\n", strings.Join(res.Errors, "; "))
	}
	_, err := fmt.Fprintf(w, "elapsed %s\n", res.Elapsed.Round(time.Millisecond))
	return err
}

// Location renders Contract.function:line, omitting unknown parts.
func Location(f model.Finding) string {
	var b strings.Builder
	b.WriteString(f.Contract)
	if f.Function != "" {
		b.WriteString("." + f.Function)
	}
	if f.Lines.Start > 0 {
		if b.Len() > 0 {
			b.WriteString(":")
		}
		if f.Lines.End > f.Lines.Start {
			fmt.Fprintf(&b, "%d-%d", f.Lines.Start, f.Lines.End)
		} else {
			fmt.Fprintf(&b, "%d", f.Lines.Start)
		}
	}
	return b.String()
}
