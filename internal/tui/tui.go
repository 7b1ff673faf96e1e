// Package tui is an interactive browser over scan findings.
package tui

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harshilnayi/BlockScope/internal/model"
	"github.com/harshilnayi/BlockScope/internal/report"
)

type browser struct {
	res      *model.ScanResult
	cursor   int
	detail   bool
	minSev   model.Severity
	visible  []int
	height   int
	quitting bool
}

func newBrowser(res *model.ScanResult) browser {
	b := browser{res: res, minSev: model.SeverityLow, height: 20}
	b.refilter()
	return b
}

func (b *browser) refilter() {
	b.visible = b.visible[:0]
	for i, f := range b.res.Findings {
		if model.SeverityGTE(f.Severity, b.minSev) {
			b.visible = append(b.visible, i)
		}
	}
	if b.cursor >= len(b.visible) {
		b.cursor = max(len(b.visible)-1, 0)
	}
}

func (b browser) current() (model.Finding, bool) {
	if len(b.visible) == 0 {
		return model.Finding{}, false
	}
	return b.res.Findings[b.visible[b.cursor]], true
}

func (b browser) Init() tea.Cmd { return nil }

func (b browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.height = max(msg.Height-6, 3)
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			b.quitting = true
			return b, tea.Quit
		case "esc":
			if !b.detail {
				b.quitting = true
				return b, tea.Quit
			}
			b.detail = false
		case "up", "k":
			if b.cursor > 0 {
				b.cursor--
			}
		case "down", "j":
			if b.cursor < len(b.visible)-1 {
				b.cursor++
			}
		case "home", "g":
			b.cursor = 0
		case "end", "G":
			b.cursor = max(len(b.visible)-1, 0)
		case "enter", " ":
			b.detail = !b.detail
		case "s":
			// cycle the minimum severity shown
			b.minSev = nextSeverity(b.minSev)
			b.refilter()
		}
	}
	return b, nil
}

func nextSeverity(s model.Severity) model.Severity {
	order := append([]model.Severity(nil), model.Severities...)
	sort.Slice(order, func(i, j int) bool { return order[i].Rank() < order[j].Rank() })
	for i, o := range order {
		if o == s {
			return order[(i+1)%len(order)]
		}
	}
	return model.SeverityLow
}

func (b browser) View() string {
	if b.quitting {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s  score %d/100  %s\n", b.res.ContractName, b.res.OverallScore, b.res.Summary)
	fmt.Fprintf(&sb, "showing %d of %d findings (>= %s)\n\n", len(b.visible), len(b.res.Findings), b.minSev)
	if b.detail {
		if f, ok := b.current(); ok {
			sb.WriteString(details(f))
		}
		sb.WriteString("\nenter/esc: back  q: quit\n")
		return sb.String()
	}
	if len(b.visible) == 0 {
		sb.WriteString("  nothing to show\n")
	}
	from := 0
	if b.cursor >= b.height {
		from = b.cursor - b.height + 1
	}
	for i := from; i < len(b.visible) && i < from+b.height; i++ {
		f := b.res.Findings[b.visible[i]]
		mark := "  "
		if i == b.cursor {
			mark = "> "
		}
		fmt.Fprintf(&sb, "%s%s %-24s %-28s %s\n", mark,
			report.SeverityColor(f.Severity).Sprintf("%-8s", f.Severity), f.RuleID, report.Location(f), f.Title)
	}
	sb.WriteString("\nj/k: move  enter: details  s: severity filter  q: quit\n")
	return sb.String()
}

func details(f model.Finding) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s  %s\n", report.SeverityColor(f.Severity).Sprint(strings.ToUpper(string(f.Severity))), f.Title)
	fmt.Fprintf(&sb, "rule:       %s (%s)\n", f.RuleID, f.Kind)
	fmt.Fprintf(&sb, "location:   %s\n", report.Location(f))
	fmt.Fprintf(&sb, "confidence: %.2f  score: %.3f\n", f.Confidence, f.Score)
	fmt.Fprintf(&sb, "sources:    %s\n", strings.Join(f.Sources(), ", "))
	fmt.Fprintf(&sb, "\n%s\n", f.Message)
	if f.Snippet != "" {
		fmt.Fprintf(&sb, "\n%s\n", f.Snippet)
	}
	if len(f.Evidence) > 0 {
		keys := make([]string, 0, len(f.Evidence))
		for k := range f.Evidence {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString("\nevidence:\n")
		for _, k := range keys {
			fmt.Fprintf(&sb, "  %s: %s\n", k, f.Evidence[k])
		}
	}
	if f.Remediation != "" {
		fmt.Fprintf(&sb, "\nfix: %s\n", f.Remediation)
	}
	return sb.String()
}

// Run opens the browser on the terminal and blocks until the user quits.
func Run(res *model.ScanResult) error {
	_, err := tea.NewProgram(newBrowser(res), tea.WithAltScreen()).Run()
	return err
}
