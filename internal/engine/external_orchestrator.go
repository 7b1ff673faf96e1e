package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/harshilnayi/BlockScope/internal/analysis"
	"github.com/harshilnayi/BlockScope/internal/cache"
	"github.com/harshilnayi/BlockScope/internal/config"
	"github.com/harshilnayi/BlockScope/internal/model"
	"github.com/harshilnayi/BlockScope/internal/tools"
	"github.com/harshilnayi/BlockScope/internal/util"
)

// AdaptersFromConfig builds the enabled external analyzers with their taxonomy
// overrides applied, wrapped in the result cache when it is enabled.
func AdaptersFromConfig(cfg config.Config) ([]tools.Adapter, error) {
	var out []tools.Adapter
	tax := func(tool string) tools.Taxonomy {
		return tools.DefaultTaxonomy(tool).With(cfg.Taxonomy[tool])
	}
	et := cfg.ExternalTools
	if et.Slither.Enabled {
		out = append(out, tools.NewSlither(et.Slither.Path, tax("slither")))
	}
	if et.Mythril.Enabled {
		out = append(out, tools.NewMythril(et.Mythril.Path, tax("mythril")))
	}
	if et.Solhint.Enabled {
		out = append(out, tools.NewSolhint(et.Solhint.Path, tax("solhint")))
	}
	if !et.Cache || len(out) == 0 {
		return out, nil
	}
	store, err := cache.New(et.CacheDir)
	if err != nil {
		return nil, err
	}
	for i, a := range out {
		ca := a.(*tools.CommandAdapter)
		salt := fmt.Sprint(ca.Binary, ca.Args, cfg.Taxonomy[a.Name()])
		out[i] = &tools.Cached{Adapter: a, Store: store, Salt: salt}
	}
	return out, nil
}

type adapterOutput struct {
	tool     string
	findings []model.Finding
	err      error
	elapsed  time.Duration
}

// startAdapters launches every adapter in its own goroutine. The returned channel
// receives exactly one output per adapter and is buffered so abandoned adapters
// never block.
func startAdapters(ctx context.Context, adapters []tools.Adapter, source string, timeout time.Duration) <-chan adapterOutput {
	out := make(chan adapterOutput, len(adapters))
	for _, a := range adapters {
		a := a
		go func() {
			actx := ctx
			if timeout > 0 {
				var cancel context.CancelFunc
				actx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			start := time.Now()
			fs, err := a.Analyze(actx, source, timeout)
			out <- adapterOutput{tool: a.Name(), findings: fs, err: err, elapsed: time.Since(start)}
		}()
	}
	return out
}

// anchor attributes adapter findings to the enclosing contract and function so
// they share dedup keys with detector findings, and fills the fields detectors set.
func anchor(fs []model.Finding, sc *analysis.ScanContext) []model.Finding {
	src := sc.Unit.Text
	for i := range fs {
		f := &fs[i]
		if f.Lines.Start == 0 && f.LineNumber > 0 {
			f.Lines = model.Line(f.LineNumber)
		}
		if f.LineNumber == 0 {
			f.LineNumber = f.Lines.Start
		}
		if f.Lines.Start > 0 {
			if contract, function := sc.ContractAt(f.Lines.Start); contract != "" {
				f.Contract, f.Function = contract, function
			}
			if f.Snippet == "" {
				f.Snippet = util.ExtractSnippet(src, f.Lines.Start, f.Lines.End, 2)
			}
		}
		if f.Fingerprint == "" {
			f.Fingerprint = util.Fingerprint(f.RuleID, f.Contract, f.Function, util.Line(src, f.Lines.Start))
		}
	}
	return fs
}

func logAdapter(log *slog.Logger, o adapterOutput) {
	switch {
	case o.err == nil:
		log.Info("adapter finished", "tool", o.tool, "findings", len(o.findings), "elapsed", o.elapsed)
	case errors.Is(o.err, tools.ErrAdapterTimeout):
		log.Warn("adapter timed out", "tool", o.tool, "elapsed", o.elapsed)
	case errors.Is(o.err, tools.ErrAdapterUnavailable):
		log.Warn("adapter unavailable", "tool", o.tool, "err", o.err)
	default:
		log.Warn("adapter failed", "tool", o.tool, "err", o.err)
	}
}
