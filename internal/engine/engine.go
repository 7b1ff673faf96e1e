// Package engine orchestrates a scan: it builds the source model, fans detectors and
// external analyzers out, then merges, scores and filters their findings.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/harshilnayi/BlockScope/internal/analysis"
	"github.com/harshilnayi/BlockScope/internal/config"
	"github.com/harshilnayi/BlockScope/internal/model"
	"github.com/harshilnayi/BlockScope/internal/plugins"
	"github.com/harshilnayi/BlockScope/internal/scoring"
	"github.com/harshilnayi/BlockScope/internal/solidity"
	"github.com/harshilnayi/BlockScope/internal/tools"
)

// adapterGrace is how long past its own timeout an external analyzer may take to
// report before the scan stops waiting for it.
const adapterGrace = 2 * time.Second

type State int

const (
	StateCreated State = iota
	StateParsing
	StateAnalyzing
	StateAggregating
	StateScoring
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateParsing:
		return "parsing"
	case StateAnalyzing:
		return "analyzing"
	case StateAggregating:
		return "aggregating"
	case StateScoring:
		return "scoring"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

type Options struct {
	// Detectors defaults to the built-in set narrowed by Rules.
	Detectors      []plugins.Detector
	Adapters       []tools.Adapter
	AdapterTimeout time.Duration
	Scoring        scoring.Config
	Predictor      scoring.Predictor
	// CorroborationBonus of zero disables the corroboration raise.
	CorroborationBonus float64
	// Workers bounds concurrent detector runs; zero means GOMAXPROCS.
	Workers int
	Logger  *slog.Logger

	Ignore      []config.IgnoreRule
	Rules       []string
	MinSeverity model.Severity
	Baseline    map[string]bool
	Now         func() time.Time
}

// DefaultOptions runs the built-in detectors only, with default scoring.
func DefaultOptions() Options {
	return Options{
		AdapterTimeout:     20 * time.Second,
		Scoring:            scoring.DefaultConfig(),
		CorroborationBonus: 0.25,
	}
}

// OptionsFromConfig maps a loaded configuration onto engine options, including the
// enabled external analyzers.
func OptionsFromConfig(cfg config.Config, log *slog.Logger) (Options, error) {
	adapters, err := AdaptersFromConfig(cfg)
	if err != nil {
		return Options{}, fmt.Errorf("external analyzers: %w", err)
	}
	return Options{
		Adapters:           adapters,
		AdapterTimeout:     cfg.AdapterTimeout(),
		Scoring:            cfg.Scoring,
		CorroborationBonus: cfg.CorroborationBonus,
		Workers:            cfg.Workers,
		Logger:             log,
		Ignore:             cfg.Ignore,
		Rules:              cfg.Rules,
		MinSeverity:        model.ParseSeverity(cfg.SeverityThreshold),
	}, nil
}

type Engine struct {
	opts      Options
	detectors []plugins.Detector
	calc      *scoring.Calculator
	agg       Aggregator
	log       *slog.Logger
}

func New(opts Options) (*Engine, error) {
	if err := opts.Scoring.Validate(); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	detectors := opts.Detectors
	if detectors == nil {
		reg := plugins.NewRegistry()
		reg.RegisterBuiltin()
		detectors = reg.Select(opts.Rules)
	}
	return &Engine{
		opts:      opts,
		detectors: detectors,
		calc:      scoring.NewCalculator(opts.Scoring, opts.Predictor, opts.Logger),
		agg:       Aggregator{Bonus: opts.CorroborationBonus},
		log:       opts.Logger,
	}, nil
}

func (e *Engine) Detectors() []plugins.Detector { return e.detectors }

type detectorOutput struct {
	rule     string
	contract string
	findings []model.Finding
	err      error
}

// Scan analyses one source text. Only a parse failure is returned as an error, and
// the result is still populated with the parse error. Detector failures, adapter
// problems and an expired deadline are reported through Errors and Partial.
func (e *Engine) Scan(ctx context.Context, req model.ScanRequest) (*model.ScanResult, error) {
	start := time.Now()
	if req.TimeBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.TimeBudget)
		defer cancel()
	}
	log := e.log.With("file", req.FilePath)
	res := &model.ScanResult{
		ContractName: req.ContractName,
		FilePath:     req.FilePath,
		Findings:     []model.Finding{},
		Errors:       []string{},
	}
	state := StateCreated
	next := func(s State) {
		log.Debug("scan state", "from", state, "to", s)
		state = s
	}

	next(StateParsing)
	unit, err := solidity.Build(req.SourceCode)
	if err != nil {
		next(StateFailed)
		msg := err.Error()
		res.ParseError = &msg
		res.SeverityBreakdown = model.Breakdown(nil)
		res.Summary = "Parse failed - " + msg
		res.Elapsed = time.Since(start)
		log.Warn("parse failed", "err", err)
		return res, fmt.Errorf("scan %s: %w", req.FilePath, err)
	}
	res.Diagnostics = unit.Diagnostics
	if res.ContractName == "" && len(unit.Contracts) > 0 {
		res.ContractName = unit.Contracts[0].Name
	}
	sc := analysis.NewScanContext(unit)

	next(StateAnalyzing)
	adapterTimeout := e.opts.AdapterTimeout
	if dl, ok := ctx.Deadline(); ok && (adapterTimeout <= 0 || time.Until(dl) < adapterTimeout) {
		adapterTimeout = time.Until(dl)
	}
	adapters := startAdapters(ctx, e.opts.Adapters, req.SourceCode, adapterTimeout)
	detected, expired := e.runDetectors(ctx, unit, res, log)

	var sets [][]model.Finding
	sets = append(sets, detected)
	var join <-chan time.Time
	if adapterTimeout > 0 {
		timer := time.NewTimer(adapterTimeout + adapterGrace)
		defer timer.Stop()
		join = timer.C
	}
	pending := map[string]int{}
	for _, a := range e.opts.Adapters {
		pending[a.Name()]++
	}
collect:
	for range e.opts.Adapters {
		if expired {
			break
		}
		select {
		case o := <-adapters:
			pending[o.tool]--
			logAdapter(log, o)
			if o.err != nil {
				res.Partial = true
				res.Errors = append(res.Errors, o.err.Error())
				continue
			}
			sets = append(sets, anchor(o.findings, sc))
		case <-join:
			// adapters that ignore their timeout are abandoned; their goroutines
			// write to a buffered channel and exit on their own
			for name, n := range pending {
				if n <= 0 {
					continue
				}
				log.Warn("external analyzer overran its timeout", "tool", name, "timeout", adapterTimeout)
				res.Partial = true
				res.Errors = append(res.Errors, fmt.Sprintf("%s after %s: %v", name, adapterTimeout, tools.ErrAdapterTimeout))
			}
			break collect
		case <-ctx.Done():
			expired = true
		}
	}
	if expired {
		res.Partial = true
		res.Errors = append(res.Errors, deadlineMessage(ctx))
		log.Warn("scan deadline exceeded", "elapsed", time.Since(start))
	}

	next(StateAggregating)
	merged := e.agg.Merge(sets...)

	next(StateScoring)
	scored := make([]model.Finding, 0, len(merged))
	for _, f := range merged {
		sf, keep := e.calc.Score(ctx, f, sc.Contract(f.Contract))
		if !keep {
			log.Debug("finding suppressed", "rule", f.RuleID, "confidence", f.Confidence)
			continue
		}
		scored = append(scored, sf)
	}
	SortFindings(scored)

	out := applyIgnores(scored, e.opts.Ignore, req.FilePath, req.SourceCode, e.opts.Now())
	out = filterByBaseline(out, e.opts.Baseline)
	out = filterByRules(out, e.opts.Rules)
	out = filterBySeverity(out, e.opts.MinSeverity)
	res.Findings = out
	sort.Strings(res.Errors)
	res.SeverityBreakdown = model.Breakdown(out)
	res.OverallScore = model.SecurityScore(out)
	res.Summary = model.Summarize(res.SeverityBreakdown, res.OverallScore)
	res.Elapsed = time.Since(start)
	next(StateDone)
	log.Info("scan finished", "findings", len(out), "partial", res.Partial, "elapsed", res.Elapsed)
	return res, nil
}

// runDetectors fans every detector out over every contract and collects their
// findings. When ctx ends first, outputs already delivered are kept, those of
// detectors still running are discarded and expired is true.
func (e *Engine) runDetectors(ctx context.Context, unit *solidity.SourceUnit, res *model.ScanResult, log *slog.Logger) (findings []model.Finding, expired bool) {
	jobs := len(unit.Contracts) * len(e.detectors)
	results := make(chan detectorOutput, jobs)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	go func() {
		for _, c := range unit.Contracts {
			for _, d := range e.detectors {
				if gctx.Err() != nil {
					break
				}
				c, d := c, d
				g.Go(func() error {
					if gctx.Err() != nil {
						return nil
					}
					fs, err := plugins.Run(d, c)
					results <- detectorOutput{rule: d.Meta().ID, contract: c.Name, findings: fs, err: err}
					return nil
				})
			}
		}
		_ = g.Wait()
		close(results)
	}()

	got := 0
	take := func(o detectorOutput) {
		got++
		if o.err != nil {
			log.Error("detector failed", "rule", o.rule, "contract", o.contract, "err", o.err)
			res.Errors = append(res.Errors, o.err.Error())
			return
		}
		findings = append(findings, o.findings...)
	}
	for {
		select {
		case o, ok := <-results:
			if !ok {
				return findings, got < jobs
			}
			take(o)
		case <-ctx.Done():
			// keep outputs that were already delivered when the deadline fired
			for got < jobs {
				select {
				case o, ok := <-results:
					if !ok {
						return findings, got < jobs
					}
					take(o)
				default:
					return findings, true
				}
			}
			return findings, false
		}
	}
}

func deadlineMessage(ctx context.Context) string {
	if errors.Is(ctx.Err(), context.Canceled) {
		return "scan cancelled"
	}
	return "deadline exceeded"
}
