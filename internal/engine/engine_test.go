package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/harshilnayi/BlockScope/internal/config"
	"github.com/harshilnayi/BlockScope/internal/model"
	"github.com/harshilnayi/BlockScope/internal/plugins"
	"github.com/harshilnayi/BlockScope/internal/solidity"
	"github.com/harshilnayi/BlockScope/internal/tools"
)

const bank = `pragma solidity 0.8.19;
contract Bank {
    mapping(address => uint256) balances;
    function withdraw(address payable to, uint256 amount) external {
        (bool ok, ) = to.call{value: amount}("");
        require(ok);
        balances[to] -= amount;
    }
}`

type stubAdapter struct {
	name     string
	findings []model.Finding
	err      error
	delay    time.Duration
}

func (s stubAdapter) Name() string { return s.name }

func (s stubAdapter) Analyze(ctx context.Context, _ string, _ time.Duration) ([]model.Finding, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return append([]model.Finding(nil), s.findings...), s.err
}

// deafAdapter holds for its full duration without watching ctx or its timeout.
type deafAdapter struct{ hold time.Duration }

func (deafAdapter) Name() string { return "deaf" }

func (d deafAdapter) Analyze(context.Context, string, time.Duration) ([]model.Finding, error) {
	time.Sleep(d.hold)
	return nil, nil
}

type stubDetector struct {
	id   string
	scan func(c *solidity.Contract) ([]model.Finding, error)
}

func (s stubDetector) Meta() model.RuleMeta {
	return model.RuleMeta{ID: s.id, Kind: model.KindOther, Severity: model.SeverityLow, Confidence: 0.5}
}

func (s stubDetector) Scan(c *solidity.Contract) ([]model.Finding, error) { return s.scan(c) }

func newEngine(t *testing.T, mutate func(*Options)) *Engine {
	t.Helper()
	opts := DefaultOptions()
	if mutate != nil {
		mutate(&opts)
	}
	e, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestScanReentrancyEndToEnd(t *testing.T) {
	res, err := newEngine(t, nil).Scan(context.Background(), model.ScanRequest{SourceCode: bank, FilePath: "Bank.sol"})
	if err != nil {
		t.Fatal(err)
	}
	if res.ContractName != "Bank" || res.ParseError != nil || res.Partial {
		t.Fatalf("result = %+v", res)
	}
	if len(res.Findings) != 1 {
		t.Fatalf("findings = %+v", res.Findings)
	}
	f := res.Findings[0]
	if f.RuleID != "SOL-REENTRANCY" || f.Lines.Start != 5 || f.Severity != model.SeverityHigh || f.Score <= 0 {
		t.Fatalf("finding = %+v", f)
	}
	if res.SeverityBreakdown["high"] != 1 || res.OverallScore != 95 || !strings.HasSuffix(res.Summary, "GOOD") {
		t.Fatalf("summary fields: %v %d %q", res.SeverityBreakdown, res.OverallScore, res.Summary)
	}
}

func TestScanDeterministic(t *testing.T) {
	src := bank + `
contract Legacy {
    address owner;
    uint256 total;
    function setOwner(address o) public { owner = o; }
    function add(uint256 x) external { unchecked { total += x; } }
    function kill() external { selfdestruct(payable(msg.sender)); }
    function pay(address payable to) external { to.transfer(1); }
}`
	e := newEngine(t, func(o *Options) { o.Workers = 4 })
	first, err := e.Scan(context.Background(), model.ScanRequest{SourceCode: src})
	if err != nil {
		t.Fatal(err)
	}
	if len(first.Findings) < 3 {
		t.Fatalf("expected several findings, got %d", len(first.Findings))
	}
	for i := 0; i < 5; i++ {
		again, err := e.Scan(context.Background(), model.ScanRequest{SourceCode: src})
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(first.Findings, again.Findings) {
			t.Fatalf("run %d differs", i)
		}
	}
}

func TestScanParseFailure(t *testing.T) {
	res, err := newEngine(t, nil).Scan(context.Background(), model.ScanRequest{SourceCode: "contract C { function f( { }"})
	var pe *solidity.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("want *ParseError, got %v", err)
	}
	if res == nil || res.ParseError == nil || len(res.Findings) != 0 {
		t.Fatalf("result = %+v", res)
	}
}

func TestScanAdapterTimeoutIsPartial(t *testing.T) {
	e := newEngine(t, func(o *Options) {
		o.Adapters = []tools.Adapter{stubAdapter{name: "slither", err: fmt.Errorf("slither: %w", tools.ErrAdapterTimeout)}}
	})
	res, err := e.Scan(context.Background(), model.ScanRequest{SourceCode: bank})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Partial || len(res.Errors) != 1 {
		t.Fatalf("partial=%v errors=%v", res.Partial, res.Errors)
	}
	if len(res.Findings) != 1 || res.Findings[0].Score == 0 {
		t.Fatalf("detector findings missing or unscored: %+v", res.Findings)
	}
}

func TestScanDetectorPanicIsolated(t *testing.T) {
	boom := stubDetector{id: "TEST-PANIC", scan: func(*solidity.Contract) ([]model.Finding, error) { panic("boom") }}
	e := newEngine(t, func(o *Options) { o.Detectors = append(plugins.Builtin(), boom) })
	res, err := e.Scan(context.Background(), model.ScanRequest{SourceCode: bank})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0], "TEST-PANIC") {
		t.Fatalf("errors = %v", res.Errors)
	}
	if res.Partial {
		t.Fatal("detector failure alone must not mark the result partial")
	}
	if len(res.Findings) != 1 {
		t.Fatalf("findings = %d, want 1", len(res.Findings))
	}
}

func TestScanAdapterTimeoutBoundsWait(t *testing.T) {
	cases := []struct {
		name    string
		adapter tools.Adapter
		wantErr string
	}{
		{name: "adapter honours ctx", adapter: stubAdapter{name: "mythril", delay: time.Minute}, wantErr: "deadline exceeded"},
		{name: "adapter ignores timeout", adapter: deafAdapter{hold: 10 * time.Second}, wantErr: "external analyzer timed out"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEngine(t, func(o *Options) {
				o.Adapters = []tools.Adapter{tc.adapter}
				o.AdapterTimeout = 50 * time.Millisecond
			})
			start := time.Now()
			res, err := e.Scan(context.Background(), model.ScanRequest{SourceCode: bank})
			if err != nil {
				t.Fatal(err)
			}
			if took := time.Since(start); took > adapterGrace+2*time.Second {
				t.Fatalf("scan took %s", took)
			}
			if !res.Partial || len(res.Errors) != 1 || !strings.Contains(res.Errors[0], tc.wantErr) {
				t.Fatalf("partial=%v errors=%v", res.Partial, res.Errors)
			}
			if len(res.Findings) != 1 || res.Findings[0].RuleID != "SOL-REENTRANCY" {
				t.Fatalf("detector findings lost: %+v", res.Findings)
			}
		})
	}
}

func TestRunDetectorsKeepsDeliveredResults(t *testing.T) {
	unit, err := solidity.Build(bank)
	if err != nil {
		t.Fatal(err)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	for i := 0; i < 50; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		last := stubDetector{id: "TEST-LAST", scan: func(c *solidity.Contract) ([]model.Finding, error) {
			// the budget runs out just as the only detector finishes
			cancel()
			return []model.Finding{{RuleID: "TEST-LAST", Contract: c.Name}}, nil
		}}
		e := newEngine(t, func(o *Options) {
			o.Detectors = []plugins.Detector{last}
			o.Workers = 1
		})
		res := &model.ScanResult{}
		fs, expired := e.runDetectors(ctx, unit, res, log)
		cancel()
		if expired || len(fs) != 1 {
			t.Fatalf("run %d: expired=%v findings=%d", i, expired, len(fs))
		}
	}
}

func TestScanDeadline(t *testing.T) {
	slow := stubDetector{id: "TEST-SLOW", scan: func(*solidity.Contract) ([]model.Finding, error) {
		time.Sleep(2 * time.Second)
		return nil, nil
	}}
	e := newEngine(t, func(o *Options) {
		o.Detectors = []plugins.Detector{slow}
		o.Adapters = []tools.Adapter{stubAdapter{name: "mythril", delay: time.Minute}}
	})
	start := time.Now()
	res, err := e.Scan(context.Background(), model.ScanRequest{SourceCode: bank, TimeBudget: 50 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("scan took %s", time.Since(start))
	}
	if !res.Partial || len(res.Errors) == 0 || !strings.Contains(strings.Join(res.Errors, ";"), "deadline exceeded") {
		t.Fatalf("partial=%v errors=%v", res.Partial, res.Errors)
	}
}

func TestScanCorroboration(t *testing.T) {
	ext := model.Finding{
		RuleID:     "slither:reentrancy-eth",
		Kind:       model.KindReentrancy,
		Severity:   model.SeverityHigh,
		Confidence: 0.6,
		LineNumber: 5,
		Source:     "slither",
		Message:    "Reentrancy in Bank.withdraw",
	}
	e := newEngine(t, func(o *Options) {
		o.Adapters = []tools.Adapter{stubAdapter{name: "slither", findings: []model.Finding{ext}}}
	})
	res, err := e.Scan(context.Background(), model.ScanRequest{SourceCode: bank})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Findings) != 1 {
		t.Fatalf("findings = %+v", res.Findings)
	}
	f := res.Findings[0]
	if f.Source != plugins.SourceOf("SOL-REENTRANCY") || !reflect.DeepEqual(f.CorroboratedBy, []string{"slither"}) {
		t.Fatalf("sources = %s %v", f.Source, f.CorroboratedBy)
	}
	if f.Confidence <= 0.75 || f.Confidence > 1 {
		t.Fatalf("confidence = %v", f.Confidence)
	}
}

func TestScanInlineSuppression(t *testing.T) {
	src := strings.Replace(bank, `        (bool ok`, "        // blockscope:ignore SOL-REENTRANCY\n        (bool ok", 1)
	res, err := newEngine(t, nil).Scan(context.Background(), model.ScanRequest{SourceCode: src})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Findings) != 0 {
		t.Fatalf("suppressed finding reported: %+v", res.Findings)
	}
}

func TestScanFilters(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Options)
		want   int
	}{
		{"severity threshold above", func(o *Options) { o.MinSeverity = model.SeverityCritical }, 0},
		{"severity threshold at", func(o *Options) { o.MinSeverity = model.SeverityHigh }, 1},
		{"rule allowlist miss", func(o *Options) { o.Rules = []string{"SOL-TIMESTAMP"} }, 0},
		{"rule allowlist hit", func(o *Options) { o.Rules = []string{"sol-reentrancy"} }, 1},
		{"config ignore", func(o *Options) {
			o.Ignore = []config.IgnoreRule{{Rule: "SOL-REENTRANCY", Path: "contracts/"}}
		}, 0},
		{"expired ignore", func(o *Options) {
			o.Ignore = []config.IgnoreRule{{Rule: "SOL-REENTRANCY", Expires: "2000-01-01"}}
		}, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := newEngine(t, tc.mutate).Scan(context.Background(), model.ScanRequest{SourceCode: bank, FilePath: "contracts/Bank.sol"})
			if err != nil {
				t.Fatal(err)
			}
			if len(res.Findings) != tc.want {
				t.Fatalf("findings = %d, want %d", len(res.Findings), tc.want)
			}
		})
	}
}

func TestBaselineRoundTrip(t *testing.T) {
	e := newEngine(t, nil)
	res, err := e.Scan(context.Background(), model.ScanRequest{SourceCode: bank})
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "baseline.json")
	if err := WriteBaseline(path, res.Findings); err != nil {
		t.Fatal(err)
	}
	known, err := LoadBaseline(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(known) != 1 {
		t.Fatalf("baseline = %v", known)
	}
	again, err := newEngine(t, func(o *Options) { o.Baseline = known }).Scan(context.Background(), model.ScanRequest{SourceCode: bank})
	if err != nil {
		t.Fatal(err)
	}
	if len(again.Findings) != 0 {
		t.Fatalf("baselined finding reported again: %+v", again.Findings)
	}
}

func TestAdaptersFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.ExternalTools.Cache = false
	cfg.ExternalTools.Slither.Enabled = true
	cfg.ExternalTools.Mythril.Enabled = true
	cfg.ExternalTools.Mythril.Path = "/opt/myth"
	got, err := AdaptersFromConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Name() != "slither" || got[1].Name() != "mythril" {
		t.Fatalf("adapters = %v", got)
	}
	if b := got[1].(*tools.CommandAdapter).Binary; b != "/opt/myth" {
		t.Fatalf("binary = %s", b)
	}

	cfg.ExternalTools.Cache = true
	cfg.ExternalTools.CacheDir = t.TempDir()
	cached, err := AdaptersFromConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := cached[0].(*tools.Cached); !ok || cached[0].Name() != "slither" {
		t.Fatalf("adapter not cached: %T", cached[0])
	}
}
