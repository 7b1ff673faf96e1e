package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/harshilnayi/BlockScope/internal/model"
)

var (
	ErrAdapterTimeout     = errors.New("external analyzer timed out")
	ErrAdapterUnavailable = errors.New("external analyzer unavailable")
)

// Adapter runs one out-of-process analyzer over a source text.
type Adapter interface {
	Name() string
	Analyze(ctx context.Context, source string, timeout time.Duration) ([]model.Finding, error)
}

type Result struct {
	Tool     string
	Raw      []byte
	Stderr   string
	Err      error
	TimedOut bool
	Duration time.Duration
}

// RunWithTimeout runs tool and collects its stdout. The process is killed when
// timeout elapses or ctx is done.
func RunWithTimeout(ctx context.Context, timeout time.Duration, tool string, args ...string) Result {
	start := time.Now()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, tool, args...)
	cmd.WaitDelay = 500 * time.Millisecond
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	return Result{
		Tool:     tool,
		Raw:      out,
		Stderr:   strings.TrimSpace(stderr.String()),
		Err:      err,
		TimedOut: errors.Is(ctx.Err(), context.DeadlineExceeded),
		Duration: time.Since(start),
	}
}

// NormalizeFunc translates raw tool output into findings.
type NormalizeFunc func(raw []byte, tax Taxonomy) ([]model.Finding, error)

// CommandAdapter writes the source to a temporary .sol artifact and runs Binary on
// it. The literal argument "{file}" is replaced with the artifact path.
type CommandAdapter struct {
	Tool      string
	Binary    string
	Args      []string
	Taxonomy  Taxonomy
	Normalize NormalizeFunc
}

func (a *CommandAdapter) Name() string { return a.Tool }

func (a *CommandAdapter) Analyze(ctx context.Context, source string, timeout time.Duration) ([]model.Finding, error) {
	if _, err := exec.LookPath(a.Binary); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", a.Tool, ErrAdapterUnavailable, err)
	}
	dir, err := os.MkdirTemp("", "blockscope-"+a.Tool+"-*")
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", a.Tool, ErrAdapterUnavailable, err)
	}
	defer os.RemoveAll(dir)
	file := filepath.Join(dir, "Contract.sol")
	if err := os.WriteFile(file, []byte(source), 0o600); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", a.Tool, ErrAdapterUnavailable, err)
	}
	args := make([]string, len(a.Args))
	for i, arg := range a.Args {
		args[i] = strings.ReplaceAll(arg, "{file}", file)
	}

	res := RunWithTimeout(ctx, timeout, a.Binary, args...)
	switch {
	case ctx.Err() != nil:
		return nil, fmt.Errorf("%s: %w", a.Tool, ctx.Err())
	case res.TimedOut:
		return nil, fmt.Errorf("%s after %s: %w", a.Tool, timeout, ErrAdapterTimeout)
	case res.Err != nil && len(bytes.TrimSpace(res.Raw)) == 0:
		// analyzers exit non-zero when they report issues, so only a silent failure counts
		return nil, fmt.Errorf("%s: %w: %w (%s)", a.Tool, ErrAdapterUnavailable, res.Err, res.Stderr)
	}
	fs, err := a.Normalize(res.Raw, a.Taxonomy)
	if err != nil {
		return nil, fmt.Errorf("%s output: %w: %w", a.Tool, ErrAdapterUnavailable, err)
	}
	for i := range fs {
		fs[i].Source = a.Tool
		if fs[i].RuleID != "" && !strings.Contains(fs[i].RuleID, ":") {
			fs[i].RuleID = a.Tool + ":" + fs[i].RuleID
		}
	}
	return fs, nil
}

func NewSlither(binary string, tax Taxonomy) *CommandAdapter {
	if binary == "" {
		binary = "slither"
	}
	return &CommandAdapter{Tool: "slither", Binary: binary, Args: []string{"{file}", "--json", "-"}, Taxonomy: tax, Normalize: normalizeSlither}
}

func NewMythril(binary string, tax Taxonomy) *CommandAdapter {
	if binary == "" {
		binary = "myth"
	}
	return &CommandAdapter{Tool: "mythril", Binary: binary, Args: []string{"analyze", "{file}", "-o", "json"}, Taxonomy: tax, Normalize: normalizeMythril}
}

func NewSolhint(binary string, tax Taxonomy) *CommandAdapter {
	if binary == "" {
		binary = "solhint"
	}
	return &CommandAdapter{Tool: "solhint", Binary: binary, Args: []string{"-f", "json", "{file}"}, Taxonomy: tax, Normalize: normalizeSolhint}
}
