package tools

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/harshilnayi/BlockScope/internal/cache"
	"github.com/harshilnayi/BlockScope/internal/model"
)

type countingAdapter struct {
	calls int
	err   error
}

func (c *countingAdapter) Name() string { return "counting" }

func (c *countingAdapter) Analyze(context.Context, string, time.Duration) ([]model.Finding, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return []model.Finding{{RuleID: "counting:x", Kind: model.KindOther, Lines: model.Line(3), Source: "counting"}}, nil
}

func TestCachedAdapter(t *testing.T) {
	store, err := cache.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	inner := &countingAdapter{}
	a := &Cached{Adapter: inner, Store: store}
	for i := 0; i < 3; i++ {
		fs, err := a.Analyze(context.Background(), "contract C {}", time.Second)
		if err != nil || len(fs) != 1 || fs[0].Lines.Start != 3 {
			t.Fatalf("run %d: %v %+v", i, err, fs)
		}
	}
	if inner.calls != 1 {
		t.Fatalf("inner calls = %d, want 1", inner.calls)
	}
	if _, err := a.Analyze(context.Background(), "contract D {}", time.Second); err != nil || inner.calls != 2 {
		t.Fatalf("new source should miss the cache: calls=%d err=%v", inner.calls, err)
	}
}

func TestCachedAdapterSkipsFailures(t *testing.T) {
	store, err := cache.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	inner := &countingAdapter{err: ErrAdapterTimeout}
	a := &Cached{Adapter: inner, Store: store}
	for i := 0; i < 2; i++ {
		if _, err := a.Analyze(context.Background(), "contract C {}", time.Second); !errors.Is(err, ErrAdapterTimeout) {
			t.Fatalf("err = %v", err)
		}
	}
	if inner.calls != 2 {
		t.Fatalf("failures were cached: calls = %d", inner.calls)
	}
}
