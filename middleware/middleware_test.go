package middleware_test

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/xraph/conduct/middleware"
)

func TestChain_Order(t *testing.T) {
	var order []string

	mk := func(name string) middleware.Middleware {
		return func(ctx context.Context, step middleware.Step, next middleware.Handler) error {
			order = append(order, name+":before")
			err := next(ctx)
			order = append(order, name+":after")
			return err
		}
	}

	chain := middleware.Chain(mk("outer"), mk("inner"))
	handler := func(ctx context.Context) error {
		order = append(order, "handler")
		return nil
	}

	if err := chain(context.Background(), middleware.Step{}, handler); err != nil {
		t.Fatalf("chain returned error: %v", err)
	}

	want := []string{"outer:before", "inner:before", "handler", "inner:after", "outer:after"}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got %v, want %v", order, want)
		}
	}
}

func TestChain_Empty(t *testing.T) {
	chain := middleware.Chain()
	called := false
	err := chain(context.Background(), middleware.Step{}, func(ctx context.Context) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("chain returned error: %v", err)
	}
	if !called {
		t.Fatal("handler was not called")
	}
}

func TestChain_PropagatesError(t *testing.T) {
	sentinel := errors.New("boom")
	chain := middleware.Chain(func(ctx context.Context, step middleware.Step, next middleware.Handler) error {
		return next(ctx)
	})
	err := chain(context.Background(), middleware.Step{}, func(ctx context.Context) error {
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("got %v, want %v", err, sentinel)
	}
}

func TestRecover_ConvertsPanic(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	mw := middleware.Recover(logger)

	step := middleware.Step{RunID: "wf_1-x", Index: 2, Capability: "echo"}
	err := mw(context.Background(), step, func(ctx context.Context) error {
		panic("kaboom")
	})
	if err == nil {
		t.Fatal("expected error from recovered panic")
	}
	if !strings.Contains(err.Error(), "echo") || !strings.Contains(err.Error(), "kaboom") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRecover_PassesThrough(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	mw := middleware.Recover(logger)

	err := mw(context.Background(), middleware.Step{}, func(ctx context.Context) error {
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
