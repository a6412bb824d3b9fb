package pipeline

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "not found", err: fmt.Errorf("%w: nope", ErrNotFound), want: KindNotFound},
		{name: "rate limited", err: fmt.Errorf("%w: 429", ErrRateLimited), want: KindRateLimited},
		{name: "parse", err: fmt.Errorf("%w: drift", ErrParse), want: KindParse},
		{name: "mapping", err: ErrMapping, want: KindMapping},
		{name: "auth", err: fmt.Errorf("wrapped: %w", ErrAuth), want: KindAuth},
		{name: "schema mismatch", err: ErrSchemaMismatch, want: KindSchemaMismatch},
		{name: "fetch", err: ErrFetch, want: KindFetch},
		{name: "write", err: ErrWrite, want: KindWrite},
		{name: "unclassified", err: errors.New("boom"), want: KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Fatalf("expected kind %q, got %q", tt.want, got)
			}
		})
	}
}

func TestErrorWrapping(t *testing.T) {
	cause := fmt.Errorf("%w: token expired", ErrAuth)
	err := NewError(StageWrite, "9787020002207", cause)

	if err.Stage != StageWrite {
		t.Fatalf("expected write stage, got %q", err.Stage)
	}
	if err.Kind != KindAuth {
		t.Fatalf("expected auth kind, got %q", err.Kind)
	}
	if !errors.Is(err, ErrAuth) {
		t.Fatal("expected errors.Is to see the sentinel through the wrapper")
	}

	var perr *Error
	if !errors.As(error(err), &perr) {
		t.Fatal("expected errors.As to find *Error")
	}
}
