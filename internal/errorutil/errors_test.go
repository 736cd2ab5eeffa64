package errorutil_test

import (
	"errors"
	"testing"

	"github.com/ghettovoice/sinkuri/internal/errorutil"
	"github.com/ghettovoice/sinkuri/internal/grammar"
)

const errSentinel errorutil.Error = "sentinel"

func TestNewWrapperError(t *testing.T) {
	t.Parallel()

	inner := errors.New("inner")

	cases := []struct {
		name    string
		args    []any
		wantMsg string
		wantIs  []error
	}{
		{"no args", nil, "sentinel", []error{errSentinel}},
		{"error", []any{inner}, "sentinel: inner", []error{errSentinel, inner}},
		{"already wrapped", []any{errorutil.NewWrapperError(errSentinel, inner)}, "sentinel: inner", []error{errSentinel, inner}},
		{"message", []any{"bad %d"}, "sentinel: bad %d", []error{errSentinel}},
		{"format", []any{"bad %d", 42}, "sentinel: bad 42", []error{errSentinel}},
		{"error and format", []any{inner, "at %d", 7}, "sentinel: inner: at 7", []error{errSentinel, inner}},
		{"unsupported arg", []any{42}, "sentinel", []error{errSentinel}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			err := errorutil.NewWrapperError(errSentinel, c.args...)
			if got := err.Error(); got != c.wantMsg {
				t.Errorf("errorutil.NewWrapperError() = %q, want %q", got, c.wantMsg)
			}
			for _, target := range c.wantIs {
				if !errors.Is(err, target) {
					t.Errorf("errors.Is(%v, %v) = false, want true", err, target)
				}
			}
		})
	}
}

func TestJoinPrefix(t *testing.T) {
	t.Parallel()

	e1, e2 := errors.New("first"), errors.New("second")

	cases := []struct {
		name    string
		errs    []error
		wantMsg string
		wantIs  []error
	}{
		{"none", nil, "", nil},
		{"only nil", []error{nil, nil}, "", nil},
		{"single", []error{nil, e1}, "sinks.a: first", []error{e1}},
		{"several", []error{e1, nil, e2}, "sinks.a:\n  - first\n  - second", []error{e1, e2}},
		{
			"nested",
			[]error{errorutil.JoinPrefix("auth:", e1, e2)},
			"sinks.a: auth:\n  - first\n  - second",
			[]error{e1, e2},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			err := errorutil.JoinPrefix("sinks.a:", c.errs...)
			if c.wantMsg == "" {
				if err != nil {
					t.Fatalf("errorutil.JoinPrefix() = %v, want nil", err)
				}
				return
			}
			if got := err.Error(); got != c.wantMsg {
				t.Errorf("errorutil.JoinPrefix() = %q, want %q", got, c.wantMsg)
			}
			for _, target := range c.wantIs {
				if !errors.Is(err, target) {
					t.Errorf("errors.Is(%v, %v) = false, want true", err, target)
				}
			}
		})
	}
}

func TestJoinPrefix_KeepsInput(t *testing.T) {
	t.Parallel()

	e1 := errors.New("first")
	errs := []error{nil, e1}
	errorutil.JoinPrefix("p", errs...)
	if errs[0] != nil || errs[1] != e1 { //nolint:errorlint
		t.Errorf("errorutil.JoinPrefix() modified its input: %v", errs)
	}
}

func TestIsGrammarErr(t *testing.T) {
	t.Parallel()

	if !errorutil.IsGrammarErr(errorutil.NewWrapperError(grammar.ErrMalformedInput, "x")) {
		t.Error("errorutil.IsGrammarErr(malformed input) = false, want true")
	}
	if errorutil.IsGrammarErr(errSentinel) {
		t.Error("errorutil.IsGrammarErr(sentinel) = true, want false")
	}
}
