package metrics_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ghettovoice/sinkuri/metrics"
)

type step struct {
	status int
	body   string
}

// sequence replies with the steps in order and repeats the last one.
type sequence struct {
	mu    sync.Mutex
	steps []step
}

func (s *sequence) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	st := s.steps[0]
	if len(s.steps) > 1 {
		s.steps = s.steps[1:]
	}
	s.mu.Unlock()

	w.WriteHeader(st.status)
	io.WriteString(w, st.body) //nolint:errcheck
}

func TestProbe_Check(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		steps  []step
		want   []metrics.ProbeState
		wantN  uint64
		errors []error
	}{
		{
			"startup",
			[]step{
				{http.StatusOK, ""},
				{http.StatusOK, "vector_started{} 1\nevents_processed{} 0\n"},
				{http.StatusOK, "vector_started{} 1\nevents_processed{} 0\n"},
				{http.StatusOK, "vector_started{} 1\nevents_processed{a=\"1\"} 3\nevents_processed{a=\"2\"} 4\n"},
				{http.StatusOK, "vector_started{} 1\nevents_processed{} 9\n"},
			},
			[]metrics.ProbeState{
				metrics.ProbePending,
				metrics.ProbeStarted,
				metrics.ProbeStarted,
				metrics.ProbeProcessing,
				metrics.ProbeProcessing,
			},
			9,
			[]error{nil, nil, nil, nil, nil},
		},
		{
			"started with events",
			[]step{
				{http.StatusOK, "vector_started{} 1\nevents_processed{} 5\n"},
				{http.StatusOK, "vector_started{} 1\nevents_processed{} 6\n"},
			},
			[]metrics.ProbeState{metrics.ProbeStarted, metrics.ProbeProcessing},
			6,
			[]error{nil, nil},
		},
		{
			"restart",
			[]step{
				{http.StatusOK, "vector_started{} 1\nevents_processed{} 5\n"},
				{http.StatusOK, "vector_started{} 1\nevents_processed{} 8\n"},
				{http.StatusOK, "vector_started{} 1\nevents_processed{} 2\n"},
				{http.StatusOK, "vector_started{} 1\nevents_processed{} 20\n"},
			},
			[]metrics.ProbeState{
				metrics.ProbeStarted,
				metrics.ProbeProcessing,
				metrics.ProbeFailed,
				metrics.ProbeFailed,
			},
			20,
			[]error{nil, nil, nil, nil},
		},
		{
			"load failures keep the state",
			[]step{
				{http.StatusServiceUnavailable, ""},
				{http.StatusOK, "vector_started{} 1\n"},
				{http.StatusOK, "vector_started{} 1\nevents_processed{} x\n"},
				{http.StatusBadGateway, ""},
			},
			[]metrics.ProbeState{
				metrics.ProbePending,
				metrics.ProbeStarted,
				metrics.ProbeStarted,
				metrics.ProbeStarted,
			},
			0,
			[]error{metrics.ErrUnexpectedStatus, nil, metrics.ErrInvalidValue, metrics.ErrUnexpectedStatus},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			srv, endpoint := newServer(t, (&sequence{steps: c.steps}).ServeHTTP)
			probe := metrics.NewProbe(&metrics.Client{Doer: srv.Client()}, endpoint)
			if got := probe.State(); got != metrics.ProbePending {
				t.Fatalf("probe.State() = %q, want %q", got, metrics.ProbePending)
			}

			for i, want := range c.want {
				got, err := probe.Check(t.Context())
				if !errors.Is(err, c.errors[i]) {
					t.Errorf("check #%d: probe.Check() error = %v, want %v", i, err, c.errors[i])
				}
				if got != want {
					t.Errorf("check #%d: probe.Check() = %q, want %q", i, got, want)
				}
				if got != probe.State() {
					t.Errorf("check #%d: probe.State() = %q, want %q", i, probe.State(), got)
				}
			}
			if got := probe.Processed(); got != c.wantN {
				t.Errorf("probe.Processed() = %d, want %d", got, c.wantN)
			}
		})
	}
}

func TestProbe_OnStateChange(t *testing.T) {
	t.Parallel()

	srv, endpoint := newServer(t, (&sequence{steps: []step{
		{http.StatusOK, "vector_started{} 1\nevents_processed{} 1\n"},
		{http.StatusOK, "vector_started{} 1\nevents_processed{} 1\n"},
		{http.StatusOK, "vector_started{} 1\nevents_processed{} 2\n"},
		{http.StatusOK, "vector_started{} 1\nevents_processed{} 0\n"},
	}}).ServeHTTP)
	probe := metrics.NewProbe(&metrics.Client{Doer: srv.Client()}, endpoint)

	var got [][2]metrics.ProbeState
	probe.OnStateChange(func(_ context.Context, from, to metrics.ProbeState) {
		got = append(got, [2]metrics.ProbeState{from, to})
	})
	removed := probe.OnStateChange(func(context.Context, metrics.ProbeState, metrics.ProbeState) {
		t.Error("removed callback was called")
	})
	removed()

	for range 4 {
		if _, err := probe.Check(t.Context()); err != nil {
			t.Fatalf("probe.Check() error = %v, want nil", err)
		}
	}

	want := [][2]metrics.ProbeState{
		{metrics.ProbePending, metrics.ProbeStarted},
		{metrics.ProbeStarted, metrics.ProbeProcessing},
		{metrics.ProbeProcessing, metrics.ProbeFailed},
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("state changes mismatch\ndiff (-got +want):\n%v", diff)
	}
}
