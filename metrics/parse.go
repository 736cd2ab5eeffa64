// Package metrics reads the Prometheus text exposition of a running sink host.
//
// Only the two series needed to watch a host come up are interpreted:
// the processed events counters and the started gauge, see [EventsProcessedSum]
// and [Started]. [Client] fetches the exposition over HTTP and [Probe] tracks the
// startup progress across several fetches.
package metrics

//go:generate go tool errtrace -w .

import (
	"math/bits"
	"strconv"
	"strings"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sinkuri/internal/errorutil"
)

const (
	// ErrOverflow is returned when the sum of counters does not fit into uint64.
	ErrOverflow errorutil.Error = "counter sum overflows uint64"
	// ErrInvalidValue is returned for a counter value that is not an unsigned integer.
	ErrInvalidValue errorutil.Error = "invalid counter value"
)

const (
	// EventsProcessedName is the name fragment of processed events counters.
	EventsProcessedName = "events_processed"
	// StartedName is the name fragment of the started gauge.
	StartedName = "vector_started"
)

// Sample is a single "name{labels} value" line of the exposition.
// Labels and value are kept as written.
type Sample struct {
	Name   string
	Labels string
	Value  string
}

// ParseText parses the exposition text into samples.
//
// Only lines of the form "name{labels} value" are recognized: the name matches
// [a-zA-Z_:][a-zA-Z0-9_:]*, the labels are any text without "}" (possibly empty),
// the value is the non-empty rest of the line after a single space.
// Everything else, including comments and samples without braces, is skipped.
func ParseText(text string) []Sample {
	var samples []Sample
	for line := range strings.Lines(text) {
		if s, ok := parseLine(strings.TrimRight(line, "\r\n")); ok {
			samples = append(samples, s)
		}
	}
	return samples
}

func parseLine(line string) (Sample, bool) {
	i := 0
	for i < len(line) && isNameChar(line[i], i == 0) {
		i++
	}
	if i == 0 || i == len(line) || line[i] != '{' {
		return Sample{}, false
	}

	labels, rest, ok := strings.Cut(line[i+1:], "}")
	if !ok || len(rest) < 2 || rest[0] != ' ' {
		return Sample{}, false
	}
	return Sample{Name: line[:i], Labels: labels, Value: rest[1:]}, true
}

func isNameChar(c byte, first bool) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', c == '_', c == ':':
		return true
	case '0' <= c && c <= '9':
		return !first
	}
	return false
}

// EventsProcessedSum returns the sum of all counters whose name contains
// [EventsProcessedName], across all labels. No matching counters sum to 0.
func EventsProcessedSum(text string) (uint64, error) {
	var sum uint64
	for _, s := range ParseText(text) {
		if !strings.Contains(s.Name, EventsProcessedName) {
			continue
		}

		v, err := strconv.ParseUint(s.Value, 10, 64)
		if err != nil {
			return 0, errtrace.Wrap(errorutil.NewWrapperError(ErrInvalidValue, "%s{%s} %q", s.Name, s.Labels, s.Value))
		}
		var carry uint64
		if sum, carry = bits.Add64(sum, v, 0); carry != 0 {
			return 0, errtrace.Wrap(ErrOverflow)
		}
	}
	return sum, nil
}

// Started reports whether the text has a gauge whose name contains [StartedName]
// with the value exactly "1".
func Started(text string) bool {
	for _, s := range ParseText(text) {
		if strings.Contains(s.Name, StartedName) && s.Value == "1" {
			return true
		}
	}
	return false
}
