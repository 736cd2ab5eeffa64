package grammar

import (
	"braces.dev/errtrace"
	"github.com/ghettovoice/abnf"

	"github.com/ghettovoice/sinkuri/internal/errorutil"
)

const (
	ErrEmptyInput     Error = "empty input"
	ErrMalformedInput Error = "malformed input"
)

func newMalformedInputErr(args ...any) error {
	return errorutil.NewWrapperError(ErrMalformedInput, args...) //errtrace:skip
}

// ParseAuthority parses "[ userinfo "@" ] host [ ":" port ]".
// The returned node contains "hostport", "host" and optional "userinfo" and "port" nodes.
func ParseAuthority[T ~string | ~[]byte](s T) (*abnf.Node, error) {
	return errtrace.Wrap2(parse(authority, s))
}

// ParseHostport parses "host [ ":" port ]".
func ParseHostport[T ~string | ~[]byte](s T) (*abnf.Node, error) {
	return errtrace.Wrap2(parse(hostport, s))
}

func parse[T ~string | ~[]byte](op abnf.Operator, s T) (*abnf.Node, error) {
	if len(s) == 0 {
		return nil, errtrace.Wrap(ErrEmptyInput)
	}

	ns := abnf.NewNodes()
	defer ns.Free()

	if err := op([]byte(s), 0, ns); err != nil {
		return nil, errtrace.Wrap(newMalformedInputErr(err))
	}

	n := ns.Best()
	if nl, il := n.Len(), len(s); nl < il {
		return nil, errtrace.Wrap(newMalformedInputErr("unexpected %q at position %d", s[nl:], nl))
	}
	return n, nil
}
