// Package grammar implements the subset of RFC 3986 needed to split sink URIs:
// scheme, authority (userinfo, host and port) and percent-encoding helpers.
package grammar

//go:generate go tool errtrace -w .

import (
	"fmt"

	"github.com/ghettovoice/abnf"
)

func init() {
	abnf.EnableNodeCache(1024)
}

type Error string

func (e Error) Error() string { return string(e) }

func (Error) Grammar() bool { return true }

const (
	ErrNodeNotFound Error = "node not found"
)

// MustGetNode returns a pointer to the ABNF node with the given key.
func MustGetNode(n *abnf.Node, k string) *abnf.Node {
	sn, ok := n.GetNode(k)
	if !ok {
		panic(fmt.Errorf("get node %q from node %q: %w", k, n.Key, ErrNodeNotFound))
	}
	return sn
}

// IsScheme reports whether s matches the scheme rule.
func IsScheme[T ~string | ~[]byte](s T) bool {
	return matchAll(scheme, s)
}

// IsRegName reports whether s matches the reg-name rule.
func IsRegName[T ~string | ~[]byte](s T) bool {
	return matchAll(regName, s)
}

// IsUserinfo reports whether s matches the userinfo rule.
// Stray "%" characters are accepted, they are left as is by [Unescape].
func IsUserinfo[T ~string | ~[]byte](s T) bool {
	if len(s) == 0 {
		return true
	}
	return matchAll(userinfo, s)
}

func matchAll[T ~string | ~[]byte](op abnf.Operator, s T) bool {
	if len(s) == 0 {
		return false
	}

	ns := abnf.NewNodes()
	defer ns.Free()

	if err := op([]byte(s), 0, ns); err != nil {
		return false
	}
	return ns.Best().Len() == len(s)
}
