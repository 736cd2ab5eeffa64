package util

import (
	"strings"
	"sync"
)

func LCase[T ~string](s T) T { return T(strings.ToLower(string(s))) }

func EqFold[T1, T2 ~string](s1 T1, s2 T2) bool {
	return strings.EqualFold(string(s1), string(s2))
}

// CutAny slices s around the first byte from chars.
// If none of chars is found, it returns s, "" and 0.
func CutAny(s, chars string) (before, after string, sep byte) {
	if i := strings.IndexAny(s, chars); i >= 0 {
		return s[:i], s[i+1:], s[i]
	}
	return s, "", 0
}

var strBldrPool = &sync.Pool{
	New: func() any {
		sb := new(strings.Builder)
		sb.Grow(256)
		return sb
	},
}

func GetStringBuilder() *strings.Builder {
	return strBldrPool.Get().(*strings.Builder) //nolint:forcetypeassert
}

func FreeStringBuilder(sb *strings.Builder) {
	sb.Reset()
	strBldrPool.Put(sb)
}
