// Package ioutil provides writer helpers for RenderTo implementations.
package ioutil

//go:generate go tool errtrace -w .

import (
	"io"
	"sync"

	"braces.dev/errtrace"
)

// CountingWriter wraps an io.Writer, tracks the total number of bytes written
// and remembers the first write error. Writes after an error are no-ops.
type CountingWriter struct {
	w   io.Writer
	num int
	err error
}

// NewCountingWriter creates a new CountingWriter wrapping the given writer.
func NewCountingWriter(w io.Writer) *CountingWriter {
	return &CountingWriter{w: w}
}

// Write implements io.Writer.
func (cw *CountingWriter) Write(p []byte) (n int, err error) {
	if cw.err != nil {
		return 0, errtrace.Wrap(cw.err)
	}
	n, err = cw.w.Write(p)
	return n, errtrace.Wrap(cw.track(n, err))
}

// WriteString writes strings one by one.
func (cw *CountingWriter) WriteString(ss ...string) *CountingWriter {
	for _, s := range ss {
		if cw.err != nil {
			break
		}
		n, err := io.WriteString(cw.w, s)
		cw.track(n, err) //nolint:errcheck
	}
	return cw
}

// Call executes a RenderTo-style function and tracks bytes written.
func (cw *CountingWriter) Call(fn func(io.Writer) (int, error)) *CountingWriter {
	if cw.err != nil {
		return cw
	}
	cw.track(fn(cw.w)) //nolint:errcheck
	return cw
}

func (cw *CountingWriter) track(n int, err error) error {
	cw.num += n
	if err != nil {
		cw.err = errtrace.Wrap(err)
	}
	return cw.err //errtrace:skip
}

// Result returns the total number of bytes written and the first error encountered.
func (cw *CountingWriter) Result() (num int, err error) {
	return cw.num, errtrace.Wrap(cw.err)
}

var cntWrtPool = &sync.Pool{
	New: func() any { return &CountingWriter{} },
}

func GetCountingWriter(w io.Writer) *CountingWriter {
	cw := cntWrtPool.Get().(*CountingWriter) //nolint:forcetypeassert
	cw.w = w
	return cw
}

func FreeCountingWriter(cw *CountingWriter) {
	cw.w = nil
	cw.num = 0
	cw.err = nil
	cntWrtPool.Put(cw)
}
