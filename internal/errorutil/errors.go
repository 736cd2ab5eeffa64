package errorutil

//go:generate go tool errtrace -w .

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/ghettovoice/sinkuri/internal/util"
)

// Error is a string type that implements the error interface.
type Error string

func (s Error) Error() string { return string(s) }

// NewWrapperError creates or wraps an error with a sentinel error.
// It supports multiple argument patterns:
//   - No args: returns sentinel
//   - error arg: wraps with sentinel (unless already wrapped)
//   - error + string + args: wraps with sentinel and appends the formatted message
//   - string arg: formats as message with sentinel
//   - string + args: formats with Sprintf then wraps with sentinel
func NewWrapperError(sentinel error, args ...any) error {
	if len(args) == 0 {
		return sentinel //errtrace:skip
	}
	switch v := args[0].(type) {
	case error:
		if len(args) > 1 {
			if format, ok := args[1].(string); ok {
				return fmt.Errorf("%w: %w: %s", sentinel, v, fmt.Sprintf(format, args[2:]...)) //errtrace:skip
			}
		}
		if errors.Is(v, sentinel) {
			return v //errtrace:skip
		}
		return fmt.Errorf("%w: %w", sentinel, v) //errtrace:skip
	case string:
		if len(args) == 1 {
			return fmt.Errorf("%w: %s", sentinel, v) //errtrace:skip
		}
		return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(v, args[1:]...)) //errtrace:skip
	default:
		return sentinel //errtrace:skip
	}
}

// ErrInvalidArgument is an error returned when an invalid argument is provided.
const ErrInvalidArgument Error = "invalid argument"

// NewInvalidArgumentError creates a new error with [ErrInvalidArgument] or
// wraps provided error with [ErrInvalidArgument].
func NewInvalidArgumentError(args ...any) error {
	return NewWrapperError(ErrInvalidArgument, args...) //errtrace:skip
}

// JoinPrefix joins non-nil errs under the prefix.
// A single error is rendered inline as "prefix: err", several errors as an indented list.
func JoinPrefix(prefix string, errs ...error) error {
	errs = compact(errs)
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return fmt.Errorf("%s: %w", strings.TrimRight(prefix, ":"), errs[0]) //errtrace:skip
	}
	return &multiError{prefix: prefix, errs: errs} //errtrace:skip
}

func compact(errs []error) []error {
	return slices.DeleteFunc(slices.Clone(errs), func(err error) bool { return err == nil })
}

type multiError struct {
	prefix string
	errs   []error
}

func (e *multiError) Error() string {
	sb := util.GetStringBuilder()
	defer util.FreeStringBuilder(sb)

	sb.WriteString(e.prefix)
	e.writeErrors(sb, "")
	return sb.String()
}

func (e *multiError) writeErrors(sb *strings.Builder, indent string) {
	for _, err := range e.errs {
		sb.WriteString("\n")
		sb.WriteString(indent)
		sb.WriteString("  - ")

		if nested, ok := err.(*multiError); ok { //nolint:errorlint
			sb.WriteString(nested.prefix)
			nested.writeErrors(sb, indent+"  ")
			continue
		}

		msg := err.Error()
		if strings.Contains(msg, "\n") {
			msg = strings.ReplaceAll(msg, "\n", "\n"+indent+"    ")
		}
		sb.WriteString(msg)
	}
}

func (e *multiError) Unwrap() []error { return e.errs }
