package types

import (
	"fmt"
	"net/http"
)

// ResponseStatus is an HTTP response status code.
type ResponseStatus int

func (s ResponseStatus) IsValid() bool { return s >= 100 && s < 600 }

func (s ResponseStatus) Equal(val any) bool {
	var other ResponseStatus
	switch v := val.(type) {
	case ResponseStatus:
		other = v
	case *ResponseStatus:
		if v == nil {
			return false
		}
		other = *v
	case int:
		other = ResponseStatus(v)
	default:
		return false
	}
	return s == other
}

func (s ResponseStatus) IsInformational() bool { return s >= 100 && s < 200 }

func (s ResponseStatus) IsSuccessful() bool { return s >= 200 && s < 300 }

func (s ResponseStatus) IsRedirection() bool { return s >= 300 && s < 400 }

func (s ResponseStatus) IsClientFailure() bool { return s >= 400 && s < 500 }

func (s ResponseStatus) IsServerFailure() bool { return s >= 500 && s < 600 }

// IsAccepted reports whether the status is a success or a redirection.
func (s ResponseStatus) IsAccepted() bool { return s.IsSuccessful() || s.IsRedirection() }

// Class returns a human readable name of the status class, "invalid" for out of range codes.
func (s ResponseStatus) Class() string {
	switch {
	case s.IsInformational():
		return "informational"
	case s.IsSuccessful():
		return "success"
	case s.IsRedirection():
		return "redirection"
	case s.IsClientFailure():
		return "client failure"
	case s.IsServerFailure():
		return "server failure"
	default:
		return "invalid"
	}
}

func (s ResponseStatus) Reason() string { return http.StatusText(int(s)) }

func (s ResponseStatus) String() string {
	if r := s.Reason(); r != "" {
		return fmt.Sprintf("%d %s", int(s), r)
	}
	return fmt.Sprintf("%d", int(s))
}
