package types_test

import (
	"testing"

	"github.com/ghettovoice/sinkuri/internal/types"
)

func TestResponseStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status       types.ResponseStatus
		wantValid    bool
		wantAccepted bool
		wantString   string
		wantClass    string
	}{
		{99, false, false, "99", "invalid"},
		{100, true, false, "100 Continue", "informational"},
		{200, true, true, "200 OK", "success"},
		{204, true, true, "204 No Content", "success"},
		{302, true, true, "302 Found", "redirection"},
		{399, true, true, "399", "redirection"},
		{404, true, false, "404 Not Found", "client failure"},
		{503, true, false, "503 Service Unavailable", "server failure"},
		{600, false, false, "600", "invalid"},
	}

	for _, c := range cases {
		t.Run(c.wantString, func(t *testing.T) {
			t.Parallel()

			if got := c.status.IsValid(); got != c.wantValid {
				t.Errorf("status.IsValid() = %v, want %v", got, c.wantValid)
			}
			if got := c.status.IsAccepted(); got != c.wantAccepted {
				t.Errorf("status.IsAccepted() = %v, want %v", got, c.wantAccepted)
			}
			if got := c.status.String(); got != c.wantString {
				t.Errorf("status.String() = %q, want %q", got, c.wantString)
			}
			if got := c.status.Class(); got != c.wantClass {
				t.Errorf("status.Class() = %q, want %q", got, c.wantClass)
			}
			if !c.status.Equal(int(c.status)) {
				t.Errorf("status.Equal(%d) = false, want true", int(c.status))
			}
		})
	}
}
