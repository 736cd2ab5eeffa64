package uri

//go:generate go tool errtrace -w .

import (
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sinkuri/auth"
	"github.com/ghettovoice/sinkuri/internal/errorutil"
	"github.com/ghettovoice/sinkuri/internal/grammar"
	"github.com/ghettovoice/sinkuri/internal/ioutil"
	"github.com/ghettovoice/sinkuri/internal/types"
	"github.com/ghettovoice/sinkuri/internal/util"
)

// Addr represents a network address consisting of a host and optional port.
type Addr = types.Addr

// Host creates an Addr from a hostname without a port.
func Host(host string) Addr { return types.Host(host) }

// HostPort creates an Addr from a hostname and port.
func HostPort(host string, port uint16) Addr { return types.HostPort(host, port) }

// ParseAddr parses a network address from the given input s (string or []byte).
func ParseAddr[T ~string | ~[]byte](s T) (Addr, error) { return errtrace.Wrap2(types.ParseAddr(s)) }

// RenderOptions contains options for rendering URIs.
type RenderOptions = types.RenderOptions

const (
	// ErrInvalidURI is returned when the input can not be parsed into a sink URI.
	ErrInvalidURI errorutil.Error = "invalid URI"
	// ErrAuthWithoutHost is returned when a URI carries a credential but has no authority to embed it into.
	ErrAuthWithoutHost errorutil.Error = "credential requires an authority"
)

func newInvalidURIErr(args ...any) error {
	return errorutil.NewWrapperError(ErrInvalidURI, args...) //errtrace:skip
}

// URI is a sink URI with an optional credential.
//
// The credential never stays in the authority: [Parse] moves it from the userinfo
// into [URI.Auth], [URI.String] puts it back.
//
// URI is an immutable value, the With* methods return modified copies.
// The zero value is an empty URI.
type URI struct {
	scheme   string
	addr     Addr
	path     string
	rawQuery string
	fragment string
	auth     auth.Auth
}

var (
	_ types.Renderer    = URI{}
	_ types.ValidFlag   = URI{}
	_ types.Validatable = URI{}
)

// Scheme returns the lower-cased URI scheme, empty for "host:port" and path-only URIs.
func (u URI) Scheme() string { return u.scheme }

// Addr returns the host and port of the authority and a flag indicating whether the authority is present.
func (u URI) Addr() (Addr, bool) { return u.addr, !u.addr.IsZero() }

// Path returns the path as it appears in the input.
func (u URI) Path() string { return u.path }

// RawQuery returns the query without the leading "?".
func (u URI) RawQuery() string { return u.rawQuery }

// Fragment returns the fragment without the leading "#".
func (u URI) Fragment() string { return u.fragment }

// Auth returns the credential attached to the URI, nil if there is none.
func (u URI) Auth() auth.Auth { return u.auth }

// IsZero reports whether u is the zero URI.
func (u URI) IsZero() bool {
	return u.scheme == "" && u.addr.IsZero() && u.path == "" && u.rawQuery == "" && u.fragment == "" && u.auth == nil
}

// WithScheme returns a copy of u with the scheme replaced.
func (u URI) WithScheme(scheme string) URI {
	u.scheme = util.LCase(scheme)
	return u
}

// WithAddr returns a copy of u with the authority host and port replaced.
func (u URI) WithAddr(addr Addr) URI {
	u.addr = addr
	return u
}

// WithPath returns a copy of u with the path replaced.
func (u URI) WithPath(path string) URI {
	u.path = path
	return u
}

// WithRawQuery returns a copy of u with the query replaced.
func (u URI) WithRawQuery(q string) URI {
	u.rawQuery = q
	return u
}

// WithFragment returns a copy of u with the fragment replaced.
func (u URI) WithFragment(f string) URI {
	u.fragment = f
	return u
}

// WithAuth returns a copy of u with the credential replaced. A nil credential removes it.
func (u URI) WithAuth(a auth.Auth) URI {
	u.auth = a
	return u
}

// WithoutAuth returns a copy of u without credential.
func (u URI) WithoutAuth() URI { return u.WithAuth(nil) }

// MergeAuth reconciles the credential of u with a separately configured one, see [auth.Merge].
func (u URI) MergeAuth(configured auth.Auth) (auth.Auth, error) {
	return errtrace.Wrap2(auth.Merge(u.auth, configured))
}

// Resolve merges the credential of u with the configured one and returns
// u without credential together with the single resolved credential.
func (u URI) Resolve(configured auth.Auth) (URI, auth.Auth, error) {
	a, err := u.MergeAuth(configured)
	if err != nil {
		return URI{}, nil, errtrace.Wrap(err)
	}
	return u.WithoutAuth(), a, nil
}

// RenderTo writes the canonical form of u to w.
//
// The credential is embedded into the authority as "user:password@",
// both parts percent-encoded, the delimiter is kept for an empty password.
// With redacting options the password is replaced with [auth.Mask].
// A URI without authority can not carry a credential, it is not rendered.
func (u URI) RenderTo(w io.Writer, opts *RenderOptions) (num int, err error) {
	cw := ioutil.GetCountingWriter(w)
	defer ioutil.FreeCountingWriter(cw)

	hasAddr := !u.addr.IsZero()
	if u.scheme != "" {
		if hasAddr {
			cw.WriteString(u.scheme, "://")
		} else {
			cw.WriteString(u.scheme, ":")
		}
	}
	if hasAddr {
		if u.auth != nil {
			cw.Call(func(w io.Writer) (int, error) { return renderUserinfo(w, u.auth, opts) })
		}
		cw.WriteString(u.addr.String())
		if u.path != "" && u.path[0] != '/' {
			cw.WriteString("/")
		}
	}
	cw.WriteString(u.path)
	if u.rawQuery != "" {
		cw.WriteString("?", u.rawQuery)
	}
	if u.fragment != "" {
		cw.WriteString("#", u.fragment)
	}
	return errtrace.Wrap2(cw.Result())
}

func shouldEscapeUserChar(c byte) bool { return !grammar.IsUserCharUnreserved(c) }

func shouldEscapePasswdChar(c byte) bool { return !grammar.IsPasswdCharUnreserved(c) }

func renderUserinfo(w io.Writer, a auth.Auth, opts *RenderOptions) (int, error) {
	switch a := a.(type) {
	case auth.Basic:
		user, passwd := grammar.Escape(a.User, shouldEscapeUserChar), grammar.Escape(a.Password, shouldEscapePasswdChar)
		if opts.IsRedact() {
			passwd = auth.Mask
		}
		return errtrace.Wrap2(fmt.Fprint(w, user, ":", passwd, "@"))
	default:
		return 0, nil
	}
}

// Render returns the canonical string form of u rendered with the given options.
func (u URI) Render(opts *RenderOptions) string {
	sb := util.GetStringBuilder()
	defer util.FreeStringBuilder(sb)
	u.RenderTo(sb, opts) //nolint:errcheck
	return sb.String()
}

// String returns the canonical string form of u, including the credential.
// Use [URI.Redacted] for logs and error messages.
func (u URI) String() string { return u.Render(nil) }

// Redacted returns the string form of u with secrets masked.
func (u URI) Redacted() string { return u.Render(&RenderOptions{Redact: true}) }

// Format implements fmt.Formatter.
// Verbs "%v", "%s" and "%q" print the redacted form, "%+s" prints the full canonical form.
func (u URI) Format(f fmt.State, verb rune) {
	switch verb {
	case 's':
		if f.Flag('+') {
			u.RenderTo(f, nil) //nolint:errcheck
			return
		}
		u.RenderTo(f, &RenderOptions{Redact: true}) //nolint:errcheck
		return
	case 'q':
		fmt.Fprint(f, strconv.Quote(u.Redacted()))
		return
	default:
		fmt.Fprint(f, u.Redacted())
		return
	}
}

// LogValue implements [slog.LogValuer], the credential is masked.
func (u URI) LogValue() slog.Value { return slog.StringValue(u.Redacted()) }

// Equal compares u with another URI.
// Scheme and host are compared case-insensitively, path, query and fragment exactly.
func (u URI) Equal(val any) bool {
	var other URI
	switch v := val.(type) {
	case URI:
		other = v
	case *URI:
		if v == nil {
			return false
		}
		other = *v
	default:
		return false
	}

	return util.EqFold(u.scheme, other.scheme) &&
		u.addr.Equal(other.addr) &&
		u.path == other.path &&
		u.rawQuery == other.rawQuery &&
		u.fragment == other.fragment &&
		auth.Equal(u.auth, other.auth)
}

// Validate checks that u can be rendered without losing information.
func (u URI) Validate() error {
	hasAddr := !u.addr.IsZero()
	switch {
	case u.IsZero():
		return errtrace.Wrap(newInvalidURIErr(grammar.ErrEmptyInput))
	case hasAddr && !u.addr.IsValid():
		return errtrace.Wrap(newInvalidURIErr("invalid host %q", u.addr.Host()))
	case !hasAddr && u.auth != nil:
		return errtrace.Wrap(ErrAuthWithoutHost)
	case u.scheme != "" && !grammar.IsScheme(u.scheme):
		return errtrace.Wrap(newInvalidURIErr("invalid scheme %q", u.scheme))
	}
	if u.auth != nil {
		return errtrace.Wrap(u.auth.Validate())
	}
	return nil
}

// IsValid reports whether [URI.Validate] succeeds.
func (u URI) IsValid() bool { return u.Validate() == nil }

// URL converts u to a [net/url.URL] suitable for HTTP clients.
// The credential is not included, apply it with [auth.Apply].
// A URI without scheme is assumed to be "http".
func (u URI) URL() (*url.URL, error) {
	if u.addr.IsZero() {
		return nil, errtrace.Wrap(newInvalidURIErr("no authority in %q", u.Redacted()))
	}
	if u.scheme == "" {
		u.scheme = "http"
	}
	pu, err := url.Parse(u.WithoutAuth().String())
	if err != nil {
		return nil, errtrace.Wrap(newInvalidURIErr(err))
	}
	return pu, nil
}

// MarshalText implements [encoding.TextMarshaler].
// It fails instead of silently dropping a credential that can not be rendered.
func (u URI) MarshalText() ([]byte, error) {
	if u.IsZero() {
		return []byte{}, nil
	}
	if err := u.Validate(); err != nil {
		return nil, errtrace.Wrap(err)
	}
	return []byte(u.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (u *URI) UnmarshalText(text []byte) error {
	u1, err := Parse(text)
	if err != nil {
		*u = URI{}
		return errtrace.Wrap(err)
	}
	*u = u1
	return nil
}

// Parse parses a sink URI from the given input s (string or []byte).
//
// Accepted forms:
//   - absolute: "scheme://[user[:password]@]host[:port][/path][?query][#fragment]";
//   - authority: "[user[:password]@]host[:port][/path][?query][#fragment]";
//   - path: "/path[?query][#fragment]".
//
// Credentials found in the userinfo are removed from the authority and attached
// to the result, see [ExtractAuth].
// Errors wrap [ErrInvalidURI].
func Parse[T ~string | ~[]byte](s T) (URI, error) {
	if len(s) == 0 {
		return URI{}, errtrace.Wrap(newInvalidURIErr(grammar.ErrEmptyInput))
	}

	str := string(s)
	if i := strings.IndexFunc(str, isCtlOrSpace); i >= 0 {
		return URI{}, errtrace.Wrap(newInvalidURIErr(grammar.ErrMalformedInput, "illegal character %q at position %d", str[i], i))
	}

	var u URI
	rest := str
	if i := strings.Index(rest, "://"); i >= 0 && !strings.ContainsAny(rest[:i], "/?#") {
		if !grammar.IsScheme(rest[:i]) {
			return URI{}, errtrace.Wrap(newInvalidURIErr(grammar.ErrMalformedInput, "invalid scheme %q", rest[:i]))
		}
		u.scheme = util.LCase(rest[:i])
		rest = rest[i+3:]
	}

	if u.scheme != "" || !strings.HasPrefix(rest, "/") {
		rawAuthority := rest
		if i := strings.IndexAny(rest, "/?#"); i >= 0 {
			rawAuthority, rest = rest[:i], rest[i:]
		} else {
			rest = ""
		}
		if rawAuthority == "" {
			return URI{}, errtrace.Wrap(newInvalidURIErr(grammar.ErrMalformedInput, "missing authority"))
		}

		var err error
		if u.addr, u.auth, err = parseAuthority(rawAuthority); err != nil {
			return URI{}, errtrace.Wrap(err)
		}
	}

	var sep byte
	u.path, rest, sep = util.CutAny(rest, "?#")
	if sep == '?' {
		u.rawQuery, u.fragment, _ = strings.Cut(rest, "#")
	} else {
		u.fragment = rest
	}
	return u, nil
}

func isCtlOrSpace(r rune) bool { return r <= ' ' || r == 0x7f }

func parseAuthority(s string) (Addr, auth.Auth, error) {
	node, err := grammar.ParseAuthority(s)
	if err != nil {
		return Addr{}, nil, errtrace.Wrap(newInvalidURIErr(err))
	}

	addr, err := types.AddrFromNode(node)
	if err != nil {
		return Addr{}, nil, errtrace.Wrap(newInvalidURIErr(err))
	}
	if !addr.IsValid() {
		return Addr{}, nil, errtrace.Wrap(newInvalidURIErr(grammar.ErrMalformedInput, "invalid host %q", addr.Host()))
	}

	var a auth.Auth
	if n, ok := node.GetNode("userinfo"); ok {
		a = authFromUserinfo(n.String())
	}
	return addr, a, nil
}

// ExtractAuth removes the "user[:password]@" prefix from a raw authority.
//
// The user and password are percent-decoded lossily, malformed escapes are kept
// and invalid UTF-8 is replaced with U+FFFD, so extraction never fails.
// A credential is returned only when the decoded user is not empty,
// the userinfo is stripped in any case.
func ExtractAuth(authority string) (string, auth.Auth) {
	i := strings.LastIndexByte(authority, '@')
	if i < 0 {
		return authority, nil
	}
	return authority[i+1:], authFromUserinfo(authority[:i])
}

func authFromUserinfo(userinfo string) auth.Auth {
	user, passwd, _ := strings.Cut(userinfo, ":")
	user = grammar.UnescapeLossy(user)
	if user == "" {
		return nil
	}
	return auth.Basic{User: user, Password: grammar.UnescapeLossy(passwd)}
}
