package types

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"braces.dev/errtrace"
	"github.com/ghettovoice/abnf"
	"github.com/miekg/dns"

	"github.com/ghettovoice/sinkuri/internal/errorutil"
	"github.com/ghettovoice/sinkuri/internal/grammar"
	"github.com/ghettovoice/sinkuri/internal/util"
)

// Addr is a container for host and optional port.
type Addr struct {
	host    string
	ip      net.IP
	port    uint16
	hasPort bool
}

// Host returns an [Addr] containing the provided host and no port.
func Host(host string) Addr {
	host = strings.Trim(host, "[]")
	return Addr{
		host: host,
		ip:   parseIP(host),
	}
}

// HostPort returns an [Addr] containing the provided host and port.
func HostPort(host string, port uint16) Addr {
	addr := Host(host)
	addr.port = port
	addr.hasPort = true
	return addr
}

func parseIP(host string) net.IP {
	ip := net.ParseIP(host)
	if v := ip.To4(); v != nil {
		ip = v
	}
	return ip
}

// ParseAddr parses a "host[:port]" string into an [Addr].
func ParseAddr[T ~string | ~[]byte](s T) (Addr, error) {
	node, err := grammar.ParseHostport(s)
	if err != nil {
		return Addr{}, errtrace.Wrap(err)
	}
	return errtrace.Wrap2(AddrFromNode(node))
}

// AddrFromNode builds an [Addr] from a "hostport" ABNF node or a node containing it.
// IP literals must hold a valid IPv6 or IPv4 address and the port must fit into 16 bits.
func AddrFromNode(node *abnf.Node) (Addr, error) {
	if node.Key != "hostport" {
		node = grammar.MustGetNode(node, "hostport")
	}

	host := grammar.MustGetNode(node, "host").String()
	if strings.HasPrefix(host, "[") && parseIP(strings.Trim(host, "[]")) == nil {
		return Addr{}, errtrace.Wrap(errorutil.NewWrapperError(grammar.ErrMalformedInput, "invalid IP literal %q", host))
	}

	portNode, ok := node.GetNode("port")
	if !ok {
		return Host(host), nil
	}
	port, err := strconv.ParseUint(portNode.String(), 10, 16)
	if err != nil {
		return Addr{}, errtrace.Wrap(errorutil.NewWrapperError(grammar.ErrMalformedInput, "invalid port %q", portNode.String()))
	}
	return HostPort(host, uint16(port)), nil
}

// Host returns the hostname portion of the address as provided during construction or parsing.
func (addr Addr) Host() string { return addr.host }

// IP returns the parsed IP representation when the host is an IP literal, otherwise nil.
func (addr Addr) IP() net.IP { return addr.ip }

// Port returns the port, in case it is set, and bool flag indicating whether it is set.
func (addr Addr) Port() (uint16, bool) { return addr.port, addr.hasPort }

// String formats the address as host[:port], adding brackets for IPv6 literals.
func (addr Addr) String() string {
	host := addr.host
	if addr.ip != nil {
		host = addr.ip.String()
	}
	if !addr.hasPort {
		if strings.Contains(host, ":") {
			host = "[" + host + "]"
		}
		return host
	}
	return net.JoinHostPort(host, strconv.Itoa(int(addr.port)))
}

// Format implements fmt.Formatter to support custom formatting verbs for Addr values.
func (addr Addr) Format(f fmt.State, verb rune) {
	switch verb {
	case 'q':
		fmt.Fprint(f, strconv.Quote(addr.String()))
		return
	case 'v':
		if f.Flag('+') || f.Flag('#') {
			type hideMethods Addr
			type Addr hideMethods
			fmt.Fprintf(f, fmt.FormatString(f, verb), Addr(addr))
			return
		}
		fallthrough
	default:
		fmt.Fprint(f, addr.String())
	}
}

// Equal reports whether the address equals the provided value, accepting Addr and *Addr.
// Hostnames are compared case-insensitively, IP addresses by value.
func (addr Addr) Equal(val any) bool {
	var other Addr
	switch v := val.(type) {
	case Addr:
		other = v
	case *Addr:
		if v == nil {
			return false
		}
		other = *v
	default:
		return false
	}

	var hostMatch bool
	switch {
	case addr.ip == nil && other.ip == nil:
		hostMatch = util.EqFold(addr.host, other.host)
	case addr.ip != nil && other.ip != nil:
		hostMatch = addr.ip.Equal(other.ip)
	default:
		return false
	}

	return hostMatch && addr.port == other.port && addr.hasPort == other.hasPort
}

// IsValid reports whether the address holds an IP address or a well-formed registered name.
func (addr Addr) IsValid() bool {
	if addr.ip != nil {
		return true
	}
	if !grammar.IsRegName(addr.host) {
		return false
	}
	// percent-encoded names are not DNS names, there is nothing more to check
	if strings.Contains(addr.host, "%") {
		return true
	}
	_, ok := dns.IsDomainName(addr.host)
	return ok
}

// IsZero reports whether the address has zero host, IP and port information.
func (addr Addr) IsZero() bool { return addr.host == "" && addr.ip == nil && !addr.hasPort }

// MarshalText encodes the address into its textual representation.
func (addr Addr) MarshalText() (text []byte, err error) {
	return []byte(addr.String()), nil
}

// UnmarshalText parses a textual representation of an address into the receiver.
func (addr *Addr) UnmarshalText(text []byte) error {
	var err error
	*addr, err = ParseAddr(text)
	if errors.Is(err, grammar.ErrEmptyInput) {
		return nil
	}
	return errtrace.Wrap(err)
}
