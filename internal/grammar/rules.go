package grammar

import "github.com/ghettovoice/abnf"

func lit(c byte) abnf.Operator {
	return abnf.Literal(`"`+string(c)+`"`, []byte{c})
}

var (
	alpha = abnf.AltFirst(
		"ALPHA",
		abnf.Range("%x41-5A", []byte{0x41}, []byte{0x5A}),
		abnf.Range("%x61-7A", []byte{0x61}, []byte{0x7A}),
	)
	digit  = abnf.Range("DIGIT", []byte{0x30}, []byte{0x39})
	hexdig = abnf.AltFirst(
		"HEXDIG",
		digit,
		abnf.Range("%x41-46", []byte{0x41}, []byte{0x46}),
		abnf.Range("%x61-66", []byte{0x61}, []byte{0x66}),
	)

	// unreserved = ALPHA / DIGIT / "-" / "." / "_" / "~"
	unreserved = abnf.AltFirst("unreserved", alpha, digit, lit('-'), lit('.'), lit('_'), lit('~'))
	// pct-encoded = "%" HEXDIG HEXDIG
	pctEncoded = abnf.Concat("pct-encoded", lit('%'), hexdig, hexdig)
	// sub-delims = "!" / "$" / "&" / "'" / "(" / ")" / "*" / "+" / "," / ";" / "="
	subDelims = abnf.AltFirst(
		"sub-delims",
		lit('!'), lit('$'), lit('&'), lit('\''), lit('('), lit(')'),
		lit('*'), lit('+'), lit(','), lit(';'), lit('='),
	)

	// scheme = ALPHA *( ALPHA / DIGIT / "+" / "-" / "." )
	scheme = abnf.Concat(
		"scheme",
		alpha,
		abnf.Repeat0Inf("*( ALPHA / DIGIT / \"+\" / \"-\" / \".\" )",
			abnf.AltFirst("ALPHA / DIGIT / \"+\" / \"-\" / \".\"", alpha, digit, lit('+'), lit('-'), lit('.')),
		),
	)

	// userinfo = *( unreserved / pct-encoded / sub-delims / ":" / "%" )
	//
	// The trailing "%" alternative is a relaxation of RFC 3986:
	// malformed escapes are kept and decoded lossily later.
	userinfo = abnf.Repeat0Inf(
		"userinfo",
		abnf.AltFirst("unreserved / pct-encoded / sub-delims / \":\" / \"%\"",
			unreserved, pctEncoded, subDelims, lit(':'), lit('%'),
		),
	)

	// IP-literal = "[" 1*( HEXDIG / ":" / "." ) "]"
	//
	// The literal is checked by net.ParseIP afterwards, IPvFuture and zone IDs are not supported.
	ipLiteral = abnf.Concat(
		"IP-literal",
		lit('['),
		abnf.Repeat1Inf("1*( HEXDIG / \":\" / \".\" )", abnf.AltFirst("HEXDIG / \":\" / \".\"", hexdig, lit(':'), lit('.'))),
		lit(']'),
	)
	// reg-name = 1*( unreserved / pct-encoded / sub-delims )
	//
	// IPv4 addresses are matched by reg-name as well.
	regName = abnf.Repeat1Inf(
		"reg-name",
		abnf.AltFirst("unreserved / pct-encoded / sub-delims", unreserved, pctEncoded, subDelims),
	)
	// host = IP-literal / reg-name
	host = abnf.AltFirst("host", ipLiteral, regName)
	// port = 1*DIGIT
	port = abnf.Repeat1Inf("port", digit)

	// hostport = host [ ":" port ]
	hostport = abnf.Concat(
		"hostport",
		host,
		abnf.Optional("[ \":\" port ]", abnf.Concat("\":\" port", lit(':'), port)),
	)
	// authority = [ userinfo "@" ] hostport
	authority = abnf.Concat(
		"authority",
		abnf.Optional("[ userinfo \"@\" ]", abnf.Concat("userinfo \"@\"", userinfo, lit('@'))),
		hostport,
	)
)
