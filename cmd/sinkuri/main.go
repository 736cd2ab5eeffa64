// sinkuri inspects sink URIs and sink configuration files.
//
//	sinkuri [--debug] parse [--auth-user U --auth-password P] [--show-secrets] URI
//	sinkuri [--debug] check FILE
//	sinkuri [--debug] metrics [--started] [--timeout D] URI
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"os/signal"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/ghettovoice/sinkuri/auth"
	"github.com/ghettovoice/sinkuri/config"
	"github.com/ghettovoice/sinkuri/internal/errorutil"
	"github.com/ghettovoice/sinkuri/internal/log"
	"github.com/ghettovoice/sinkuri/metrics"
	"github.com/ghettovoice/sinkuri/uri"
)

const usage = `usage: sinkuri [--debug] <command> [flags] <arg>

commands:
  parse    parse a sink URI and print its components
  check    load a sink config file and resolve credentials of all sinks
  metrics  load a metrics endpoint and print the processed events sum
`

var errUsage = errors.New("invalid usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		if errorutil.IsGrammarErr(err) {
			fmt.Fprintln(os.Stderr, "expected [scheme://][user[:password]@]host[:port][/path][?query][#fragment]")
		}
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var debug bool
	flagSet := pflag.NewFlagSet("sinkuri", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.SetInterspersed(false)
	flagSet.BoolVar(&debug, "debug", false, "enable debug logging")
	flagSet.Usage = func() {
		fmt.Fprint(stderr, usage)
		flagSet.PrintDefaults()
	}
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return errUsage
	}

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := log.New(stderr, level, debug)

	if flagSet.NArg() == 0 {
		flagSet.Usage()
		return errUsage
	}
	cmd, cmdArgs := flagSet.Arg(0), flagSet.Args()[1:]
	switch cmd {
	case "parse":
		return runParse(cmdArgs, stdout, stderr)
	case "check":
		return runCheck(cmdArgs, stdout, stderr, logger)
	case "metrics":
		return runMetrics(ctx, cmdArgs, stdout, stderr, logger)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", cmd)
		flagSet.Usage()
		return errUsage
	}
}

func newCommandFlagSet(name, argName string, stderr io.Writer) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.Usage = func() {
		fmt.Fprintf(stderr, "usage: sinkuri %s [flags] %s\n", name, argName)
		flagSet.PrintDefaults()
	}
	return flagSet
}

func parseCommandFlags(flagSet *pflag.FlagSet, args []string) (string, error) {
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return "", nil
		}
		return "", errUsage
	}
	if flagSet.NArg() != 1 {
		flagSet.Usage()
		return "", errUsage
	}
	return flagSet.Arg(0), nil
}

func runParse(args []string, stdout, stderr io.Writer) error {
	var (
		user, passwd string
		showSecrets  bool
	)
	flagSet := newCommandFlagSet("parse", "URI", stderr)
	flagSet.StringVar(&user, "auth-user", "", "user of a separately configured basic credential")
	flagSet.StringVar(&passwd, "auth-password", "", "password of a separately configured basic credential")
	flagSet.BoolVar(&showSecrets, "show-secrets", false, "print passwords instead of masking them")

	arg, err := parseCommandFlags(flagSet, args)
	if err != nil || arg == "" {
		return err
	}

	u, err := uri.Parse(arg)
	if err != nil {
		return err
	}

	var configured auth.Auth
	if flagSet.Changed("auth-user") || flagSet.Changed("auth-password") {
		configured, err = (&auth.Config{Strategy: auth.StrategyBasic, User: user, Password: passwd}).Auth()
		if err != nil {
			return err
		}
	}
	rest, a, err := u.Resolve(configured)
	if err != nil {
		return err
	}

	render := uri.URI.Redacted
	if showSecrets {
		render = uri.URI.String
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 1, ' ', 0)
	fmt.Fprintf(tw, "uri:\t%s\n", render(u))
	fmt.Fprintf(tw, "endpoint:\t%s\n", rest)
	if s := u.Scheme(); s != "" {
		fmt.Fprintf(tw, "scheme:\t%s\n", s)
	}
	if addr, ok := u.Addr(); ok {
		fmt.Fprintf(tw, "host:\t%s\n", addr.Host())
		if port, ok := addr.Port(); ok {
			fmt.Fprintf(tw, "port:\t%d\n", port)
		}
	}
	if p := u.Path(); p != "" {
		fmt.Fprintf(tw, "path:\t%s\n", p)
	}
	if q := u.RawQuery(); q != "" {
		fmt.Fprintf(tw, "query:\t%s\n", q)
	}
	if f := u.Fragment(); f != "" {
		fmt.Fprintf(tw, "fragment:\t%s\n", f)
	}
	if b, ok := a.(auth.Basic); ok {
		fmt.Fprintf(tw, "auth:\t%s\n", b.Strategy())
		fmt.Fprintf(tw, "user:\t%s\n", b.User)
		if b.Password != "" {
			if showSecrets {
				fmt.Fprintf(tw, "password:\t%s\n", b.Password)
			} else {
				fmt.Fprintf(tw, "password:\t%s\n", auth.Mask)
			}
		}
	}
	return tw.Flush()
}

func runCheck(args []string, stdout, stderr io.Writer, logger *slog.Logger) error {
	flagSet := newCommandFlagSet("check", "FILE", stderr)
	path, err := parseCommandFlags(flagSet, args)
	if err != nil || path == "" {
		return err
	}

	opts := &config.LoadOptions{Logger: logger}
	doc, err := config.LoadFile(path, opts)
	if err != nil {
		return err
	}
	eps, err := doc.Resolve(opts)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SINK\tENDPOINT\tAUTH")
	for _, name := range slices.Sorted(maps.Keys(eps)) {
		ep := eps[name]
		strategy := "-"
		if ep.Auth != nil {
			strategy = string(ep.Auth.Strategy())
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", name, ep.URI, strategy)
	}
	return tw.Flush()
}

func runMetrics(ctx context.Context, args []string, stdout, stderr io.Writer, logger *slog.Logger) error {
	var (
		started bool
		timeout time.Duration
	)
	flagSet := newCommandFlagSet("metrics", "URI", stderr)
	flagSet.BoolVar(&started, "started", false, "only check that the host reports it has started")
	flagSet.DurationVar(&timeout, "timeout", 10*time.Second, "request timeout")

	arg, err := parseCommandFlags(flagSet, args)
	if err != nil || arg == "" {
		return err
	}

	endpoint, err := uri.Parse(arg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client := &metrics.Client{Logger: logger}
	if started {
		if err := client.AssertStarted(ctx, endpoint); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "started")
		return nil
	}

	n, err := client.EventsProcessed(ctx, endpoint)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, n)
	return nil
}
