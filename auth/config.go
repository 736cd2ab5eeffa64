package auth

import (
	"log/slog"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sinkuri/internal/errorutil"
	"github.com/ghettovoice/sinkuri/internal/util"
)

// Config is the configuration block of a credential:
//
//	auth:
//	  strategy: basic
//	  user: alice
//	  password: secret
type Config struct {
	Strategy Strategy `json:"strategy" yaml:"strategy" toml:"strategy" mapstructure:"strategy"`
	User     string   `json:"user,omitempty" yaml:"user,omitempty" toml:"user,omitempty" mapstructure:"user"`
	Password string   `json:"password,omitempty" yaml:"password,omitempty" toml:"password,omitempty" mapstructure:"password"`
}

// Auth builds the credential described by the configuration.
// A nil config yields a nil credential.
func (c *Config) Auth() (Auth, error) {
	if c == nil {
		return nil, nil
	}

	switch Strategy(util.LCase(string(c.Strategy))) {
	case StrategyBasic:
		a := Basic{User: c.User, Password: c.Password}
		if err := a.Validate(); err != nil {
			return nil, errtrace.Wrap(err)
		}
		return a, nil
	case "":
		return nil, errtrace.Wrap(errorutil.NewWrapperError(ErrUnknownStrategy, "strategy is required"))
	default:
		return nil, errtrace.Wrap(errorutil.NewWrapperError(ErrUnknownStrategy, "%q", c.Strategy))
	}
}

// LogValue implements [slog.LogValuer], the password is never logged.
func (c *Config) LogValue() slog.Value {
	if c == nil {
		return slog.Value{}
	}
	return slog.GroupValue(
		slog.String("strategy", string(c.Strategy)),
		slog.String("user", c.User),
		slog.String("password", mask(c.Password)),
	)
}

// ConfigOf returns the configuration block describing a.
// A nil credential yields a nil config.
func ConfigOf(a Auth) *Config {
	switch a := a.(type) {
	case Basic:
		return &Config{Strategy: StrategyBasic, User: a.User, Password: a.Password}
	default:
		return nil
	}
}
