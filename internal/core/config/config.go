// Package config loads the Steam credentials trogue needs from the process environment.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

const (
	APIKeyVar  = "TROGUE_STEAM_API_KEY"
	SteamIDVar = "TROGUE_STEAM_ID"
)

// Config holds the credentials used for every Steam Web API call.
// It is loaded once and passed around by value.
type Config struct {
	APIKey  string `env:"TROGUE_STEAM_API_KEY,required,notEmpty"`
	SteamID string `env:"TROGUE_STEAM_ID,required,notEmpty"`
}

// ErrorKind classifies configuration failures.
type ErrorKind int

const (
	MissingVariable ErrorKind = iota + 1
	InvalidVariable
)

func (k ErrorKind) String() string {
	switch k {
	case MissingVariable:
		return "missing variable"
	case InvalidVariable:
		return "invalid variable"
	default:
		return "unknown"
	}
}

// Error reports which environment variable prevented the configuration from loading.
type Error struct {
	Kind   ErrorKind
	Name   string
	Reason string
}

func (e *Error) Error() string {
	switch e.Kind {
	case MissingVariable:
		return fmt.Sprintf("missing %s environment variable", e.Name)
	case InvalidVariable:
		return fmt.Sprintf("invalid %s environment variable: %s", e.Name, e.Reason)
	default:
		return fmt.Sprintf("configuration error for %s", e.Name)
	}
}

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, translate(err)
	}
	return cfg, validate(cfg)
}

// LoadFrom reads the configuration from the given variables instead of the
// process environment.
func LoadFrom(vars map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return Config{}, translate(err)
	}
	return cfg, validate(cfg)
}

func validate(cfg Config) error {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return &Error{Kind: MissingVariable, Name: APIKeyVar}
	}
	if strings.TrimSpace(cfg.SteamID) == "" {
		return &Error{Kind: MissingVariable, Name: SteamIDVar}
	}
	for _, r := range cfg.SteamID {
		if r < '0' || r > '9' {
			return &Error{Kind: InvalidVariable, Name: SteamIDVar, Reason: "expected a numeric SteamID64"}
		}
	}
	return nil
}

// translate maps the first error reported by the env parser onto Error.
// Fields are parsed in declaration order, so the API key is reported first.
func translate(err error) error {
	var agg env.AggregateError
	if !errors.As(err, &agg) || len(agg.Errors) == 0 {
		return fmt.Errorf("failed to read environment: %w", err)
	}
	switch e := agg.Errors[0].(type) {
	case env.VarIsNotSetError:
		return &Error{Kind: MissingVariable, Name: e.Key}
	case *env.VarIsNotSetError:
		return &Error{Kind: MissingVariable, Name: e.Key}
	case env.EmptyVarError:
		return &Error{Kind: MissingVariable, Name: e.Key}
	case *env.EmptyVarError:
		return &Error{Kind: MissingVariable, Name: e.Key}
	default:
		return fmt.Errorf("failed to read environment: %w", err)
	}
}
