package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hieropold/trogue/internal/core/config"
	"github.com/hieropold/trogue/internal/core/steam"
)

// Process exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
	ExitConfig  = 3
)

// UsageError reports a malformed command line: an unknown command, a missing
// argument, a bad flag value. It is always detected before any Steam call.
type UsageError struct {
	Command string
	Message string
	Err     error
}

func (e *UsageError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if e.Command != "" {
		return fmt.Sprintf("%s: %s", e.Command, msg)
	}
	return msg
}

func (e *UsageError) Unwrap() error { return e.Err }

// Usagef builds a UsageError for command.
func Usagef(command, format string, args ...any) error {
	return &UsageError{Command: command, Message: fmt.Sprintf(format, args...)}
}

// AsUsage wraps err as a usage error of command, keeping the original in the chain.
func AsUsage(command string, err error) error {
	if err == nil {
		return nil
	}
	var ue *UsageError
	if errors.As(err, &ue) {
		return err
	}
	return &UsageError{Command: command, Err: err}
}

// DuplicateCommandError is returned by New when two descriptors claim a name.
type DuplicateCommandError struct {
	Name string
}

func (e *DuplicateCommandError) Error() string {
	return fmt.Sprintf("registry: command name %q registered more than once", e.Name)
}

// ExitCode maps an error returned by the application to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		return ExitUsage
	}
	var cfgErr *config.Error
	if errors.As(err, &cfgErr) {
		return ExitConfig
	}
	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) && exitCoder.ExitCode() != 0 {
		return exitCoder.ExitCode()
	}
	return ExitFailure
}

// Describe renders err as the message printed on stderr, with a hint where
// the user can do something about it.
func Describe(appName string, err error) string {
	if err == nil {
		return ""
	}

	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		help := appName + " --help"
		if usageErr.Command != "" {
			help = appName + " " + usageErr.Command + " --help"
		}
		return fmt.Sprintf("Error: %s\nRun '%s' for usage.", usageErr.Error(), help)
	}

	var cfgErr *config.Error
	if errors.As(err, &cfgErr) {
		return fmt.Sprintf("Error: %s\nSet %s and %s in the environment or in a .env file.",
			cfgErr.Error(), config.APIKeyVar, config.SteamIDVar)
	}

	var apiErr *steam.APIError
	if errors.As(err, &apiErr) {
		var hint string
		switch apiErr.Kind {
		case steam.Network:
			hint = "Steam API unreachable. Check your network connection and try again."
		case steam.Unauthorized:
			hint = fmt.Sprintf("Steam rejected the request. Check %s and %s, and make sure the profile's game details are public.",
				config.APIKeyVar, config.SteamIDVar)
		case steam.Deserialize:
			hint = "Unexpected response format from the Steam API."
		default:
			hint = "The Steam API returned an error."
		}
		return fmt.Sprintf("Error: %s\n%s", err.Error(), hint)
	}

	msg := err.Error()
	if strings.HasPrefix(msg, "Error") {
		return msg
	}
	return "Error: " + msg
}
