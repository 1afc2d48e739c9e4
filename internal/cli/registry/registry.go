// Package registry folds the trogue command descriptors into a urfave/cli
// application and dispatches a parsed invocation to exactly one handler.
//
// The descriptor set is fixed when the binary is built: main lists every
// command explicitly. Handlers receive the shared Steam context through the
// Invocation they are called with; nothing is kept in package state.
package registry

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hieropold/trogue/internal/core/config"
	"github.com/hieropold/trogue/internal/core/ctxlog"
	"github.com/hieropold/trogue/internal/core/steam"
)

// SteamAPI is the part of the Steam client the command handlers use.
type SteamAPI interface {
	GetOwnedGames(ctx context.Context, steamID string) ([]steam.Game, error)
	GetRecentlyPlayedGames(ctx context.Context, steamID string, limit int) ([]steam.Game, error)
	GetAchievements(ctx context.Context, appID uint32, steamID string) (steam.AchievementList, error)
	GetGlobalAchievementPercentages(ctx context.Context, appID uint32) (map[string]float64, error)
}

// Env is the shared context handed to handlers that talk to Steam.
// It is built once per process and only read afterwards.
type Env struct {
	Config config.Config
	Steam  SteamAPI
}

// EnvLoader builds the Env. It is called at most once per invocation, and only
// when a handler asks for the Env.
type EnvLoader func(ctx context.Context) (*Env, error)

// Arg declares a positional argument.
type Arg struct {
	Name     string
	Required bool
}

// Handler executes one command invocation.
type Handler func(inv *Invocation) error

// Descriptor registers one command.
type Descriptor struct {
	Name        string
	Aliases     []string
	Usage       string
	Description string
	Args        []Arg
	Flags       []cli.Flag
	Subcommands []Descriptor

	// NeedsSteam allows the handler to call Invocation.Env.
	NeedsSteam bool
	// Streaming hands the handler stdout directly instead of a buffer that is
	// only flushed on success. Interactive commands need it.
	Streaming bool

	Handler Handler
}

// Invocation is everything a handler gets for one run.
type Invocation struct {
	Context context.Context
	CLI     *cli.Context
	Logger  *slog.Logger

	Stdin  io.Reader
	Out    io.Writer
	Stderr io.Writer

	// TerminalWidth is the column count of stdout.
	TerminalWidth int

	desc    Descriptor
	loadEnv EnvLoader
	env     *Env
}

// Env returns the shared Steam context, loading the configuration on first
// use. Handlers call it after validating their input so that usage errors
// never depend on the environment.
func (inv *Invocation) Env() (*Env, error) {
	if inv.env != nil {
		return inv.env, nil
	}
	if !inv.desc.NeedsSteam || inv.loadEnv == nil {
		return nil, fmt.Errorf("command %q has no Steam context", inv.desc.Name)
	}
	env, err := inv.loadEnv(inv.Context)
	if err != nil {
		return nil, err
	}
	inv.env = env
	return env, nil
}

// Arg returns the positional argument declared under name, or "".
func (inv *Invocation) Arg(name string) string {
	for i, a := range inv.desc.Args {
		if a.Name == name {
			return inv.CLI.Args().Get(i)
		}
	}
	return ""
}

// AppID parses the positional argument name as a Steam app id.
func (inv *Invocation) AppID(name string) (uint32, error) {
	raw := inv.Arg(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, Usagef(inv.desc.Name, "invalid game id %q: expected a positive integer", raw)
	}
	return uint32(id), nil
}

// Registry holds the registered descriptors by name.
type Registry struct {
	byName map[string]Descriptor
	names  []string
}

// New registers descriptors. Names and aliases must be unique.
func New(descriptors ...Descriptor) (*Registry, error) {
	if err := validate(descriptors); err != nil {
		return nil, err
	}
	r := &Registry{byName: make(map[string]Descriptor, len(descriptors))}
	for _, d := range descriptors {
		r.byName[d.Name] = d
		r.names = append(r.names, d.Name)
	}
	sort.Strings(r.names)
	return r, nil
}

// validate checks one level of descriptors and then each level of
// subcommands below it. Names are unique per level.
func validate(descriptors []Descriptor) error {
	taken := map[string]bool{"help": true, "h": true}
	for _, d := range descriptors {
		if d.Name == "" {
			return fmt.Errorf("registry: command descriptor without a name")
		}
		if d.Handler == nil && len(d.Subcommands) == 0 {
			return fmt.Errorf("registry: command %q has neither a handler nor subcommands", d.Name)
		}
		for _, name := range append([]string{d.Name}, d.Aliases...) {
			if taken[name] {
				return &DuplicateCommandError{Name: name}
			}
			taken[name] = true
		}
		if err := validate(d.Subcommands); err != nil {
			return fmt.Errorf("registry: command %q: %w", d.Name, err)
		}
	}
	return nil
}

// MustNew is New for the fixed command list assembled in main. A duplicate
// name there is a programming error.
func MustNew(descriptors ...Descriptor) *Registry {
	r, err := New(descriptors...)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// Names returns the registered command names in sorted order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// Options configures the application built by App.
type Options struct {
	Name    string
	Usage   string
	Version string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	TerminalWidth int
	LoadEnv       EnvLoader
}

// App builds the urfave/cli application for the registered commands.
// Commands are listed by name, so registration order does not matter.
func (r *Registry) App(opts Options) *cli.App {
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Stderr == nil {
		opts.Stderr = io.Discard
	}
	if opts.Stdin == nil {
		opts.Stdin = strings.NewReader("")
	}

	d := &dispatcher{registry: r, opts: opts}

	commands := make([]*cli.Command, 0, len(r.names))
	for _, name := range r.names {
		commands = append(commands, d.command(r.byName[name], true))
	}

	return &cli.App{
		Name:                 opts.Name,
		Usage:                opts.Usage,
		Version:              opts.Version,
		Writer:               opts.Stdout,
		ErrWriter:            opts.Stderr,
		EnableBashCompletion: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Log Steam requests and other diagnostics to stderr",
			},
		},
		Commands: commands,
		Action: func(c *cli.Context) error {
			if c.NArg() > 0 {
				return Usagef("", "unknown command %q (available: %s)", c.Args().First(), strings.Join(r.names, ", "))
			}
			return cli.ShowAppHelp(c)
		},
		OnUsageError: func(c *cli.Context, err error, _ bool) error {
			return &UsageError{Err: err}
		},
		// Exit codes are decided by the caller of Run.
		ExitErrHandler: func(*cli.Context, error) {},
	}
}

type dispatcher struct {
	registry *Registry
	opts     Options
}

func (d *dispatcher) command(desc Descriptor, top bool) *cli.Command {
	cmd := &cli.Command{
		Name:        desc.Name,
		Aliases:     desc.Aliases,
		Usage:       desc.Usage,
		Description: desc.Description,
		ArgsUsage:   argsUsage(desc.Args),
		Flags:       desc.Flags,
		OnUsageError: func(c *cli.Context, err error, _ bool) error {
			return &UsageError{Command: desc.Name, Err: err}
		},
	}
	for _, sub := range desc.Subcommands {
		cmd.Subcommands = append(cmd.Subcommands, d.command(sub, false))
	}
	switch {
	case desc.Handler == nil:
	case top:
		name := desc.Name
		cmd.Action = func(c *cli.Context) error { return d.dispatch(c, name) }
	default:
		cmd.Action = func(c *cli.Context) error { return d.invoke(c, desc) }
	}
	return cmd
}

// dispatch runs the handler registered under name for an already parsed
// command line.
func (d *dispatcher) dispatch(c *cli.Context, name string) error {
	desc, ok := d.registry.Lookup(name)
	if !ok || desc.Handler == nil {
		return Usagef("", "unknown command %q", name)
	}
	return d.invoke(c, desc)
}

func (d *dispatcher) invoke(c *cli.Context, desc Descriptor) error {
	if err := checkArgs(c, desc); err != nil {
		return err
	}

	logger := ctxlog.New(d.opts.Stderr, c.Bool("verbose"))
	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = ctxlog.WithLogger(ctx, logger)

	inv := &Invocation{
		Context:       ctx,
		CLI:           c,
		Logger:        logger,
		Stdin:         d.opts.Stdin,
		Stderr:        d.opts.Stderr,
		TerminalWidth: d.opts.TerminalWidth,
		desc:          desc,
		loadEnv:       d.opts.LoadEnv,
	}

	if desc.Streaming {
		inv.Out = d.opts.Stdout
		return desc.Handler(inv)
	}

	var buf bytes.Buffer
	inv.Out = &buf
	logger.Debug("dispatching command", "command", desc.Name, "args", c.Args().Slice())
	if err := desc.Handler(inv); err != nil {
		return err
	}
	if _, err := buf.WriteTo(d.opts.Stdout); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func checkArgs(c *cli.Context, desc Descriptor) error {
	for i, a := range desc.Args {
		if a.Required && c.NArg() <= i {
			return Usagef(desc.Name, "missing required argument <%s>", a.Name)
		}
	}
	if c.NArg() > len(desc.Args) {
		extra := c.Args().Get(len(desc.Args))
		if len(desc.Args) > 0 && len(extra) > 1 && strings.HasPrefix(extra, "-") {
			return Usagef(desc.Name, "flag %q must come before %s", extra, argsUsage(desc.Args))
		}
		return Usagef(desc.Name, "unexpected argument %q", extra)
	}
	return nil
}

func argsUsage(args []Arg) string {
	parts := make([]string, len(args))
	for i, a := range args {
		if a.Required {
			parts[i] = "<" + a.Name + ">"
		} else {
			parts[i] = "[" + a.Name + "]"
		}
	}
	return strings.Join(parts, " ")
}
