package completions

import (
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/hieropold/trogue/internal/cli/registry"
)

// Shells lists the supported shells in the order shown in help output.
var Shells = []string{"bash", "zsh", "fish", "powershell"}

//go:embed scripts/*.tmpl
var scriptFS embed.FS

var scripts = template.Must(template.ParseFS(scriptFS, "scripts/*.tmpl"))

// CompletionsCmd prints a completion script for the requested shell.
var CompletionsCmd = registry.Descriptor{
	Name:  "completions",
	Usage: "Generates a shell completion script",
	Description: "Prints a completion script for one of: " + strings.Join(Shells, ", ") + ".\n\n" +
		"Example:\n    source <(trogue completions bash)",
	Args:    []registry.Arg{{Name: "shell", Required: true}},
	Handler: run,
}

func run(inv *registry.Invocation) error {
	shell := strings.ToLower(inv.Arg("shell"))
	app := inv.CLI.App

	switch shell {
	case "fish":
		script, err := app.ToFishCompletion()
		if err != nil {
			return fmt.Errorf("failed to generate fish completion: %w", err)
		}
		_, err = fmt.Fprint(inv.Out, script)
		return err
	case "bash", "zsh", "powershell":
		data := struct{ Name, Func string }{Name: app.Name, Func: funcName(app.Name)}
		return scripts.ExecuteTemplate(inv.Out, shell+".tmpl", data)
	default:
		return registry.Usagef("completions", "unsupported shell %q (expected one of: %s)", inv.Arg("shell"), strings.Join(Shells, ", "))
	}
}

// funcName turns a program name into a shell function identifier.
func funcName(prog string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, prog)
}
