package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formtemplate/internal/prompt"
	"github.com/goliatone/go-formtemplate/pkg/document"
	"github.com/goliatone/go-formtemplate/pkg/template"
)

// app carries the streams and global flags shared by every command.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	verbose bool
	dbPath  string
	logger  *slog.Logger

	// newDriver builds the interactive prompt driver; tests replace it.
	newDriver func() prompt.Driver
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	a := &app{in: in, out: out, errOut: errOut}
	a.newDriver = func() prompt.Driver { return prompt.NewSurveyDriver(a.out) }
	return a
}

func (a *app) root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "formtemplate",
		Short:         "Normalize, diff and compile rules for form templates",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			level := slog.LevelInfo
			if a.verbose {
				level = slog.LevelDebug
			}
			a.logger = slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: level}))
		},
	}
	cmd.SetIn(a.in)
	cmd.SetOut(a.out)
	cmd.SetErr(a.errOut)
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&a.dbPath, "db", "formtemplate.db", "SQLite database used by store commands")

	cmd.AddCommand(
		a.normalizeCmd(),
		a.targetsCmd(),
		a.diffCmd(),
		a.visibleCmd(),
		a.populateCmd(),
		a.lintCmd(),
		a.ruleCmd(),
		a.storeCmd(),
	)
	return cmd
}

func (a *app) readTemplate(path string) (template.Template, error) {
	data, err := a.readFile(path)
	if err != nil {
		return template.Template{}, err
	}
	tpl, err := document.Load(data)
	if err != nil {
		return template.Template{}, fmt.Errorf("%s: %w", path, err)
	}
	a.logger.Debug("template loaded", "path", path, "sections", len(tpl.Sections))
	return tpl, nil
}

func (a *app) readFile(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(a.in)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func (a *app) writeJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
