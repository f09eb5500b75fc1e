package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/example/d4scope/internal/config"
	"github.com/example/d4scope/internal/editor"
	"github.com/example/d4scope/internal/notify"
	"github.com/example/d4scope/internal/submit"
	"github.com/example/d4scope/internal/theme"
)

var (
	version            = "dev"
	commit             = ""
	date               = ""
	configPathOverride = ""
)

type runnable interface{ Run() error }

type root struct {
	fs           *flag.FlagSet
	program      string
	notifier     *notify.Notifier
	config       *config.Config
	submitAlerts bool
	exportAlerts bool
	copyAlerts   bool
	themeName    string
	activeTheme  *theme.Theme
}

func (r *root) Program() string {
	return r.program
}

func (r *root) FlagSet() *flag.FlagSet {
	return r.fs
}

func newRoot() *root {
	loader := config.NewLoader(version, configPathOverride)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load config: %v\n", err)
		cfg = config.New()
	}

	r := &root{
		fs:       flag.NewFlagSet("d4scope", flag.ExitOnError),
		program:  "d4scope",
		notifier: notify.New(notify.LoadPreferences()),
		config:   cfg,
	}
	r.fs.BoolVar(&r.submitAlerts, "notify-submit", cfg.Notify.Submit, "show a desktop notification after a submission succeeds")
	r.fs.BoolVar(&r.exportAlerts, "notify-export", cfg.Notify.Export, "show a desktop notification after writing annotations or renders")
	r.fs.BoolVar(&r.copyAlerts, "notify-copy", cfg.Notify.Copy, "show a desktop notification after copying to the clipboard")

	// Precedence: CLI > Env > Config > Default
	r.fs.StringVar(&r.themeName, "theme", "", "color theme to use ("+strings.Join(theme.Names(), ", ")+")")
	r.fs.Usage = usageFunc(r)
	return r
}

func (r *root) Run(args []string) error {
	if err := r.fs.Parse(args); err != nil {
		return err
	}
	if r.fs.NArg() < 1 {
		return &UsageError{of: r}
	}
	r.notifier.Enable(notify.EventSubmit, r.submitAlerts)
	r.notifier.Enable(notify.EventExport, r.exportAlerts)
	r.notifier.Enable(notify.EventCopy, r.copyAlerts)
	r.activeTheme = r.resolveTheme()

	cmdName := r.fs.Arg(0)
	subArgs := r.fs.Args()[1:]

	var (
		cmd runnable
		err error
	)
	switch cmdName {
	case "annotate":
		cmd, err = parseAnnotateCmd(subArgs, r)
	case "render":
		cmd, err = parseRenderCmd(subArgs, r)
	case "params":
		cmd, err = parseParamsCmd(subArgs, r)
	case "submit":
		cmd, err = parseSubmitCmd(subArgs, r)
	case "serve-mock":
		cmd, err = parseServeMockCmd(subArgs, r)
	case "config":
		cmd, err = parseConfigCmd(subArgs, r)
	case "version":
		cmd = &versionCmd{r: r}
	default:
		err = &UsageError{of: r}
	}
	if err != nil {
		return err
	}
	return cmd.Run()
}

func (r *root) resolveTheme() *theme.Theme {
	name := r.themeName
	if name == "" {
		name = os.Getenv("D4SCOPE_THEME")
	}
	if name == "" {
		name = r.config.Theme
	}
	if t, ok := r.config.Themes[name]; ok {
		return t
	}
	t, err := theme.NewLoader().Load(name)
	if err != nil {
		if name != "default" {
			fmt.Fprintf(os.Stderr, "warning: failed to load theme '%s': %v. using default.\n", name, err)
		}
		return theme.Default()
	}
	return t
}

// editorOptions builds session options from the loaded configuration.
func (r *root) editorOptions() editor.Options {
	if r == nil {
		return editor.Options{}
	}
	opts := editor.Options{Theme: r.activeTheme}
	if r.config != nil {
		opts.Editor = r.config.Editor
	}
	return opts
}

// alerts returns the notifier, nil when running without a root.
func (r *root) alerts() *notify.Notifier {
	if r == nil {
		return nil
	}
	return r.notifier
}

// analyzer picks the HTTP analyzer when an endpoint is known and the
// in-process mock otherwise.
func (r *root) analyzer(endpoint string) submit.Analyzer {
	if endpoint == "" && r != nil && r.config != nil {
		endpoint = r.config.Endpoint
	}
	if endpoint == "" {
		return submit.Mock{}
	}
	return submit.NewHTTPAnalyzer(endpoint, nil)
}

func main() {
	r := newRoot()
	if err := r.Run(os.Args[1:]); err != nil {
		var uerr *UsageError
		if errors.As(err, &uerr) {
			fmt.Fprintln(os.Stderr, uerr.Error())
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
