package main

import (
	"fmt"
	"path/filepath"

	"github.com/example/d4scope/internal/appstate"
	"github.com/example/d4scope/internal/editor"
)

// annotateCmd opens the annotation window.
type annotateCmd struct {
	command
	src        imageSource
	paramsFile string
	sets       multiFlag
	load       string
	output     string
	renderOut  string
	endpoint   string
}

// runWindow is swapped out in tests.
var runWindow = func(a *appstate.AppState) { a.Run() }

func parseAnnotateCmd(args []string, r *root) (*annotateCmd, error) {
	a := &annotateCmd{command: newCommand(r, "annotate")}
	fs := a.fs
	fs.StringVar(&a.src.file, "file", "", "image file to annotate")
	fs.BoolVar(&a.src.fromClipboard, "from-clipboard", false, "annotate the image on the clipboard")
	fs.StringVar(&a.src.capture, "capture", "", "capture the desktop first: screen or root")
	fs.StringVar(&a.paramsFile, "params", "", "JSON file of analysis parameters")
	fs.Var(&a.sets, "set", "override a parameter as name=value (repeatable)")
	fs.StringVar(&a.load, "load", "", "annotations JSON to start from")
	fs.StringVar(&a.output, "output", "", "annotations JSON written on export and on close (default <image>.json)")
	fs.StringVar(&a.renderOut, "render", "", "also write the rendered overlay to this image file")
	fs.StringVar(&a.endpoint, "endpoint", "", "analysis endpoint for submissions (default from config, else built-in mock)")
	fs.Usage = usageFunc(a)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := a.src.validate(); err != nil {
		return nil, &UsageError{of: a, msg: err.Error()}
	}
	return a, nil
}

func (a *annotateCmd) Run() error {
	ps, err := loadParams(a.paramsFile, a.sets)
	if err != nil {
		return err
	}
	maxEdge := 0
	if a.root != nil && a.root.config != nil {
		maxEdge = a.root.config.Editor.MaxEdge
	}
	res, err := a.src.open(true, maxEdge)
	if err != nil {
		return err
	}

	opts := a.root.editorOptions()
	opts.Params = ps
	sess := editor.New(res, opts)
	if a.load != "" {
		exp, err := readAnnotations(a.load)
		if err != nil {
			return err
		}
		if err := sess.Load(exp); err != nil {
			return err
		}
	}

	output := a.output
	if output == "" {
		output = a.defaultOutput(res.Name())
	}
	app := appstate.New(sess,
		appstate.WithOutput(output),
		appstate.WithRenderOutput(a.renderOut),
		appstate.WithTitle("d4scope: "+res.Name()),
		appstate.WithAnalyzer(a.root.analyzer(a.endpoint)),
		appstate.WithNotifier(a.root.alerts()),
	)
	runWindow(app)
	app.Wait()
	if err := app.Export(); err != nil {
		return fmt.Errorf("failed to write annotations: %w", err)
	}
	return nil
}

func (a *annotateCmd) defaultOutput(imageName string) string {
	base := imageName
	if ext := filepath.Ext(base); ext != "" {
		base = base[:len(base)-len(ext)]
	}
	name := base + ".json"
	if a.src.file != "" {
		name = filepath.Join(filepath.Dir(a.src.file), name)
	} else if a.root != nil && a.root.config != nil && a.root.config.SaveDir != "" {
		name = filepath.Join(a.root.config.SaveDir, name)
	}
	return name
}
