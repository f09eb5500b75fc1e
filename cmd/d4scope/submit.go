package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/example/d4scope/internal/editor"
)

// submitCmd sends an image with its annotations to the analysis service.
type submitCmd struct {
	command
	src         imageSource
	annotations string
	paramsFile  string
	sets        multiFlag
	endpoint    string
}

func parseSubmitCmd(args []string, r *root) (*submitCmd, error) {
	c := &submitCmd{command: newCommand(r, "submit"), src: imageSource{fileFlag: "image"}}
	fs := c.fs
	fs.StringVar(&c.src.file, "image", "", "image file to analyse")
	fs.BoolVar(&c.src.fromClipboard, "from-clipboard", false, "analyse the clipboard image")
	fs.StringVar(&c.src.capture, "capture", "", "analyse a fresh capture: screen or root")
	fs.StringVar(&c.annotations, "annotations", "", "annotations JSON file, - for stdin")
	fs.StringVar(&c.paramsFile, "params", "", "JSON file of analysis parameters")
	fs.Var(&c.sets, "set", "override a parameter as name=value (repeatable)")
	fs.StringVar(&c.endpoint, "endpoint", "", "analysis endpoint (default from config, else built-in mock)")
	fs.Usage = usageFunc(c)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := c.src.validate(); err != nil {
		return nil, &UsageError{of: c, msg: err.Error()}
	}
	return c, nil
}

func (c *submitCmd) Run() error {
	ps, err := loadParams(c.paramsFile, c.sets)
	if err != nil {
		return err
	}
	res, err := c.src.open(false, 0)
	if err != nil {
		return err
	}
	opts := c.root.editorOptions()
	opts.Params = ps
	sess := editor.New(res, opts)
	if c.annotations != "" {
		exp, err := readAnnotations(c.annotations)
		if err != nil {
			return err
		}
		if err := sess.Load(exp); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	result, err := sess.Submit(ctx, c.root.analyzer(c.endpoint))
	if err != nil {
		return fmt.Errorf("submit %s: %w", res.Name(), err)
	}
	c.root.alerts().Submit(res.Name(), nil)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
