package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/example/d4scope/internal/annotation"
	"github.com/example/d4scope/internal/capture"
	"github.com/example/d4scope/internal/clipboard"
	"github.com/example/d4scope/internal/imageres"
	"github.com/example/d4scope/internal/params"
)

// command carries what every subcommand shares.
type command struct {
	*root
	name string
	fs   *flag.FlagSet
}

func newCommand(r *root, name string) command {
	return command{root: r, name: name, fs: flag.NewFlagSet(name, flag.ExitOnError)}
}

func (c *command) Program() string {
	if c.root == nil {
		return "d4scope " + c.name
	}
	return c.root.program + " " + c.name
}

func (c *command) FlagSet() *flag.FlagSet {
	return c.fs
}

// multiFlag collects repeated string flags.
type multiFlag []string

func (m *multiFlag) String() string     { return strings.Join(*m, ",") }
func (m *multiFlag) Set(v string) error { *m = append(*m, v); return nil }

var (
	captureResourceFn = capture.Resource
	clipboardImageFn  = clipboard.ReadImage
)

// imageSource names one of the mutually exclusive image inputs.
type imageSource struct {
	fileFlag      string
	file          string
	fromClipboard bool
	capture       string
}

func (s imageSource) validate() error {
	n := 0
	if s.file != "" {
		n++
	}
	if s.fromClipboard {
		n++
	}
	if s.capture != "" {
		n++
	}
	switch {
	case n == 0:
		return fmt.Errorf("an image is required: use -%s, -from-clipboard or -capture", s.flagName())
	case n > 1:
		return fmt.Errorf("-%s, -from-clipboard and -capture are mutually exclusive", s.flagName())
	}
	if s.capture != "" {
		if _, err := capture.ParseSource(s.capture); err != nil {
			return err
		}
	}
	return nil
}

func (s imageSource) flagName() string {
	if s.fileFlag == "" {
		return "file"
	}
	return s.fileFlag
}

// open returns the image resource. Files load in the background when async
// is set so a window can open before decoding finishes.
func (s imageSource) open(async bool, maxEdge int) (*imageres.Resource, error) {
	switch {
	case s.fromClipboard:
		res, err := clipboardImageFn()
		if err != nil {
			return nil, fmt.Errorf("failed to read clipboard image: %w", err)
		}
		return fit(res, maxEdge)
	case s.capture != "":
		src, err := capture.ParseSource(s.capture)
		if err != nil {
			return nil, err
		}
		res, err := captureResourceFn(src, capture.Options{})
		if err != nil {
			return nil, fmt.Errorf("failed to capture %s: %w", src, err)
		}
		return fit(res, maxEdge)
	case async && maxEdge == 0:
		return imageres.LoadAsync(s.file), nil
	default:
		res, err := imageres.Open(s.file)
		if err != nil {
			return nil, err
		}
		return fit(res, maxEdge)
	}
}

func fit(res *imageres.Resource, maxEdge int) (*imageres.Resource, error) {
	if maxEdge <= 0 {
		return res, nil
	}
	img, err := res.RGBA()
	if err != nil {
		return nil, err
	}
	if b := img.Bounds(); b.Dx() <= maxEdge && b.Dy() <= maxEdge {
		return res, nil
	}
	return imageres.FromImage(res.Name(), imageres.Fit(img, maxEdge)), nil
}

// loadParams builds the parameter set from defaults, an optional JSON file
// and k=v overrides, in that order.
func loadParams(path string, sets []string) (*params.Set, error) {
	ps := params.New()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if err := ps.Load(f); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := ps.Assign(sets...); err != nil {
		return nil, err
	}
	return ps, nil
}

func readAnnotations(path string) (annotation.Export, error) {
	if path == "-" {
		return annotation.Decode(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return annotation.Export{}, err
	}
	defer f.Close()
	exp, err := annotation.Decode(f)
	if err != nil {
		return annotation.Export{}, fmt.Errorf("%s: %w", path, err)
	}
	return exp, nil
}

func parsePoint(s string) (float64, float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected x,y, got %q", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid x in %q: %w", s, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid y in %q: %w", s, err)
	}
	return x, y, nil
}
