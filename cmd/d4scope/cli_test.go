package main

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/d4scope/internal/annotation"
	"github.com/example/d4scope/internal/appstate"
	"github.com/example/d4scope/internal/capture"
	"github.com/example/d4scope/internal/config"
	"github.com/example/d4scope/internal/imageres"
	"github.com/example/d4scope/internal/interact"
	"github.com/example/d4scope/internal/submit"
	"github.com/example/d4scope/internal/theme"
	"github.com/example/d4scope/internal/viewport"
)

func testRoot() *root {
	return &root{program: "d4scope", config: config.New(), activeTheme: theme.Default()}
}

func writeImage(t *testing.T, dir string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{200, 200, 200, 255}), image.Point{}, draw.Src)
	path := filepath.Join(dir, "cells.png")
	if err := imageres.Save(path, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeAnnotations(t *testing.T, dir string) string {
	t.Helper()
	exp := annotation.Export{
		Circles: []annotation.Circle{{ID: "a", X: 10, Y: 10, Radius: 4}, {ID: "b", X: 30, Y: 20, Radius: 4}},
	}
	exp.Clusters = []annotation.Cluster{{ID: "k", Name: "pair", Members: exp.Circles}}
	path := filepath.Join(dir, "in.json")
	if err := appstate.WriteAnnotations(path, exp); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseAnnotateRequiresOneSource(t *testing.T) {
	_, err := parseAnnotateCmd(nil, testRoot())
	var uerr *UsageError
	if !errors.As(err, &uerr) || !strings.Contains(err.Error(), "an image is required") {
		t.Fatalf("expected usage error, got %v", err)
	}
	_, err = parseAnnotateCmd([]string{"-from-clipboard", "-capture", "screen"}, testRoot())
	if err == nil || !strings.Contains(err.Error(), "mutually exclusive") {
		t.Fatalf("expected exclusivity error, got %v", err)
	}
	_, err = parseAnnotateCmd([]string{"-capture", "window"}, testRoot())
	if err == nil || !strings.Contains(err.Error(), "unknown capture source") {
		t.Fatalf("expected source error, got %v", err)
	}
}

func TestUsageRendersFlags(t *testing.T) {
	a := &annotateCmd{command: newCommand(testRoot(), "annotate")}
	a.fs.String("file", "", "image file to annotate")
	help := (&UsageError{of: a}).Error()
	for _, want := range []string{"d4scope annotate", "-file", "rename the active cluster"} {
		if !strings.Contains(help, want) {
			t.Errorf("help missing %q:\n%s", want, help)
		}
	}
}

func TestAnnotateCaptureError(t *testing.T) {
	original := captureResourceFn
	sentinel := errors.New("denied")
	captureResourceFn = func(capture.Source, capture.Options) (*imageres.Resource, error) { return nil, sentinel }
	t.Cleanup(func() { captureResourceFn = original })

	cmd, err := parseAnnotateCmd([]string{"-capture", "screen"}, testRoot())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	err = cmd.Run()
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if want := "failed to capture screen"; !strings.Contains(err.Error(), want) {
		t.Fatalf("expected message context, got %v", err)
	}
}

func TestAnnotateWritesOnClose(t *testing.T) {
	dir := t.TempDir()
	img := writeImage(t, dir)
	out := filepath.Join(dir, "out.json")

	original := runWindow
	runWindow = func(a *appstate.AppState) {
		if err := a.Session.Image().Wait(context.Background()); err != nil {
			t.Errorf("image load: %v", err)
		}
		p := viewport.Pt(5, 5)
		a.Session.HandleEvent(interact.Event{Kind: interact.PointerDown, Pos: p})
		a.Session.HandleEvent(interact.Event{Kind: interact.PointerUp, Pos: p})
	}
	t.Cleanup(func() { runWindow = original })

	cmd, err := parseAnnotateCmd([]string{"-file", img, "-load", writeAnnotations(t, dir), "-output", out, "-set", "dp=1.25"}, testRoot())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	exp, err := readAnnotations(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if len(exp.Circles) != 3 || len(exp.Clusters) != 1 {
		t.Fatalf("export = %+v", exp)
	}
}

func TestAnnotateDefaultOutput(t *testing.T) {
	a := &annotateCmd{command: newCommand(testRoot(), "annotate")}
	a.src.file = filepath.Join("data", "cells.tif")
	if got := a.defaultOutput("cells.tif"); got != filepath.Join("data", "cells.json") {
		t.Errorf("file output = %q", got)
	}
	a.src = imageSource{capture: "screen"}
	a.root.config.SaveDir = "/tmp/shots"
	if got := a.defaultOutput("capture-1.png"); got != filepath.Join("/tmp/shots", "capture-1.json") {
		t.Errorf("capture output = %q", got)
	}
}

func TestRender(t *testing.T) {
	dir := t.TempDir()
	img := writeImage(t, dir)
	ann := writeAnnotations(t, dir)
	out := filepath.Join(dir, "out.png")

	cmd, err := parseRenderCmd([]string{"-image", img, "-annotations", ann, "-output", out, "-scale", "2", "-offset", "4,6"}, testRoot())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	res, err := imageres.Open(out)
	if err != nil {
		t.Fatalf("open render: %v", err)
	}
	if sz, _ := res.Size(); sz != image.Pt(84, 66) {
		t.Fatalf("render size = %v", sz)
	}
	rgba, _ := res.RGBA()
	if got := rgba.RGBAAt(2, 2); got != theme.Default().Background {
		t.Errorf("pan margin = %v", got)
	}
	if got := rgba.RGBAAt(80, 8); got != (color.RGBA{200, 200, 200, 255}) {
		t.Errorf("image pixel = %v", got)
	}
}

func TestRenderRejectsHugeFrame(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.png")
	cmd, err := parseRenderCmd([]string{"-image", writeImage(t, dir), "-annotations", writeAnnotations(t, dir), "-output", out, "-scale", "10000"}, testRoot())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); err == nil || !strings.Contains(err.Error(), "limit") {
		t.Fatalf("expected size limit error, got %v", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("output written: %v", err)
	}
}

func TestFrameSizeSaturates(t *testing.T) {
	got := frameSize(image.Pt(1000, 1000), viewport.Viewport{Scale: viewport.MaxScale})
	if got.X != maxFrameEdge+1 || got.Y != maxFrameEdge+1 {
		t.Fatalf("frameSize = %v", got)
	}
	if got := frameSize(image.Pt(10, 10), viewport.Viewport{Scale: 1, OffsetX: -50, OffsetY: -50}); got != image.Pt(1, 1) {
		t.Fatalf("frameSize off-canvas = %v", got)
	}
}

func TestParseRenderValidation(t *testing.T) {
	cases := map[string][]string{
		"-annotations and -output": {"-image", "x.png"},
		"scale must be":            {"-image", "x.png", "-annotations", "a", "-output", "o", "-scale", "0"},
		"between":                  {"-image", "x.png", "-annotations", "a", "-output", "o", "-scale", "20000"},
		"-offset":                  {"-image", "x.png", "-annotations", "a", "-output", "o", "-offset", "3"},
		"unsupported format":       {"-image", "x.png", "-annotations", "a", "-output", "o", "-format", "gif"},
		"use -image":               {"-annotations", "a", "-output", "o"},
	}
	for want, args := range cases {
		if _, err := parseRenderCmd(args, testRoot()); err == nil || !strings.Contains(err.Error(), want) {
			t.Errorf("%v: err = %v, want %q", args, err, want)
		}
	}
}

func TestSubmitAgainstMockServer(t *testing.T) {
	srv := httptest.NewServer(submit.NewMux())
	defer srv.Close()
	dir := t.TempDir()

	cmd, err := parseSubmitCmd([]string{
		"-image", writeImage(t, dir),
		"-annotations", writeAnnotations(t, dir),
		"-set", "assay=Microfluidic",
		"-endpoint", srv.URL + submit.Route,
	}, testRoot())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	stdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stdout = w
	runErr := cmd.Run()
	w.Close()
	os.Stdout = stdout
	if runErr != nil {
		t.Fatalf("run: %v", runErr)
	}

	var res submit.Result
	if err := json.NewDecoder(r).Decode(&res); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if res.ProcessedImage != submit.PlaceholderImage || res.AnalysisResults["assay"] != "Microfluidic" {
		t.Fatalf("result = %+v", res)
	}
}

func TestLoadParams(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "p.json")
	if err := os.WriteFile(path, []byte(`{"blur_kernel_size": 12, "scan_size": "10"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	ps, err := loadParams(path, []string{"minRadius=500"})
	if err != nil {
		t.Fatalf("loadParams: %v", err)
	}
	v := ps.Values()
	if v["blur_kernel_size"] != 11.0 || v["scan_size"] != "10" || v["minRadius"] != 100.0 {
		t.Fatalf("values = %v", v)
	}
	if _, err := loadParams("", []string{"nosuch=1"}); err == nil {
		t.Fatal("unknown parameter accepted")
	}
}

func TestAnalyzerSelection(t *testing.T) {
	r := testRoot()
	if _, ok := r.analyzer("").(submit.Mock); !ok {
		t.Error("expected mock without endpoint")
	}
	r.config.Endpoint = "http://example.test/api"
	if _, ok := r.analyzer("").(*submit.HTTPAnalyzer); !ok {
		t.Error("expected HTTP analyzer from config")
	}
	var nilRoot *root
	if _, ok := nilRoot.analyzer("").(submit.Mock); !ok {
		t.Error("nil root should fall back to mock")
	}
}

func TestParsePoint(t *testing.T) {
	x, y, err := parsePoint(" 1.5, -2 ")
	if err != nil || x != 1.5 || y != -2 {
		t.Fatalf("parsePoint = %v, %v, %v", x, y, err)
	}
	for _, bad := range []string{"1", "a,2", "1,b"} {
		if _, _, err := parsePoint(bad); err == nil {
			t.Errorf("parsePoint(%q) succeeded", bad)
		}
	}
}
