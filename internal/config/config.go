package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/example/d4scope/internal/theme"
)

// Notify holds notification settings.
type Notify struct {
	Submit bool
	Export bool
	Copy   bool
}

// Editor holds annotation canvas tuning.
type Editor struct {
	DefaultRadius  float64
	RadiusMin      float64
	RadiusMax      float64
	RadiusStep     float64
	ZoomIn         float64
	ZoomOut        float64
	ClickThreshold float64
	// MaxEdge downsizes larger images on load. Zero keeps full size.
	MaxEdge int
}

// Config holds the application configuration.
type Config struct {
	Theme    string
	SaveDir  string
	Endpoint string
	Editor   Editor
	Notify   Notify
	Themes   map[string]*theme.Theme
}

// DefaultEditor returns radius 5 circles adjustable from 1 to 50 in steps of
// 0.5, 1.1/0.9 wheel zoom and a 4px click threshold.
func DefaultEditor() Editor {
	return Editor{
		DefaultRadius:  5,
		RadiusMin:      1,
		RadiusMax:      50,
		RadiusStep:     0.5,
		ZoomIn:         1.1,
		ZoomOut:        0.9,
		ClickThreshold: 4,
	}
}

// New creates a new Config with defaults.
func New() *Config {
	return &Config{
		Theme:  "", // Default to empty to allow fallback to Env/Default
		Editor: DefaultEditor(),
		Themes: make(map[string]*theme.Theme),
	}
}

// Validate checks the editor settings are usable.
func (c *Config) Validate() error {
	e := c.Editor
	switch {
	case e.RadiusMin <= 0:
		return fmt.Errorf("radius_min must be positive, got %v", e.RadiusMin)
	case e.RadiusMax < e.RadiusMin:
		return fmt.Errorf("radius_max %v is below radius_min %v", e.RadiusMax, e.RadiusMin)
	case e.RadiusStep <= 0:
		return fmt.Errorf("radius_step must be positive, got %v", e.RadiusStep)
	case e.DefaultRadius < e.RadiusMin || e.DefaultRadius > e.RadiusMax:
		return fmt.Errorf("default_radius %v outside [%v, %v]", e.DefaultRadius, e.RadiusMin, e.RadiusMax)
	case e.ZoomIn <= 1:
		return fmt.Errorf("zoom_in must be greater than 1, got %v", e.ZoomIn)
	case e.ZoomOut <= 0 || e.ZoomOut >= 1:
		return fmt.Errorf("zoom_out must be between 0 and 1, got %v", e.ZoomOut)
	case e.ClickThreshold < 0:
		return fmt.Errorf("click_threshold must not be negative, got %v", e.ClickThreshold)
	case e.MaxEdge < 0:
		return fmt.Errorf("max_edge must not be negative, got %v", e.MaxEdge)
	}
	return nil
}

// String implements fmt.Stringer and returns the configuration in RC format.
func (c *Config) String() string {
	var sb strings.Builder

	if c.Theme != "" {
		fmt.Fprintf(&sb, "theme = %s\n", c.Theme)
	}
	if c.SaveDir != "" {
		fmt.Fprintf(&sb, "save_dir = %s\n", c.SaveDir)
	}
	if c.Endpoint != "" {
		fmt.Fprintf(&sb, "endpoint = %s\n", c.Endpoint)
	}
	sb.WriteString("\n")

	sb.WriteString("[editor]\n")
	fmt.Fprintf(&sb, "default_radius = %s\n", ftoa(c.Editor.DefaultRadius))
	fmt.Fprintf(&sb, "radius_min = %s\n", ftoa(c.Editor.RadiusMin))
	fmt.Fprintf(&sb, "radius_max = %s\n", ftoa(c.Editor.RadiusMax))
	fmt.Fprintf(&sb, "radius_step = %s\n", ftoa(c.Editor.RadiusStep))
	fmt.Fprintf(&sb, "zoom_in = %s\n", ftoa(c.Editor.ZoomIn))
	fmt.Fprintf(&sb, "zoom_out = %s\n", ftoa(c.Editor.ZoomOut))
	fmt.Fprintf(&sb, "click_threshold = %s\n", ftoa(c.Editor.ClickThreshold))
	fmt.Fprintf(&sb, "max_edge = %d\n", c.Editor.MaxEdge)
	sb.WriteString("\n")

	sb.WriteString("[notify]\n")
	fmt.Fprintf(&sb, "submit = %v\n", c.Notify.Submit)
	fmt.Fprintf(&sb, "export = %v\n", c.Notify.Export)
	fmt.Fprintf(&sb, "copy = %v\n", c.Notify.Copy)
	sb.WriteString("\n")

	// Sort keys for deterministic output
	var themeNames []string
	for name := range c.Themes {
		themeNames = append(themeNames, name)
	}
	sort.Strings(themeNames)

	for _, name := range themeNames {
		t := c.Themes[name]
		fmt.Fprintf(&sb, "[theme.%s]\n", name)
		fmt.Fprintf(&sb, "Name: %s\n", t.Name)
		for _, f := range t.Fields() {
			fmt.Fprintf(&sb, "%s: %s\n", f.Key, theme.Hex(f.Color))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
