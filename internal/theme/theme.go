package theme

import (
	"image/color"
)

// Theme defines the colours used for the canvas and the annotation overlays.
type Theme struct {
	Name string

	// Window
	Background       color.RGBA // behind the image
	Foreground       color.RGBA // status text
	StatusBackground color.RGBA

	// Canvas
	CheckerLight color.RGBA
	CheckerDark  color.RGBA

	// Annotations. Fill colours carry their own alpha.
	Circle             color.RGBA
	CircleFill         color.RGBA
	CircleSelected     color.RGBA
	CircleSelectedFill color.RGBA
	Cluster            color.RGBA
	ClusterLabel       color.RGBA
}

// Default returns the built-in light theme: yellow circles, red selection
// and blue clusters.
func Default() *Theme {
	return &Theme{
		Name:               "Default",
		Background:         color.RGBA{220, 220, 220, 255},
		Foreground:         color.RGBA{0, 0, 0, 255},
		StatusBackground:   color.RGBA{200, 200, 200, 255},
		CheckerLight:       color.RGBA{220, 220, 220, 255},
		CheckerDark:        color.RGBA{192, 192, 192, 255},
		Circle:             color.RGBA{255, 255, 0, 255},
		CircleFill:         color.RGBA{255, 255, 0, 51},
		CircleSelected:     color.RGBA{255, 0, 0, 255},
		CircleSelectedFill: color.RGBA{255, 0, 0, 51},
		Cluster:            color.RGBA{0, 0, 255, 255},
		ClusterLabel:       color.RGBA{0, 0, 255, 255},
	}
}

// Fields lists the colour keys in declaration order along with their values.
func (t *Theme) Fields() []Field {
	return []Field{
		{"Background", t.Background},
		{"Foreground", t.Foreground},
		{"StatusBackground", t.StatusBackground},
		{"CheckerLight", t.CheckerLight},
		{"CheckerDark", t.CheckerDark},
		{"Circle", t.Circle},
		{"CircleFill", t.CircleFill},
		{"CircleSelected", t.CircleSelected},
		{"CircleSelectedFill", t.CircleSelectedFill},
		{"Cluster", t.Cluster},
		{"ClusterLabel", t.ClusterLabel},
	}
}

// Field is a named theme colour.
type Field struct {
	Key   string
	Color color.RGBA
}
