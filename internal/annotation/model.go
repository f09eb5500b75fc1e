package annotation

import (
	"math"

	"github.com/example/d4scope/internal/viewport"
)

// Circle is a circular region of interest in image space.
type Circle struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
}

// Center returns the circle centre.
func (c Circle) Center() viewport.Point {
	return viewport.Pt(c.X, c.Y)
}

// Contains reports whether p lies on or inside the circle.
func (c Circle) Contains(p viewport.Point) bool {
	return math.Hypot(c.X-p.X, c.Y-p.Y) <= c.Radius
}

// Cluster is a named group of circles. Members are copies taken when the
// cluster was formed and do not follow later edits to the circles.
type Cluster struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Members []Circle `json:"circles"`
}

func (c Cluster) clone() Cluster {
	c.Members = append([]Circle(nil), c.Members...)
	return c
}

// Has reports whether a circle with id is a member.
func (c Cluster) Has(id string) bool {
	for _, m := range c.Members {
		if m.ID == id {
			return true
		}
	}
	return false
}

// Export is the annotation document handed to submission and follow-up
// consumers.
type Export struct {
	Circles  []Circle  `json:"circles"`
	Clusters []Cluster `json:"clusters"`
}

func validRadius(r float64) bool {
	return r > 0 && !math.IsInf(r, 0) && !math.IsNaN(r)
}
