package annotation

import (
	"encoding/json"
	"fmt"
	"io"
)

// Validate checks radii and id uniqueness. Cluster members must name a
// circle in the document; their positions may differ since members are
// snapshots.
func (e Export) Validate() error {
	seen := make(map[string]bool, len(e.Circles))
	for _, c := range e.Circles {
		if c.ID == "" {
			return fmt.Errorf("circle without id")
		}
		if seen[c.ID] {
			return fmt.Errorf("duplicate circle id %q", c.ID)
		}
		seen[c.ID] = true
		if !validRadius(c.Radius) {
			return fmt.Errorf("circle %q: %w: %v", c.ID, ErrInvalidRadius, c.Radius)
		}
	}
	clusters := make(map[string]bool, len(e.Clusters))
	for _, cl := range e.Clusters {
		if cl.ID == "" {
			return fmt.Errorf("cluster without id")
		}
		if clusters[cl.ID] {
			return fmt.Errorf("duplicate cluster id %q", cl.ID)
		}
		clusters[cl.ID] = true
		members := make(map[string]bool, len(cl.Members))
		for _, m := range cl.Members {
			if members[m.ID] {
				return fmt.Errorf("cluster %q: duplicate member %q", cl.ID, m.ID)
			}
			members[m.ID] = true
			if !seen[m.ID] {
				return fmt.Errorf("cluster %q: member %q: %w", cl.ID, m.ID, ErrNotFound)
			}
			if !validRadius(m.Radius) {
				return fmt.Errorf("cluster %q: member %q: %w: %v", cl.ID, m.ID, ErrInvalidRadius, m.Radius)
			}
		}
	}
	return nil
}

// Encode writes exp as indented JSON. Nil slices are written as empty arrays.
func Encode(w io.Writer, exp Export) error {
	if exp.Circles == nil {
		exp.Circles = []Circle{}
	}
	clusters := make([]Cluster, len(exp.Clusters))
	for i, cl := range exp.Clusters {
		if cl.Members == nil {
			cl.Members = []Circle{}
		}
		clusters[i] = cl
	}
	exp.Clusters = clusters
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(exp)
}

// Decode reads and validates an export document.
func Decode(r io.Reader) (Export, error) {
	var exp Export
	if err := json.NewDecoder(r).Decode(&exp); err != nil {
		return Export{}, fmt.Errorf("decode annotations: %w", err)
	}
	if err := exp.Validate(); err != nil {
		return Export{}, fmt.Errorf("decode annotations: %w", err)
	}
	return exp, nil
}
