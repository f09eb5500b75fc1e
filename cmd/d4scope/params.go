package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/example/d4scope/internal/params"
)

// paramsCmd prints the analysis parameter set.
type paramsCmd struct {
	command
	file string
	sets multiFlag
	list bool
}

func parseParamsCmd(args []string, r *root) (*paramsCmd, error) {
	c := &paramsCmd{command: newCommand(r, "params")}
	c.fs.StringVar(&c.file, "params", "", "JSON file of parameter values to start from")
	c.fs.Var(&c.sets, "set", "override a parameter as name=value (repeatable)")
	c.fs.BoolVar(&c.list, "list", false, "describe every parameter instead of printing JSON")
	c.fs.Usage = usageFunc(c)
	if err := c.fs.Parse(args); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *paramsCmd) Run() error {
	ps, err := loadParams(c.file, c.sets)
	if err != nil {
		return err
	}
	if c.list {
		return describeParams(ps)
	}
	data, err := ps.MarshalJSON()
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func describeParams(ps *params.Set) error {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tVALUE\tALLOWED\tLABEL")
	for _, sp := range ps.Specs() {
		v, _ := ps.Get(sp.Name)
		fmt.Fprintf(tw, "%s\t%s\t%v\t%s\t%s\n", sp.Name, sp.Kind, v, allowed(sp), sp.Label)
	}
	return tw.Flush()
}

func allowed(sp params.Spec) string {
	switch sp.Kind {
	case params.Enum:
		return strings.Join(sp.Options, "|")
	case params.Numeric:
		s := fmt.Sprintf("[%g, %g]", sp.Bounds.Min, sp.Bounds.Max)
		if sp.Bounds.Step > 0 {
			s += fmt.Sprintf(" step %g", sp.Bounds.Step)
		}
		if sp.Bounds.Odd {
			s += " odd"
		}
		return s
	}
	return "text"
}
