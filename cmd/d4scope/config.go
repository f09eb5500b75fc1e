package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/example/d4scope/internal/config"
)

type configCmd struct {
	command
}

func parseConfigCmd(args []string, r *root) (*configCmd, error) {
	c := &configCmd{command: newCommand(r, "config")}
	c.fs.Usage = usageFunc(c)
	if err := c.fs.Parse(args); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *configCmd) Run() error {
	args := c.fs.Args()
	if len(args) < 1 {
		return &UsageError{of: c}
	}
	switch args[0] {
	case "print":
		fmt.Print(c.root.config.String())
		return nil
	case "save":
		return c.runSave()
	default:
		return &UsageError{of: c, msg: fmt.Sprintf("unknown config command: %s", args[0])}
	}
}

func (c *configCmd) runSave() error {
	path := config.NewLoader(version, configPathOverride).GetConfigPath()
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return fmt.Errorf("failed to get user home dir: %w", err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(c.root.config.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Configuration saved to %s\n", path)
	return nil
}
