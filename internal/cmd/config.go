package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/emblib/usbd/internal/configpaths"
	"github.com/emblib/usbd/profile"
)

// ConfigCommand groups config-related subcommands.
type ConfigCommand struct {
	Init ConfigInit `cmd:"" help:"Generate a device profile template"`
}

// ConfigInit scaffolds a profile file a firmware project can edit.
type ConfigInit struct {
	Format string `help:"Output format" enum:"json,yaml,toml" default:"yaml"`
	Output string `help:"Destination file path (defaults to the current directory)"`
	Force  bool   `help:"Overwrite if the file already exists"`
}

func (c *ConfigInit) Run(logger *slog.Logger) error {
	format := strings.ToLower(c.Format)
	data, err := profile.Marshal(profile.Template(), format)
	if err != nil {
		return err
	}

	dest := c.Output
	if dest == "" {
		dest = "device." + format
	}

	if !c.Force {
		if _, err := os.Stat(dest); err == nil {
			return errors.New("destination exists; use --force to overwrite")
		}
	}
	if err := configpaths.EnsureDir(dest); err != nil {
		return err
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return fmt.Errorf("write template: %w", err)
	}

	logger.Info("wrote profile template", "path", dest)
	return nil
}
