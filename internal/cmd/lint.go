package cmd

import (
	"fmt"
	"log/slog"

	"github.com/emblib/usbd/profile"
)

// Lint builds and finalizes a profile without printing descriptors, so
// tree rule violations show up in CI before firmware is flashed.
type Lint struct {
	Profile string `arg:"" help:"Device profile file (yaml, toml or json)" type:"existingfile"`
}

func (l *Lint) Run(logger *slog.Logger) error {
	p, err := profile.Load(l.Profile)
	if err != nil {
		return err
	}
	dev, err := buildDevice(p)
	if err != nil {
		return fmt.Errorf("profile does not build: %w", err)
	}
	if err := startDevice(dev); err != nil {
		return fmt.Errorf("profile does not finalize: %w", err)
	}

	total := dev.Size()
	for value := 1; value <= dev.ConfigurationCount(); value++ {
		total += dev.Configuration(uint8(value)).Size()
	}
	logger.Info("profile ok",
		"profile", l.Profile,
		"configurations", dev.ConfigurationCount(),
		"descriptorBytes", total)
	return nil
}
