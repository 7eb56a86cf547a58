package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/emblib/usbd/internal/log"
	"github.com/emblib/usbd/profile"
)

// Dump prints every descriptor the device would answer with after
// enumeration: the device descriptor, string descriptor zero and one
// configuration blob per configuration.
type Dump struct {
	Profile string `arg:"" help:"Device profile file (yaml, toml or json)" type:"existingfile"`
	Width   int    `help:"Bytes per hex row" default:"16"`
}

func (d *Dump) Run(logger *slog.Logger) error {
	p, err := profile.Load(d.Profile)
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

	// The ASCII gutter is only useful to humans at a terminal.
	ascii := term.IsTerminal(int(os.Stdout.Fd()))
	dumper := log.NewHexDumper(os.Stdout, d.Width, ascii)

	buf := make([]byte, dev.Size())
	dev.MarshalTo(buf)
	dumper.Dump("device descriptor", buf)

	if s0 := dev.StringZero(); s0 != nil {
		buf = make([]byte, s0.Size())
		s0.Send(buf)
		dumper.Dump("string descriptor 0", buf)
	}

	for value := 1; value <= dev.ConfigurationCount(); value++ {
		cfg := dev.Configuration(uint8(value))
		buf = make([]byte, cfg.Size())
		cfg.MarshalTo(buf)
		dumper.Dump(fmt.Sprintf("configuration %d", value), buf)
	}

	logger.Debug("dumped descriptors",
		"profile", d.Profile,
		"configurations", dev.ConfigurationCount())
	return nil
}
