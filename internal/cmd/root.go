// Package cmd holds the kong command tree for usbdctl.
package cmd

import (
	"fmt"

	"github.com/emblib/usbd/profile"
	"github.com/emblib/usbd/usb"
)

// LogOptions are shared logging flags.
type LogOptions struct {
	Level string `help:"Log level (debug, info, warn, error)" enum:"debug,info,warn,error" default:"info" env:"USBD_LOG_LEVEL"`
	File  string `help:"Write logs to this file instead of the console" env:"USBD_LOG_FILE"`
}

// CLI is the root command structure parsed by kong.
type CLI struct {
	Log    LogOptions `embed:"" prefix:"log."`
	Config string     `help:"Path to a usbdctl config file" env:"USBD_CONFIG"`

	Dump    Dump          `cmd:"" help:"Print the finalized descriptors of a device profile as a hex dump"`
	Lint    Lint          `cmd:"" help:"Check a device profile against the descriptor tree rules"`
	ConfCmd ConfigCommand `cmd:"" name:"config" help:"Configuration helpers"`
}

func nopConfigure(usb.EndpointID, usb.TransferType, uint16, any) {}
func nopPost(usb.EndpointID, []byte, any)                        {}

// buildDevice compiles a profile with no-op endpoint callbacks,
// converting descriptor assertion panics into errors so the CLI can
// report them instead of crashing.
func buildDevice(p *profile.Profile) (dev *usb.Device, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	return p.Build(nopConfigure, nopPost, nil)
}

// startDevice finalizes the tree, converting assertion panics into
// errors the same way.
func startDevice(dev *usb.Device) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	dev.Start()
	return nil
}
