package usb

import "fmt"

// Structural invariant violations in a descriptor tree are firmware
// setup bugs. They halt via panic rather than surfacing as errors; the
// non-fatal counterpart is the Valid predicate on each descriptor kind.

func assert(cond bool, msg string) {
	if !cond {
		panic("usb: " + msg)
	}
}

func assertf(cond bool, format string, args ...any) {
	if !cond {
		panic("usb: " + fmt.Sprintf(format, args...))
	}
}
