package log

import (
	"bytes"
	"fmt"
	"io"
	"sync"
)

// HexDumper writes descriptor bytes as offset-prefixed hex rows. The
// ASCII gutter is optional so piped output stays machine friendly.
type HexDumper interface {
	Dump(label string, data []byte)
}

type hexDumper struct {
	w     io.Writer
	ascii bool
	width int
	mu    sync.Mutex
}

// NewHexDumper creates a HexDumper writing width bytes per row. If the
// writer is nil the dumper is a no-op.
func NewHexDumper(w io.Writer, width int, ascii bool) HexDumper {
	if width <= 0 {
		width = 16
	}
	return &hexDumper{w: w, ascii: ascii, width: width}
}

const hexdigits = "0123456789abcdef"

func (d *hexDumper) Dump(label string, data []byte) {
	if d.w == nil {
		return
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s (%d bytes)\n", label, len(data))
	for off := 0; off < len(data); off += d.width {
		row := data[off:min(off+d.width, len(data))]
		fmt.Fprintf(&buf, "  %04x  ", off)
		for i := 0; i < d.width; i++ {
			if i >= len(row) && !d.ascii {
				break
			}
			if i > 0 {
				buf.WriteByte(' ')
			}
			if i >= len(row) {
				buf.WriteString("  ")
				continue
			}
			b := row[i]
			buf.WriteByte(hexdigits[b>>4])
			buf.WriteByte(hexdigits[b&0x0f])
		}
		if d.ascii {
			buf.WriteString("  |")
			for _, b := range row {
				if b >= 0x20 && b < 0x7F {
					buf.WriteByte(b)
				} else {
					buf.WriteByte('.')
				}
			}
			buf.WriteByte('|')
		}
		buf.WriteByte('\n')
	}

	d.mu.Lock()
	_, _ = d.w.Write(buf.Bytes())
	d.mu.Unlock()
}
