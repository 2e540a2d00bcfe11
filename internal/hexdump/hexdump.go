// Package hexdump renders byte slices for protocol diagnostics: a
// compact single-line form for log attributes and a classic
// offset/hex/ASCII block for interactive inspection.
package hexdump

import (
	"fmt"
	"strings"
)

const bytesPerLine = 16

// Line renders b as space-separated hex pairs on one line, truncated
// to max bytes (0 means no limit). The second return reports whether
// truncation occurred.
func Line(b []byte, max int) (string, bool) {
	truncated := false
	if max > 0 && len(b) > max {
		b = b[:max]
		truncated = true
	}
	var sb strings.Builder
	for i, c := range b {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02x", c)
	}
	if truncated {
		sb.WriteString(" ..")
	}
	return sb.String(), truncated
}

// Dump renders b as offset/hex/ASCII lines, 16 bytes per line.
// Non-printable bytes show as '.' in the ASCII column.
func Dump(b []byte) string {
	var sb strings.Builder
	for off := 0; off < len(b); off += bytesPerLine {
		end := off + bytesPerLine
		if end > len(b) {
			end = len(b)
		}
		line := b[off:end]

		fmt.Fprintf(&sb, "%08x  ", off)
		for i := 0; i < bytesPerLine; i++ {
			if i < len(line) {
				fmt.Fprintf(&sb, "%02x ", line[i])
			} else {
				sb.WriteString("   ")
			}
			if i == bytesPerLine/2-1 {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(" |")
		for _, c := range line {
			if c >= 0x20 && c < 0x7F {
				sb.WriteByte(c)
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteString("|\n")
	}
	return sb.String()
}
