// Package tlv holds byte-level helpers for diagnostics: hex fixtures, printable ASCII, and a
// BER-TLV tree dump of card response payloads.
package tlv

import (
	"fmt"
	"strings"

	"github.com/moov-io/bertlv"
)

// Dump renders data as an indented BER-TLV tree, one line per tag. Payloads that do not
// decode as BER-TLV come back as a single hex line.
func Dump(data []byte) []string {
	if len(data) == 0 {
		return nil
	}

	packets, err := bertlv.Decode(data)
	if err != nil || len(packets) == 0 {
		return []string{formatValue(data)}
	}

	var lines []string
	writePackets(&lines, packets, 0)
	return lines
}

func writePackets(lines *[]string, packets []bertlv.TLV, depth int) {
	indent := strings.Repeat("  ", depth)

	for _, p := range packets {
		tag := strings.ToUpper(p.Tag)
		if len(p.TLVs) > 0 {
			*lines = append(*lines, fmt.Sprintf("%s%s:", indent, tag))
			writePackets(lines, p.TLVs, depth+1)
			continue
		}
		*lines = append(*lines, fmt.Sprintf("%s%s: %s", indent, tag, formatValue(p.Value)))
	}
}

func formatValue(data []byte) string {
	return fmt.Sprintf("%X (%q)", data, MakeSafeASCII(data))
}
