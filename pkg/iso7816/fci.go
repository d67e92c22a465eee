package iso7816

import (
	"fmt"
	"strings"

	"github.com/moov-io/bertlv"
)

// FILE CONTROL INFORMATION (FCI) according to ISO/IEC 7816-4.
//
// A SELECT with P2 = 00 may return an FCI template ('6F') holding FCP ('62') and FMD ('64')
// templates, or their data objects directly ("flat" FCI). Only the objects identifying the
// selected application are extracted; the rest is kept in Unknown.

// FileControlInfo holds the identifying data objects of a SELECT response.
type FileControlInfo struct {
	DFName           []byte // '84'
	ApplicationLabel []byte // '50'
	FileIdentifier   []byte // '83'

	Unknown []bertlv.TLV
}

// ParseFCI decodes the payload of a SELECT response. Empty data gives an empty FCI.
func ParseFCI(data []byte) (*FileControlInfo, error) {
	fci := &FileControlInfo{}
	if len(data) == 0 {
		return fci, nil
	}

	// First bytes from 'C0' on are proprietary.
	if data[0] >= 0xC0 {
		return nil, fmt.Errorf("proprietary FCI format (first byte %02X)", data[0])
	}

	packets, err := bertlv.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("BER-TLV decode failed: %w", err)
	}

	fci.collect(unwrap(packets, "6F"))
	return fci, nil
}

// unwrap returns the children of the first template tagged tag, or packets unchanged.
func unwrap(packets []bertlv.TLV, tag string) []bertlv.TLV {
	for _, p := range packets {
		if strings.EqualFold(p.Tag, tag) {
			return p.TLVs
		}
	}
	return packets
}

func (fci *FileControlInfo) collect(packets []bertlv.TLV) {
	for _, p := range packets {
		switch strings.ToUpper(p.Tag) {
		case "62", "64":
			fci.collect(p.TLVs)
		case "84":
			fci.DFName = p.Value
		case "50":
			fci.ApplicationLabel = p.Value
		case "83":
			fci.FileIdentifier = p.Value
		default:
			fci.Unknown = append(fci.Unknown, p)
		}
	}
}
