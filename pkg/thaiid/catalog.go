package thaiid

import "github.com/gregLibert/thai-idcard/pkg/iso7816"

// AppletID is the AID of the identity applet.
var AppletID = []byte{0xA0, 0x00, 0x00, 0x00, 0x54, 0x48, 0x00, 0x01}

// Photo layout: up to PhotoSegments reads of photoSegmentLength bytes each.
const (
	PhotoSegments      = 20
	MinPhotoSize       = 1024
	photoSegmentLength = 0xFF
	photoOffsetBase    = 0x7C
)

// Field describes one data element of the card: where it lives, how many bytes to ask for
// and where the decoded value goes in a Record.
type Field struct {
	Label  string
	P1, P2 byte
	Length byte
	Decode func([]byte) string

	target func(*Record) *string
}

// Command returns the READ BINARY addressing this field.
func (f Field) Command() *iso7816.CommandAPDU {
	return iso7816.NewReadBinaryCommand(iso7816.ProprietaryClass, f.P1, f.P2, f.Length)
}

// Store decodes raw and writes the value into rec.
func (f Field) Store(rec *Record, raw []byte) {
	*f.target(rec) = f.Decode(raw)
}

var catalog = []Field{
	{Label: "cid", P1: 0x00, P2: 0x04, Length: 0x0D, Decode: DecodeText,
		target: func(r *Record) *string { return &r.CitizenID }},
	{Label: "th_fullname", P1: 0x00, P2: 0x11, Length: 0x64, Decode: DecodeText,
		target: func(r *Record) *string { return &r.ThaiName }},
	{Label: "en_fullname", P1: 0x00, P2: 0x75, Length: 0x64, Decode: DecodeText,
		target: func(r *Record) *string { return &r.EnglishName }},
	{Label: "dob", P1: 0x00, P2: 0xD9, Length: 0x08, Decode: DecodeText,
		target: func(r *Record) *string { return &r.DateOfBirth }},
	{Label: "gender", P1: 0x00, P2: 0xE1, Length: 0x01, Decode: DecodeText,
		target: func(r *Record) *string { return &r.Gender }},
	{Label: "issuer", P1: 0x00, P2: 0xF6, Length: 0x64, Decode: DecodeText,
		target: func(r *Record) *string { return &r.Issuer }},
	{Label: "issue_date", P1: 0x01, P2: 0x67, Length: 0x08, Decode: DecodeText,
		target: func(r *Record) *string { return &r.IssueDate }},
	{Label: "expire_date", P1: 0x01, P2: 0x6F, Length: 0x08, Decode: DecodeText,
		target: func(r *Record) *string { return &r.ExpiryDate }},
	{Label: "address", P1: 0x15, P2: 0x79, Length: 0x64, Decode: DecodeText,
		target: func(r *Record) *string { return &r.Address }},
}

// Catalog returns the card's data elements in reading order.
func Catalog() []Field {
	out := make([]Field, len(catalog))
	copy(out, catalog)
	return out
}

// SelectCommand selects the identity applet.
func SelectCommand() *iso7816.CommandAPDU {
	return iso7816.SelectByAID(iso7816.MustClass(0x00), AppletID)
}

// PhotoSegmentCommand addresses photo segment i (1-based). P1 is i and P2 is 0x7C-i, both
// wrapping to one byte.
func PhotoSegmentCommand(i int) *iso7816.CommandAPDU {
	return iso7816.NewReadBinaryCommand(iso7816.ProprietaryClass,
		byte(i), byte(photoOffsetBase-i), photoSegmentLength)
}
