package thaiid

import "fmt"

// Gender is the single character code stored on the card.
type Gender string

const (
	GenderMale   Gender = "1"
	GenderFemale Gender = "2"
)

// Known reports whether the code is one the card format defines.
func (g Gender) Known() bool {
	return g == GenderMale || g == GenderFemale
}

// Label returns the English label. Unrecognised codes are surfaced verbatim.
func (g Gender) Label() string {
	switch g {
	case GenderMale:
		return "Male"
	case GenderFemale:
		return "Female"
	default:
		return fmt.Sprintf("Unspecified (%s)", string(g))
	}
}

// ThaiLabel returns the label printed on the card itself.
func (g Gender) ThaiLabel() string {
	switch g {
	case GenderMale:
		return "ชาย"
	case GenderFemale:
		return "หญิง"
	default:
		return fmt.Sprintf("ไม่ระบุ (%s)", string(g))
	}
}
