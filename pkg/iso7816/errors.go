package iso7816

import (
	"fmt"
	"strings"
)

// StatusError reports a command the card refused. Command holds the encoded C-APDU exactly
// as transmitted.
type StatusError struct {
	Command      []byte
	Status       StatusWord
	Continuation bool // the failing command was the GET RESPONSE of a two-step read
}

func (e *StatusError) Error() string {
	what := "Command"
	if e.Continuation {
		what = "GET RESPONSE"
	}
	return fmt.Sprintf("%s failed (%s): %02X %02X", what, hexString(e.Command), e.Status.SW1(), e.Status.SW2())
}

// hexString formats bytes as space separated upper-case pairs ("80 B0 00 04").
func hexString(b []byte) string {
	parts := make([]string, len(b))
	for i, v := range b {
		parts[i] = fmt.Sprintf("%02X", v)
	}
	return strings.Join(parts, " ")
}
