package iso7816

import (
	"fmt"
	"strings"
)

// A Transaction is one C-APDU and the R-APDU it produced. A Trace is the chronological list
// of transactions behind one logical read: the addressed command, then the GET RESPONSE
// that fetched its payload.

// Transaction represents a completed Command-Response pair.
type Transaction struct {
	Command  *CommandAPDU
	Response *ResponseAPDU
}

// Trace is a sequence of transactions (Command-Response pairs).
type Trace []Transaction

// Last returns the final transaction of the trace.
// Returns nil if the trace is empty.
func (t Trace) Last() *Transaction {
	if len(t) == 0 {
		return nil
	}
	return &t[len(t)-1]
}

// Payload returns the response data of the final transaction, or nil.
func (t Trace) Payload() []byte {
	last := t.Last()
	if last == nil || last.Response == nil {
		return nil
	}
	return last.Response.Data
}

// Describe renders one line per transaction: encoded command, status and payload size.
func (t Trace) Describe() string {
	var sb strings.Builder

	for i, tx := range t {
		raw, err := tx.Command.Bytes()
		cmdHex := fmt.Sprintf("%X", raw)
		if err != nil {
			cmdHex = "<unencodable>"
		}

		if tx.Response == nil {
			sb.WriteString(fmt.Sprintf("[%d] %s -> no response\n", i+1, cmdHex))
			continue
		}

		sw := tx.Response.Status
		mark := "[OK]"
		if !sw.IsSuccess() {
			mark = "[!!]"
		}
		sb.WriteString(fmt.Sprintf("[%d] %s -> [%02X %02X] %s %s | %d bytes\n",
			i+1, cmdHex, sw.SW1(), sw.SW2(), mark, sw.Verbose(), len(tx.Response.Data)))
	}

	return strings.TrimRight(sb.String(), "\n")
}
