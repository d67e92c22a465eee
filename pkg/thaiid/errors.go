package thaiid

import (
	"errors"
	"fmt"

	"github.com/gregLibert/thai-idcard/pkg/iso7816"
)

var (
	// ErrNoDevice is returned when no card reader is available.
	ErrNoDevice = errors.New("no smart card reader found")
	// ErrNotConnected is returned when a Connection is used before Connect or after
	// Disconnect.
	ErrNotConnected = errors.New("card connection is not open")
)

// ReadError reports the stage at which a card read was aborted.
type ReadError struct {
	State State
	Field string // label of the failing field, ReadingFields only
	Err   error
}

func (e *ReadError) Error() string {
	switch {
	case e.State == Selecting:
		return fmt.Sprintf("failed to select applet: %v", e.Err)
	case e.Field != "":
		return fmt.Sprintf("failed to read %s: %v", e.Field, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.State, e.Err)
	}
}

func (e *ReadError) Unwrap() error { return e.Err }

// ResourceError reports a card channel that could not be opened or closed.
type ResourceError struct {
	Op     string // "open", "atr" or "close"
	Device string
	Err    error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Device, e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }

// IsProtocolFailure reports whether err was caused by a status word the card returned.
func IsProtocolFailure(err error) bool {
	var se *iso7816.StatusError
	return errors.As(err, &se)
}

// StatusOf extracts the card status word from err.
func StatusOf(err error) (iso7816.StatusWord, bool) {
	var se *iso7816.StatusError
	if !errors.As(err, &se) {
		return 0, false
	}
	return se.Status, true
}

// Describe turns a read failure into the message shown to the user.
func Describe(err error) string {
	var re *ResourceError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoDevice):
		return "No smart card readers found. Please plug in a reader."
	case IsProtocolFailure(err):
		return "Smart card error: " + err.Error()
	case errors.As(err, &re):
		return "Card connection error: " + err.Error()
	default:
		return "Unexpected error: " + err.Error()
	}
}
