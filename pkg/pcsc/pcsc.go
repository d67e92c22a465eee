// Package pcsc connects thaiid to the system PC/SC service.
package pcsc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ebfe/scard"
	"github.com/gregLibert/thai-idcard/pkg/thaiid"
)

// cardHandle is the part of *scard.Card in use.
type cardHandle interface {
	Transmit(cmd []byte) ([]byte, error)
	Status() (*scard.CardStatus, error)
	Disconnect(d scard.Disposition) error
}

// contextHandle is the part of *scard.Context in use.
type contextHandle interface {
	ListReaders() ([]string, error)
	GetStatusChange(states []scard.ReaderState, timeout time.Duration) error
	Release() error
	connect(reader string) (cardHandle, error)
}

type systemContext struct {
	*scard.Context
}

// connect forces T=0 or T=1; some readers reject ProtocolAny with "Parameter Incorrect".
func (s systemContext) connect(reader string) (cardHandle, error) {
	card, err := s.Connect(reader, scard.ShareShared, scard.ProtocolT0|scard.ProtocolT1)
	if err != nil {
		return nil, err
	}
	return card, nil
}

// Context is an established PC/SC context.
type Context struct {
	handle contextHandle
}

// Establish opens a PC/SC context. Release it when done.
func Establish() (*Context, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("failed to establish PC/SC context: %w", err)
	}
	return &Context{handle: systemContext{ctx}}, nil
}

// Release frees the PC/SC context.
func (c *Context) Release() error {
	return c.handle.Release()
}

// Devices lists the connected readers. No readers is an empty list, not an error.
func (c *Context) Devices() ([]thaiid.Device, error) {
	names, err := c.handle.ListReaders()
	if errors.Is(err, scard.ErrNoReadersAvailable) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list readers: %w", err)
	}

	devs := make([]thaiid.Device, len(names))
	for i, name := range names {
		devs[i] = &Device{ctx: c, name: name}
	}
	return devs, nil
}

// WaitForCard blocks until a card is present in reader or ctx is done. Each status query
// waits at most poll, so cancellation is noticed within one poll interval.
func (c *Context) WaitForCard(ctx context.Context, reader string, poll time.Duration) error {
	states := []scard.ReaderState{{
		Reader:       reader,
		CurrentState: scard.StateUnaware,
	}}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := c.handle.GetStatusChange(states, poll)
		if errors.Is(err, scard.ErrTimeout) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to watch reader %q: %w", reader, err)
		}

		if states[0].EventState&scard.StatePresent != 0 {
			return nil
		}
		states[0].CurrentState = states[0].EventState
	}
}

// Device is one PC/SC reader.
type Device struct {
	ctx  *Context
	name string
}

// Name returns the PC/SC reader name.
func (d *Device) Name() string {
	return d.name
}

// Open connects to the card in the reader.
func (d *Device) Open() (thaiid.Channel, error) {
	card, err := d.ctx.handle.connect(d.name)
	if err != nil {
		return nil, err
	}
	return &channel{card: card}, nil
}

type channel struct {
	card cardHandle
}

func (ch *channel) Transmit(cmd []byte) ([]byte, error) {
	return ch.card.Transmit(cmd)
}

func (ch *channel) ATR() ([]byte, error) {
	status, err := ch.card.Status()
	if err != nil {
		return nil, err
	}
	return status.Atr, nil
}

// Close leaves the card powered in the reader.
func (ch *channel) Close() error {
	return ch.card.Disconnect(scard.LeaveCard)
}
