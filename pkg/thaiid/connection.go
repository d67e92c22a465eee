package thaiid

import (
	"github.com/gregLibert/thai-idcard/pkg/iso7816"
)

// Channel is one open link to a card.
type Channel interface {
	iso7816.Transmitter
	ATR() ([]byte, error)
	Close() error
}

// Device is a card reader able to open channels.
type Device interface {
	Name() string
	Open() (Channel, error)
}

// Connection owns the channel used by a single card read. The GET RESPONSE header is fixed
// from the ATR when the channel opens and never changes afterwards.
//
// A Connection is not safe for concurrent use.
type Connection struct {
	device  Device
	channel Channel
	client  *iso7816.Client
	atr     []byte
	closed  bool
}

// NewConnection prepares a connection to dev. Nothing is opened until Connect.
func NewConnection(dev Device) *Connection {
	return &Connection{device: dev}
}

// Connect opens the channel and derives the GET RESPONSE header from the ATR.
func (c *Connection) Connect() error {
	if c.channel != nil && !c.closed {
		return nil
	}

	ch, err := c.device.Open()
	if err != nil {
		return &ResourceError{Op: "open", Device: c.device.Name(), Err: err}
	}

	atr, err := ch.ATR()
	if err != nil {
		_ = ch.Close()
		return &ResourceError{Op: "atr", Device: c.device.Name(), Err: err}
	}

	c.channel = ch
	c.closed = false
	c.atr = atr
	c.client = iso7816.NewClient(ch, iso7816.GetResponseHeaderFor(atr))
	return nil
}

// ATR returns the answer to reset read by Connect.
func (c *Connection) ATR() []byte {
	return c.atr
}

// GetResponse returns the GET RESPONSE header in use.
func (c *Connection) GetResponse() (iso7816.GetResponseHeader, error) {
	if err := c.ready(); err != nil {
		return iso7816.GetResponseHeader{}, err
	}
	return c.client.GetResponse, nil
}

// Transmit sends one command and returns the parsed reply without interpreting the status.
func (c *Connection) Transmit(cmd *iso7816.CommandAPDU) (iso7816.Transaction, error) {
	if err := c.ready(); err != nil {
		return iso7816.Transaction{}, err
	}
	return c.client.Exchange(cmd)
}

// Continue sends GET RESPONSE for length bytes.
func (c *Connection) Continue(length byte) (iso7816.Transaction, error) {
	if err := c.ready(); err != nil {
		return iso7816.Transaction{}, err
	}
	return c.client.Continue(length)
}

// Fetch runs the command then GET RESPONSE two-step read.
func (c *Connection) Fetch(cmd *iso7816.CommandAPDU) (iso7816.Trace, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	return c.client.Fetch(cmd)
}

// Disconnect closes the channel. Calling it again, or on a connection that never opened,
// does nothing.
func (c *Connection) Disconnect() error {
	if c.channel == nil || c.closed {
		return nil
	}
	c.closed = true

	if err := c.channel.Close(); err != nil {
		return &ResourceError{Op: "close", Device: c.device.Name(), Err: err}
	}
	return nil
}

func (c *Connection) ready() error {
	if c.channel == nil || c.closed {
		return ErrNotConnected
	}
	return nil
}
