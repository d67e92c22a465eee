package iso7816

import (
	"fmt"
)

// CLIENT & PROTOCOL LOGIC:
// The Client drives one physical connection using the two-step read the identity applet
// requires for every data element:
//
//  1. Send the addressed command. The card answers 90 00 (data of the requested length is
//     ready) or 61 XX (XX bytes are ready). Anything else is a StatusError.
//  2. Send GET RESPONSE with that length. Its payload is the element; its status must be
//     90 00.
//
// Exchanges are strictly sequential: a GET RESPONSE is only valid right after the command
// it continues, so a Client must not be shared between goroutines.

// Transmitter abstracts the physical card connection.
type Transmitter interface {
	Transmit(cmd []byte) ([]byte, error)
}

// Client manages the high-level communication with the card.
type Client struct {
	Card        Transmitter
	GetResponse GetResponseHeader
}

// NewClient creates a new Client instance.
func NewClient(card Transmitter, getResponse GetResponseHeader) *Client {
	return &Client{Card: card, GetResponse: getResponse}
}

// Exchange transmits a single command and parses the reply. Status words are not
// interpreted.
func (c *Client) Exchange(cmd *CommandAPDU) (Transaction, error) {
	rawCmd, err := cmd.Bytes()
	if err != nil {
		return Transaction{}, fmt.Errorf("encoding error: %w", err)
	}

	rawResp, err := c.Card.Transmit(rawCmd)
	if err != nil {
		return Transaction{}, fmt.Errorf("transmission error: %w", err)
	}

	resp, err := ParseResponseAPDU(rawResp)
	if err != nil {
		return Transaction{}, err
	}

	return Transaction{Command: cmd, Response: resp}, nil
}

// Continue issues one GET RESPONSE for length bytes and requires 90 00.
func (c *Client) Continue(length byte) (Transaction, error) {
	cmd := c.GetResponse.Command(length)

	tx, err := c.Exchange(cmd)
	if err != nil {
		return tx, err
	}

	if tx.Response.Status.Disposition() != Completed {
		raw, _ := cmd.Bytes()
		return tx, &StatusError{Command: raw, Status: tx.Response.Status, Continuation: true}
	}

	return tx, nil
}

// Fetch runs the two-step read for cmd. On success the element is Trace.Payload().
// The returned trace holds every transaction performed, including the failing one.
func (c *Client) Fetch(cmd *CommandAPDU) (Trace, error) {
	rawCmd, err := cmd.Bytes()
	if err != nil {
		return nil, fmt.Errorf("encoding error: %w", err)
	}

	first, err := c.Exchange(cmd)
	if err != nil {
		return nil, err
	}
	trace := Trace{first}

	status := first.Response.Status
	length := rawCmd[len(rawCmd)-1]

	switch status.Disposition() {
	case Completed:
	case MoreData:
		length = status.Available()
	default:
		return trace, &StatusError{Command: rawCmd, Status: status}
	}

	second, err := c.Continue(length)
	if second.Response != nil {
		trace = append(trace, second)
	}
	if err != nil {
		return trace, err
	}

	return trace, nil
}
