package thaiid

import (
	"bytes"
	"errors"

	"github.com/gregLibert/thai-idcard/pkg/iso7816"
	"github.com/gregLibert/thai-idcard/pkg/tlv"
)

// simCard emulates the identity applet: READ BINARY arms a buffer that the following
// GET RESPONSE returns. Every command received is recorded.
type simCard struct {
	atr         []byte
	getResponse iso7816.GetResponseHeader

	selectStatus []byte // answer to SELECT, default 61 0A
	fci          []byte

	files    map[[2]byte][]byte // P1 P2 -> element content
	failures map[[2]byte][]byte // P1 P2 -> status returned by READ BINARY
	announce bool               // answer READ BINARY with 61 XX instead of 90 00

	continueStatus []byte // overrides 90 00 on every GET RESPONSE

	pending  []byte
	sent     [][]byte
	closed   int
	atrErr   error
	closeErr error
}

func newSimCard() *simCard {
	return &simCard{
		atr:         tlv.Hex("3B 78 18 00 00 00 73 C8 40 13 00 90 00"),
		getResponse: iso7816.GetResponseStandard,
		fci:         tlv.Hex("6F 08 84 06 A0 00 00 00 54 48"),
		files:       map[[2]byte][]byte{},
		failures:    map[[2]byte][]byte{},
	}
}

// newThaiCard returns a card holding a complete identity and a photo of the given number
// of 255-byte segments.
func newThaiCard(photoSegments int) *simCard {
	c := newSimCard()
	for label, content := range sampleFields {
		f := fieldByLabel(label)
		c.files[[2]byte{f.P1, f.P2}] = pad(content, int(f.Length))
	}
	for i := 1; i <= photoSegments; i++ {
		c.files[[2]byte{byte(i), byte(0x7C - i)}] = photoSegment(i)
	}
	return c
}

func (c *simCard) Transmit(cmd []byte) ([]byte, error) {
	c.sent = append(c.sent, append([]byte(nil), cmd...))

	switch {
	case len(cmd) >= 4 && cmd[1] == 0xA4:
		if c.selectStatus != nil {
			if c.selectStatus[0] == 0x61 {
				c.pending = c.fci
			}
			return c.selectStatus, nil
		}
		c.pending = c.fci
		return []byte{0x61, byte(len(c.fci))}, nil

	case len(cmd) == 5 && bytes.Equal(cmd[:4], c.getResponse[:]):
		if c.continueStatus != nil {
			return c.continueStatus, nil
		}
		if c.pending == nil {
			return []byte{0x69, 0x85}, nil
		}
		n := int(cmd[4])
		if n == 0 {
			n = 256
		}
		data := c.pending
		if len(data) > n {
			data = data[:n]
		}
		c.pending = nil
		return append(append([]byte(nil), data...), 0x90, 0x00), nil

	case len(cmd) == 5 && cmd[1] == 0xC0:
		return []byte{0x6A, 0x86}, nil

	case len(cmd) == 7 && cmd[0] == 0x80 && cmd[1] == 0xB0:
		key := [2]byte{cmd[2], cmd[3]}
		if sw, ok := c.failures[key]; ok {
			return sw, nil
		}
		data, ok := c.files[key]
		if !ok {
			return []byte{0x6A, 0x82}, nil
		}
		c.pending = data
		if c.announce {
			return []byte{0x61, byte(len(data))}, nil
		}
		return []byte{0x90, 0x00}, nil
	}

	return []byte{0x6D, 0x00}, nil
}

func (c *simCard) ATR() ([]byte, error) {
	return c.atr, c.atrErr
}

func (c *simCard) Close() error {
	c.closed++
	return c.closeErr
}

// sentAfter returns the commands received after the first one equal to cmd.
func (c *simCard) sentAfter(cmd []byte) [][]byte {
	for i, s := range c.sent {
		if bytes.Equal(s, cmd) {
			return c.sent[i+1:]
		}
	}
	return nil
}

type simDevice struct {
	name    string
	card    *simCard
	openErr error
	opened  int
}

func (d *simDevice) Name() string { return d.name }

func (d *simDevice) Open() (Channel, error) {
	if d.openErr != nil {
		return nil, d.openErr
	}
	d.opened++
	return d.card, nil
}

var errUnplugged = errors.New("reader unplugged")

var sampleFields = map[string][]byte{
	"cid":         []byte("1101700203451"),
	"th_fullname": tlv.Hex("B9 D2 C2 23 CA C1 AA D2 C2 23 23 E3 A8 B4 D5"),
	"en_fullname": []byte("Mr.#Somchai##Jaidee"),
	"dob":         []byte("25300115"),
	"gender":      []byte("1"),
	"issuer":      tlv.Hex("A1 C3 D8 A7 E0 B7 BE C1 CB D2 B9 A4 C3"),
	"issue_date":  []byte("25600101"),
	"expire_date": []byte("25690114"),
	"address":     []byte("99#Moo#4####Bang Rak#Bangkok"),
}

var sampleRecord = Record{
	CitizenID:   "1101700203451",
	ThaiName:    "นาย สมชาย  ใจดี",
	EnglishName: "Mr. Somchai  Jaidee",
	DateOfBirth: "25300115",
	Gender:      "1",
	Issuer:      "กรุงเทพมหานคร",
	IssueDate:   "25600101",
	ExpiryDate:  "25690114",
	Address:     "99 Moo 4    Bang Rak Bangkok",
}

func fieldByLabel(label string) Field {
	for _, f := range catalog {
		if f.Label == label {
			return f
		}
	}
	panic("unknown field " + label)
}

// pad fills content up to n bytes with spaces, as the card does.
func pad(content []byte, n int) []byte {
	out := append([]byte(nil), content...)
	for len(out) < n {
		out = append(out, ' ')
	}
	return out
}

func photoSegment(i int) []byte {
	return bytes.Repeat([]byte{byte(i)}, 255)
}
