package iso7816

// GET RESPONSE (INS 'C0') retrieves the data a T=0 card has prepared for the previous
// command. The identity card applet expects CLA 00 P1 00, but some readers (recognisable by
// an ATR starting with 3B 67) only answer when P2 is 01. Sending the wrong variant makes every
// continuation fail, so the header is derived once from the ATR when the channel opens.

// GetResponseHeader is the 4-byte CLA INS P1 P2 prefix of a GET RESPONSE command.
type GetResponseHeader [4]byte

var (
	// GetResponseStandard is used for every ATR not matching the alternate prefix.
	GetResponseStandard = GetResponseHeader{0x00, 0xC0, 0x00, 0x00}
	// GetResponseAlternate is used when the ATR begins with 3B 67.
	GetResponseAlternate = GetResponseHeader{0x00, 0xC0, 0x00, 0x01}
)

// GetResponseHeaderFor picks the GET RESPONSE header matching the card's ATR.
func GetResponseHeaderFor(atr []byte) GetResponseHeader {
	if len(atr) >= 2 && atr[0] == 0x3B && atr[1] == 0x67 {
		return GetResponseAlternate
	}
	return GetResponseStandard
}

// Command builds the GET RESPONSE for length bytes. The encoding is always the 4-byte header
// plus one length byte; a length of 0 is sent as 00 (256).
func (h GetResponseHeader) Command(length byte) *CommandAPDU {
	ne := int(length)
	if ne == 0 {
		ne = MaxShortLe
	}

	return NewCommandAPDU(MustClass(h[0]), MustInstruction(InsCode(h[1])), h[2], h[3], nil, ne)
}
