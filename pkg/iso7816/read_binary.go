package iso7816

// The identity applet reads its data elements with a proprietary READ BINARY (CLA 80,
// INS B0). P1 P2 address the element and the data field carries the requested length on
// two bytes, so the command is always 7 bytes long:
//
//	80 B0 P1 P2 02 00 LL
//
// The card answers with a status only; the bytes themselves are fetched with GET RESPONSE.

// ProprietaryClass is the CLA used by the applet's READ BINARY.
var ProprietaryClass = MustClass(0x80)

// NewReadBinaryCommand builds the length-in-data READ BINARY for one data element.
func NewReadBinaryCommand(cla Class, p1, p2, length byte) *CommandAPDU {
	return NewCommandAPDU(cla, MustInstruction(INS_READ_BINARY), p1, p2, []byte{0x00, length}, 0)
}
