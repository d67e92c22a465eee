/*
Package iso7816 implements the ISO/IEC 7816 building blocks needed to talk to a contact
identity card over short APDUs.

It provides Command and Response APDU structures, Status Word classification, the GET RESPONSE
header quirk keyed on the ATR, and a Client that performs the two-step "ask, then fetch" read
every data element of the card requires.

# Fundamentals

The communication with a smart card is strictly synchronous:
 1. The Host sends a Command APDU (Header + Optional Body).
 2. The Card processes it and returns a Response APDU (Optional Body + Trailer SW1/SW2).

# Status Words

Every response ends with a 2-byte Status Word (SW). Classify reduces it to one of:
  - Completed: 0x9000.
  - MoreData:  0x61XX, XX bytes ready for GET RESPONSE.
  - Failed:    anything else.

# Usage Example: Reading One Element

	client := iso7816.NewClient(card, iso7816.GetResponseHeaderFor(atr))

	cmd := iso7816.NewReadBinaryCommand(iso7816.ProprietaryClass, 0x00, 0x04, 0x0D)
	trace, err := client.Fetch(cmd)
	if err != nil {
	    var swErr *iso7816.StatusError
	    if errors.As(err, &swErr) {
	        log.Printf("card refused %X: %s", swErr.Command, swErr.Status.Verbose())
	    }
	    return err
	}

	fmt.Printf("%X\n", trace.Payload())
	fmt.Println(trace.Describe())
*/
package iso7816
