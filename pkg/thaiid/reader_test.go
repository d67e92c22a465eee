package thaiid

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gregLibert/thai-idcard/pkg/iso7816"
	"github.com/gregLibert/thai-idcard/pkg/tlv"
)

func concatSegments(n int) []byte {
	var out []byte
	for i := 1; i <= n; i++ {
		out = append(out, photoSegment(i)...)
	}
	return out
}

func TestRead_FullCard(t *testing.T) {
	card := newThaiCard(5)
	dev := &simDevice{name: "Identiv uTrust 2700 R", card: card}

	rec, err := NewReader().Read(dev)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	want := sampleRecord
	want.Photo = concatSegments(5)
	if diff := cmp.Diff(&want, rec); diff != "" {
		t.Errorf("Read() mismatch (-want +got):\n%s", diff)
	}
	if len(rec.Photo) != 1275 {
		t.Errorf("photo length = %d, want 1275", len(rec.Photo))
	}
	if card.closed != 1 {
		t.Errorf("channel closed %d times, want 1", card.closed)
	}

	wantStart := [][]byte{
		tlv.Hex("00 A4 04 00 08 A0 00 00 00 54 48 00 01"),
		tlv.Hex("00 C0 00 00 0A"),
		tlv.Hex("80 B0 00 04 02 00 0D"),
		tlv.Hex("00 C0 00 00 0D"),
		tlv.Hex("80 B0 00 11 02 00 64"),
		tlv.Hex("00 C0 00 00 64"),
	}
	if diff := cmp.Diff(wantStart, card.sent[:len(wantStart)]); diff != "" {
		t.Errorf("first commands mismatch (-want +got):\n%s", diff)
	}

	// Segment 6 is the first missing one and ends the photo loop.
	last := card.sent[len(card.sent)-1]
	if !bytes.Equal(last, tlv.Hex("80 B0 06 76 02 00 FF")) {
		t.Errorf("last command = % X, want segment 6 read", last)
	}
}

func TestRead_Photo(t *testing.T) {
	tests := []struct {
		name     string
		segments int
		minSize  int
		want     []byte
	}{
		{name: "All segments fail", segments: 0, minSize: MinPhotoSize, want: nil},
		{name: "Below minimum size", segments: 4, minSize: MinPhotoSize, want: nil},
		{name: "Exactly at minimum size", segments: 4, minSize: 1020, want: concatSegments(4)},
		{name: "Every segment present", segments: 20, minSize: MinPhotoSize, want: concatSegments(20)},
		{name: "Extra segments are never read", segments: 25, minSize: MinPhotoSize, want: concatSegments(20)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			card := newThaiCard(tc.segments)
			rec, err := NewReader(WithMinPhotoSize(tc.minSize)).Read(&simDevice{name: "sim", card: card})
			if err != nil {
				t.Fatalf("Read() error = %v, photo failures must not fail the read", err)
			}
			if diff := cmp.Diff(tc.want, rec.Photo); diff != "" {
				t.Errorf("photo mismatch (-want +got):\n%s", diff)
			}
			if rec.HasPhoto() != (tc.want != nil) {
				t.Errorf("HasPhoto() = %v", rec.HasPhoto())
			}
			if card.closed != 1 {
				t.Errorf("channel closed %d times, want 1", card.closed)
			}
		})
	}
}

func TestRead_PhotoSegmentsOption(t *testing.T) {
	card := newThaiCard(20)
	rec, err := NewReader(WithPhotoSegments(6)).Read(&simDevice{name: "sim", card: card})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if diff := cmp.Diff(concatSegments(6), rec.Photo); diff != "" {
		t.Errorf("photo mismatch (-want +got):\n%s", diff)
	}
}

func TestRead_FieldFailure(t *testing.T) {
	dob := fieldByLabel("dob")
	dobCmd := tlv.Hex("80 B0 00 D9 02 00 08")

	card := newThaiCard(5)
	card.failures[[2]byte{dob.P1, dob.P2}] = []byte{0x6A, 0x82}

	rec, err := NewReader().Read(&simDevice{name: "sim", card: card})
	if rec != nil {
		t.Errorf("Read() returned a partial record: %+v", rec)
	}
	if !IsProtocolFailure(err) {
		t.Fatalf("Read() error = %v, want a protocol failure", err)
	}

	var re *ReadError
	if !errors.As(err, &re) {
		t.Fatalf("error %T is not a *ReadError", err)
	}
	if re.State != ReadingFields || re.Field != "dob" {
		t.Errorf("ReadError = {%s %q}, want {ReadingFields \"dob\"}", re.State, re.Field)
	}

	var se *iso7816.StatusError
	if !errors.As(err, &se) {
		t.Fatalf("error %v does not wrap *iso7816.StatusError", err)
	}
	if se.Status != iso7816.SW_ERR_FILE_NOT_FOUND || !bytes.Equal(se.Command, dobCmd) {
		t.Errorf("StatusError = %v, want 6A82 on % X", se, dobCmd)
	}

	if after := card.sentAfter(dobCmd); len(after) != 0 {
		t.Errorf("commands sent after the failing field: %X", after)
	}
	if card.closed != 1 {
		t.Errorf("channel closed %d times, want 1", card.closed)
	}
}

func TestRead_FieldGetResponseFailure(t *testing.T) {
	card := newThaiCard(5)
	card.selectStatus = []byte{0x90, 0x00}
	card.continueStatus = []byte{0x67, 0x00}

	_, err := NewReader().Read(&simDevice{name: "sim", card: card})

	var se *iso7816.StatusError
	if !errors.As(err, &se) {
		t.Fatalf("Read() error = %v, want *iso7816.StatusError", err)
	}
	if !se.Continuation {
		t.Error("StatusError.Continuation = false, want true")
	}
	if diff := cmp.Diff(tlv.Hex("00 C0 00 00 0D"), se.Command); diff != "" {
		t.Errorf("failing command mismatch (-want +got):\n%s", diff)
	}
	if card.closed != 1 {
		t.Errorf("channel closed %d times, want 1", card.closed)
	}
}

func TestRead_MoreDataOverridesLength(t *testing.T) {
	th := fieldByLabel("th_fullname")

	card := newThaiCard(5)
	card.announce = true
	card.files[[2]byte{th.P1, th.P2}] = sampleFields["th_fullname"]

	rec, err := NewReader().Read(&simDevice{name: "sim", card: card})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if rec.ThaiName != sampleRecord.ThaiName {
		t.Errorf("ThaiName = %q, want %q", rec.ThaiName, sampleRecord.ThaiName)
	}

	after := card.sentAfter(tlv.Hex("80 B0 00 11 02 00 64"))
	if len(after) == 0 || !bytes.Equal(after[0], tlv.Hex("00 C0 00 00 0F")) {
		t.Errorf("GET RESPONSE after th_fullname = %X, want 00C000000F", after)
	}
}

func TestRead_Select(t *testing.T) {
	selectCmd := tlv.Hex("00 A4 04 00 08 A0 00 00 00 54 48 00 01")

	tests := []struct {
		name           string
		selectStatus   []byte
		continueStatus []byte
		wantNext       []byte // first command after SELECT
		wantSW         iso7816.StatusWord
		wantContinue   bool
	}{
		{
			name:         "9000 goes straight to the fields",
			selectStatus: tlv.Hex("90 00"),
			wantNext:     tlv.Hex("80 B0 00 04 02 00 0D"),
		},
		{
			name:     "61XX issues one GET RESPONSE with the count",
			wantNext: tlv.Hex("00 C0 00 00 0A"),
		},
		{
			name:         "Failure aborts before any field read",
			selectStatus: tlv.Hex("6A 82"),
			wantSW:       iso7816.SW_ERR_FILE_NOT_FOUND,
		},
		{
			name:           "Failed GET RESPONSE aborts",
			continueStatus: tlv.Hex("6F 00"),
			wantNext:       tlv.Hex("00 C0 00 00 0A"),
			wantSW:         iso7816.SW_ERR_UNKNOWN,
			wantContinue:   true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			card := newThaiCard(5)
			card.selectStatus = tc.selectStatus
			card.continueStatus = tc.continueStatus

			rec, err := NewReader().Read(&simDevice{name: "sim", card: card})

			after := card.sentAfter(selectCmd)
			var next []byte
			if len(after) > 0 {
				next = after[0]
			}
			if diff := cmp.Diff(tc.wantNext, next); diff != "" {
				t.Errorf("command after SELECT mismatch (-want +got):\n%s", diff)
			}

			if tc.wantSW == 0 {
				if err != nil {
					t.Fatalf("Read() error = %v", err)
				}
				if rec.CitizenID != sampleRecord.CitizenID {
					t.Errorf("CitizenID = %q", rec.CitizenID)
				}
				return
			}

			var re *ReadError
			if !errors.As(err, &re) || re.State != Selecting {
				t.Fatalf("Read() error = %v, want a Selecting ReadError", err)
			}
			var se *iso7816.StatusError
			if !errors.As(err, &se) {
				t.Fatalf("error does not wrap *iso7816.StatusError: %v", err)
			}
			if se.Status != tc.wantSW || se.Continuation != tc.wantContinue {
				t.Errorf("StatusError = {%04X %v}, want {%04X %v}", uint16(se.Status), se.Continuation, uint16(tc.wantSW), tc.wantContinue)
			}
			if len(after) > 1 {
				t.Errorf("commands sent after the failed select: %X", after)
			}
			if card.closed != 1 {
				t.Errorf("channel closed %d times, want 1", card.closed)
			}
		})
	}
}

func TestRead_AlternateGetResponse(t *testing.T) {
	card := newThaiCard(5)
	card.atr = tlv.Hex("3B 67 00 00 A5 20 40 10 1F 83 00 90 00")
	card.getResponse = iso7816.GetResponseAlternate

	rec, err := NewReader().Read(&simDevice{name: "sim", card: card})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if rec.CitizenID != sampleRecord.CitizenID || !rec.HasPhoto() {
		t.Errorf("incomplete record: %+v", rec)
	}

	for _, cmd := range card.sent {
		if cmd[1] == 0xC0 && !bytes.HasPrefix(cmd, tlv.Hex("00 C0 00 01")) {
			t.Errorf("GET RESPONSE sent with wrong header: % X", cmd)
		}
	}
}

func TestRead_Idempotent(t *testing.T) {
	r := NewReader()

	first, err := r.Read(&simDevice{name: "a", card: newThaiCard(5)})
	if err != nil {
		t.Fatalf("first Read() error = %v", err)
	}
	second, err := r.Read(&simDevice{name: "b", card: newThaiCard(5)})
	if err != nil {
		t.Fatalf("second Read() error = %v", err)
	}

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("records differ (-first +second):\n%s", diff)
	}
}

func TestRead_Resources(t *testing.T) {
	t.Run("Nil device", func(t *testing.T) {
		if _, err := NewReader().Read(nil); !errors.Is(err, ErrNoDevice) {
			t.Errorf("Read(nil) error = %v, want ErrNoDevice", err)
		}
	})

	t.Run("Open failure", func(t *testing.T) {
		card := newThaiCard(5)
		_, err := NewReader().Read(&simDevice{name: "sim", card: card, openErr: errUnplugged})

		var re *ResourceError
		if !errors.As(err, &re) || re.Op != "open" || !errors.Is(err, errUnplugged) {
			t.Errorf("Read() error = %v, want open ResourceError", err)
		}
		if len(card.sent) != 0 || card.closed != 0 {
			t.Errorf("card used after failed open: sent=%d closed=%d", len(card.sent), card.closed)
		}
	})

	t.Run("ATR failure closes the channel", func(t *testing.T) {
		card := newThaiCard(5)
		card.atrErr = errUnplugged
		_, err := NewReader().Read(&simDevice{name: "sim", card: card})

		var re *ResourceError
		if !errors.As(err, &re) || re.Op != "atr" {
			t.Errorf("Read() error = %v, want atr ResourceError", err)
		}
		if card.closed != 1 {
			t.Errorf("channel closed %d times, want 1", card.closed)
		}
	})

	t.Run("Close failure after a good read", func(t *testing.T) {
		card := newThaiCard(5)
		card.closeErr = errUnplugged
		rec, err := NewReader().Read(&simDevice{name: "sim", card: card})

		var re *ResourceError
		if !errors.As(err, &re) || re.Op != "close" {
			t.Errorf("Read() error = %v, want close ResourceError", err)
		}
		if rec != nil {
			t.Error("Read() returned a record alongside a close failure")
		}
	})

	t.Run("Close failure keeps the protocol error", func(t *testing.T) {
		card := newThaiCard(5)
		card.selectStatus = tlv.Hex("6A 82")
		card.closeErr = errUnplugged
		_, err := NewReader().Read(&simDevice{name: "sim", card: card})

		if !IsProtocolFailure(err) {
			t.Errorf("Read() error = %v, want the select failure", err)
		}
	})
}

func TestStart(t *testing.T) {
	results := NewReader().Start(&simDevice{name: "sim", card: newThaiCard(5)})

	res, ok := <-results
	if !ok {
		t.Fatal("channel closed without a result")
	}
	if res.Err != nil {
		t.Fatalf("Result.Err = %v", res.Err)
	}
	if res.Record == nil || res.Record.CitizenID != sampleRecord.CitizenID {
		t.Errorf("Result.Record = %+v", res.Record)
	}

	if _, ok := <-results; ok {
		t.Error("channel delivered a second result")
	}
}

func TestStart_Failure(t *testing.T) {
	card := newThaiCard(5)
	card.selectStatus = tlv.Hex("6A 82")

	res := <-NewReader().Start(&simDevice{name: "sim", card: card})
	if res.Record != nil || !IsProtocolFailure(res.Err) {
		t.Errorf("Result = %+v, want a protocol failure", res)
	}
}

func TestState_String(t *testing.T) {
	if got := ReadingPhoto.String(); got != "ReadingPhoto" {
		t.Errorf("ReadingPhoto.String() = %q", got)
	}
	if got := State(42).String(); got != "State(42)" {
		t.Errorf("State(42).String() = %q", got)
	}
}
