// Package thaiid reads Thai national identity cards.
//
// A read selects the identity applet, fetches the nine text fields of the Catalog with the
// READ BINARY / GET RESPONSE two-step exchange, then reassembles the photo from up to 20
// segments:
//
//	r := thaiid.NewReader(thaiid.WithLogger(logger))
//	rec, err := r.Read(device)
//	if err != nil {
//	    fmt.Println(thaiid.Describe(err))
//	}
//
// Field failures abort the read and no partial Record is returned. Photo failures only
// truncate the photo, which is dropped when shorter than MinPhotoSize.
package thaiid

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gregLibert/thai-idcard/pkg/iso7816"
	"github.com/gregLibert/thai-idcard/pkg/tlv"
)

// State is a step of a card read.
type State int

const (
	Idle State = iota
	Selecting
	ReadingFields
	ReadingPhoto
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Selecting:
		return "Selecting"
	case ReadingFields:
		return "ReadingFields"
	case ReadingPhoto:
		return "ReadingPhoto"
	case Done:
		return "Done"
	case Failed:
		return "Failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Reader performs card reads. It keeps no state between reads, so one Reader may serve
// several devices concurrently.
type Reader struct {
	logger        *slog.Logger
	photoSegments int
	minPhotoSize  int
}

// Option configures a Reader.
type Option func(*Reader)

// WithLogger sets the logger used for protocol tracing.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reader) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithPhotoSegments sets the maximum number of photo segments read.
func WithPhotoSegments(n int) Option {
	return func(r *Reader) { r.photoSegments = n }
}

// WithMinPhotoSize sets the size below which a reassembled photo is discarded.
func WithMinPhotoSize(n int) Option {
	return func(r *Reader) { r.minPhotoSize = n }
}

// NewReader returns a Reader using PhotoSegments and MinPhotoSize unless overridden.
func NewReader(opts ...Option) *Reader {
	r := &Reader{
		logger:        slog.Default(),
		photoSegments: PhotoSegments,
		minPhotoSize:  MinPhotoSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// read is the state of one Read call.
type read struct {
	conn   *Connection
	logger *slog.Logger
	state  State
}

func (rd *read) enter(s State) {
	rd.logger.Debug("state change", "from", rd.state, "to", s)
	rd.state = s
}

// Read reads the whole card in dev. The channel is opened and always closed again before
// Read returns.
func (r *Reader) Read(dev Device) (rec *Record, err error) {
	if dev == nil {
		return nil, ErrNoDevice
	}

	rd := &read{
		conn:   NewConnection(dev),
		logger: r.logger.With("reader", dev.Name()),
		state:  Idle,
	}

	if err := rd.conn.Connect(); err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rd.conn.Disconnect(); cerr != nil {
			rd.logger.Warn("failed to release card", "error", cerr)
			if err == nil {
				rec, err = nil, cerr
			}
		}
	}()

	header, _ := rd.conn.GetResponse()
	rd.logger.Debug("card connected", "atr", fmt.Sprintf("%X", rd.conn.ATR()), "get_response", fmt.Sprintf("%X", header[:]))

	rd.enter(Selecting)
	if err := rd.selectApplet(); err != nil {
		rd.enter(Failed)
		return nil, &ReadError{State: Selecting, Err: err}
	}

	rd.enter(ReadingFields)
	out := &Record{}
	for _, f := range catalog {
		trace, err := rd.conn.Fetch(f.Command())
		if err != nil {
			rd.logger.Debug("field read failed", "field", f.Label, "trace", trace.Describe())
			rd.enter(Failed)
			return nil, &ReadError{State: ReadingFields, Field: f.Label, Err: err}
		}
		f.Store(out, trace.Payload())
		rd.logger.Debug("field read", "field", f.Label, "bytes", len(trace.Payload()))
	}

	rd.enter(ReadingPhoto)
	out.Photo = rd.readPhoto(r.photoSegments, r.minPhotoSize)

	rd.enter(Done)
	return out, nil
}

// selectApplet selects the identity applet. A 61XX answer is completed with a single GET
// RESPONSE; the FCI it returns is only logged.
func (rd *read) selectApplet() error {
	cmd := SelectCommand()

	tx, err := rd.conn.Transmit(cmd)
	if err != nil {
		return err
	}

	status := tx.Response.Status
	switch status.Disposition() {
	case iso7816.Completed:
		return nil
	case iso7816.MoreData:
		tx, err := rd.conn.Continue(status.Available())
		if err != nil {
			return err
		}
		rd.logFCI(tx.Response.Data)
		return nil
	default:
		raw, _ := cmd.Bytes()
		return &iso7816.StatusError{Command: raw, Status: status}
	}
}

func (rd *read) logFCI(data []byte) {
	if !rd.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	if fci, err := iso7816.ParseFCI(data); err == nil && len(fci.DFName) > 0 {
		rd.logger.Debug("applet selected", "df_name", fmt.Sprintf("%X", fci.DFName))
	}
	for _, line := range tlv.Dump(data) {
		rd.logger.Debug("select response", "tlv", line)
	}
}

// readPhoto concatenates photo segments until one fails or segments are exhausted.
func (rd *read) readPhoto(segments, minSize int) []byte {
	var photo []byte

	for i := 1; i <= segments; i++ {
		trace, err := rd.conn.Fetch(PhotoSegmentCommand(i))
		if err != nil {
			rd.logger.Debug("photo read stopped", "segment", i, "error", err)
			break
		}
		photo = append(photo, trace.Payload()...)
	}

	if len(photo) < minSize {
		rd.logger.Warn("photo discarded", "bytes", len(photo), "min_size", minSize)
		return nil
	}

	rd.logger.Debug("photo read", "bytes", len(photo))
	return photo
}
