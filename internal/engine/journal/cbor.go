package journal

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("journal: cbor encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyQuiet,
		IndefLength: cbor.IndefLengthAllowed,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("journal: cbor decoder mode: %v", err))
	}
}

// CBORRecorder writes entries to w as a sequence of CBOR items.
type CBORRecorder struct {
	mu      sync.Mutex
	enc     *cbor.Encoder
	written int
	err     error
}

// NewCBORRecorder creates a recorder writing to w.
func NewCBORRecorder(w io.Writer) *CBORRecorder {
	return &CBORRecorder{enc: encMode.NewEncoder(w)}
}

// Record encodes the entry. The first write error is kept and later entries
// are dropped; see Err.
func (r *CBORRecorder) Record(entry Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return
	}
	if err := r.enc.Encode(entry); err != nil {
		r.err = fmt.Errorf("journal: encode batch %s: %w", entry.BatchID, err)
		return
	}
	r.written++
}

// Written returns the number of entries successfully encoded.
func (r *CBORRecorder) Written() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.written
}

// Err returns the first encoding error, if any.
func (r *CBORRecorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

var _ Recorder = (*CBORRecorder)(nil)

// Reader decodes entries written by CBORRecorder.
type Reader struct {
	dec *cbor.Decoder
}

// NewReader creates a reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: decMode.NewDecoder(r)}
}

// Next decodes the next entry. It returns io.EOF at the end of the stream.
func (r *Reader) Next() (Entry, error) {
	var e Entry
	if err := r.dec.Decode(&e); err != nil {
		if errors.Is(err, io.EOF) {
			return Entry{}, io.EOF
		}
		return Entry{}, fmt.Errorf("journal: decode: %w", err)
	}
	return e, nil
}

// ReadAll decodes every entry in r.
func ReadAll(r io.Reader) ([]Entry, error) {
	jr := NewReader(r)
	var entries []Entry
	for {
		e, err := jr.Next()
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return entries, err
		}
		entries = append(entries, e)
	}
}
