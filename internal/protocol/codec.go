package protocol

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// MaxFrameSize bounds the payload length produced by Encode and accepted
// by ReadFrame (Decode itself does not check it). A frame whose declared
// length exceeds this is treated as fatal for the connection, per the wire
// contract.
const MaxFrameSize = 1 << 20 // 1 MiB

// ErrFrameTooLarge is returned when a frame's declared or encoded length
// exceeds MaxFrameSize. It is fatal for the connection.
var ErrFrameTooLarge = errors.New("protocol: frame exceeds maximum size")

// ErrUnknownVariant is returned by Decode when the payload's "kind"
// discriminator is not one of the known Kind values. It is recoverable:
// the caller should log and skip the frame, not tear down the connection.
var ErrUnknownVariant = errors.New("protocol: unknown message kind")

// wireEnvelope mirrors InputMessage's JSON shape but lets us detect an
// unrecognised Kind before unmarshalling into the typed struct, so unknown
// variants fail with ErrUnknownVariant instead of a generic decode error.
type wireEnvelope struct {
	Kind Kind `json:"kind"`
}

// Encode serialises msg as a length-prefixed JSON frame: a 4-byte
// big-endian length N followed by N bytes of JSON payload. Encode is a
// pure function and is total on every InputMessage value constructible via
// the NewXxx helpers in this package.
func Encode(msg InputMessage) ([]byte, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode: %w", err)
	}
	if len(payload) > MaxFrameSize {
		return nil, fmt.Errorf("protocol: encode: %w", ErrFrameTooLarge)
	}

	frame := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(frame[:4], uint32(len(payload)))
	copy(frame[4:], payload)
	return frame, nil
}

// Decode parses a single JSON payload (without its length prefix) into an
// InputMessage. It returns ErrUnknownVariant for a recognised frame whose
// Kind discriminator isn't one this package knows — a recoverable
// condition the caller should skip past rather than treat as fatal.
func Decode(payload []byte) (InputMessage, error) {
	var env wireEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return InputMessage{}, fmt.Errorf("protocol: decode: %w", err)
	}

	switch env.Kind {
	case KindKeyboard, KindMouseMotion, KindMouseButton, KindScroll, KindGesture,
		KindControlRelease, KindWarpCursor, KindScreenInfo:
	default:
		return InputMessage{}, fmt.Errorf("protocol: decode kind %q: %w", env.Kind, ErrUnknownVariant)
	}

	var msg InputMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return InputMessage{}, fmt.Errorf("protocol: decode: %w", err)
	}
	return msg, nil
}

// WriteFrame encodes msg and writes the resulting frame to w in one call.
func WriteFrame(w io.Writer, msg InputMessage) error {
	frame, err := Encode(msg)
	if err != nil {
		return err
	}
	_, err = w.Write(frame)
	return err
}

// ReadFrame reads one length-prefixed frame from r and decodes it. A
// truncated header or payload, or a declared length over MaxFrameSize, is
// a fatal io error for the connection. An unrecognised discriminator
// yields ErrUnknownVariant after the whole payload has been consumed, so
// the caller can log and continue reading the stream at the next frame
// boundary.
func ReadFrame(r io.Reader) (InputMessage, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return InputMessage{}, fmt.Errorf("protocol: read header: %w", err)
	}

	length := binary.BigEndian.Uint32(header[:])
	if length > MaxFrameSize {
		return InputMessage{}, fmt.Errorf("protocol: read header: %w", ErrFrameTooLarge)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return InputMessage{}, fmt.Errorf("protocol: read payload: %w", err)
	}

	return Decode(payload)
}
