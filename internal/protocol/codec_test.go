package protocol

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func roundtrip(t *testing.T, msg InputMessage) InputMessage {
	t.Helper()
	frame, err := Encode(msg)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	if len(frame) < 4 {
		t.Fatalf("frame too short: %d bytes", len(frame))
	}
	n := binary.BigEndian.Uint32(frame[:4])
	if int(n) != len(frame)-4 {
		t.Fatalf("length prefix %d does not match payload length %d", n, len(frame)-4)
	}

	got, err := Decode(frame[4:])
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return got
}

func TestRoundtripAllVariants(t *testing.T) {
	displayID := uint32(7)
	cases := []InputMessage{
		NewKeyboard(0x04, KeyDown, 0x100000),
		NewKeyboard(0x04, KeyUp, 0),
		NewMouseMotion(12.5, -3.25, MotionMoved),
		NewMouseMotion(0, 0, MotionLeftDragged),
		NewMouseButton(ButtonLeftDown, 0, 1),
		NewMouseButton(ButtonLeftUp, 0, 2),
		NewScroll(0, 10, 0, 0),
		NewScroll(1, -2, 1, 2),
		NewGesture(Gesture{Kind: GestureSwipe, Direction: 1, DeltaX: 1, DeltaY: 0, Phase: 1, TapCount: 0, TimestampMs: 1000}),
		NewControlRelease(),
		NewWarpCursor(1920, 0),
		NewScreenInfo(1920, 1080, true, &displayID),
		NewScreenInfo(1920, 1080, false, nil),
	}

	for _, want := range cases {
		got := roundtrip(t, want)
		if !reflect.DeepEqual(got, want) {
			t.Errorf("roundtrip mismatch:\n got  %#v\n want %#v", got, want)
		}
	}
}

func TestFrameLengthPrefixMatchesPayload(t *testing.T) {
	msg := NewKeyboard(0x04, KeyDown, 0x100000)
	frame, err := Encode(msg)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}

	n := binary.BigEndian.Uint32(frame[:4])
	if int(n) != len(payload) {
		t.Fatalf("length prefix %d != marshalled payload length %d", n, len(payload))
	}
}

func TestDecodeUnknownVariantIsRecoverable(t *testing.T) {
	_, err := Decode([]byte(`{"kind":"teleport_all_monitors"}`))
	if !errors.Is(err, ErrUnknownVariant) {
		t.Fatalf("expected ErrUnknownVariant, got %v", err)
	}
}

func TestReadFrameSkipsUnknownVariantButStaysOnFrameBoundary(t *testing.T) {
	var buf bytes.Buffer

	bad := []byte(`{"kind":"nonsense"}`)
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(bad)))
	buf.Write(header[:])
	buf.Write(bad)

	good := NewKeyboard(0x05, KeyUp, 0)
	if err := WriteFrame(&buf, good); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	_, err := ReadFrame(&buf)
	if !errors.Is(err, ErrUnknownVariant) {
		t.Fatalf("expected ErrUnknownVariant on first frame, got %v", err)
	}

	got, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame after skip: %v", err)
	}
	if !reflect.DeepEqual(got, good) {
		t.Errorf("frame boundary was not preserved: got %#v want %#v", got, good)
	}
}

func TestEncodeRejectsOversizeFrame(t *testing.T) {
	huge := make([]byte, MaxFrameSize+1)
	for i := range huge {
		huge[i] = 'a'
	}
	// The string-typed Kind field is enough to inflate the JSON payload
	// past the cap.
	msg := InputMessage{Kind: Kind(huge)}
	if _, err := Encode(msg); !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("Encode: expected ErrFrameTooLarge, got %v", err)
	}

	// ReadFrame rejects an oversize declared length the same way.
	var buf bytes.Buffer
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(MaxFrameSize+1))
	buf.Write(header[:])

	_, err := ReadFrame(&buf)
	if !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("expected ErrFrameTooLarge, got %v", err)
	}
}

func TestDecodeTruncatedPayloadIsFatal(t *testing.T) {
	var buf bytes.Buffer
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], 100)
	buf.Write(header[:])
	buf.WriteString("short")

	_, err := ReadFrame(&buf)
	if err == nil {
		t.Fatal("expected error for truncated payload")
	}
}
