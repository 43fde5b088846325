// Package protocol defines the wire vocabulary exchanged between the Host
// and Client processes: a single tagged sum type covering keyboard, mouse,
// scroll, and gesture events plus the control messages (ControlRelease,
// WarpCursor, ScreenInfo) that coordinate the handoff between them.
package protocol

// Kind discriminates the InputMessage variants on the wire. It is carried
// in the JSON "kind" field alongside exactly one populated payload field.
type Kind string

const (
	KindKeyboard       Kind = "keyboard"
	KindMouseMotion    Kind = "mouse_motion"
	KindMouseButton    Kind = "mouse_button"
	KindScroll         Kind = "scroll"
	KindGesture        Kind = "gesture"
	KindControlRelease Kind = "control_release"
	KindWarpCursor     Kind = "warp_cursor"
	KindScreenInfo     Kind = "screen_info"
)

// KeyEvent distinguishes a key press from a key release.
type KeyEvent string

const (
	KeyDown KeyEvent = "key_down"
	KeyUp   KeyEvent = "key_up"
)

// MotionEvent distinguishes plain cursor motion from a drag carried by a
// held mouse button.
type MotionEvent string

const (
	MotionMoved        MotionEvent = "moved"
	MotionLeftDragged  MotionEvent = "left_dragged"
	MotionRightDragged MotionEvent = "right_dragged"
	MotionOtherDragged MotionEvent = "other_dragged"
)

// ButtonEvent names which button transitioned and in which direction.
type ButtonEvent string

const (
	ButtonLeftDown   ButtonEvent = "left_down"
	ButtonLeftUp     ButtonEvent = "left_up"
	ButtonRightDown  ButtonEvent = "right_down"
	ButtonRightUp    ButtonEvent = "right_up"
	ButtonOtherDown  ButtonEvent = "other_down"
	ButtonOtherUp    ButtonEvent = "other_up"
)

// GestureKind enumerates the trackpad gestures carried by a Gesture message.
type GestureKind string

const (
	GestureSwipe             GestureKind = "swipe"
	GestureSmartZoom         GestureKind = "smart_zoom"
	GestureMissionControlTap GestureKind = "mission_control_tap"
)

// Keyboard is emitted for a physical key transition. Flags is an opaque
// bitmask of modifier/lock state captured at the source and reapplied
// verbatim at the sink; this package never interprets its bits.
type Keyboard struct {
	KeyCode uint16   `json:"keyCode"`
	Event   KeyEvent `json:"event"`
	Flags   uint64   `json:"flags"`
}

// MouseMotion carries a pure relative displacement. Deltas, not absolute
// coordinates, are the sole authoritative channel for motion — this avoids
// coordinate skew between heterogeneous displays on the two ends of the
// link. WarpCursor is the only absolute-position message.
type MouseMotion struct {
	DeltaX float64     `json:"deltaX"`
	DeltaY float64     `json:"deltaY"`
	Event  MotionEvent `json:"event"`
}

// MouseButton carries a button transition. ClickState mirrors the
// originating OS's running multi-click counter: 1 is a single click, 2 a
// double-click, 3+ a triple (or higher) click.
type MouseButton struct {
	Event        ButtonEvent `json:"event"`
	ButtonNumber int32       `json:"buttonNumber"`
	ClickState   int64       `json:"clickState"`
}

// Scroll carries a wheel or trackpad scroll. ScrollPhase/MomentumPhase are
// opaque gesture-phase codes; zero means "not a gesture" (a plain wheel
// tick), reapplied verbatim at the sink to preserve gesture continuity.
type Scroll struct {
	DeltaX        float64 `json:"deltaX"`
	DeltaY        float64 `json:"deltaY"`
	ScrollPhase   int64   `json:"scrollPhase"`
	MomentumPhase int64   `json:"momentumPhase"`
}

// Gesture carries a trackpad gesture event not expressible as Scroll.
type Gesture struct {
	Kind        GestureKind `json:"kind"`
	Direction   int32       `json:"direction"`
	DeltaX      float64     `json:"deltaX"`
	DeltaY      float64     `json:"deltaY"`
	Phase       int64       `json:"phase"`
	TapCount    int32       `json:"tapCount"`
	TimestampMs int64       `json:"timestampMs"`
}

// ControlRelease asks the peer to resume local input handling. It carries
// no fields; its presence on the wire is the entire message.
type ControlRelease struct{}

// WarpCursor teleports the cursor to an absolute position in the
// receiver's own display-coordinate space. It is the sole absolute
// position channel on the wire — all other motion is delta-only.
type WarpCursor struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ScreenInfo announces the geometry of the sender's active display so the
// peer can reason about edge positions and warp targets.
type ScreenInfo struct {
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	IsVirtual bool    `json:"isVirtual"`
	DisplayID *uint32 `json:"displayId,omitempty"`
}

// InputMessage is the tagged union transmitted over the wire. Exactly one
// of the payload fields is non-nil, selected by Kind. Constructing an
// InputMessage directly (rather than through the NewXxx helpers) is fine
// as long as Kind matches the populated field.
type InputMessage struct {
	Kind Kind `json:"kind"`

	Keyboard       *Keyboard       `json:"keyboard,omitempty"`
	MouseMotion    *MouseMotion    `json:"mouseMotion,omitempty"`
	MouseButton    *MouseButton    `json:"mouseButton,omitempty"`
	Scroll         *Scroll         `json:"scroll,omitempty"`
	Gesture        *Gesture        `json:"gesture,omitempty"`
	ControlRelease *ControlRelease `json:"controlRelease,omitempty"`
	WarpCursor     *WarpCursor     `json:"warpCursor,omitempty"`
	ScreenInfo     *ScreenInfo     `json:"screenInfo,omitempty"`
}

// IsMotionClass reports whether m belongs to the set of messages the
// transport layer is permitted to drop under sustained backpressure:
// MouseMotion, Scroll without a phase, and non-initial Gesture events.
// Keyboard, MouseButton, and ControlRelease are never motion-class.
func (m InputMessage) IsMotionClass() bool {
	switch m.Kind {
	case KindMouseMotion:
		return true
	case KindScroll:
		return m.Scroll != nil && m.Scroll.ScrollPhase == 0 && m.Scroll.MomentumPhase == 0
	case KindGesture:
		return m.Gesture != nil && m.Gesture.Phase != 0
	default:
		return false
	}
}

func NewKeyboard(keyCode uint16, event KeyEvent, flags uint64) InputMessage {
	return InputMessage{Kind: KindKeyboard, Keyboard: &Keyboard{KeyCode: keyCode, Event: event, Flags: flags}}
}

func NewMouseMotion(dx, dy float64, event MotionEvent) InputMessage {
	return InputMessage{Kind: KindMouseMotion, MouseMotion: &MouseMotion{DeltaX: dx, DeltaY: dy, Event: event}}
}

func NewMouseButton(event ButtonEvent, buttonNumber int32, clickState int64) InputMessage {
	return InputMessage{Kind: KindMouseButton, MouseButton: &MouseButton{Event: event, ButtonNumber: buttonNumber, ClickState: clickState}}
}

func NewScroll(dx, dy float64, scrollPhase, momentumPhase int64) InputMessage {
	return InputMessage{Kind: KindScroll, Scroll: &Scroll{DeltaX: dx, DeltaY: dy, ScrollPhase: scrollPhase, MomentumPhase: momentumPhase}}
}

func NewGesture(g Gesture) InputMessage {
	return InputMessage{Kind: KindGesture, Gesture: &g}
}

func NewControlRelease() InputMessage {
	return InputMessage{Kind: KindControlRelease, ControlRelease: &ControlRelease{}}
}

func NewWarpCursor(x, y float64) InputMessage {
	return InputMessage{Kind: KindWarpCursor, WarpCursor: &WarpCursor{X: x, Y: y}}
}

func NewScreenInfo(width, height float64, isVirtual bool, displayID *uint32) InputMessage {
	return InputMessage{Kind: KindScreenInfo, ScreenInfo: &ScreenInfo{Width: width, Height: height, IsVirtual: isVirtual, DisplayID: displayID}}
}
