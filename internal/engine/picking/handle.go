package picking

import "fmt"

// HandleID is a picking id. Scene entities use positive ids; the negative
// ids below name interaction handles drawn around the selected entity.
type HandleID int64

// Interaction handles.
const (
	MoveHandle HandleID = -1

	ResizePosX HandleID = -2
	ResizeNegX HandleID = -3
	ResizePosY HandleID = -4
	ResizeNegY HandleID = -5
	ResizePXPY HandleID = -6
	ResizePXNY HandleID = -7
	ResizeNXPY HandleID = -8
	ResizeNXNY HandleID = -9

	RotateHandle   HandleID = -10
	LineDragHandle HandleID = -11

	// LineNodeBase is the handle of line node 0. Node i uses LineNodeBase-i.
	LineNodeBase HandleID = -12
)

// LinePickAngle is how far, in radians, a pick ray may pass from a line
// or line node and still hit it (0.75 degrees).
const LinePickAngle = 0.01309

// NoHandle means no handle is active.
const NoHandle HandleID = 0

// HandleKind groups handles that are manipulated the same way.
type HandleKind int

const (
	KindNone HandleKind = iota
	KindMove
	KindResizeAxis
	KindResizeCorner
	KindRotate
	KindLineDrag
	KindLineNode
)

// LineNodeHandle returns the handle for node i of a polyline.
func LineNodeHandle(i int) HandleID {
	return LineNodeBase - HandleID(i)
}

// IsHandle reports whether id names an interaction handle.
func (h HandleID) IsHandle() bool {
	return h < 0
}

// NodeIndex returns the polyline node index of a line node handle.
func (h HandleID) NodeIndex() (int, bool) {
	if h > LineNodeBase {
		return 0, false
	}
	return int(LineNodeBase - h), true
}

// Kind classifies the handle.
func (h HandleID) Kind() HandleKind {
	switch {
	case h == MoveHandle:
		return KindMove
	case h == ResizePosX, h == ResizeNegX, h == ResizePosY, h == ResizeNegY:
		return KindResizeAxis
	case h <= ResizePXPY && h >= ResizeNXNY:
		return KindResizeCorner
	case h == RotateHandle:
		return KindRotate
	case h == LineDragHandle:
		return KindLineDrag
	case h <= LineNodeBase:
		return KindLineNode
	default:
		return KindNone
	}
}

// IsResize reports whether the handle is one of the eight resize handles.
func (h HandleID) IsResize() bool {
	k := h.Kind()
	return k == KindResizeAxis || k == KindResizeCorner
}

var kindPriority = map[HandleKind]int{
	KindMove:         5,
	KindLineDrag:     5,
	KindLineNode:     4,
	KindRotate:       3,
	KindResizeAxis:   2,
	KindResizeCorner: 1,
}

// Priority ranks handles that overlap under the cursor. Higher wins.
func (h HandleID) Priority() int {
	return kindPriority[h.Kind()]
}

// MirrorX returns the resize handle on the opposite X side, or h itself if
// it has no X component.
func (h HandleID) MirrorX() HandleID {
	switch h {
	case ResizePosX:
		return ResizeNegX
	case ResizeNegX:
		return ResizePosX
	case ResizePXPY:
		return ResizeNXPY
	case ResizePXNY:
		return ResizeNXNY
	case ResizeNXPY:
		return ResizePXPY
	case ResizeNXNY:
		return ResizePXNY
	}
	return h
}

// MirrorY returns the resize handle on the opposite Y side, or h itself if
// it has no Y component.
func (h HandleID) MirrorY() HandleID {
	switch h {
	case ResizePosY:
		return ResizeNegY
	case ResizeNegY:
		return ResizePosY
	case ResizePXPY:
		return ResizePXNY
	case ResizePXNY:
		return ResizePXPY
	case ResizeNXPY:
		return ResizeNXNY
	case ResizeNXNY:
		return ResizeNXPY
	}
	return h
}

var handleNames = map[HandleID]string{
	MoveHandle:     "move",
	ResizePosX:     "resize+x",
	ResizeNegX:     "resize-x",
	ResizePosY:     "resize+y",
	ResizeNegY:     "resize-y",
	ResizePXPY:     "resize+x+y",
	ResizePXNY:     "resize+x-y",
	ResizeNXPY:     "resize-x+y",
	ResizeNXNY:     "resize-x-y",
	RotateHandle:   "rotate",
	LineDragHandle: "line-drag",
}

// String implements fmt.Stringer.
func (h HandleID) String() string {
	if name, ok := handleNames[h]; ok {
		return name
	}
	if i, ok := h.NodeIndex(); ok {
		return fmt.Sprintf("line-node[%d]", i)
	}
	return fmt.Sprintf("id(%d)", int64(h))
}
