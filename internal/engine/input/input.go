// Package input translates SDL2 events into viewer events.
package input

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/simview/internal/engine/interaction"
)

// EventType is the kind of an input event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventWindowClose
	EventWindowFocus
	EventMouseLeave
	EventKeyDown
	EventKeyUp
	EventMouseMove
	EventMouseDown
	EventMouseUp
	EventMouseWheel
)

// Mouse buttons, numbered as SDL numbers them.
const (
	ButtonLeft   = sdl.BUTTON_LEFT
	ButtonMiddle = sdl.BUTTON_MIDDLE
	ButtonRight  = sdl.BUTTON_RIGHT
)

// Event is a processed input event.
type Event struct {
	Type     EventType
	WindowID int

	Key sdl.Scancode

	Width  int
	Height int

	// X and Y are the cursor position; DX and DY the motion since the
	// previous move event.
	X, Y   int
	DX, DY int
	// Wheel is the vertical scroll amount, positive away from the user.
	Wheel int

	Button int
	// Buttons is the SDL button mask held during a move.
	Buttons uint32
	Mods    interaction.Modifiers
}

// Held reports whether button was down during a move event.
func (e Event) Held(button int) bool {
	return e.Buttons&(1<<(uint(button)-1)) != 0
}

// Input polls SDL for events.
type Input struct {
	events []Event
	// modState reads the keyboard modifiers for mouse events.
	modState func() sdl.Keymod
}

// New creates a new input handler.
func New() *Input {
	return &Input{
		events:   make([]Event, 0, 16),
		modState: sdl.GetModState,
	}
}

// Update polls pending SDL events and reports whether the user asked to
// quit.
func (i *Input) Update() bool {
	i.events = i.events[:0]
	quit := false
	for ev := sdl.PollEvent(); ev != nil; ev = sdl.PollEvent() {
		e, ok := i.Translate(ev)
		if !ok {
			continue
		}
		i.events = append(i.events, e)
		if e.Type == EventQuit {
			quit = true
		}
	}
	return quit
}

// Events returns the events from the last Update.
func (i *Input) Events() []Event {
	return i.events
}

// IsKeyPressed reports whether scancode went down during the last Update.
func (i *Input) IsKeyPressed(scancode sdl.Scancode) bool {
	for _, e := range i.events {
		if e.Type == EventKeyDown && e.Key == scancode {
			return true
		}
	}
	return false
}

// Translate converts one SDL event. It returns false for events the
// viewer ignores.
func (i *Input) Translate(ev sdl.Event) (Event, bool) {
	switch e := ev.(type) {
	case *sdl.QuitEvent:
		return Event{Type: EventQuit}, true

	case *sdl.WindowEvent:
		out := Event{WindowID: int(e.WindowID)}
		switch e.Event {
		case sdl.WINDOWEVENT_RESIZED, sdl.WINDOWEVENT_SIZE_CHANGED:
			out.Type = EventWindowResize
			out.Width, out.Height = int(e.Data1), int(e.Data2)
		case sdl.WINDOWEVENT_CLOSE:
			out.Type = EventWindowClose
		case sdl.WINDOWEVENT_FOCUS_GAINED:
			out.Type = EventWindowFocus
		case sdl.WINDOWEVENT_LEAVE:
			out.Type = EventMouseLeave
		default:
			return Event{}, false
		}
		return out, true

	case *sdl.KeyboardEvent:
		out := Event{
			WindowID: int(e.WindowID),
			Key:      e.Keysym.Scancode,
			Mods:     modifiers(sdl.Keymod(e.Keysym.Mod)),
		}
		switch e.Type {
		case sdl.KEYDOWN:
			out.Type = EventKeyDown
		case sdl.KEYUP:
			out.Type = EventKeyUp
		default:
			return Event{}, false
		}
		return out, true

	case *sdl.MouseMotionEvent:
		return Event{
			Type:     EventMouseMove,
			WindowID: int(e.WindowID),
			X:        int(e.X),
			Y:        int(e.Y),
			DX:       int(e.XRel),
			DY:       int(e.YRel),
			Buttons:  e.State,
			Mods:     i.mods(),
		}, true

	case *sdl.MouseButtonEvent:
		out := Event{
			WindowID: int(e.WindowID),
			X:        int(e.X),
			Y:        int(e.Y),
			Button:   int(e.Button),
			Mods:     i.mods(),
		}
		switch e.Type {
		case sdl.MOUSEBUTTONDOWN:
			out.Type = EventMouseDown
		case sdl.MOUSEBUTTONUP:
			out.Type = EventMouseUp
		default:
			return Event{}, false
		}
		return out, true

	case *sdl.MouseWheelEvent:
		wheel := int(e.Y)
		if e.Direction == sdl.MOUSEWHEEL_FLIPPED {
			wheel = -wheel
		}
		return Event{
			Type:     EventMouseWheel,
			WindowID: int(e.WindowID),
			Wheel:    wheel,
			Mods:     i.mods(),
		}, true
	}
	return Event{}, false
}

func (i *Input) mods() interaction.Modifiers {
	if i.modState == nil {
		return 0
	}
	return modifiers(i.modState())
}

func modifiers(m sdl.Keymod) interaction.Modifiers {
	var out interaction.Modifiers
	if m&sdl.KMOD_SHIFT != 0 {
		out |= interaction.ModShift
	}
	if m&sdl.KMOD_CTRL != 0 {
		out |= interaction.ModCtrl
	}
	if m&sdl.KMOD_ALT != 0 {
		out |= interaction.ModAlt
	}
	return out
}
