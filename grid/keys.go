package grid

import "strings"

// =============================================================================
// KEYBOARD SHORTCUTS
// =============================================================================

// KeyEvent is a keydown as reported by the browser. Key is KeyboardEvent.key
// and Code is KeyboardEvent.code; either may be empty.
type KeyEvent struct {
	Key  string `json:"key"`
	Code string `json:"code,omitempty"`
	Ctrl bool   `json:"ctrl"`
	Meta bool   `json:"meta,omitempty"` // Cmd on macOS counts as Ctrl
}

// Action is what a shortcut maps to.
type Action string

const (
	ActionNone  Action = ""
	ActionCopy  Action = "copy"
	ActionPaste Action = "paste"
	ActionUndo  Action = "undo"
	ActionClear Action = "clear"
)

// letters maps a physical key to its Latin letter. Russian layouts report
// the Cyrillic character on the same key in KeyboardEvent.key.
var letters = map[string]string{
	"c": "c", "с": "c", "KeyC": "c",
	"v": "v", "м": "v", "KeyV": "v",
	"z": "z", "я": "z", "KeyZ": "z",
}

// ActionFor resolves a key event:
//
//	Ctrl+C -> copy, Ctrl+V -> paste, Ctrl+Z -> undo, Escape -> clear.
func ActionFor(ev KeyEvent) Action {
	if ev.Key == "Escape" || ev.Code == "Escape" {
		return ActionClear
	}
	if !ev.Ctrl && !ev.Meta {
		return ActionNone
	}
	letter := letters[ev.Code]
	if letter == "" {
		letter = letters[strings.ToLower(ev.Key)]
	}
	switch letter {
	case "c":
		return ActionCopy
	case "v":
		return ActionPaste
	case "z":
		return ActionUndo
	}
	return ActionNone
}

// HandleKey routes a shortcut to the active table. The second return is
// false when the event is not a shortcut and the caller should let it
// through.
func (e *Editor) HandleKey(ev KeyEvent) (Result, bool) {
	switch ActionFor(ev) {
	case ActionCopy:
		return e.Copy(), true
	case ActionPaste:
		return e.Paste(), true
	case ActionUndo:
		return e.Undo(), true
	case ActionClear:
		if err := e.clearActive(); err != nil {
			return failure(err), true
		}
		return done("Выделение снято"), true
	}
	return Result{}, false
}

// clearActive drops the selection of the active table.
func (e *Editor) clearActive() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, err := e.table(e.active)
	if err != nil {
		return err
	}
	t.Selection.Clear()
	return nil
}
