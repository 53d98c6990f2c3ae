package studio

// Placeholder stands in for text that is not revealed yet.
const Placeholder = "..."

// MaxShowLevel is the highest reveal level.
const MaxShowLevel = 2

// RevealState is the presentation-side cursor over a dialog: which sentence is shown and
// how much of it has been revealed.
type RevealState struct {
	dialog *Dialog
	level  int
}

func NewRevealState(d *Dialog) *RevealState {
	return &RevealState{dialog: d}
}

func (r *RevealState) Dialog() *Dialog { return r.dialog }

func (r *RevealState) Level() int { return r.level }

// Navigate moves the dialog cursor and hides the new sentence again.
func (r *RevealState) Navigate(delta int) bool {
	if !r.dialog.Navigate(delta) {
		return false
	}
	r.level = 0
	return true
}

// Reveal shows one more layer. It reports false once everything is visible.
func (r *RevealState) Reveal() bool {
	if r.level >= MaxShowLevel {
		return false
	}
	r.level++
	return true
}

func (r *RevealState) Speaker() string { return r.dialog.Current().Speaker }

// Primary is the main line: hidden native text for LISTEN until level 1, the translation
// for SPEAK.
func (r *RevealState) Primary() string {
	s := r.dialog.Current()
	if r.dialog.Type == DialogSpeak {
		return s.Translation
	}
	if r.level < 1 {
		return Placeholder
	}
	return s.Text
}

// Secondary is the translation for LISTEN from level 2, the native text for SPEAK from level 1.
func (r *RevealState) Secondary() string {
	s := r.dialog.Current()
	if r.dialog.Type == DialogSpeak {
		if r.level < 1 {
			return Placeholder
		}
		return s.Text
	}
	if r.level < 2 {
		return Placeholder
	}
	return s.Translation
}
