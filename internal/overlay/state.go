package overlay

// Phase is the lifecycle state of an overlay.
type Phase int

const (
	Hidden Phase = iota
	Showing
	Shown
	Hiding
)

func (p Phase) String() string {
	switch p {
	case Hidden:
		return "hidden"
	case Showing:
		return "showing"
	case Shown:
		return "shown"
	case Hiding:
		return "hiding"
	}
	return "unknown"
}

// ParsePhase is the inverse of Phase.String.
func ParsePhase(s string) (Phase, bool) {
	for _, p := range []Phase{Hidden, Showing, Shown, Hiding} {
		if p.String() == s {
			return p, true
		}
	}
	return Hidden, false
}

// Visible reports whether the overlay is on screen or about to be.
func (p Phase) Visible() bool {
	return p == Showing || p == Shown
}
