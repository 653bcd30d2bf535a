package turn

// SwipeThreshold is the minimum drag distance, in pixels, for a gesture to
// count as a swipe.
const SwipeThreshold = 50.0

// Swipe is one completed drag gesture reported by the client.
type Swipe struct {
	DX float64
	DY float64
	// Gestures that begin on the capture control or inside the answer text
	// region are ignored so they do not conflict with activation or
	// scrolling.
	OnCaptureControl bool
	InAnswerRegion   bool
}

// ApplySwipe interprets a drag against the current selection: horizontal
// drags past the threshold cycle the audience (right = forward), vertical
// drags cycle the tone (up = forward). Sub-threshold or ignored-region
// drags leave the selection untouched.
func ApplySwipe(p Presentation, s Swipe) (Presentation, bool) {
	if s.OnCaptureControl || s.InAnswerRegion {
		return p, false
	}

	if abs(s.DX) > abs(s.DY) {
		if abs(s.DX) <= SwipeThreshold {
			return p, false
		}
		if s.DX > 0 {
			return p.CycleAudience(1), true
		}
		return p.CycleAudience(-1), true
	}

	if abs(s.DY) <= SwipeThreshold {
		return p, false
	}
	if s.DY < 0 {
		return p.CycleTone(1), true
	}
	return p.CycleTone(-1), true
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
