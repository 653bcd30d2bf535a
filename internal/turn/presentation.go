package turn

// Tone shapes how the answer is phrased.
type Tone int

const (
	TonePlayful Tone = iota
	ToneSerious
	ToneSarcastic
)

var toneLabels = [...]string{"Playful", "Serious", "Sarcastic"}

func (t Tone) String() string { return toneLabels[t] }

// PromptValue is the lowercase descriptor embedded in the upstream
// instruction string.
func (t Tone) PromptValue() string {
	switch t {
	case TonePlayful:
		return "playful"
	case ToneSerious:
		return "serious"
	default:
		return "sarcastic"
	}
}

// Audience selects who the answer is pitched at.
type Audience int

const (
	AudienceChild Audience = iota
	AudienceTeen
	AudienceExpert
)

var audienceLabels = [...]string{"For a 5-year-old", "For a teenager", "For an expert"}

func (a Audience) String() string { return audienceLabels[a] }

// PromptValue is the audience descriptor embedded in the upstream
// instruction string.
func (a Audience) PromptValue() string {
	switch a {
	case AudienceChild:
		return "5-year-old"
	case AudienceTeen:
		return "teenager"
	default:
		return "expert"
	}
}

// Presentation is the session-scoped tone/audience selection. It is a
// value: cycling returns a new Presentation, nothing is mutated through
// shared state, and each session owns an independent instance.
type Presentation struct {
	toneIndex     int
	audienceIndex int
}

// NewPresentation returns the default selection: playful, for a teenager.
func NewPresentation() Presentation {
	return Presentation{toneIndex: int(TonePlayful), audienceIndex: int(AudienceTeen)}
}

func (p Presentation) Tone() Tone         { return Tone(p.toneIndex) }
func (p Presentation) Audience() Audience { return Audience(p.audienceIndex) }
func (p Presentation) ToneIndex() int     { return p.toneIndex }
func (p Presentation) AudienceIndex() int { return p.audienceIndex }

// CycleTone steps the tone selector forward (+1) or backward (-1) with
// modulo wraparound; the index never leaves the enumeration.
func (p Presentation) CycleTone(step int) Presentation {
	p.toneIndex = wrapIndex(p.toneIndex+step, len(toneLabels))
	return p
}

// CycleAudience steps the audience selector forward (+1) or backward (-1)
// with modulo wraparound.
func (p Presentation) CycleAudience(step int) Presentation {
	p.audienceIndex = wrapIndex(p.audienceIndex+step, len(audienceLabels))
	return p
}

func wrapIndex(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
