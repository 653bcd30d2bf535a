package turn

import "testing"

func TestNewPresentationDefaults(t *testing.T) {
	p := NewPresentation()
	if p.Tone() != TonePlayful {
		t.Fatalf("default tone = %s, want Playful", p.Tone())
	}
	if p.Audience() != AudienceTeen {
		t.Fatalf("default audience = %s, want For a teenager", p.Audience())
	}
}

func TestCycleToneWrapsForward(t *testing.T) {
	p := NewPresentation()
	seen := []Tone{}
	for i := 0; i < 3; i++ {
		p = p.CycleTone(1)
		seen = append(seen, p.Tone())
	}
	want := []Tone{ToneSerious, ToneSarcastic, TonePlayful}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("cycle %d = %s, want %s", i, seen[i], want[i])
		}
	}
}

func TestCycleAudienceFullLoopReturnsToStart(t *testing.T) {
	p := NewPresentation() // index 1
	for i := 0; i < 3; i++ {
		p = p.CycleAudience(1)
	}
	if p.AudienceIndex() != 1 {
		t.Fatalf("audience index after full loop = %d, want 1", p.AudienceIndex())
	}
}

func TestCycleToneBackwardFromZeroWraps(t *testing.T) {
	p := NewPresentation() // tone index 0
	p = p.CycleTone(-1)
	if p.ToneIndex() != 2 {
		t.Fatalf("tone index = %d, want 2", p.ToneIndex())
	}
}

func TestCycleAudienceWrapsBackward(t *testing.T) {
	p := NewPresentation() // For a teenager
	p = p.CycleAudience(-1)
	if p.Audience() != AudienceChild {
		t.Fatalf("after one step back audience = %s, want For a 5-year-old", p.Audience())
	}
	p = p.CycleAudience(-1)
	if p.Audience() != AudienceExpert {
		t.Fatalf("wraparound audience = %s, want For an expert", p.Audience())
	}
}

func TestCycleReturnsCopy(t *testing.T) {
	p := NewPresentation()
	_ = p.CycleTone(1)
	if p.Tone() != TonePlayful {
		t.Fatalf("original presentation mutated: tone = %s", p.Tone())
	}
}

func TestPromptValues(t *testing.T) {
	cases := []struct {
		tone     Tone
		audience Audience
		wantTone string
		wantAud  string
	}{
		{TonePlayful, AudienceChild, "playful", "5-year-old"},
		{ToneSerious, AudienceTeen, "serious", "teenager"},
		{ToneSarcastic, AudienceExpert, "sarcastic", "expert"},
	}
	for _, tc := range cases {
		if got := tc.tone.PromptValue(); got != tc.wantTone {
			t.Errorf("tone %s prompt value = %q, want %q", tc.tone, got, tc.wantTone)
		}
		if got := tc.audience.PromptValue(); got != tc.wantAud {
			t.Errorf("audience %s prompt value = %q, want %q", tc.audience, got, tc.wantAud)
		}
	}
}
