package speech

import "testing"

var testVoices = []Voice{
	{Name: "Daniel", Lang: "en-GB"},
	{Name: "Samantha", Lang: "en-US"},
	{Name: "Milena", Lang: "ru-RU"},
	{Name: "Yuri", Lang: "ru-RU"},
	{Name: "Pavel", Lang: "ru-RU"},
	{Name: "Amelie", Lang: "fr-FR"},
}

func TestSelectVoice_FemaleRussianMatchesKeyword(t *testing.T) {
	v, ok := SelectVoice("ru", ModeFemale, testVoices)
	if !ok || v.Name != "Milena" {
		t.Fatalf("expected Milena, got %+v ok=%v", v, ok)
	}
}

func TestSelectVoice_MaleRussianTakesMiddleNonFemale(t *testing.T) {
	// Non-female ru candidates are Yuri and Pavel; the middle pick is Pavel.
	v, ok := SelectVoice("ru", ModeMale, testVoices)
	if !ok || v.Name != "Pavel" {
		t.Fatalf("expected Pavel, got %+v ok=%v", v, ok)
	}
}

func TestSelectVoice_MaleEnglishMatchesKeyword(t *testing.T) {
	v, ok := SelectVoice("en", ModeMale, testVoices)
	if !ok || v.Name != "Daniel" {
		t.Fatalf("expected Daniel, got %+v ok=%v", v, ok)
	}
}

func TestSelectVoice_FemaleEnglishMatchesKeyword(t *testing.T) {
	v, ok := SelectVoice("en", ModeFemale, testVoices)
	if !ok || v.Name != "Samantha" {
		t.Fatalf("expected Samantha, got %+v ok=%v", v, ok)
	}
}

func TestSelectVoice_FallsBackToFirstLanguageMatch(t *testing.T) {
	voices := []Voice{
		{Name: "Voice One", Lang: "en-US"},
		{Name: "Voice Two", Lang: "en-US"},
	}
	v, ok := SelectVoice("en", ModeMale, voices)
	if !ok || v.Name != "Voice One" {
		t.Fatalf("expected first language match, got %+v ok=%v", v, ok)
	}
}

func TestSelectVoice_NoLanguageMatchUsesFirstVoice(t *testing.T) {
	voices := []Voice{{Name: "Amelie", Lang: "fr-FR"}}
	v, ok := SelectVoice("ru", ModeFemale, voices)
	if !ok || v.Name != "Amelie" {
		t.Fatalf("expected first available voice, got %+v ok=%v", v, ok)
	}
}

func TestSelectVoice_EmptyList(t *testing.T) {
	if _, ok := SelectVoice("en", ModeFemale, nil); ok {
		t.Fatalf("expected no voice from an empty list")
	}
}

func TestPitchFor(t *testing.T) {
	cases := []struct {
		lang string
		mode Mode
		want float64
	}{
		{"ru", ModeMale, 0.5},
		{"en", ModeMale, 0.6},
		{"ru", ModeFemale, 1.2},
		{"en", ModeFemale, 1.2},
		{"en", ModeOff, 1.0},
	}
	for _, tc := range cases {
		if got := PitchFor(tc.lang, tc.mode); got != tc.want {
			t.Fatalf("PitchFor(%q, %v) = %v, want %v", tc.lang, tc.mode, got, tc.want)
		}
	}
}

func TestLangTag(t *testing.T) {
	if got := LangTag("ru"); got != "ru-RU" {
		t.Fatalf("LangTag(ru) = %q", got)
	}
	if got := LangTag("de"); got != "en-US" {
		t.Fatalf("LangTag(de) = %q", got)
	}
}

func TestNextRate_UnknownRateResets(t *testing.T) {
	if got := NextRate(1.75); got != 1.0 {
		t.Fatalf("expected unknown rate to reset the cycle, got %v", got)
	}
}
