package speech

import "strings"

// Name-keyword heuristics for picking a gendered voice out of whatever the
// engine reports. Kept as pure functions so they are testable with synthetic
// voice lists, decoupled from any engine.

var femaleKeywordsRU = []string{
	"female", "woman", "milena", "samantha", "anna", "katya",
	"анна", "елена", "мария", "наталья", "ольга", "татьяна",
}

var femaleKeywordsEN = []string{"female", "woman", "samantha", "anna"}

var maleKeywordsEN = []string{"male", "man", "daniel", "alex"}

// Rates is the ordered cycle of user-selectable speech-rate multipliers.
var Rates = []float64{1.0, 1.5, 2.0, 2.5, 3.0}

// NextRate returns the rate following cur in the cycle.
func NextRate(cur float64) float64 {
	for i, r := range Rates {
		if r == cur {
			return Rates[(i+1)%len(Rates)]
		}
	}
	return Rates[0]
}

// LangTag maps the two-letter session language to a full speech-synthesis tag.
func LangTag(language string) string {
	if language == "ru" {
		return "ru-RU"
	}
	return "en-US"
}

// PitchFor is fixed per mode and independent of the chosen voice.
func PitchFor(language string, mode Mode) float64 {
	switch mode {
	case ModeMale:
		if language == "ru" {
			return 0.5
		}
		return 0.6
	case ModeFemale:
		return 1.2
	}
	return 1.0
}

func nameContainsAny(v Voice, keywords []string) bool {
	name := strings.ToLower(v.Name)
	for _, kw := range keywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

// SelectVoice picks a voice for the language and mode. Voices matching the
// language prefix are preferred; within that subset the gendered keyword
// heuristics apply, falling back to the first matching-language voice. With
// no language match at all the first available voice is used.
func SelectVoice(language string, mode Mode, voices []Voice) (Voice, bool) {
	if len(voices) == 0 {
		return Voice{}, false
	}
	prefix := "en"
	if language == "ru" {
		prefix = "ru"
	}
	var langVoices []Voice
	for _, v := range voices {
		if strings.HasPrefix(strings.ToLower(v.Lang), prefix) {
			langVoices = append(langVoices, v)
		}
	}
	if len(langVoices) == 0 {
		return voices[0], true
	}

	if mode == ModeMale {
		if language == "ru" {
			// No reliable male keyword set for Russian voices: exclude the
			// female-associated names and take a middle candidate.
			var male []Voice
			for _, v := range langVoices {
				if !nameContainsAny(v, femaleKeywordsRU) {
					male = append(male, v)
				}
			}
			if len(male) > 0 {
				return male[len(male)/2], true
			}
			return langVoices[0], true
		}
		for _, v := range langVoices {
			if nameContainsAny(v, maleKeywordsEN) {
				return v, true
			}
		}
		return langVoices[0], true
	}

	keywords := femaleKeywordsEN
	if language == "ru" {
		keywords = femaleKeywordsRU
	}
	for _, v := range langVoices {
		if nameContainsAny(v, keywords) {
			return v, true
		}
	}
	return langVoices[0], true
}
