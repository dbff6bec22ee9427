package pipeline

import (
	"strings"
	"unicode"
)

const maxSuggestions = 5

type suggestionGroup struct {
	keywords []string
	examples []string
}

var suggestionGroups = []suggestionGroup{
	{
		keywords: []string{"cut", "remove", "delete", "trim"},
		examples: []string{"Cut the first 30 seconds", "Remove the last 10 seconds", "Trim from 0:10 to 1:30"},
	},
	{
		keywords: []string{"loud", "louder", "loudness", "quiet", "quieter", "volume", "gain"},
		examples: []string{"Increase volume by 6dB", "Lower volume by 3dB", "Make it louder"},
	},
	{
		keywords: []string{"fade", "fading", "smooth"},
		examples: []string{"Fade in over 3 seconds", "Add a 5 second fade out"},
	},
	{
		keywords: []string{"noise", "noisy", "clean", "hum"},
		examples: []string{"Remove background noise", "Reduce the hum by 70%"},
	},
}

// GenericSuggestions are returned when no keyword group matches
var GenericSuggestions = []string{
	"Cut the first 30 seconds",
	"Increase volume by 6dB",
	"Fade in over 3 seconds",
	"Normalize the audio",
	"Remove background noise",
}

// Suggest returns up to five example instructions related to the normalized text.
// Keywords match whole words only, so "human" does not suggest hum removal.
func Suggest(normalized string) []string {
	words := wordSet(normalized)

	var out []string
	for _, g := range suggestionGroups {
		if !containsAny(words, g.keywords) {
			continue
		}
		for _, ex := range g.examples {
			if len(out) == maxSuggestions {
				return out
			}
			out = append(out, ex)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), GenericSuggestions...)
	}
	return out
}

func wordSet(text string) map[string]bool {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

func containsAny(words map[string]bool, keywords []string) bool {
	for _, k := range keywords {
		if words[k] {
			return true
		}
	}
	return false
}
