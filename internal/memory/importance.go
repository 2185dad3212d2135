package memory

import "strings"

// emotionalWords each add 0.05 importance, with the combined contribution
// capped at +0.2.
var emotionalWords = []string{
	"love", "hate", "fear", "hope", "dream", "worry",
	"excited", "sad", "happy", "angry", "frustrated",
}

// ScoreImportance rates how much an utterance matters when first stored.
// Base 0.5, +0.1 for user role, up to +0.2 for emotional words, +0.1 for a
// question mark, +0.1 for texts longer than 20 words. Clamped to [0, 1].
func ScoreImportance(text, role string) float64 {
	score := 0.5
	if role == "user" {
		score += 0.1
	}

	lower := strings.ToLower(text)
	emotional := 0.0
	for _, w := range emotionalWords {
		if strings.Contains(lower, w) {
			emotional += 0.05
		}
	}
	if emotional > 0.2 {
		emotional = 0.2
	}
	score += emotional

	if strings.Contains(text, "?") {
		score += 0.1
	}
	if len(strings.Fields(text)) > 20 {
		score += 0.1
	}

	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return score
}
