package memory

import (
	"strings"

	"github.com/layermem/layermem/internal/model"
)

// contextLexicon maps each context to its keyword list. Detection counts
// hits per context over the lowercased text; ties break by enum order.
var contextLexicon = map[model.Context][]string{
	model.ContextFamily: {
		"mom", "dad", "mother", "father", "parent", "sibling", "brother",
		"sister", "family", "home", "grandma", "grandpa", "aunt", "uncle",
		"cousin", "wife", "husband", "spouse", "kid", "child", "son",
		"daughter",
	},
	model.ContextWork: {
		"work", "job", "office", "boss", "colleague", "coworker", "project",
		"meeting", "deadline", "salary", "career", "promotion", "client",
		"business", "professional", "company", "manager", "team",
	},
	model.ContextCollege: {
		"college", "university", "school", "class", "professor", "teacher",
		"exam", "test", "grade", "study", "student", "campus", "lecture",
		"homework", "assignment", "degree", "major", "semester",
	},
	model.ContextPersonal: {
		"myself", "i feel", "i think", "i believe", "my opinion",
		"personally", "my life", "my goal", "my dream", "my fear", "my hope",
	},
	model.ContextHealth: {
		"health", "doctor", "hospital", "medicine", "sick", "illness",
		"exercise", "diet", "sleep", "mental", "therapy", "anxiety",
		"depression", "stress", "workout", "gym", "weight",
	},
	model.ContextHobby: {
		"hobby", "game", "music", "movie", "book", "art", "sport", "travel",
		"cooking", "reading", "playing", "watching", "listening",
		"collecting", "photography", "painting",
	},
}

// DetectContext picks the context whose keywords appear most often in text.
// Returns general when nothing matches.
func DetectContext(text string) model.Context {
	lower := strings.ToLower(text)

	best := model.ContextGeneral
	bestCount := 0
	for _, c := range model.Contexts {
		words, ok := contextLexicon[c]
		if !ok {
			continue
		}
		count := 0
		for _, w := range words {
			if strings.Contains(lower, w) {
				count++
			}
		}
		if count > bestCount {
			best = c
			bestCount = count
		}
	}
	return best
}
