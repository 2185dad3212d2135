package rules

import (
	"regexp"
	"strings"
)

// Extraction cascade for identity writes. First match wins; later patterns
// are only consulted when earlier ones fail, so a text can never yield two
// keys. Capitalization matters only where it disambiguates the bare
// "I'm X" form; the explicit "my name is" phrase accepts any casing.
var (
	reName      = regexp.MustCompile(`(?i:my name is)\s+([A-Za-z][a-zA-Z'-]*)`)
	reNameIm    = regexp.MustCompile(`(?i:i'?m|i am)\s+([A-Z][a-z'-]+)\b`)
	reDiet      = regexp.MustCompile(`(?i)\bi(?:'m| am)\s+(?:a\s+|an\s+)?(vegetarian|vegan|pescatarian|flexitarian)\b`)
	reReligion  = regexp.MustCompile(`(?i)\bi(?:'m| am)\s+(?:a\s+|an\s+)?(muslim|christian|jewish|hindu|buddhist|sikh|catholic|atheist|agnostic)\b`)
	reTrait     = regexp.MustCompile(`(?i)\bi(?:'m| am)\s+(?:a\s+|an\s+)([a-z][a-z-]+(?:\s+(?:person|eater|sleeper))?)\b`)
	reAvoid     = regexp.MustCompile(`(?i)\bi (?:don't|do not) (eat|drink)\s+([a-z][a-z ]*)`)
	reAllergy   = regexp.MustCompile(`(?i)\bi(?:'m| am)\s+allergic to\s+([a-z][a-z ]*)`)
	reCallMe    = regexp.MustCompile(`(?i)\bcall me\s+([A-Za-z'-]+)`)
	reAttribute = regexp.MustCompile(`(?i)\bmy (diet|religion|language|gender) is\s+([a-z][a-z-]*)`)
	reLanguage  = regexp.MustCompile(`(?i)\bi speak\s+([A-Za-z]+)`)
)

// Extract pulls an identity key and value out of text. Both returns are
// empty when no pattern matches; the write pipeline treats that as a
// recoverable extraction failure.
func Extract(text string) (key, value string) {
	t := strings.TrimSpace(text)
	// /remember carries its payload after the command word.
	if low := strings.ToLower(t); strings.HasPrefix(low, "/remember") {
		t = strings.TrimSpace(t[len("/remember"):])
	}

	if m := reName.FindStringSubmatch(t); m != nil {
		return "name", m[1]
	}
	if m := reNameIm.FindStringSubmatch(t); m != nil {
		return "name", m[1]
	}
	if m := reDiet.FindStringSubmatch(t); m != nil {
		return "diet", strings.ToLower(m[1])
	}
	if m := reReligion.FindStringSubmatch(t); m != nil {
		return "religion", strings.ToLower(m[1])
	}
	if m := reTrait.FindStringSubmatch(t); m != nil {
		return "trait", strings.ToLower(m[1])
	}
	if m := reAvoid.FindStringSubmatch(t); m != nil {
		return "avoid_" + strings.ToLower(m[1]), cleanValue(m[2])
	}
	if m := reAllergy.FindStringSubmatch(t); m != nil {
		return "allergy", cleanValue(m[1])
	}
	if m := reCallMe.FindStringSubmatch(t); m != nil {
		return "preferred_name", m[1]
	}
	if m := reAttribute.FindStringSubmatch(t); m != nil {
		return strings.ToLower(m[1]), strings.ToLower(m[2])
	}
	if m := reLanguage.FindStringSubmatch(t); m != nil {
		return "language", strings.ToLower(m[1])
	}
	return "", ""
}

// cleanValue trims trailing filler from a captured phrase.
func cleanValue(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	for _, stop := range []string{" because", " since", " anymore", " at all"} {
		if i := strings.Index(v, stop); i > 0 {
			v = v[:i]
		}
	}
	return strings.TrimSpace(v)
}
