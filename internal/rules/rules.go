// Package rules implements the deterministic routing overlay: command
// prefixes, the safety blocklist, and the anchored identity, correction and
// knowledge patterns. Rules are evaluated in a fixed precedence order and
// the first hit wins.
package rules

import (
	"regexp"
	"strings"

	"github.com/layermem/layermem/internal/model"
)

// rule is one entry in the precedence table. decide returns the forced
// routing result, or nil when the rule does not fire.
type rule struct {
	name   string
	decide func(trimmed, lower string) *model.RoutingResult
}

// Engine evaluates the rule table.
type Engine struct {
	rules []rule
}

// blocklist holds normalized substrings that must never be persisted.
var blocklist = []string{
	"password",
	"passphrase",
	"credit card number",
	"card number",
	"cvv",
	"social security",
	"ssn",
	"api key",
	"secret key",
	"private key",
	"bank account number",
	"routing number",
	"pin code",
	"one-time code",
}

var (
	identityPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^(?i:my name is)\s+\S+`),
		regexp.MustCompile(`^(?i:i'?m|i am)\s+[A-Z][a-z]+\b`),
		regexp.MustCompile(`^(?i:i am|i'm)\s+(?:a\s+|an\s+)?(?i:vegetarian|vegan|pescatarian|flexitarian)\b`),
		regexp.MustCompile(`^(?i:i am|i'm)\s+(?:a\s+|an\s+)?(?i:muslim|christian|jewish|hindu|buddhist|sikh|catholic|atheist|agnostic)\b`),
		regexp.MustCompile(`^(?i)my (?:diet|religion|language|gender) is\s+\S+`),
		regexp.MustCompile(`^(?i:i am|i'm)\s+allergic to\s+\S+`),
		regexp.MustCompile(`^(?i)i (?:don't|do not) (?:eat|drink)\s+\S+`),
		regexp.MustCompile(`^(?i)call me\s+\S+`),
		regexp.MustCompile(`^(?i)i speak\s+\S+`),
	}

	correctionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^(?i)actually[,\s]`),
		regexp.MustCompile(`^(?i)correction[:\s]`),
		regexp.MustCompile(`^(?i)i meant\s+`),
		regexp.MustCompile(`^(?i)no[,\s]+i meant\s+`),
		regexp.MustCompile(`^(?i)that'?s (?:wrong|not right)[,\s]`),
		regexp.MustCompile(`^(?i)to clarify[,:\s]`),
	}

	knowledgePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^(?i)i know how to\s+\S+`),
		regexp.MustCompile(`^(?i:i'm|i am)\s+skilled (?:in|at)\s+\S+`),
		regexp.MustCompile(`^(?i)i specialize in\s+\S+`),
		regexp.MustCompile(`^(?i:i'm|i am)\s+(?:good|great|an expert) at\s+\S+`),
		regexp.MustCompile(`^(?i)i (?:can|know how to) (?:code|program|write|build|cook|play)\s+\S+`),
	}
)

// New builds the rule table in precedence order: commands, safety blocklist,
// identity declarations, corrections, knowledge indicators.
func New() *Engine {
	forced := func(d model.Decision) *model.RoutingResult {
		return &model.RoutingResult{Decision: d, Confidence: 1.0, Source: model.SourceRule}
	}

	return &Engine{rules: []rule{
		{
			name: "command",
			decide: func(trimmed, lower string) *model.RoutingResult {
				switch {
				case strings.HasPrefix(lower, "/recall"):
					return forced(model.DecideExperience)
				case strings.HasPrefix(lower, "/forget"):
					r := forced(model.DecideExperience)
					r.Forget = &model.ForgetIntent{
						Operation: "forget",
						Query:     strings.TrimSpace(trimmed[len("/forget"):]),
					}
					return r
				case strings.HasPrefix(lower, "/remember"):
					return forced(model.DecideIdentity)
				}
				return nil
			},
		},
		{
			name: "safety",
			decide: func(trimmed, lower string) *model.RoutingResult {
				for _, blocked := range blocklist {
					if strings.Contains(lower, blocked) {
						return forced(model.DecideNone)
					}
				}
				return nil
			},
		},
		{
			name: "identity",
			decide: func(trimmed, lower string) *model.RoutingResult {
				for _, re := range identityPatterns {
					if re.MatchString(trimmed) {
						return forced(model.DecideIdentity)
					}
				}
				return nil
			},
		},
		{
			name: "correction",
			decide: func(trimmed, lower string) *model.RoutingResult {
				for _, re := range correctionPatterns {
					if re.MatchString(trimmed) {
						return forced(model.DecideIdentity)
					}
				}
				return nil
			},
		},
		{
			name: "knowledge",
			decide: func(trimmed, lower string) *model.RoutingResult {
				for _, re := range knowledgePatterns {
					if re.MatchString(trimmed) {
						return forced(model.DecideKnowledge)
					}
				}
				return nil
			},
		},
	}}
}

// Apply runs the rule table against text. The second return is false when no
// rule fires and routing should defer to the classifier.
func (e *Engine) Apply(text string) (model.RoutingResult, bool) {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)
	for _, r := range e.rules {
		if res := r.decide(trimmed, lower); res != nil {
			return *res, true
		}
	}
	return model.RoutingResult{}, false
}
