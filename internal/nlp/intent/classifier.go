package intent

import (
	"regexp"
	"strings"
)

// DefaultMinConfidence is the lowest score a match needs to be reported.
const DefaultMinConfidence = 0.5

// Rule scores a query with Weight when Pattern matches it.
type Rule struct {
	Pattern *regexp.Regexp
	Weight  float64
}

// RuleSet is the ordered rule list for one intent.
type RuleSet struct {
	Intent Type
	Rules  []Rule
}

func rule(pattern string, weight float64) Rule {
	return Rule{Pattern: regexp.MustCompile(`(?i)` + pattern), Weight: weight}
}

// defaultRules is evaluated top to bottom. When two intents score the same,
// the one listed first wins, so broader admin intents come before the user
// intents they overlap with. "all my ... tickets" outscores the admin rule.
var defaultRules = []RuleSet{
	{ShowAllTickets, []Rule{
		rule(`\ball\s+(the\s+)?(\w+\s+)?tickets\b`, 0.9),
		rule(`\btickets\b.*\b(in|across)\s+the\s+system\b`, 0.85),
		rule(`\beveryone'?s\s+tickets\b`, 0.85),
	}},
	{RevokeTicket, []Rule{
		rule(`\b(revoke|cancel|withdraw)\b.*\b(ticket|access)\b`, 0.9),
		rule(`\b(revoke|cancel|withdraw)\b`, 0.55),
	}},
	{CreateTicket, []Rule{
		rule(`\b(create|raise|file|submit|log)\b.*\b(ticket|request|emergency)\b`, 0.9),
		rule(`\bopen\s+(a|an|new)\b.*\b(ticket|request)\b`, 0.9),
		rule(`\bnew\s+(\w+\s+)?(emergency\s+)?(ticket|request)\b`, 0.8),
		rule(`\b(need|request)\s+emergency\s+access\b`, 0.75),
	}},
	{GetTicketDetails, []Rule{
		rule(`\b(details|info|information|status)\s+(of|for|on|about)\s+(the\s+)?ticket\b`, 0.9),
		rule(`\b(show|get|view|display|check|open)\b.*\bticket-\d+\b`, 0.85),
		rule(`\btickets?\s+(for\b|id\b|number\b|#)\s*:?\s*[\w-]*[\d-][\w-]*`, 0.8),
		rule(`\bticket-\d+\b`, 0.6),
	}},
	{SearchTickets, []Rule{
		rule(`\b(search|find|look\s+for)\b.*\btickets?\b`, 0.85),
		rule(`\btickets?\s+(about|mentioning|matching|containing)\b`, 0.8),
	}},
	{ShowTicketHistory, []Rule{
		rule(`\ball\s+(of\s+)?my\s+\w+\s+tickets\b`, 0.95),
		rule(`\bticket\s+history\b`, 0.85),
		rule(`\b(past|previous|closed|completed|old|resolved)\s+(\w+\s+)?tickets\b`, 0.85),
		rule(`\bhistory\b`, 0.6),
	}},
	{ShowActiveTickets, []Rule{
		rule(`\ball\s+(of\s+)?my\s+tickets\b`, 0.95),
		rule(`\b(active|open|current|ongoing)\s+tickets\b`, 0.9),
		rule(`\bmy\b.*\b(tickets|requests)\b`, 0.7),
		rule(`\b(show|list|view|display)\s+(me\s+)?(the\s+)?tickets\b`, 0.6),
	}},
	{GetHelp, []Rule{
		rule(`\b(help|commands|capabilities)\b`, 0.8),
		rule(`\bwhat\s+can\s+(i|you)\s+do\b`, 0.8),
		rule(`\bhow\s+do\s+i\b`, 0.6),
	}},
}

// DefaultRules returns the built-in rule table.
func DefaultRules() []RuleSet {
	out := make([]RuleSet, len(defaultRules))
	copy(out, defaultRules)
	return out
}

// Classifier maps raw text to an Intent. It holds only immutable tables and
// is safe for concurrent use.
type Classifier struct {
	rules         []RuleSet
	minConfidence float64
}

// NewClassifier builds a classifier over the built-in rule table.
func NewClassifier(minConfidence float64) *Classifier {
	return NewClassifierWithRules(defaultRules, minConfidence)
}

func NewClassifierWithRules(rules []RuleSet, minConfidence float64) *Classifier {
	if minConfidence <= 0 || minConfidence > 1 {
		minConfidence = DefaultMinConfidence
	}
	copied := make([]RuleSet, len(rules))
	copy(copied, rules)
	return &Classifier{rules: copied, minConfidence: minConfidence}
}

// Recognize returns the best-scoring intent for text. The second result is
// false when nothing scores at least the minimum confidence.
func (c *Classifier) Recognize(text string) (Intent, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Intent{}, false
	}

	var (
		best      Type
		bestScore float64
	)
	for _, set := range c.rules {
		score := 0.0
		for _, r := range set.Rules {
			if r.Weight > score && r.Pattern.MatchString(trimmed) {
				score = r.Weight
			}
		}
		// strict comparison keeps the earlier intent on ties
		if score > bestScore {
			best, bestScore = set.Intent, score
		}
	}

	if bestScore < c.minConfidence {
		return Intent{}, false
	}
	return Intent{Type: best, Confidence: bestScore, SourceText: text}, true
}

// MinConfidence returns the configured threshold.
func (c *Classifier) MinConfidence() float64 {
	return c.minConfidence
}
