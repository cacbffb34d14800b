package entity

import (
	"regexp"
	"sort"
	"strings"
)

// Extractor pulls entities out of query text.
type Extractor interface {
	Extract(text string) (Extracted, error)
}

// emergencyKeywords maps surface forms to canonical emergency types.
var emergencyKeywords = map[string]string{
	"fire":          "fire",
	"wildfire":      "fire",
	"blaze":         "fire",
	"smoke":         "fire",
	"burning":       "fire",
	"flood":         "flood",
	"flooding":      "flood",
	"flash flood":   "flood",
	"medical":       "medical",
	"injury":        "medical",
	"injured":       "medical",
	"ambulance":     "medical",
	"cardiac":       "medical",
	"hazmat":        "hazmat",
	"chemical":      "hazmat",
	"gas leak":      "hazmat",
	"toxic":         "hazmat",
	"spill":         "hazmat",
	"rescue":        "rescue",
	"trapped":       "rescue",
	"earthquake":    "earthquake",
	"quake":         "earthquake",
	"security":      "security",
	"intrusion":     "security",
	"break-in":      "security",
	"outage":        "system-outage",
	"blackout":      "system-outage",
	"power failure": "system-outage",
	"system outage": "system-outage",
	"system-outage": "system-outage",
}

var statusKeywords = map[string]string{
	"active":    "active",
	"open":      "active",
	"ongoing":   "active",
	"pending":   "pending",
	"completed": "completed",
	"resolved":  "completed",
	"closed":    "closed",
	"rejected":  "rejected",
	"denied":    "rejected",
	"revoked":   "revoked",
	"cancelled": "revoked",
	"canceled":  "revoked",
	"expired":   "expired",
}

var (
	emergencyPattern = keywordPattern(emergencyKeywords)
	statusPattern    = keywordPattern(statusKeywords)

	descriptionLabelPattern = regexp.MustCompile(`(?i)\bdescription\s*:\s*(\S.*)$`)
	descriptionPattern      = regexp.MustCompile(`(?i)\b(?:ticket|request|emergency)\s+(?:for|about|regarding|because\s+of|due\s+to)\s+(\S.*)$`)

	isoDatePattern      = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
	relativeDatePattern = regexp.MustCompile(`(?i)\b(?:today|yesterday|this\s+week|last\s+week|this\s+month|last\s+month)\b`)

	canonicalTicketPattern  = regexp.MustCompile(`(?i)\bticket-(\d+)\b`)
	referencedTicketPattern = regexp.MustCompile(`(?i)\btickets?\s+(?:for\b|id\b|number\b|#)\s*:?\s*([\w-]*[\d-][\w-]*)`)
	digitsPattern           = regexp.MustCompile(`^\d+$`)

	locationPattern = regexp.MustCompile(`(?i)\b(?:building|block|sector|station|floor|room|zone|site)\s+(?:#?\d+[a-z]?|[a-z]\d+)\b`)

	searchPattern      = regexp.MustCompile(`(?i)\b(?:search|find|look\s+for)\b.*?\btickets?\s+(?:about|mentioning|matching|containing|with|for)\s+(\S.*)$`)
	searchAboutPattern = regexp.MustCompile(`(?i)\btickets?\s+(?:about|mentioning|matching|containing)\s+(\S.*)$`)
)

// keywordPattern builds a word-bounded alternation, longest keywords first so
// "flash flood" wins over "flood".
func keywordPattern(keywords map[string]string) *regexp.Regexp {
	words := make([]string, 0, len(keywords))
	for k := range keywords {
		words = append(words, k)
	}
	sort.Slice(words, func(i, j int) bool {
		if len(words[i]) != len(words[j]) {
			return len(words[i]) > len(words[j])
		}
		return words[i] < words[j]
	})
	for i, w := range words {
		words[i] = strings.ReplaceAll(regexp.QuoteMeta(w), " ", `\s+`)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(words, "|") + `)\b`)
}

type matcher func(text string) []Entity

// PatternExtractor runs one independent matcher per entity type. It keeps no
// state between calls.
type PatternExtractor struct {
	matchers []matcher
}

func NewExtractor() *PatternExtractor {
	return &PatternExtractor{matchers: []matcher{
		matchEmergencyTypes,
		matchDescription,
		matchDates,
		matchStatuses,
		matchTicketIDs,
		matchLocations,
		matchSearchTerm,
	}}
}

// Extract never fails; the error is part of the Extractor contract for
// implementations backed by a remote service.
func (p *PatternExtractor) Extract(text string) (Extracted, error) {
	var found []Entity
	for _, m := range p.matchers {
		found = append(found, m(text)...)
	}
	return newExtracted(found), nil
}

func normalizeKeyword(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func matchEmergencyTypes(text string) []Entity {
	var out []Entity
	for _, loc := range emergencyPattern.FindAllStringIndex(text, -1) {
		canonical := emergencyKeywords[normalizeKeyword(text[loc[0]:loc[1]])]
		out = append(out, Entity{Type: EmergencyType, Value: canonical, SpanStart: loc[0], SpanEnd: loc[1]})
	}
	return out
}

func matchDescription(text string) []Entity {
	loc := descriptionLabelPattern.FindStringSubmatchIndex(text)
	if loc == nil {
		loc = descriptionPattern.FindStringSubmatchIndex(text)
	}
	if loc == nil {
		return nil
	}
	start, end := trimSpan(text, loc[2], loc[3])
	if start == end {
		return nil
	}
	return []Entity{{Type: Description, Value: text[start:end], SpanStart: start, SpanEnd: end}}
}

func matchDates(text string) []Entity {
	var out []Entity
	for _, loc := range isoDatePattern.FindAllStringIndex(text, -1) {
		out = append(out, Entity{Type: Date, Value: text[loc[0]:loc[1]], SpanStart: loc[0], SpanEnd: loc[1]})
	}
	for _, loc := range relativeDatePattern.FindAllStringIndex(text, -1) {
		out = append(out, Entity{Type: Date, Value: normalizeKeyword(text[loc[0]:loc[1]]), SpanStart: loc[0], SpanEnd: loc[1]})
	}
	return out
}

func matchStatuses(text string) []Entity {
	var out []Entity
	for _, loc := range statusPattern.FindAllStringIndex(text, -1) {
		word := normalizeKeyword(text[loc[0]:loc[1]])
		// "open a ticket" is a verb, not a status
		if word == "open" && startsWithArticle(text[loc[1]:]) {
			continue
		}
		out = append(out, Entity{Type: Status, Value: statusKeywords[word], SpanStart: loc[0], SpanEnd: loc[1]})
	}
	return out
}

func startsWithArticle(rest string) bool {
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return false
	}
	switch strings.ToLower(fields[0]) {
	case "a", "an", "new":
		return true
	}
	return false
}

func matchTicketIDs(text string) []Entity {
	var out []Entity
	for _, loc := range canonicalTicketPattern.FindAllStringSubmatchIndex(text, -1) {
		out = append(out, Entity{
			Type:      TicketID,
			Value:     "TICKET-" + text[loc[2]:loc[3]],
			SpanStart: loc[0],
			SpanEnd:   loc[1],
		})
	}

	canonical := len(out)
	for _, loc := range referencedTicketPattern.FindAllStringSubmatchIndex(text, -1) {
		ref := Entity{Type: TicketID, Value: text[loc[2]:loc[3]], SpanStart: loc[2], SpanEnd: loc[3]}
		overlaps := false
		for _, e := range out[:canonical] {
			if e.Overlaps(ref) {
				overlaps = true
				break
			}
		}
		if overlaps {
			continue
		}
		if digitsPattern.MatchString(ref.Value) {
			ref.Value = "TICKET-" + ref.Value
		}
		out = append(out, ref)
	}
	return out
}

func matchLocations(text string) []Entity {
	var out []Entity
	for _, loc := range locationPattern.FindAllStringIndex(text, -1) {
		out = append(out, Entity{
			Type:      Location,
			Value:     strings.Join(strings.Fields(text[loc[0]:loc[1]]), " "),
			SpanStart: loc[0],
			SpanEnd:   loc[1],
		})
	}
	return out
}

func matchSearchTerm(text string) []Entity {
	loc := searchPattern.FindStringSubmatchIndex(text)
	if loc == nil {
		loc = searchAboutPattern.FindStringSubmatchIndex(text)
	}
	if loc == nil {
		return nil
	}
	start, end := trimSpan(text, loc[2], loc[3])
	if start == end {
		return nil
	}
	return []Entity{{Type: SearchTerm, Value: text[start:end], SpanStart: start, SpanEnd: end}}
}

// trimSpan narrows [start,end) past surrounding whitespace, quotes and
// trailing sentence punctuation.
func trimSpan(text string, start, end int) (int, int) {
	const leading = " \t\r\n\"'"
	const trailing = " \t\r\n\"'.!?,;"
	for start < end && strings.IndexByte(leading, text[start]) >= 0 {
		start++
	}
	for end > start && strings.IndexByte(trailing, text[end-1]) >= 0 {
		end--
	}
	return start, end
}
