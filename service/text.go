package service

import (
	"html"
	"regexp"
	"sort"
	"strings"

	"aggregate-news/config"
)

var newLines = regexp.MustCompile(`[\r\n]+`)
var nonASCII = regexp.MustCompile(`[^\x20-\x7E]`)
var whitespace = regexp.MustCompile(`\s+`)
var punctuation = regexp.MustCompile(`[!-/:-@\[-` + "`" + `{-~]`)

// Labels that are poor discriminators for relating distinct articles
var excludedLabels = map[string]bool{
	"DATE":     true,
	"TIME":     true,
	"QUANTITY": true,
	"MONEY":    true,
	"PERCENT":  true,
	"ORDINAL":  true,
	"CARDINAL": true,
}

var stopwords = map[string]bool{}

func init() {
	for _, word := range strings.Fields(
		"a about after all also an and any are as at be because been but by can " +
			"could day do even first for from get had has have he her his how i if in " +
			"into is it its just like me more most my new no not now of on one only or " +
			"other our out over said say says she so some than that the their them " +
			"then there these they this time to two up us was way we well were what " +
			"when which who will with would year you your") {
		stopwords[word] = true
	}
}

// Clean normalizes raw text: unescape markup entities, drop control and
// non ASCII noise, collapse whitespace
func Clean(text string) string {
	text = html.UnescapeString(text)
	text = newLines.ReplaceAllString(text, " ")
	text = nonASCII.ReplaceAllString(text, "")
	text = whitespace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// NormalizeSpans turns recognizer spans into normalized entity terms,
// keeping at most config.MaxEntitiesPerPost of the most frequent ones
func NormalizeSpans(spans []config.Span) []string {
	counts := make(map[string]int)
	order := make([]string, 0, len(spans))
	for _, span := range spans {
		if len(span.Text) < 2 || len(span.Text) > 40 {
			continue
		}
		if excludedLabels[span.Label] {
			continue
		}
		term := normalizeTerm(span)
		if term == "" || stopwords[term] {
			continue
		}
		if counts[term] == 0 {
			order = append(order, term)
		}
		counts[term]++
	}
	if len(order) > config.MaxEntitiesPerPost {
		// most frequent first, ties by first occurrence
		sort.SliceStable(order, func(i, j int) bool {
			return counts[order[i]] > counts[order[j]]
		})
		order = order[:config.MaxEntitiesPerPost]
	}
	return order
}

func normalizeTerm(span config.Span) string {
	term := span.Lemma
	if term == "" {
		term = lemma(span.Text)
	}
	term = punctuation.ReplaceAllString(strings.ToLower(term), "")
	return strings.TrimSpace(term)
}

// lemma is a fallback for recognizers that do not lemmatize: lowercase
// and trim common plural suffixes
func lemma(token string) string {
	token = strings.ToLower(token)
	switch {
	case strings.HasSuffix(token, "sses"):
		return token[:len(token)-2]
	case strings.HasSuffix(token, "ies") && len(token) > 4:
		return token[:len(token)-3] + "y"
	case strings.HasSuffix(token, "s") && !strings.HasSuffix(token, "ss") && len(token) > 3:
		return token[:len(token)-1]
	}
	return token
}
