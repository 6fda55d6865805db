package responder

import (
	"strings"
)

// Matcher decides whether a rule applies to a message text
type Matcher interface {
	Match(text string) bool
}

// KeywordMatcher accepts texts containing any keyword, ignoring case
type KeywordMatcher struct {
	keywords []string
}

// NewKeywordMatcher creates a KeywordMatcher, empty keywords are dropped
func NewKeywordMatcher(keywords ...string) KeywordMatcher {
	m := KeywordMatcher{}
	for _, keyword := range keywords {
		if keyword == "" {
			continue
		}
		m.keywords = append(m.keywords, strings.ToLower(keyword))
	}
	return m
}

// Match implements Matcher
func (m KeywordMatcher) Match(text string) bool {
	lower := strings.ToLower(text)
	for _, keyword := range m.keywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// ExactMatcher accepts texts equal to Text, optionally after trimming white spaces
type ExactMatcher struct {
	Text string
	Trim bool
}

// Match implements Matcher
func (m ExactMatcher) Match(text string) bool {
	if m.Trim {
		text = strings.TrimSpace(text)
	}
	return text == m.Text
}
