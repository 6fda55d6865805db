package responder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeywordMatcher(t *testing.T) {
	assert := assert.New(t)
	matcher := NewKeywordMatcher("menu", "Olá", "", "dia")

	assert.True(matcher.Match("MENU"))
	assert.True(matcher.Match("olá, tudo bem?"))
	assert.True(matcher.Match("OLÁ"))
	assert.True(matcher.Match("Bom dia!"))
	assert.False(matcher.Match("1"))
	assert.False(matcher.Match(""))
}

func TestExactMatcher(t *testing.T) {
	assert := assert.New(t)

	trimmed := ExactMatcher{Text: "1", Trim: true}
	assert.True(trimmed.Match("1"))
	assert.True(trimmed.Match("  1\n"))
	assert.False(trimmed.Match("11"))
	assert.False(trimmed.Match("1 - Como funciona"))

	strict := ExactMatcher{Text: "1"}
	assert.True(strict.Match("1"))
	assert.False(strict.Match(" 1"))
}

func TestTableFirstMatchWins(t *testing.T) {
	assert := assert.New(t)
	table := NewTable(
		Rule{Name: "greeting", Matcher: NewKeywordMatcher("oi")},
		Rule{Name: "one", Matcher: ExactMatcher{Text: "1", Trim: true}},
		Rule{Name: "any-one", Matcher: NewKeywordMatcher("1")},
	)

	assert.Equal(3, table.Len())
	assert.Equal([]string{"greeting", "one", "any-one"}, table.Names())
	assert.Equal("greeting", table.Match("Oi 1").Name)
	assert.Equal("one", table.Match(" 1 ").Name)
	assert.Equal("any-one", table.Match("10").Name)
	assert.Nil(table.Match("7"))
}
