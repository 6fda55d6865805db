package responder

// Rule pairs a matcher with the actions to run when it matches
type Rule struct {
	Name    string
	Matcher Matcher
	Actions []Action
}

// Table is an ordered, read-only list of rules
// The first matching rule wins
type Table struct {
	rules []Rule
}

// NewTable creates a Table evaluating rules in the given order
func NewTable(rules ...Rule) Table {
	table := Table{rules: make([]Rule, len(rules))}
	for i, rule := range rules {
		rule.Actions = append([]Action(nil), rule.Actions...)
		table.rules[i] = rule
	}
	return table
}

// Match returns the first rule accepting text, nil if none does
func (t Table) Match(text string) *Rule {
	for i := range t.rules {
		if t.rules[i].Matcher.Match(text) {
			return &t.rules[i]
		}
	}
	return nil
}

// Len returns the number of rules
func (t Table) Len() int {
	return len(t.rules)
}

// Names lists rule names in evaluation order
func (t Table) Names() []string {
	names := make([]string, len(t.rules))
	for i, rule := range t.rules {
		names[i] = rule.Name
	}
	return names
}
