package responder

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/ioutil"
	"text/template"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed script.yaml
var defaultScript []byte

const (
	// paceDefault selects the script pacing delay in wait and pace entries
	paceDefault = "default"

	defaultMissingMedia = `Desculpe, o arquivo "{{.Caption}}" não foi encontrado no servidor.`
)

// Script is the YAML form of a conversation script
type Script struct {
	DefaultName  string       `yaml:"default_name"`
	MissingMedia string       `yaml:"missing_media"`
	Pacing       ScriptPacing `yaml:"pacing"`
	Rules        []ScriptRule `yaml:"rules"`
}

// ScriptPacing holds the tunables shared by every rule
type ScriptPacing struct {
	Delay time.Duration `yaml:"delay"`
	Trim  bool          `yaml:"trim"`
}

// ScriptRule is one rule, either Keywords or Exact must be set
type ScriptRule struct {
	Name     string         `yaml:"name"`
	Keywords []string       `yaml:"keywords"`
	Exact    *string        `yaml:"exact"`
	Actions  []ScriptAction `yaml:"actions"`
}

// ScriptAction is one entry of a rule, exactly one field must be set
// Wait and Pace take a duration or "default"
type ScriptAction struct {
	Text   *string      `yaml:"text"`
	Media  *ScriptMedia `yaml:"media"`
	Typing bool         `yaml:"typing"`
	Wait   string       `yaml:"wait"`
	Pace   string       `yaml:"pace"`
}

// ScriptMedia names an asset file and its caption
type ScriptMedia struct {
	File    string `yaml:"file"`
	Caption string `yaml:"caption"`
}

// Options override script values from the process configuration
type Options struct {
	PacingDelay time.Duration // zero keeps the script delay
	Trim        *bool         // nil keeps the script setting
}

// Playbook is a compiled script ready for a Responder
type Playbook struct {
	Table        Table
	DefaultName  string
	MissingMedia *template.Template
}

// DefaultScript returns the built-in script of the studio
func DefaultScript() (*Script, error) {
	return ParseScript(defaultScript)
}

// LoadScript reads a script file, the built-in script is used when path is empty
func LoadScript(path string) (*Script, error) {
	if path == "" {
		return DefaultScript()
	}
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return ParseScript(data)
}

// ParseScript decodes a YAML script, unknown keys are rejected
func ParseScript(data []byte) (*Script, error) {
	script := &Script{}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(script); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	return script, nil
}

// Compile checks the script and builds its rule table
func (s *Script) Compile(opts Options) (*Playbook, error) {
	delay := s.Pacing.Delay
	if opts.PacingDelay > 0 {
		delay = opts.PacingDelay
	}
	trim := s.Pacing.Trim
	if opts.Trim != nil {
		trim = *opts.Trim
	}
	if delay < 0 {
		return nil, errors.New("pacing delay must not be negative")
	}
	if len(s.Rules) == 0 {
		return nil, errors.New("script has no rules")
	}

	book := &Playbook{DefaultName: s.DefaultName}
	missingMedia := s.MissingMedia
	if missingMedia == "" {
		missingMedia = defaultMissingMedia
	}
	apology, err := template.New("missing_media").Parse(missingMedia)
	if err != nil {
		return nil, fmt.Errorf("missing_media: %w", err)
	}
	book.MissingMedia = apology

	rules := make([]Rule, 0, len(s.Rules))
	for i, scriptRule := range s.Rules {
		rule, err := scriptRule.compile(delay, trim)
		if err != nil {
			name := scriptRule.Name
			if name == "" {
				name = fmt.Sprintf("#%d", i)
			}
			return nil, fmt.Errorf("rule %s: %w", name, err)
		}
		rules = append(rules, rule)
	}
	book.Table = NewTable(rules...)
	return book, nil
}

func (r ScriptRule) compile(delay time.Duration, trim bool) (Rule, error) {
	rule := Rule{Name: r.Name}
	switch {
	case len(r.Keywords) > 0 && r.Exact != nil:
		return rule, errors.New("keywords and exact are exclusive")
	case len(r.Keywords) > 0:
		rule.Matcher = NewKeywordMatcher(r.Keywords...)
	case r.Exact != nil:
		rule.Matcher = ExactMatcher{Text: *r.Exact, Trim: trim}
	default:
		return rule, errors.New("either keywords or exact is required")
	}
	if len(r.Actions) == 0 {
		return rule, errors.New("no actions")
	}

	for i, entry := range r.Actions {
		actions, err := entry.compile(delay)
		if err != nil {
			return rule, fmt.Errorf("action %d: %w", i, err)
		}
		rule.Actions = append(rule.Actions, actions...)
	}
	return rule, nil
}

func (a ScriptAction) compile(delay time.Duration) ([]Action, error) {
	set := 0
	for _, ok := range []bool{a.Text != nil, a.Media != nil, a.Typing, a.Wait != "", a.Pace != ""} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return nil, errors.New("exactly one of text, media, typing, wait, pace must be set")
	}

	switch {
	case a.Text != nil:
		action, err := SendText(*a.Text)
		if err != nil {
			return nil, err
		}
		return []Action{action}, nil
	case a.Media != nil:
		if a.Media.File == "" {
			return nil, errors.New("media without file")
		}
		return []Action{SendMedia(a.Media.File, a.Media.Caption)}, nil
	case a.Typing:
		return []Action{SetTyping()}, nil
	case a.Wait != "":
		d, err := scriptDuration(a.Wait, delay)
		if err != nil {
			return nil, err
		}
		return []Action{Wait(d)}, nil
	default:
		d, err := scriptDuration(a.Pace, delay)
		if err != nil {
			return nil, err
		}
		return Pace(d), nil
	}
}

func scriptDuration(value string, delay time.Duration) (time.Duration, error) {
	if value == paceDefault {
		return delay, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, errors.New("negative duration")
	}
	return d, nil
}
