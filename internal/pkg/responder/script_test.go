package responder

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func compileDefault(t *testing.T, opts Options) *Playbook {
	script, err := DefaultScript()
	if err != nil {
		t.Fatal(err)
	}
	book, err := script.Compile(opts)
	if err != nil {
		t.Fatal(err)
	}
	return book
}

func TestDefaultScript(t *testing.T) {
	assert := assert.New(t)
	book := compileDefault(t, Options{})

	assert.Equal("Pessoa", book.DefaultName)
	assert.Equal([]string{"menu", "option-1", "option-2", "option-3", "option-4", "option-5"}, book.Table.Names())

	menu := book.Table.Match("Boa noite")
	if assert.NotNil(menu) {
		assert.Equal([]ActionKind{ActionWait, ActionSetTyping, ActionWait, ActionSendText}, kinds(menu.Actions))
		assert.Equal(time.Second, menu.Actions[0].Duration)
	}

	option2 := book.Table.Match("2")
	if assert.NotNil(option2) {
		var files []string
		for _, action := range option2.Actions {
			if action.Kind == ActionSendMedia {
				files = append(files, action.File)
			}
		}
		assert.Equal([]string{"imagens/Cronograma.jpg", "imagens/Valores.jpg", "imagens/Turmas.jpg"}, files)
		assert.Equal(2*time.Second, option2.Actions[2].Duration)
	}

	for _, text := range []string{"1", "2", "3", "4", "5", " 3 "} {
		assert.NotNil(book.Table.Match(text), text)
	}
	assert.Nil(book.Table.Match("6"))
}

func TestScriptOptions(t *testing.T) {
	assert := assert.New(t)
	trim := false
	book := compileDefault(t, Options{PacingDelay: 3 * time.Second, Trim: &trim})

	menu := book.Table.Match("menu")
	if assert.NotNil(menu) {
		assert.Equal(3*time.Second, menu.Actions[0].Duration)
	}
	// explicit durations are kept
	assert.Equal(2*time.Second, book.Table.Match("2").Actions[2].Duration)

	assert.Nil(book.Table.Match(" 1"))
	assert.NotNil(book.Table.Match("1"))
}

func TestParseScriptErrors(t *testing.T) {
	assert := assert.New(t)

	_, err := ParseScript([]byte("rules: []\nunknown: true\n"))
	assert.Error(err)

	_, err = ParseScript([]byte("pacing:\n  delay: soon\n"))
	assert.Error(err)

	cases := map[string]string{
		"no rules": "default_name: x\n",
		"both matchers": `
rules:
  - name: r
    keywords: [a]
    exact: "1"
    actions:
      - text: hi
`,
		"no matcher": `
rules:
  - name: r
    actions:
      - text: hi
`,
		"no actions": `
rules:
  - name: r
    exact: "1"
`,
		"two fields": `
rules:
  - name: r
    exact: "1"
    actions:
      - text: hi
        typing: true
`,
		"broken template": `
rules:
  - name: r
    exact: "1"
    actions:
      - text: "{{.FirstName"
`,
		"bad wait": `
rules:
  - name: r
    exact: "1"
    actions:
      - wait: later
`,
		"media without file": `
rules:
  - name: r
    exact: "1"
    actions:
      - media:
          caption: x
`,
	}
	for name, doc := range cases {
		script, err := ParseScript([]byte(doc))
		if !assert.NoError(err, name) {
			continue
		}
		_, err = script.Compile(Options{})
		assert.Error(err, name)
	}
}

func TestLoadScript(t *testing.T) {
	assert := assert.New(t)

	script, err := LoadScript("")
	assert.NoError(err)
	assert.Equal("Pessoa", script.DefaultName)

	dir, err := ioutil.TempDir("", "prismabot-script")
	if !assert.NoError(err) {
		return
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "script.yaml")
	doc := `
default_name: Amigo
pacing:
  delay: 500ms
rules:
  - name: hello
    keywords: [hello]
    actions:
      - pace: default
      - text: "Hello {{.FirstName}}"
`
	assert.NoError(ioutil.WriteFile(path, []byte(doc), 0600))
	script, err = LoadScript(path)
	if !assert.NoError(err) {
		return
	}
	book, err := script.Compile(Options{})
	if !assert.NoError(err) {
		return
	}
	assert.Equal("Amigo", book.DefaultName)
	rule := book.Table.Match("HELLO there")
	if assert.NotNil(rule) {
		assert.Equal(500*time.Millisecond, rule.Actions[0].Duration)
	}

	_, err = LoadScript(filepath.Join(dir, "missing.yaml"))
	assert.Error(err)
}

func kinds(actions []Action) []ActionKind {
	ret := make([]ActionKind, len(actions))
	for i, action := range actions {
		ret[i] = action.Kind
	}
	return ret
}
