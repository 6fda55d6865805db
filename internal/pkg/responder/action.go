// Package responder maps inbound chat texts to scripted sequences of replies
package responder

import (
	"strings"
	"text/template"
	"time"
)

// ActionKind tags the variant held by an Action
type ActionKind int

// Action variants
const (
	ActionSendText ActionKind = iota
	ActionSendMedia
	ActionSetTyping
	ActionWait
)

func (k ActionKind) String() string {
	switch k {
	case ActionSendText:
		return "text"
	case ActionSendMedia:
		return "media"
	case ActionSetTyping:
		return "typing"
	case ActionWait:
		return "wait"
	}
	return "unknown"
}

// Action is one step of a reply sequence
// Only the fields of its Kind are meaningful
type Action struct {
	Kind ActionKind

	// ActionSendText
	Template *template.Template

	// ActionSendMedia
	File    string
	Caption string

	// ActionWait
	Duration time.Duration
}

// TemplateData is what text templates can refer to
type TemplateData struct {
	// FirstName is the first token of the sender display name
	FirstName string
	// Text is the inbound message text
	Text string
	// Caption is set for the missing media apology
	Caption string
}

// SendText parses text as a template and returns the send action
func SendText(text string) (Action, error) {
	tmpl, err := template.New("text").Option("missingkey=error").Parse(text)
	if err != nil {
		return Action{}, err
	}
	return Action{Kind: ActionSendText, Template: tmpl}, nil
}

// MustSendText is like SendText but panics on a broken template
func MustSendText(text string) Action {
	action, err := SendText(text)
	if err != nil {
		panic(err)
	}
	return action
}

// SendMedia returns an action sending the asset file with a caption
func SendMedia(file, caption string) Action {
	return Action{Kind: ActionSendMedia, File: file, Caption: caption}
}

// SetTyping returns a typing indicator action
func SetTyping() Action {
	return Action{Kind: ActionSetTyping}
}

// Wait returns an action suspending the sequence for d
func Wait(d time.Duration) Action {
	return Action{Kind: ActionWait, Duration: d}
}

// Pace is the human-like pause used around replies: wait, typing, wait
func Pace(d time.Duration) []Action {
	return []Action{Wait(d), SetTyping(), Wait(d)}
}

func (a Action) render(data TemplateData) (string, error) {
	var sb strings.Builder
	if err := a.Template.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}
