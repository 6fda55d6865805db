package responder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"gitlab.com/kavenc/prismabot/internal/pkg/prismabot"
)

// Responder runs the reply sequence of the first rule matching a message
// It keeps no state between messages, Handle can run concurrently
type Responder struct {
	book   *Playbook
	assets AssetOpener
	port   prismabot.OutboundPort
	sleep  func(context.Context, time.Duration) error
	logger *logrus.Entry
}

// NewResponder creates a Responder replying through port
func NewResponder(book *Playbook, assets AssetOpener, port prismabot.OutboundPort) *Responder {
	return &Responder{
		book:   book,
		assets: assets,
		port:   port,
		sleep:  sleepContext,
		logger: logrus.WithField("module", "responder"),
	}
}

// SetLogger replaces the logger of the responder
func (r *Responder) SetLogger(logger *logrus.Entry) {
	r.logger = logger
}

// Handle replies to msg
// Only non-empty texts from direct chats are considered. Errors are logged
// before being returned, a failed action ends the sequence of this message only.
func (r *Responder) Handle(ctx context.Context, msg prismabot.InboundMessage) (err error) {
	if msg.Text == "" || msg.Kind != prismabot.SenderDirect {
		return nil
	}
	rule := r.book.Table.Match(msg.Text)
	if rule == nil {
		r.logger.Debugf("no rule for message from %s", msg.FromChannel.Name())
		return nil
	}

	logger := r.logger.WithFields(logrus.Fields{
		"handling": uuid.New().String(),
		"rule":     rule.Name,
		"channel":  msg.FromChannel.Name(),
	})
	logger.Info("rule matched")

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
			logger.Errorf("recovered from %s", err.Error())
		}
	}()

	data := TemplateData{
		FirstName: r.firstName(ctx, msg, logger),
		Text:      msg.Text,
	}
	to := msg.Reply()
	for i, action := range rule.Actions {
		if err = r.run(ctx, to, action, data, logger); err != nil {
			logger.WithField("action", i).Errorf("%s failed, sequence ended: %s", action.Kind, err.Error())
			return err
		}
	}
	logger.Debug("sequence done")
	return nil
}

func (r *Responder) run(ctx context.Context, to prismabot.Channel, action Action, data TemplateData, logger *logrus.Entry) error {
	switch action.Kind {
	case ActionSendText:
		text, err := action.render(data)
		if err != nil {
			return err
		}
		return r.port.SendText(ctx, to, text)

	case ActionSendMedia:
		media, err := r.assets.Open(action.File)
		var notFound AssetNotFoundError
		if errors.As(err, &notFound) {
			logger.Errorf("media file not found: %s", action.File)
			data.Caption = action.Caption
			var sb strings.Builder
			if err = r.book.MissingMedia.Execute(&sb, data); err != nil {
				return err
			}
			return r.port.SendText(ctx, to, sb.String())
		}
		if err != nil {
			return err
		}
		return r.port.SendMedia(ctx, to, media, action.Caption)

	case ActionSetTyping:
		if err := r.port.SetTyping(ctx, to); err != nil {
			logger.Warnf("failed to set typing: %s", err.Error())
		}
		return nil

	case ActionWait:
		return r.sleep(ctx, action.Duration)
	}
	return fmt.Errorf("unknown action kind: %d", action.Kind)
}

// firstName prefers the name carried by the message, then asks the port
func (r *Responder) firstName(ctx context.Context, msg prismabot.InboundMessage, logger *logrus.Entry) string {
	name := msg.FirstName("")
	if name != "" {
		return name
	}
	if namer, ok := r.port.(prismabot.DisplayNamer); ok {
		display, err := namer.DisplayName(ctx, msg.Reply())
		if err != nil {
			logger.Warnf("failed to get display name: %s", err.Error())
		} else if fields := strings.Fields(display); len(fields) > 0 {
			return fields[0]
		}
	}
	return r.book.DefaultName
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
