package whatsapp

import (
	"context"
	"errors"
	"strings"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"google.golang.org/protobuf/proto"

	"gitlab.com/kavenc/prismabot/internal/pkg/prismabot"
)

// ErrNotConnected is returned by the port while no client is running
var ErrNotConnected = errors.New("whatsapp client not connected")

// port implements prismabot.OutboundPort and prismabot.DisplayNamer
type port struct {
	m *Messenger
}

func (p *port) target(to prismabot.Channel) (*whatsmeow.Client, types.JID, error) {
	client := p.m.currentClient()
	if client == nil {
		return nil, types.JID{}, ErrNotConnected
	}
	jid, err := types.ParseJID(to.ChannelID)
	if err != nil {
		return nil, types.JID{}, err
	}
	return client, jid, nil
}

func (p *port) SendText(ctx context.Context, to prismabot.Channel, text string) error {
	client, jid, err := p.target(to)
	if err != nil {
		return err
	}
	_, err = client.SendMessage(ctx, jid, &waE2E.Message{
		Conversation: proto.String(text),
	})
	return err
}

func (p *port) SendMedia(ctx context.Context, to prismabot.Channel, media *prismabot.Media, caption string) error {
	client, jid, err := p.target(to)
	if err != nil {
		return err
	}

	if strings.HasPrefix(media.Type, "image/") {
		uploaded, err := client.Upload(ctx, media.Content, whatsmeow.MediaImage)
		if err != nil {
			return err
		}
		_, err = client.SendMessage(ctx, jid, &waE2E.Message{
			ImageMessage: &waE2E.ImageMessage{
				Caption:       proto.String(caption),
				Mimetype:      proto.String(media.Type),
				URL:           proto.String(uploaded.URL),
				DirectPath:    proto.String(uploaded.DirectPath),
				MediaKey:      uploaded.MediaKey,
				FileEncSHA256: uploaded.FileEncSHA256,
				FileSHA256:    uploaded.FileSHA256,
				FileLength:    proto.Uint64(uploaded.FileLength),
			},
		})
		return err
	}

	uploaded, err := client.Upload(ctx, media.Content, whatsmeow.MediaDocument)
	if err != nil {
		return err
	}
	_, err = client.SendMessage(ctx, jid, &waE2E.Message{
		DocumentMessage: &waE2E.DocumentMessage{
			Caption:       proto.String(caption),
			Mimetype:      proto.String(media.Type),
			FileName:      proto.String(media.Name),
			URL:           proto.String(uploaded.URL),
			DirectPath:    proto.String(uploaded.DirectPath),
			MediaKey:      uploaded.MediaKey,
			FileEncSHA256: uploaded.FileEncSHA256,
			FileSHA256:    uploaded.FileSHA256,
			FileLength:    proto.Uint64(uploaded.FileLength),
		},
	})
	return err
}

func (p *port) SetTyping(ctx context.Context, to prismabot.Channel) error {
	client, jid, err := p.target(to)
	if err != nil {
		return err
	}
	return client.SendChatPresence(jid, types.ChatPresenceComposing, types.ChatPresenceMediaText)
}

// DisplayName returns the push name last seen in the conversation
func (p *port) DisplayName(_ context.Context, to prismabot.Channel) (string, error) {
	if name, ok := p.m.names.Get(to.ChannelID); ok {
		return name.(string), nil
	}
	return "", nil
}
