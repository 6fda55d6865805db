package whatsapp

import (
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"

	"gitlab.com/kavenc/prismabot/internal/pkg/prismabot"
)

func senderKind(chat types.JID) prismabot.SenderKind {
	switch chat.Server {
	case types.DefaultUserServer, types.LegacyUserServer, types.HiddenUserServer:
		return prismabot.SenderDirect
	case types.GroupServer:
		return prismabot.SenderGroup
	case types.BroadcastServer, types.NewsletterServer:
		return prismabot.SenderBroadcast
	}
	return prismabot.SenderUnknown
}

func messageText(msg *waE2E.Message) string {
	if text := msg.GetConversation(); text != "" {
		return text
	}
	return msg.GetExtendedTextMessage().GetText()
}

// toInbound converts a message event, ok is false for events the bot never answers
func toInbound(evt *events.Message) (prismabot.InboundMessage, bool) {
	if evt == nil || evt.Info.IsFromMe {
		return prismabot.InboundMessage{}, false
	}
	text := messageText(evt.Message)
	if text == "" {
		return prismabot.InboundMessage{}, false
	}

	return prismabot.InboundMessage{
		ID: evt.Info.ID,
		FromChannel: prismabot.Channel{
			MessengerID: ID,
			ChannelID:   evt.Info.Chat.String(),
		},
		SourceProfile: &prismabot.MsgrUserProfile{
			ID:          evt.Info.Sender.String(),
			DisplayName: evt.Info.PushName,
		},
		Text:       text,
		Kind:       senderKind(evt.Info.Chat),
		ReceivedAt: evt.Info.Timestamp,
	}, true
}
