package prismabot

import (
	"strings"
	"time"
)

// SenderKind tells what kind of conversation an inbound message came from
type SenderKind int

const (
	// SenderUnknown is used when the messenger cannot classify the conversation
	SenderUnknown SenderKind = iota
	// SenderDirect is a one-to-one conversation
	SenderDirect
	// SenderGroup is a group conversation
	SenderGroup
	// SenderBroadcast covers broadcast lists, status updates and channels
	SenderBroadcast
)

func (k SenderKind) String() string {
	switch k {
	case SenderDirect:
		return "direct"
	case SenderGroup:
		return "group"
	case SenderBroadcast:
		return "broadcast"
	default:
		return "unknown"
	}
}

// MsgrUserProfile holds the information of a messenger user
type MsgrUserProfile struct {
	ID          string
	DisplayName string
}

// InboundMessage models a message sent to the bot
type InboundMessage struct {
	ID            string
	FromChannel   Channel
	SourceProfile *MsgrUserProfile
	Text          string
	Kind          SenderKind
	ReceivedAt    time.Time
}

// Reply returns the channel where a response to the InboundMessage should go
func (im InboundMessage) Reply() Channel {
	return im.FromChannel
}

// FirstName returns the first token of the sender display name,
// or fallback if the name is not known
func (im InboundMessage) FirstName(fallback string) string {
	if im.SourceProfile == nil {
		return fallback
	}
	fields := strings.Fields(im.SourceProfile.DisplayName)
	if len(fields) == 0 {
		return fallback
	}
	return fields[0]
}

// ByteContent is a general type for message content that can be
// stored in byte array. ex: Image
type ByteContent struct {
	Type    string
	Content []byte
}

// Media is an attachment ready to be sent by a messenger
type Media struct {
	ByteContent
	Name string
}
