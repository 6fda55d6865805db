package prismabot

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Plugin defines the functions that need to be implemented for all plugins
// Plugins may optionally implement other functions by implement intefaces below
type Plugin interface {
	// ID returns the unique id for the plugin
	ID() string

	// SetLogger will be called in init stage to provide logger for the plugin
	SetLogger(*logrus.Entry)

	// Start is the main routine of the plugin
	// this function only returns when the plugin is terminated or failed to start
	Start(context.Context)

	// Stop triggers termination of the plugin and waits for it
	Stop()
}

// OutboundPort is the capability to act on a conversation of a messenger
// Calls block until the messenger confirmed the action or failed
type OutboundPort interface {
	SendText(ctx context.Context, to Channel, text string) error
	SendMedia(ctx context.Context, to Channel, media *Media, caption string) error
	SetTyping(ctx context.Context, to Channel) error
}

// DisplayNamer is optionally implemented by an OutboundPort which knows
// the display names of its conversations
type DisplayNamer interface {
	DisplayName(ctx context.Context, to Channel) (string, error)
}

// PluginMessenger defines the necessary functions for a messenger plugin
// A messenger plugin which serves as the interface for messenger app must implement PluginMessenger
type PluginMessenger interface {
	// InMsgChannel should provide the channel used to get
	// all inbound messages received by the messenger plugin
	// The messenger closes the channel when it stops
	InMsgChannel() <-chan InboundMessage

	// OutboundPort returns the port used to reply through the messenger
	OutboundPort() OutboundPort
}

// PluginMsgConsumer defines the necesaary functions if a plugin handles inbound messages
type PluginMsgConsumer interface {
	AttachInMsgChannel(<-chan InboundMessage)
}

// PluginPortUser defines necessary functions if a plugin sends out messages
type PluginPortUser interface {
	AttachOutboundPort(OutboundPort)
}

// PluginDatabaseUser defines necessary functions if a plugin accesses database
// The plugin closes the channel when it terminates
type PluginDatabaseUser interface {
	DBRequestChannel() <-chan DatabaseRequest
}
