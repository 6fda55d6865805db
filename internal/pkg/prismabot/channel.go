package prismabot

import (
	"encoding/json"
	"fmt"
	"strings"
)

const channelDelimiter = "/"

// Channel is an abstract type for a conversation on a messenger APP
type Channel struct {
	MessengerID string
	ChannelID   string
}

// Name returns a formated name of a Channel object
func (ch *Channel) Name() string {
	return fmt.Sprintf("%s%s%s", ch.MessengerID, channelDelimiter, ch.ChannelID)
}

// NewChannel creates a channel object from channel name
// Only the first delimiter splits the name, channel ids may contain it
func NewChannel(channelName string) *Channel {
	s := strings.SplitN(channelName, channelDelimiter, 2)
	ch := &Channel{MessengerID: s[0]}
	if len(s) > 1 {
		ch.ChannelID = s[1]
	}
	return ch
}

// JSON returns JSON representation of Channel
func (ch *Channel) JSON() string {
	str, _ := json.Marshal(ch)
	return string(str)
}
