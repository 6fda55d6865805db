package prismabot

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChannelStruct(t *testing.T) {
	assert := assert.New(t)
	channel := Channel{
		MessengerID: "msg",
		ChannelID:   "ch",
	}

	newChannel := NewChannel(channel.Name())
	assert.Equal(channel, *newChannel)

	jsonChannel := Channel{}
	assert.NoError(json.Unmarshal([]byte(channel.JSON()), &jsonChannel))
	assert.Equal(channel, jsonChannel)
}

func TestChannelNameWithDelimiter(t *testing.T) {
	assert := assert.New(t)
	channel := Channel{
		MessengerID: "WHATSAPP",
		ChannelID:   "5511999999999@s.whatsapp.net/extra",
	}

	assert.Equal("WHATSAPP/5511999999999@s.whatsapp.net/extra", channel.Name())
	assert.Equal(channel, *NewChannel(channel.Name()))
}

func TestNewChannelWithoutID(t *testing.T) {
	assert.Equal(t, Channel{MessengerID: "msg"}, *NewChannel("msg"))
}
