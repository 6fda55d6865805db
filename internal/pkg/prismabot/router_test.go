package prismabot

import (
	"bytes"
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

type recordPort struct {
	mu    sync.Mutex
	calls []string
	name  string
}

func (p *recordPort) record(call string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, call)
}

func (p *recordPort) SendText(_ context.Context, to Channel, text string) error {
	p.record("text:" + to.ChannelID + ":" + text)
	return nil
}

func (p *recordPort) SendMedia(_ context.Context, to Channel, media *Media, caption string) error {
	p.record("media:" + to.ChannelID + ":" + media.Name + ":" + caption)
	return nil
}

func (p *recordPort) SetTyping(_ context.Context, to Channel) error {
	p.record("typing:" + to.ChannelID)
	return nil
}

type namedPort struct {
	recordPort
}

func (p *namedPort) DisplayName(_ context.Context, to Channel) (string, error) {
	return p.name, nil
}

func TestRouterRecv(t *testing.T) {
	assert := assert.New(t)
	router := newRouter()
	recvr := make(chan InboundMessage)
	router.attachReceiver("recvr", recvr)
	consumerA := router.attachConsumer("A")
	consumerB := router.attachConsumer("B")
	done := make(chan interface{})
	go func() {
		router.start(context.Background(), time.Second)
		close(done)
	}()

	msg := InboundMessage{
		FromChannel: Channel{
			MessengerID: "msg",
			ChannelID:   "ch",
		},
		Text: "test",
	}

	recvr <- msg
	close(recvr)
	<-done

	assert.Equal(1, len(consumerA))
	assert.Equal(1, len(consumerB))

	assert.Equal(msg, <-consumerA)
	assert.Equal(msg, <-consumerB)

	// consumers are closed once every receiver is closed
	_, ok := <-consumerA
	assert.False(ok)
}

func TestRouterRecvTimeout(t *testing.T) {
	assert := assert.New(t)
	router := newRouter()
	recvr := make(chan InboundMessage)
	router.attachReceiver("recvr", recvr)
	router.attachConsumer("TimeoutConsumer")

	done := make(chan interface{})
	go func() {
		router.start(context.Background(), 100*time.Millisecond)
		close(done)
	}()

	msg := InboundMessage{
		FromChannel: Channel{
			MessengerID: "msg",
			ChannelID:   "ch",
		},
		Text: "test",
	}

	var log bytes.Buffer
	logrus.SetOutput(&log)
	defer logrus.SetOutput(os.Stderr)

	for i := 0; i < 4; i++ {
		recvr <- msg
	}
	close(recvr)
	<-done
	assert.Contains(log.String(), "timeout")
	assert.Contains(log.String(), "TimeoutConsumer")
}

func TestRouterAttachDuplicated(t *testing.T) {
	assert := assert.New(t)
	router := newRouter()

	router.attachConsumer("cons")
	assert.Panics(func() { router.attachConsumer("cons") })

	recv := make(chan InboundMessage)
	router.attachReceiver("recv", recv)
	assert.Panics(func() { router.attachReceiver("recv", recv) })

	assert.NoError(router.attachPort("port", &recordPort{}))
	assert.Equal(MessengerExistsError{ID: "port"}, router.attachPort("port", &recordPort{}))
}

func TestRoutingPort(t *testing.T) {
	assert := assert.New(t)
	router := newRouter()
	portA := &recordPort{}
	portB := &namedPort{recordPort{name: "Maria"}}
	assert.NoError(router.attachPort("A", portA))
	assert.NoError(router.attachPort("B", portB))

	port := router.port()
	ctx := context.Background()
	toA := Channel{MessengerID: "A", ChannelID: "a1"}
	toB := Channel{MessengerID: "B", ChannelID: "b1"}

	assert.NoError(port.SetTyping(ctx, toA))
	assert.NoError(port.SendText(ctx, toA, "hello"))
	assert.NoError(port.SendMedia(ctx, toB, &Media{Name: "img.jpg"}, "caption"))

	assert.Equal([]string{"typing:a1", "text:a1:hello"}, portA.calls)
	assert.Equal([]string{"media:b1:img.jpg:caption"}, portB.calls)

	namer := port.(DisplayNamer)
	name, err := namer.DisplayName(ctx, toB)
	assert.NoError(err)
	assert.Equal("Maria", name)

	name, err = namer.DisplayName(ctx, toA)
	assert.NoError(err)
	assert.Equal("", name)

	err = port.SendText(ctx, Channel{MessengerID: "C"}, "lost")
	assert.Equal(MessengerInvalidError{ID: "C"}, err)
}
