package responder

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"gitlab.com/kavenc/prismabot/internal/pkg/prismabot"
)

// gatePort holds sends to chat "slow" until something was sent to chat "fast"
type gatePort struct {
	recorder
	once sync.Once
	gate chan struct{}
}

func (p *gatePort) SendText(ctx context.Context, to prismabot.Channel, text string) error {
	if to.ChannelID == "slow" {
		select {
		case <-p.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	err := p.recorder.SendText(ctx, to, text)
	if to.ChannelID == "fast" {
		p.once.Do(func() { close(p.gate) })
	}
	return err
}

func quickBook(t *testing.T) *Playbook {
	return compileDefault(t, Options{PacingDelay: time.Millisecond})
}

func startService(svc *Service) (chan prismabot.InboundMessage, chan struct{}) {
	inMsg := make(chan prismabot.InboundMessage)
	svc.AttachInMsgChannel(inMsg)
	done := make(chan struct{})
	go func() {
		svc.Start(context.Background())
		close(done)
	}()
	return inMsg, done
}

func TestServiceConcurrentHandling(t *testing.T) {
	assert := assert.New(t)
	port := &gatePort{gate: make(chan struct{})}
	svc := NewService(quickBook(t), allAssets, time.Second)
	svc.AttachOutboundPort(port)
	inMsg, done := startService(svc)

	slow := directMessage("4", "")
	slow.FromChannel.ChannelID = "slow"
	fast := directMessage("4", "")
	fast.FromChannel.ChannelID = "fast"

	inMsg <- slow
	inMsg <- fast

	assert.Eventually(func() bool {
		return len(port.sends()) == 2
	}, time.Second, 5*time.Millisecond)
	sends := port.sends()
	if assert.Len(sends, 2) {
		assert.Contains(sends[0], "text:fast:")
		assert.Contains(sends[1], "text:slow:")
	}

	close(inMsg)
	<-done
}

func TestServiceHandlerTimeout(t *testing.T) {
	assert := assert.New(t)
	// nothing is ever sent to "fast", the slow handler runs out of time
	port := &gatePort{gate: make(chan struct{})}
	svc := NewService(quickBook(t), allAssets, 50*time.Millisecond)
	svc.AttachOutboundPort(port)
	inMsg, done := startService(svc)

	slow := directMessage("4", "")
	slow.FromChannel.ChannelID = "slow"
	inMsg <- slow
	close(inMsg)

	select {
	case <-done:
	case <-time.After(time.Second):
		assert.Fail("handler was not bounded")
	}
	assert.Empty(port.sends())
}

func TestServiceStop(t *testing.T) {
	assert := assert.New(t)
	port := &gatePort{gate: make(chan struct{})}
	svc := NewService(quickBook(t), allAssets, time.Minute)
	svc.AttachOutboundPort(port)
	inMsg, done := startService(svc)

	slow := directMessage("4", "")
	slow.FromChannel.ChannelID = "slow"
	inMsg <- slow

	stopped := make(chan struct{})
	go func() {
		svc.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		assert.Fail("stop did not cancel the handler")
	}
	<-done

	// stopping twice or before start does not block
	svc.Stop()
	NewService(quickBook(t), allAssets, 0).Stop()
	assert.Equal(ID, svc.ID())
}
