package responder

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"gitlab.com/kavenc/prismabot/internal/pkg/prismabot"
)

// ID of the responder plugin
const ID = "responder"

// DefaultHandlerTimeout bounds the reply sequence of a single message
const DefaultHandlerTimeout = 2 * time.Minute

// Service is the plugin feeding inbound messages to a Responder
// Every message is handled in its own goroutine
type Service struct {
	book     *Playbook
	assets   AssetOpener
	timeout  time.Duration
	inMsg    <-chan prismabot.InboundMessage
	port     prismabot.OutboundPort
	logger   *logrus.Entry
	handlers sync.WaitGroup
	started  atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

// NewService creates the responder plugin
func NewService(book *Playbook, assets AssetOpener, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultHandlerTimeout
	}
	return &Service{
		book:    book,
		assets:  assets,
		timeout: timeout,
		logger:  logrus.WithField("plugin", ID),
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// ID implements prismabot.Plugin
func (s *Service) ID() string {
	return ID
}

// SetLogger implements prismabot.Plugin
func (s *Service) SetLogger(logger *logrus.Entry) {
	s.logger = logger
}

// AttachInMsgChannel implements prismabot.PluginMsgConsumer
func (s *Service) AttachInMsgChannel(ch <-chan prismabot.InboundMessage) {
	s.inMsg = ch
}

// AttachOutboundPort implements prismabot.PluginPortUser
func (s *Service) AttachOutboundPort(port prismabot.OutboundPort) {
	s.port = port
}

// Start handles inbound messages until the channel closes, ctx is done or Stop is called
// Start waits for in-flight handlers, they are cancelled unless the channel was closed
func (s *Service) Start(ctx context.Context) {
	s.started.Store(true)
	defer close(s.done)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	responder := NewResponder(s.book, s.assets, s.port)
	responder.SetLogger(s.logger)
	s.logger.Infof("started with %d rules", s.book.Table.Len())

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-s.stopCh:
			cancel()
			break loop
		case msg, ok := <-s.inMsg:
			if !ok {
				break loop
			}
			s.logger.Debugf("inbound message from %s (%s)", msg.FromChannel.Name(), msg.Kind)
			s.handlers.Add(1)
			go func() {
				defer s.handlers.Done()
				handleCtx, cancel := context.WithTimeout(ctx, s.timeout)
				defer cancel()
				responder.Handle(handleCtx, msg)
			}()
		}
	}

	s.handlers.Wait()
	s.logger.Info("terminated")
}

// Stop implements prismabot.Plugin
func (s *Service) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	if s.started.Load() {
		<-s.done
	}
}
