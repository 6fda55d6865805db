package prismabot

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	routerRecvOutLen     = 1
	routerRecvHandleLen  = 1
	routerRecvOutTimeout = time.Second * 5
)

// Router connects messengers and services
// Inbound messages from all messengers are merged into one stream and
// offered to every consumer. Outbound calls go through a routing port which
// picks the messenger by Channel.MessengerID.
// +------------------+  -- receiverIn ---> +--------+ -- consumerOut --> +----------------+
// | Messenger Plugin |                     | Router |                    | Service Plugin |
// +------------------+  <---- ports ------ +--------+ <-- routingPort -- +----------------+
type router struct {
	receiverIn  map[string]<-chan InboundMessage
	consumerOut map[string]chan InboundMessage
	ports       map[string]OutboundPort
	logger      *logrus.Entry
}

type routingPort struct {
	r *router
}

func newRouter() *router {
	return &router{
		receiverIn:  make(map[string]<-chan InboundMessage),
		consumerOut: make(map[string]chan InboundMessage),
		ports:       make(map[string]OutboundPort),
		logger:      logrus.WithField("module", "router"),
	}
}

func (r *router) attachReceiver(id string, ch <-chan InboundMessage) {
	if _, ok := r.receiverIn[id]; ok {
		r.logger.Panicf("receiver has already been attached: %s", id)
	}
	r.receiverIn[id] = ch
}

func (r *router) attachConsumer(id string) <-chan InboundMessage {
	if _, ok := r.consumerOut[id]; ok {
		r.logger.Panicf("consumer has already been attached: %s", id)
	}
	r.consumerOut[id] = make(chan InboundMessage, routerRecvOutLen)
	return r.consumerOut[id]
}

func (r *router) attachPort(id string, port OutboundPort) error {
	if _, ok := r.ports[id]; ok {
		return MessengerExistsError{ID: id}
	}
	r.ports[id] = port
	return nil
}

func (r *router) port() OutboundPort {
	return &routingPort{r: r}
}

func (r *router) receiver(ctx context.Context, timeout time.Duration) {
	logger := r.logger.WithField("phase", "receiver")
	wg := sync.WaitGroup{}
	wg.Add(len(r.receiverIn))
	inMsgCh := make(chan InboundMessage, routerRecvHandleLen)

	// Collect Inbound Messages from all registered channels
	for _, inCh := range r.receiverIn {
		go func() {
			for msg := range inCh {
				inMsgCh <- msg
			}
			wg.Done()
		}()
	}

	// Close handling channel when all inbound channels are closed
	go func() {
		wg.Wait()
		close(inMsgCh)
	}()

	for msg := range inMsgCh {
		// Forward message to all consumers
		for id, ch := range r.consumerOut {
			timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
			select {
			case ch <- msg:
			case <-timeoutCtx.Done():
				logger.WithField("message", msg.ID).Warnf("consumer out timeout/cancelled on: %s", id)
			}
			cancel()
		}
	}

	// If reach here, the handling channel is emptied and closed
	for _, ch := range r.consumerOut {
		close(ch)
	}
}

// start blocks until every receiver channel is closed
func (r *router) start(ctx context.Context, timeout time.Duration) {
	r.logger.Info("started")
	r.receiver(ctx, timeout)
	r.logger.Info("terminated")
}

func (p *routingPort) lookup(to Channel) (OutboundPort, error) {
	port, ok := p.r.ports[to.MessengerID]
	if !ok {
		return nil, MessengerInvalidError{ID: to.MessengerID}
	}
	return port, nil
}

func (p *routingPort) SendText(ctx context.Context, to Channel, text string) error {
	port, err := p.lookup(to)
	if err != nil {
		return err
	}
	return port.SendText(ctx, to, text)
}

func (p *routingPort) SendMedia(ctx context.Context, to Channel, media *Media, caption string) error {
	port, err := p.lookup(to)
	if err != nil {
		return err
	}
	return port.SendMedia(ctx, to, media, caption)
}

func (p *routingPort) SetTyping(ctx context.Context, to Channel) error {
	port, err := p.lookup(to)
	if err != nil {
		return err
	}
	return port.SetTyping(ctx, to)
}

// DisplayName returns an empty name if the messenger does not know it
func (p *routingPort) DisplayName(ctx context.Context, to Channel) (string, error) {
	port, err := p.lookup(to)
	if err != nil {
		return "", err
	}
	namer, ok := port.(DisplayNamer)
	if !ok {
		return "", nil
	}
	return namer.DisplayName(ctx, to)
}
