// Package whatsapp connects a single WhatsApp account to the bot through whatsmeow
package whatsapp

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mdp/qrterminal/v3"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types/events"

	"gitlab.com/kavenc/prismabot/internal/pkg/prismabot"
)

// ID of the WhatsApp messenger plugin
const ID = "WHATSAPP"

const (
	inMsgLen            = 10
	nameExpiration      = 24 * time.Hour
	nameCleanup         = time.Hour
	finalArchiveTimeout = 30 * time.Second
	defaultStorePath    = "session/whatsapp.db"
)

// Config of the WhatsApp messenger
type Config struct {
	StorePath       string        // sqlite session store
	QROutputPath    string        // optional file receiving QR codes
	ArchiveName     string        // GridFS name of the session archive, empty disables archiving
	ArchiveInterval time.Duration // period between session snapshots
	QRWriter        io.Writer     // QR rendering target, os.Stdout when nil
}

// Messenger is the WhatsApp messenger plugin
type Messenger struct {
	config  Config
	inMsg   chan prismabot.InboundMessage
	dbCh    chan prismabot.DatabaseRequest
	archive *sessionArchive
	names   *cache.Cache
	logger  *logrus.Entry

	clientLock sync.RWMutex
	client     *whatsmeow.Client

	// closed guards inMsg against sends from late events
	inLock   sync.RWMutex
	closed   bool
	snapshot chan struct{}

	started  atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

// New creates the WhatsApp messenger plugin
func New(config Config) *Messenger {
	if config.StorePath == "" {
		config.StorePath = defaultStorePath
	}
	if config.QRWriter == nil {
		config.QRWriter = os.Stdout
	}
	m := &Messenger{
		config:   config,
		inMsg:    make(chan prismabot.InboundMessage, inMsgLen),
		dbCh:     make(chan prismabot.DatabaseRequest),
		names:    cache.New(nameExpiration, nameCleanup),
		logger:   logrus.WithField("plugin", ID),
		snapshot: make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	if config.ArchiveName != "" {
		m.archive = &sessionArchive{
			name:      config.ArchiveName,
			storePath: config.StorePath,
			requests:  m.dbCh,
			logger:    m.logger.WithField("phase", "archive"),
		}
	}
	return m
}

// ID implements prismabot.Plugin
func (m *Messenger) ID() string {
	return ID
}

// SetLogger implements prismabot.Plugin
func (m *Messenger) SetLogger(logger *logrus.Entry) {
	m.logger = logger
	if m.archive != nil {
		m.archive.logger = logger.WithField("phase", "archive")
	}
}

// InMsgChannel implements prismabot.PluginMessenger
func (m *Messenger) InMsgChannel() <-chan prismabot.InboundMessage {
	return m.inMsg
}

// OutboundPort implements prismabot.PluginMessenger
func (m *Messenger) OutboundPort() prismabot.OutboundPort {
	return &port{m: m}
}

// DBRequestChannel implements prismabot.PluginDatabaseUser
func (m *Messenger) DBRequestChannel() <-chan prismabot.DatabaseRequest {
	return m.dbCh
}

// Start connects to WhatsApp and delivers messages until ctx is done or Stop is called
func (m *Messenger) Start(ctx context.Context) {
	m.started.Store(true)
	defer close(m.done)
	defer m.closeChannels()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-m.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	if m.archive != nil {
		if err := m.archive.restore(ctx); err != nil {
			m.logger.Errorf("failed to restore session: %s", err.Error())
		}
	}

	client, err := m.connect(ctx)
	if err != nil {
		m.logger.Errorf("failed to start client: %s", err.Error())
		return
	}

	var ticker <-chan time.Time
	if m.archive != nil && m.config.ArchiveInterval > 0 {
		t := time.NewTicker(m.config.ArchiveInterval)
		defer t.Stop()
		ticker = t.C
	}

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-m.snapshot:
			m.archiveSession(ctx, client)
		case <-ticker:
			m.archiveSession(ctx, client)
		}
	}

	m.setClient(nil)
	client.Disconnect()
	m.logger.Info("disconnected")

	finalCtx, finalCancel := context.WithTimeout(context.Background(), finalArchiveTimeout)
	m.archiveSession(finalCtx, client)
	finalCancel()
}

// Stop implements prismabot.Plugin
func (m *Messenger) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
	if m.started.Load() {
		<-m.done
	}
}

func (m *Messenger) connect(ctx context.Context) (*whatsmeow.Client, error) {
	if err := os.MkdirAll(filepath.Dir(m.config.StorePath), 0700); err != nil {
		return nil, err
	}
	container, err := sqlstore.New(ctx, "sqlite3", storeDSN(m.config.StorePath), newWALogger(m.logger, "database"))
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("load device: %w", err)
	}

	client := whatsmeow.NewClient(device, newWALogger(m.logger, "client"))
	client.EnableAutoReconnect = true
	client.AddEventHandler(func(evt interface{}) {
		m.handleEvent(ctx, evt)
	})

	if client.Store.ID == nil {
		qrChan, err := client.GetQRChannel(ctx)
		if err != nil {
			return nil, err
		}
		go m.showQR(qrChan)
	}
	if err = client.Connect(); err != nil {
		return nil, err
	}
	m.setClient(client)
	return client, nil
}

func (m *Messenger) handleEvent(ctx context.Context, evt interface{}) {
	switch v := evt.(type) {
	case *events.Message:
		msg, ok := toInbound(v)
		if !ok {
			return
		}
		if v.Info.PushName != "" {
			m.names.Set(msg.FromChannel.ChannelID, v.Info.PushName, cache.DefaultExpiration)
		}
		m.logger.Debugf("message from %s (%s)", msg.FromChannel.ChannelID, msg.Kind)
		m.deliver(ctx, msg)
	case *events.PairSuccess:
		m.logger.Infof("paired as %s", v.ID.String())
	case *events.Connected:
		m.logger.Info("connected, ready to serve")
		m.requestSnapshot()
	case *events.LoggedOut:
		m.logger.Errorf("logged out (%v), a new QR code will be issued on next start", v.Reason)
	case *events.Disconnected:
		m.logger.Warn("disconnected, waiting for automatic reconnection")
	case *events.StreamReplaced:
		m.logger.Warn("stream replaced by another connection of the same account")
	}
}

func (m *Messenger) deliver(ctx context.Context, msg prismabot.InboundMessage) {
	m.inLock.RLock()
	defer m.inLock.RUnlock()
	if m.closed {
		return
	}
	select {
	case m.inMsg <- msg:
	case <-ctx.Done():
		m.logger.Warnf("message dropped on shutdown: %s", msg.ID)
	}
}

func (m *Messenger) requestSnapshot() {
	select {
	case m.snapshot <- struct{}{}:
	default:
	}
}

// archiveSession snapshots the store of a paired device
func (m *Messenger) archiveSession(ctx context.Context, client *whatsmeow.Client) {
	if m.archive == nil || client.Store.ID == nil {
		return
	}
	if err := m.archive.snapshot(ctx); err != nil {
		m.logger.Errorf("failed to archive session: %s", err.Error())
	}
}

func (m *Messenger) showQR(qrChan <-chan whatsmeow.QRChannelItem) {
	for item := range qrChan {
		if item.Event != "code" {
			m.logger.Infof("qr channel: %s", item.Event)
			continue
		}
		m.logger.Warn("QR code issued, scan it with the WhatsApp app of the studio")
		qrterminal.GenerateHalfBlock(item.Code, qrterminal.L, m.config.QRWriter)
		if m.config.QROutputPath != "" {
			if err := writeQR(m.config.QROutputPath, item.Code); err != nil {
				m.logger.Errorf("failed to write QR code: %s", err.Error())
			}
		}
	}
}

// writeQR stores the raw code and its rendering for hosts without a terminal
func writeQR(path string, code string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	fmt.Fprintln(f, code)
	qrterminal.GenerateHalfBlock(code, qrterminal.L, f)
	return f.Close()
}

func (m *Messenger) currentClient() *whatsmeow.Client {
	m.clientLock.RLock()
	defer m.clientLock.RUnlock()
	return m.client
}

func (m *Messenger) setClient(client *whatsmeow.Client) {
	m.clientLock.Lock()
	defer m.clientLock.Unlock()
	m.client = client
}

func (m *Messenger) closeChannels() {
	m.inLock.Lock()
	m.closed = true
	close(m.inMsg)
	m.inLock.Unlock()
	close(m.dbCh)
	m.logger.Info("terminated")
}
