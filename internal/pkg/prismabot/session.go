package prismabot

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const webServerShutdownTimeout = 5 * time.Second

// Session defines a bot server session
type Session struct {
	db              *databaseHandler
	webServer       *httpServer
	router          *router
	plugins         []Plugin
	consumerTimeout time.Duration
	stopOnce        sync.Once
	stopCh          chan struct{}
	logger          *logrus.Entry
}

// SessionConfig defines the configurations of a session
type SessionConfig struct {
	Port            string        // Port Number for the liveness server
	LivenessMessage string        // Text served at root
	MongoURL        string        // URL to the MongoDB Server
	DatabaseName    string        // MongoDB database name
	ArchiveDisabled bool          // Run without MongoDB
	ConsumerTimeout time.Duration // How long the router waits on a busy consumer
}

// NewSession creates a new session
func NewSession(config SessionConfig, plugins []Plugin) (*Session, error) {
	session := Session{
		webServer:       newWebServer(config.Port, config.LivenessMessage),
		router:          newRouter(),
		plugins:         plugins,
		consumerTimeout: config.ConsumerTimeout,
		stopCh:          make(chan struct{}),
		logger:          logrus.WithField("module", "session"),
	}
	if session.consumerTimeout <= 0 {
		session.consumerTimeout = routerRecvOutTimeout
	}

	// Init database
	if !config.ArchiveDisabled {
		var err error
		session.db, err = newDatabaseHandler(config.MongoURL, config.DatabaseName)
		if err != nil {
			return nil, err
		}
	} else {
		session.logger.Warn("database disabled, session state stays local")
	}

	// Init plugins
	if err := session.initPlugin(); err != nil {
		return nil, err
	}

	return &session, nil
}

func (s *Session) initPlugin() error {
	// For each plugin go through all implemented interfaces and
	// fuse them with framework modules
	logger := s.logger.WithField("phase", "init-plugin")
	ids := make(map[string]bool)
	for _, p := range s.plugins {
		id := p.ID()
		if ids[id] {
			return PluginExistsError{ID: id}
		}
		ids[id] = true
		p.SetLogger(logrus.WithField("plugin", id))

		// See plugin.go for interface definitions
		if pmsg, ok := p.(PluginMessenger); ok {
			if err := s.router.attachPort(id, pmsg.OutboundPort()); err != nil {
				return err
			}
			s.router.attachReceiver(id, pmsg.InMsgChannel())
		}

		if pcon, ok := p.(PluginMsgConsumer); ok {
			pcon.AttachInMsgChannel(s.router.attachConsumer(id))
		}

		if pport, ok := p.(PluginPortUser); ok {
			pport.AttachOutboundPort(s.router.port())
		}

		if pdb, ok := p.(PluginDatabaseUser); ok {
			if s.db != nil {
				s.db.attachRequester(id, pdb.DBRequestChannel())
			} else {
				go rejectRequests(pdb.DBRequestChannel())
			}
		}
		logger.Infof("plugin attached: %s", id)
	}
	return nil
}

func rejectRequests(ch <-chan DatabaseRequest) {
	for req := range ch {
		if req.Return != nil {
			req.Return <- ErrDatabaseDisabled
		}
	}
}

// Start starts a session
// The liveness server runs for the whole call. If the database is not reachable
// the plugins are not started and the call blocks until ctx is done.
// Start returns once every plugin has terminated.
func (s *Session) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-s.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	s.logger.Info("session start")
	go s.webServer.serve()
	defer s.shutdownWebServer()

	if s.db != nil {
		if err := s.db.connect(ctx); err != nil {
			s.logger.Error("database unavailable, messengers not started")
			<-ctx.Done()
			s.logger.Info("session closed")
			return
		}
	}

	wg := sync.WaitGroup{}
	if s.db != nil {
		wg.Add(1)
		go func() {
			s.db.start()
			wg.Done()
		}()
	}

	wg.Add(1)
	go func() {
		s.router.start(ctx, s.consumerTimeout)
		wg.Done()
	}()

	for _, p := range s.plugins {
		wg.Add(1)
		go func() {
			p.Start(ctx)
			wg.Done()
		}()
	}

	// Wait here until the session is Done
	<-ctx.Done()
	s.logger.Info("stopping")
	for _, p := range s.plugins {
		p.Stop()
	}
	wg.Wait()
	s.logger.Info("session closed")
}

// Stop terminates a running session
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
}

func (s *Session) shutdownWebServer() {
	timeout, stop := context.WithTimeout(context.Background(), webServerShutdownTimeout)
	err := s.webServer.Shutdown(timeout)
	stop()
	if err != nil {
		s.logger.Errorf("failed to shutdown httpserver: %s", err.Error())
	} else {
		s.logger.Info("httpserver shutdown")
	}
}
