package prismabot

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	dbConnectTimeout    = time.Minute
	dbDisconnectTimeout = 10 * time.Second
	dbRequestTimeout    = time.Minute
)

// DatabaseRequest defines a request for database
// When a DatabaseRequest is handled, the Action function is called
// and the return value will be pushed to Return channel
// The Action function is guaranteed to be run atomically without other DatabaseRequest
type DatabaseRequest struct {
	Action func(context.Context, *mongo.Database) interface{}
	Return chan interface{}
}

type databaseHandler struct {
	dbName     string
	options    *options.ClientOptions
	client     *mongo.Client
	database   *mongo.Database
	requesters map[string]<-chan DatabaseRequest
	logger     *logrus.Entry
}

func newDatabaseHandler(mongourl string, dbname string) (*databaseHandler, error) {
	logger := logrus.WithField("module", "database")
	opts := options.Client().ApplyURI(mongourl)
	if err := opts.Validate(); err != nil {
		logger.Error("invalid mongo url")
		return nil, err
	}
	handler := databaseHandler{
		dbName:     dbname,
		options:    opts,
		requesters: make(map[string]<-chan DatabaseRequest),
		logger:     logger,
	}
	logger.Info("created database handler: Mongo")
	return &handler, nil
}

func (h *databaseHandler) attachRequester(id string, ch <-chan DatabaseRequest) {
	if _, ok := h.requesters[id]; ok {
		h.logger.Panicf("requester has already been attached: %s", id)
	}
	h.requesters[id] = ch
}

func (h *databaseHandler) connect(ctx context.Context) error {
	timeCtx, cancel := context.WithTimeout(ctx, dbConnectTimeout)
	defer cancel()
	client, err := mongo.Connect(timeCtx, h.options)
	if err != nil {
		h.logger.Errorf("failed to connect to MongoDB: %s", err.Error())
		return err
	}
	if err = client.Ping(timeCtx, nil); err != nil {
		h.logger.Errorf("failed to ping MongoDB: %s", err.Error())
		h.disconnect(client)
		return err
	}
	h.client = client
	h.database = client.Database(h.dbName)
	h.logger.Infof("connected to MongoDB. Database name: %s", h.dbName)
	return nil
}

// start serves requests until every requester channel is closed, then disconnects
func (h *databaseHandler) start() {
	wg := sync.WaitGroup{}
	wg.Add(len(h.requesters))
	reqQueue := make(chan DatabaseRequest)
	for _, ch := range h.requesters {
		go func() {
			for req := range ch {
				reqQueue <- req
			}
			wg.Done()
		}()
	}
	go func() {
		wg.Wait()
		close(reqQueue)
	}()

	for request := range reqQueue {
		ctx, cancel := context.WithTimeout(context.Background(), dbRequestTimeout)
		ret := request.Action(ctx, h.database)
		cancel()
		if request.Return != nil {
			request.Return <- ret
		}
	}

	h.logger.Info("terminated")
	h.disconnect(h.client)
}

func (h *databaseHandler) disconnect(client *mongo.Client) {
	if client == nil {
		return
	}
	timeoutCtx, cancel := context.WithTimeout(context.Background(), dbDisconnectTimeout)
	err := client.Disconnect(timeoutCtx)
	cancel()
	if err != nil {
		h.logger.Errorf("failed to disconnect: %s", err.Error())
	} else {
		h.logger.Info("disconnected")
	}
}
