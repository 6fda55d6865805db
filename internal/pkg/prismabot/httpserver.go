package prismabot

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// DefaultLivenessMessage is served at root when no message is configured
const DefaultLivenessMessage = "Chatbot Prisma Projeto de Dança está ativo."

type httpServer struct {
	http.Server
	message string
	logger  *logrus.Entry
}

func newWebServer(port string, message string) *httpServer {
	if message == "" {
		message = DefaultLivenessMessage
	}
	server := httpServer{
		message: message,
		logger:  logrus.WithField("module", "httpserv"),
	}
	server.Addr = ":" + port
	server.finalize()
	return &server
}

func (server *httpServer) finalize() {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)

	// The root is the only route, used by the hosting platform to check we are alive
	router.Get("/", func(response http.ResponseWriter, request *http.Request) {
		response.Header().Set("Content-Type", "text/plain; charset=utf-8")
		response.WriteHeader(http.StatusOK)
		fmt.Fprint(response, server.message)
	})
	server.Handler = router
}

// serve runs until the server is shut down
func (server *httpServer) serve() {
	server.logger.Infof("listening on %s", server.Addr)
	err := server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		server.logger.Errorf("server stopped: %s", err.Error())
	}
}
