package app

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/drstein77/istore/internal/config"
	"github.com/drstein77/istore/internal/controllers"
	"github.com/drstein77/istore/internal/dbkeeper"
	"github.com/drstein77/istore/internal/logger"
	reqLog "github.com/drstein77/istore/internal/middleware"
	"github.com/drstein77/istore/internal/storage"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"go.uber.org/zap"
)

type Server struct {
	mx      sync.Mutex
	srv     *http.Server
	ctx     context.Context
	storage *storage.MemoryStorage
	Log     *logger.Logger

	// done is closed once Shutdown has drained in-flight requests.
	done     chan struct{}
	doneOnce sync.Once
}

// NewServer creates a new Server instance with the provided context
func NewServer(ctx context.Context) *Server {
	server := new(Server)
	server.ctx = ctx
	server.Log = &logger.Logger{}
	server.done = make(chan struct{})
	return server
}

// Serve builds the dependencies and blocks until the HTTP server stops.
func (server *Server) Serve() {
	// create and initialize a new option instance
	option := config.NewOptions()
	option.ParseFlags()

	// get a new logger
	nLogger, err := logger.NewLogger(option.LogLevel())
	if err != nil {
		log.Fatalln(err)
	}
	server.mx.Lock()
	server.Log = nLogger
	server.mx.Unlock()
	defer nLogger.Sync()

	// the database is optional; a nil keeper must stay an untyped nil
	var keeper storage.Keeper
	if kp := dbkeeper.NewDBKeeper(server.ctx, option.DataBaseDSN, nLogger); kp != nil {
		keeper = kp
	}

	server.storage = storage.NewMemoryStorage(server.ctx, option.SessionTTL(), keeper, nLogger)
	defer server.storage.Close()

	// create router and mount routes
	basecontr := controllers.NewBaseController(server.storage, nLogger)
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(reqLog.RequestLogger(nLogger.With(zap.String("component", "http"))))
	r.Mount("/", basecontr.Route())

	// configure and start the server
	srv := &http.Server{
		Addr:         option.RunAddr(),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	ln, err := net.Listen("tcp", option.RunAddr())
	if err != nil {
		nLogger.Error("cannot listen", zap.String("addr", option.RunAddr()), zap.Error(err))
		return
	}

	nLogger.Info("storefront listening",
		zap.String("addr", ln.Addr().String()),
		zap.Duration("session_ttl", option.SessionTTL()),
		zap.Bool("database", keeper != nil),
	)
	server.serveListener(srv, ln, nLogger)
}

// serveListener runs srv on ln and returns only after Shutdown has finished
// draining, so deferred cleanup never races in-flight handlers.
func (server *Server) serveListener(srv *http.Server, ln net.Listener, l *logger.Logger) {
	server.mx.Lock()
	select {
	case <-server.done:
		// Shutdown ran before the server was registered.
		server.mx.Unlock()
		_ = ln.Close()
		return
	default:
	}
	server.srv = srv
	server.mx.Unlock()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Error("server error", zap.Error(err))
		return
	}
	<-server.done
}

// Shutdown gracefully stops the HTTP server within the given timeout.
func (server *Server) Shutdown(timeout time.Duration) {
	server.mx.Lock()
	srv, l := server.srv, server.Log
	if srv == nil {
		server.doneOnce.Do(func() { close(server.done) })
		server.mx.Unlock()
		return
	}
	server.mx.Unlock()
	defer server.doneOnce.Do(func() { close(server.done) })

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		l.Error("server forced to shutdown", zap.Error(err))
		return
	}
	l.Info("server stopped")
}

// Logger returns the server logger; it discards output until Serve sets it up.
func (server *Server) Logger() *logger.Logger {
	server.mx.Lock()
	defer server.mx.Unlock()
	return server.Log
}
