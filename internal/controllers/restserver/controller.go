// Package restserver serves the resolver over HTTP
package restserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/chrissnell/lunarmansion/internal/log"
	"github.com/chrissnell/lunarmansion/internal/resolver"
	"github.com/chrissnell/lunarmansion/pkg/config"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Controller represents the REST server controller
type Controller struct {
	ctx      context.Context
	wg       *sync.WaitGroup
	Server   http.Server
	resolver *resolver.Resolver
	logger   *zap.SugaredLogger
	handlers *Handlers
}

// NewController creates a new REST server controller
func NewController(ctx context.Context, wg *sync.WaitGroup, r *resolver.Resolver, sd config.ServerData, logger *zap.SugaredLogger) (*Controller, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	ctrl := &Controller{
		ctx:      ctx,
		wg:       wg,
		resolver: r,
		logger:   logger,
	}
	ctrl.handlers = NewHandlers(ctrl)

	ctrl.Server.Addr = sd.Address()
	ctrl.Server.Handler = ctrl.Handler()
	ctrl.Server.ReadTimeout = sd.ReadTimeout
	ctrl.Server.WriteTimeout = sd.WriteTimeout

	return ctrl, nil
}

// StartController serves HTTP on l until the controller's context is cancelled
func (c *Controller) StartController(l net.Listener) error {
	c.logger.Infof("Starting REST server controller on %s...", l.Addr())
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()
		if err := c.Server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) && c.ctx.Err() == nil {
			c.logger.Errorf("REST server error: %v", err)
		}
	}()

	go func() {
		<-c.ctx.Done()
		c.logger.Info("Shutting down the REST server...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		c.Server.Shutdown(ctx)
	}()

	return nil
}

// Handler returns the full handler chain, including access logging and CORS
func (c *Controller) Handler() http.Handler {
	return log.HTTPMiddleware(c.logger)(corsMiddleware(c.setupRouter()))
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/calculate", c.handlers.Calculate).Methods(http.MethodGet)
	router.HandleFunc("/health", c.handlers.Health).Methods(http.MethodGet)
	router.HandleFunc("/mansions", c.handlers.Mansions).Methods(http.MethodGet)
	router.HandleFunc("/stats", c.handlers.Stats).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(c.handlers.NotFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(c.handlers.MethodNotAllowed)

	return router
}

// corsMiddleware allows any origin, for every response including errors
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+log.RequestIDHeader)
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
