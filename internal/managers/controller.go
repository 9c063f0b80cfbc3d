package managers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/chrissnell/lunarmansion/internal/controllers/grpc"
	"github.com/chrissnell/lunarmansion/internal/controllers/restserver"
	"github.com/chrissnell/lunarmansion/internal/resolver"
	"github.com/chrissnell/lunarmansion/pkg/config"
	"github.com/soheilhy/cmux"
	"go.uber.org/zap"
)

// ControllerManager interface for the controller manager
type ControllerManager interface {
	StartControllers() error
	Addr() net.Addr
}

// Controller is an interface that provides standard methods for various controller backends
type Controller interface {
	StartController(net.Listener) error
}

type namedController struct {
	name       string
	controller Controller
	match      []cmux.Matcher
	matchW     []cmux.MatchWriter
}

type controllerManager struct {
	ctx         context.Context
	wg          *sync.WaitGroup
	config      config.ServerData
	logger      *zap.SugaredLogger
	listener    net.Listener
	controllers []namedController
}

// NewControllerManager creates the enabled controllers. They share one listener;
// connections are told apart by cmux.
func NewControllerManager(ctx context.Context, wg *sync.WaitGroup, c config.ServerData, r *resolver.Resolver, logger *zap.SugaredLogger) (ControllerManager, error) {
	cm := &controllerManager{
		ctx:    ctx,
		wg:     wg,
		config: c,
		logger: logger,
	}

	// gRPC must be matched first: the HTTP matcher accepts anything
	if c.GRPC.IsEnabled() {
		ctrl, err := grpc.NewController(ctx, wg, r, logger)
		if err != nil {
			return nil, fmt.Errorf("error creating gRPC controller: %v", err)
		}
		cm.controllers = append(cm.controllers, namedController{
			name:       "grpc",
			controller: ctrl,
			matchW:     []cmux.MatchWriter{cmux.HTTP2MatchHeaderFieldPrefixSendSettings("content-type", "application/grpc")},
		})
	}

	if c.REST.IsEnabled() {
		ctrl, err := restserver.NewController(ctx, wg, r, c, logger)
		if err != nil {
			return nil, fmt.Errorf("error creating REST controller: %v", err)
		}
		cm.controllers = append(cm.controllers, namedController{
			name:       "rest",
			controller: ctrl,
			match:      []cmux.Matcher{cmux.Any()},
		})
	}

	if len(cm.controllers) == 0 {
		return nil, errors.New("no controllers enabled")
	}
	return cm, nil
}

// StartControllers opens the shared listener and starts every controller on it
func (cm *controllerManager) StartControllers() error {
	cm.logger.Info("Starting controller manager...")

	l, err := net.Listen("tcp", cm.config.Address())
	if err != nil {
		return fmt.Errorf("could not listen on %s: %v", cm.config.Address(), err)
	}
	cm.listener = l

	m := cmux.New(l)
	for _, nc := range cm.controllers {
		var sub net.Listener
		if len(nc.matchW) > 0 {
			sub = m.MatchWithWriters(nc.matchW...)
		} else {
			sub = m.Match(nc.match...)
		}
		if err := nc.controller.StartController(sub); err != nil {
			l.Close()
			return fmt.Errorf("error starting %s controller: %v", nc.name, err)
		}
	}

	cm.wg.Add(1)
	go func() {
		defer cm.wg.Done()
		if err := m.Serve(); err != nil && !errors.Is(err, net.ErrClosed) {
			cm.logger.Errorf("listener error: %v", err)
		}
	}()

	go func() {
		<-cm.ctx.Done()
		m.Close()
	}()

	cm.logger.Infof("Started %d controllers on %s", len(cm.controllers), l.Addr())
	return nil
}

// Addr returns the listening address once StartControllers has run
func (cm *controllerManager) Addr() net.Addr {
	if cm.listener == nil {
		return nil
	}
	return cm.listener.Addr()
}
