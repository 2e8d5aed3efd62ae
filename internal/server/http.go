package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// HTTPService runs an *http.Server under a Lifecycle.
type HTTPService struct {
	srv             *http.Server
	listener        net.Listener
	shutdownTimeout time.Duration
	logger          *zap.Logger
}

// NewHTTPService wraps srv. When ln is nil the server listens on srv.Addr.
//
// Precondition: srv and logger must be non-nil; shutdownTimeout > 0.
func NewHTTPService(srv *http.Server, ln net.Listener, shutdownTimeout time.Duration, logger *zap.Logger) *HTTPService {
	return &HTTPService{srv: srv, listener: ln, shutdownTimeout: shutdownTimeout, logger: logger}
}

// Start serves until Stop is called.
//
// Postcondition: a graceful close returns nil.
func (h *HTTPService) Start() error {
	var err error
	if h.listener != nil {
		h.logger.Info("http listening", zap.String("addr", h.listener.Addr().String()))
		err = h.srv.Serve(h.listener)
	} else {
		h.logger.Info("http listening", zap.String("addr", h.srv.Addr))
		err = h.srv.ListenAndServe()
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop drains in-flight requests for up to the shutdown timeout, then closes
// remaining connections.
func (h *HTTPService) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
	defer cancel()
	if err := h.srv.Shutdown(ctx); err != nil {
		h.logger.Warn("http shutdown incomplete, closing", zap.Error(err))
		_ = h.srv.Close()
	}
}
