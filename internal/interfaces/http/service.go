package httpinterface

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/polling-network/polling-daemon/internal/core/application"
	"github.com/polling-network/polling-daemon/internal/interfaces"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 5 * time.Second

type ServiceOpts struct {
	Address string
	// AllowedOrigins are the origins allowed by CORS, "*" for any.
	AllowedOrigins []string

	AccountSvc  application.AccountService
	HardwareSvc application.HardwareConnector
	// PubSubSvc is optional, the webhook routes reply 501 without it.
	PubSubSvc   application.PubSubService
	Broadcaster *application.EventBroadcaster
	// MetricsHandler, if set, is served at /metrics.
	MetricsHandler http.Handler
}

func (o ServiceOpts) validate() error {
	if o.Address == "" {
		return fmt.Errorf("missing listening address")
	}
	if o.AccountSvc == nil {
		return fmt.Errorf("missing account service")
	}
	if o.HardwareSvc == nil {
		return fmt.Errorf("missing hardware connector")
	}
	if o.Broadcaster == nil {
		return fmt.Errorf("missing event broadcaster")
	}
	return nil
}

type service struct {
	opts   ServiceOpts
	server *http.Server
}

func NewService(opts ServiceOpts) (interfaces.Service, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid opts: %s", err)
	}

	return &service{
		opts: opts,
		server: &http.Server{
			Addr:              opts.Address,
			Handler:           NewHandler(opts),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

func (s *service) Start() error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-time.After(100 * time.Millisecond):
	}

	log.Infof("http interface is listening on %s", s.opts.Address)
	return nil
}

func (s *service) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("failed to gracefully stop http interface")
	}
	log.Debug("stopped http interface")
}

// NewHandler returns the router of the HTTP interface.
func NewHandler(opts ServiceOpts) http.Handler {
	h := &handler{
		accountSvc:  opts.AccountSvc,
		hardwareSvc: opts.HardwareSvc,
		pubsubSvc:   opts.PubSubSvc,
		broadcaster: opts.Broadcaster,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(opts.AllowedOrigins),
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/state", h.getState)

	mux.HandleFunc("GET /v1/accounts", h.listAccounts)
	mux.HandleFunc("POST /v1/accounts", h.addAccount)
	mux.HandleFunc("PUT /v1/accounts/active", h.setActiveAccount)
	mux.HandleFunc("GET /v1/accounts/{address}", h.getAccount)
	mux.HandleFunc("PATCH /v1/accounts/{address}", h.updateAccount)
	mux.HandleFunc("POST /v1/accounts/{address}/lock", h.confirmLock)
	mux.HandleFunc("POST /v1/accounts/{address}/withdraw", h.confirmWithdraw)

	mux.HandleFunc("GET /v1/hardware/{type}", h.getHardwareScan)
	mux.HandleFunc("POST /v1/hardware/{type}/connect", h.connectHardware)
	mux.HandleFunc("POST /v1/hardware/{type}/choose", h.chooseHardwareAccount)

	mux.HandleFunc("GET /v1/webhooks", h.listWebhooks)
	mux.HandleFunc("POST /v1/webhooks", h.addWebhook)
	mux.HandleFunc("DELETE /v1/webhooks/{id}", h.removeWebhook)

	mux.HandleFunc("GET /v1/events", h.streamEvents)

	if opts.MetricsHandler != nil {
		mux.Handle("GET /metrics", opts.MetricsHandler)
	}

	c := cors.New(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete,
		},
		AllowedHeaders: []string{"Content-Type"},
	})
	return withLogger(c.Handler(mux))
}

func originChecker(allowedOrigins []string) func(*http.Request) bool {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[origin] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allowed[origin]
		return ok
	}
}
