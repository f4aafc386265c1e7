package restserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/chrissnell/controlchart/internal/log"
	"github.com/chrissnell/controlchart/internal/processor"
	"github.com/chrissnell/controlchart/pkg/config"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Controller represents the REST server controller
type Controller struct {
	ctx        context.Context
	wg         *sync.WaitGroup
	restConfig config.ServerData
	Server     http.Server
	processor  *processor.Processor
	httpLogs   *log.HTTPLogBuffer
	logger     *zap.SugaredLogger
	handlers   *Handlers
}

// ActualSource holds the most recent result for the actual-data folder
type ActualSource interface {
	Latest() (*processor.Result, time.Time, error)
}

// Deps are the services the handlers call into
type Deps struct {
	Processor   *processor.Processor
	InputFolder string
	// DemoSeed seeds generated demo data; zero picks a new seed per request
	DemoSeed uint64
	HTTPLogs *log.HTTPLogBuffer
	// Actual serves background-refreshed folder results; nil disables GET /api/actual
	Actual ActualSource
	// Now is the clock used for demo data; nil means time.Now
	Now func() time.Time
}

// NewController creates a new REST server controller
func NewController(ctx context.Context, wg *sync.WaitGroup, rc config.ServerData, deps Deps, logger *zap.SugaredLogger) (*Controller, error) {
	if deps.Processor == nil {
		return nil, fmt.Errorf("REST server requires a processor")
	}

	if rc.ListenAddr == "" {
		logger.Infof("server.listen_addr not provided; defaulting to %s (all interfaces)", config.DefaultListenAddr)
		rc.ListenAddr = config.DefaultListenAddr
	}
	if rc.Port == 0 {
		logger.Infof("server.port not provided; defaulting to %d", config.DefaultPort)
		rc.Port = config.DefaultPort
	}
	if rc.MaxUploadBytes <= 0 {
		rc.MaxUploadBytes = config.DefaultMaxUploadBytes
	}
	if deps.HTTPLogs == nil {
		deps.HTTPLogs = log.GetHTTPLogBuffer()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	ctrl := &Controller{
		ctx:        ctx,
		wg:         wg,
		restConfig: rc,
		processor:  deps.Processor,
		httpLogs:   deps.HTTPLogs,
		logger:     logger,
	}
	ctrl.handlers = NewHandlers(ctrl, deps)

	ctrl.Server.Addr = fmt.Sprintf("%v:%v", rc.ListenAddr, rc.Port)
	ctrl.Server.Handler = ctrl.setupRouter()
	ctrl.Server.ReadHeaderTimeout = 10 * time.Second

	return ctrl, nil
}

// StartController starts the REST server
func (c *Controller) StartController() error {
	c.logger.Infof("Starting REST server on %s...", c.Server.Addr)
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		if c.restConfig.TLSCertPath != "" && c.restConfig.TLSKeyPath != "" {
			if err := c.Server.ListenAndServeTLS(c.restConfig.TLSCertPath, c.restConfig.TLSKeyPath); err != http.ErrServerClosed {
				c.logger.Errorf("REST server error: %v", err)
			}
		} else {
			if err := c.Server.ListenAndServe(); err != http.ErrServerClosed {
				c.logger.Errorf("REST server error: %v", err)
			}
		}
	}()

	go func() {
		<-c.ctx.Done()
		c.logger.Info("Shutting down the REST server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		c.Server.Shutdown(shutdownCtx)
	}()

	return nil
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() http.Handler {
	router := mux.NewRouter()
	router.Use(log.HTTPMiddleware(c.httpLogs))
	router.Use(c.limitBodyMiddleware)

	router.HandleFunc("/api/process", c.handlers.ProcessUpload).Methods(http.MethodPost)
	router.HandleFunc("/api/demo", c.handlers.ProcessDemo).Methods(http.MethodPost)
	router.HandleFunc("/api/load-actual", c.handlers.LoadActual).Methods(http.MethodPost)
	router.HandleFunc("/api/actual", c.handlers.GetActual).Methods(http.MethodGet)
	router.HandleFunc("/api/segment", c.handlers.SegmentSeries).Methods(http.MethodPost)
	router.HandleFunc("/api/chart", c.handlers.RenderChart).Methods(http.MethodPost)
	router.HandleFunc("/api/logs/http", c.handlers.GetHTTPLogs).Methods(http.MethodGet)
	router.MethodNotAllowedHandler = http.HandlerFunc(c.handlers.MethodNotAllowed)

	router.HandleFunc("/healthz", c.handlers.Healthz).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/", c.handlers.Root).Methods(http.MethodGet)

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)
	return cors(router)
}

// limitBodyMiddleware caps request bodies at server.max_upload_bytes
func (c *Controller) limitBodyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, c.restConfig.MaxUploadBytes)
		}
		next.ServeHTTP(w, r)
	})
}
