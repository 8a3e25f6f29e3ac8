package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"energy-server/auth"
	"energy-server/cache"
	"energy-server/confs"
	"energy-server/handlers"
	httpHandler "energy-server/handlers/http"
	"energy-server/logger"
	"energy-server/metrics"
	"energy-server/middleware"
	"energy-server/services"
	"energy-server/usecases"
	"energy-server/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Deps is everything the HTTP surface needs. Limiter may be nil to disable
// rate limiting on the auth routes.
type Deps struct {
	Config     *confs.Config
	Log        *zap.Logger
	Metrics    *metrics.Metrics
	Tokens     *auth.TokenIssuer
	Users      *usecases.UserUseCase
	Devices    *usecases.DeviceUseCase
	Units      *usecases.UnitUseCase
	Usage      *usecases.UsageUseCase
	Alerts     *usecases.AlertUseCase
	Accounting *usecases.AccountingUseCase
	Meter      *services.Meter
	Manager    *ws.Manager
	AlertCache *cache.AlertCache
	Limiter    middleware.Limiter
}

type Server struct {
	app  *gin.Engine
	deps Deps
}

func NewServer(deps Deps) *Server {
	if deps.Config.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	s := &Server{app: gin.New(), deps: deps}
	s.routes()
	return s
}

// Router exposes the engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.app
}

func (s *Server) corsConfig() cors.Config {
	config := cors.DefaultConfig()
	origins := s.deps.Config.Server.AllowedOrigins
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = origins
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader}
	config.ExposeHeaders = []string{middleware.RequestIDHeader}
	return config
}

func (s *Server) routes() {
	d := s.deps

	s.app.Use(gin.Recovery())
	s.app.Use(middleware.RequestID())
	s.app.Use(logger.Middleware(d.Log))
	if d.Metrics != nil {
		s.app.Use(d.Metrics.Middleware())
	}
	s.app.Use(cors.New(s.corsConfig()))

	systemHandler := handlers.NewSystemHandler(d.Config.ServiceName, d.AlertCache, d.Manager)
	s.app.GET("/health", systemHandler.Health)
	if d.Metrics != nil {
		s.app.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	userHandler := httpHandler.NewUserHandler(d.Users)
	deviceHandler := httpHandler.NewDeviceHandler(d.Devices)
	unitHandler := httpHandler.NewUnitHandler(d.Units)
	usageHandler := httpHandler.NewUsageHandler(d.Usage)
	alertHandler := httpHandler.NewAlertHandler(d.Alerts)
	dashboardHandler := httpHandler.NewDashboardHandler(d.Accounting, d.Meter)
	wsHandler := handlers.NewWSHandler(d.Manager, d.Tokens, d.Accounting, d.Config.Server.AllowedOrigins)

	requireAuth := middleware.Auth(d.Tokens)

	api := s.app.Group("/api")
	{
		public := api.Group("/users")
		if d.Limiter != nil {
			public.Use(middleware.RateLimit(d.Limiter))
		}
		{
			public.POST("/signup", userHandler.Signup)
			public.POST("/signin", userHandler.Signin)
		}

		api.GET("/devices/household-items", deviceHandler.HouseholdItems)

		users := api.Group("/users", requireAuth)
		{
			users.GET("/profile", userHandler.GetProfile)
			users.PUT("/profile", userHandler.UpdateProfile)

			users.GET("/devices", deviceHandler.ListDevices)
			users.POST("/devices", deviceHandler.UpsertDevice)
			users.DELETE("/devices/:id", deviceHandler.RemoveDevice)
			users.PUT("/devices/:id/toggle", deviceHandler.ToggleDevice)

			users.POST("/units", unitHandler.Purchase)
			users.GET("/units/balance", unitHandler.Balance)

			users.GET("/dashboard", dashboardHandler.Dashboard)
			if d.Meter != nil {
				users.POST("/meter/run", dashboardHandler.RunMeter)
			}
		}

		usage := api.Group("/usage", requireAuth)
		{
			usage.POST("/log", usageHandler.Log)
			usage.GET("/history", usageHandler.History)
		}

		alerts := api.Group("/alerts", requireAuth)
		{
			alerts.GET("", alertHandler.List)
			alerts.PUT("/:id/read", alertHandler.MarkRead)
		}

		system := api.Group("/system", requireAuth)
		{
			system.GET("/stats", systemHandler.Stats)
			system.POST("/cache/prune", systemHandler.PruneCache)
		}
	}

	s.app.GET("/ws", wsHandler.HandleDashboardWS)
}

// Run serves until ctx is cancelled, then drains in-flight requests and
// closes every websocket.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              net.JoinHostPort("0.0.0.0", s.deps.Config.Server.Port),
		Handler:           s.app,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.deps.Log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.deps.Log.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if s.deps.Manager != nil {
		s.deps.Manager.CloseAll()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
