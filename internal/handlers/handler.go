package handlers

import (
	"html/template"
	"time"

	"homedash/internal/chart"
	"homedash/internal/logger"
	"homedash/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const defaultCookieName = "homedash_session"

// Options tunes the HTTP surface.
type Options struct {
	CookieName   string
	SecureCookie bool
	TokenTTL     time.Duration
	Location     *time.Location // display and lookup timezone
	ChartWidth   float64
	ChartHeight  float64
	HistoryLimit int
	MaxPoints    int
}

func (o Options) withDefaults() Options {
	if o.CookieName == "" {
		o.CookieName = defaultCookieName
	}
	if o.TokenTTL <= 0 {
		o.TokenTTL = time.Hour
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.ChartWidth <= 0 {
		o.ChartWidth = chart.DefaultWidth
	}
	if o.ChartHeight <= 0 {
		o.ChartHeight = chart.DefaultHeight
	}
	return o
}

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	opts     Options
	views    *template.Template
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger, opts Options) *Handler {
	return &Handler{services: services, log: log, opts: opts.withDefaults(), views: parseViews()}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.SetHTMLTemplate(h.views)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	// Auth endpoints
	h.registerAuthRoutes(router)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	// Live feed (HTTP upgrade), same port
	router.GET("/ws", h.wsConnect)

	// Server-rendered pages
	h.registerViewRoutes(router)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
		auth.POST("/sign-out", h.signOut)
		auth.POST("/reset-password", h.resetPassword)
		auth.POST("/reset-password/confirm", h.confirmReset)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userIdMiddleware)
	{
		api.GET("/me", h.getMe)
		api.GET("/home", h.getHome)
		api.PUT("/home", h.putHome)

		// everything below needs a bound home
		home := api.Group("", h.homeMiddleware)
		h.registerReadingRoutes(home)
		h.registerLampRoutes(home)
		h.registerSettingsRoutes(home)
		h.registerChartRoutes(home)
		h.registerLogRoutes(home)
	}
}

func (h *Handler) registerReadingRoutes(api *gin.RouterGroup) {
	readings := api.Group("/readings")
	{
		readings.GET("/latest", h.getLatest)
		readings.GET("/history", h.getHistory)
		readings.GET("/at", h.getReadingAt)
	}
}

func (h *Handler) registerLampRoutes(api *gin.RouterGroup) {
	lamp := api.Group("/lamp")
	{
		lamp.GET("", h.getLamp)
		lamp.POST("/toggle", h.toggleLamp)
	}
}

func (h *Handler) registerSettingsRoutes(api *gin.RouterGroup) {
	settings := api.Group("/settings")
	{
		settings.GET("/log-period", h.getLogPeriod)
		// Body example: {"log_period_sec":"30"}
		settings.PUT("/log-period", h.putLogPeriod)
	}
}

func (h *Handler) registerChartRoutes(api *gin.RouterGroup) {
	charts := api.Group("/charts")
	{
		charts.GET("/temperature.svg", h.temperatureChart)
		charts.GET("/humidity.svg", h.humidityChart)
	}
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("/", h.getLogs)
	}
}

func (h *Handler) registerViewRoutes(r *gin.Engine) {
	r.GET("/", h.indexPage)
	r.GET("/login", h.loginPage)
	r.POST("/login", h.loginSubmit)
	r.POST("/signup", h.signupSubmit)
	r.POST("/reset", h.resetSubmit)
	r.POST("/logout", h.logoutSubmit)

	dash := r.Group("/dashboard", h.viewGuard)
	{
		dash.GET("", h.dashboardPage)
		dash.POST("/home", h.dashboardHome)
		dash.POST("/settings", h.dashboardSettings)
		dash.POST("/lamp", h.dashboardLamp)
		dash.GET("/graphs", h.graphsPage)
	}
}
