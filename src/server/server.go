package server

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"stock-stream/src/interfaces"
	"stock-stream/src/logger"
	"stock-stream/src/models"
	"stock-stream/src/subscription"
	"stock-stream/src/utils"
)

// -----------------------------------------------------------------------------
// Server
// -----------------------------------------------------------------------------

// Server hosts the websocket endpoint and the admin REST surface. It is
// both the connection lifecycle manager and the broadcast fan-out: it
// owns the live client table, delegates subscription state to the
// registry, and implements interfaces.IBroadcaster for the scheduler.
type Server struct {
	Config *models.MConfig
	Logger *logger.Logger
	engine *gin.Engine

	Registry  *subscription.Registry
	Scheduler interfaces.IScheduler
	Fetcher   interfaces.IQuoteFetcher
	Verifier  interfaces.IAuthVerifier
	Store     interfaces.IQuoteStore
	Market    *utils.MarketHours

	// Live connections by id
	clientsMu sync.RWMutex
	clients   map[string]*Client

	startedAt time.Time
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewServer(
	cfg *models.MConfig,
	log *logger.Logger,
	registry *subscription.Registry,
	sched interfaces.IScheduler,
	fetcher interfaces.IQuoteFetcher,
	verifier interfaces.IAuthVerifier,
	store interfaces.IQuoteStore,
	market *utils.MarketHours,
) *Server {
	// Set Gin mode
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		Config:    cfg,
		Logger:    log,
		engine:    gin.Default(),
		Registry:  registry,
		Scheduler: sched,
		Fetcher:   fetcher,
		Verifier:  verifier,
		Store:     store,
		Market:    market,
		clients:   make(map[string]*Client),
		startedAt: time.Now().UTC(),
	}

	// Add CORS Middleware
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") || strings.HasPrefix(origin, "http://localhost:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// setup web routes
	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *Server) setupRoutes() {
	// REST API endpoints
	s.engine.GET("/api/health", s.getHealth)
	s.engine.GET("/api/stats", s.getStats)
	s.engine.POST("/api/force-update", s.forceUpdate)
	s.engine.GET("/api/watchlist/:userId", s.getWatchlist)
	s.engine.PUT("/api/watchlist/:userId", s.putWatchlist)

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting server on %s", addr)
	return s.engine.Run(addr)
}

// -----------------------------------------------------------------------------

// Engine exposes the router for tests and embedding.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// -----------------------------------------------------------------------------

// Stop disconnects every live client. Each readPump then runs the normal
// unregister path, emptying the registry and stopping the scheduler.
func (s *Server) Stop() error {
	s.clientsMu.RLock()
	conns := make([]*Client, 0, len(s.clients))
	for _, c := range s.clients {
		conns = append(conns, c)
	}
	s.clientsMu.RUnlock()

	for _, c := range conns {
		c.conn.Close()
	}
	return nil
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *Server) getHealth(c *gin.Context) {
	s.clientsMu.RLock()
	connections := len(s.clients)
	s.clientsMu.RUnlock()

	c.JSON(200, gin.H{
		"status":         "ok",
		"connections":    connections,
		"uptime_seconds": int(time.Since(s.startedAt).Seconds()),
	})
}

// -----------------------------------------------------------------------------

// Stats assembles the introspection snapshot from the live client table,
// the registry counters and the scheduler state.
func (s *Server) Stats() models.MStats {
	s.clientsMu.RLock()
	connections := len(s.clients)
	s.clientsMu.RUnlock()

	total, unique := s.Registry.Counts()

	marketOpen := false
	if s.Market != nil {
		marketOpen = s.Market.AnyOpen(s.Registry.AllSubscribedSymbols())
	}

	return models.MStats{
		ActiveConnections:  connections,
		TotalSubscriptions: total,
		UniqueSymbols:      unique,
		SchedulerActive:    s.Scheduler.Active(),
		MarketOpen:         marketOpen,
	}
}

// -----------------------------------------------------------------------------

func (s *Server) getStats(c *gin.Context) {
	c.JSON(200, s.Stats())
}

// -----------------------------------------------------------------------------

// forceUpdate triggers an out-of-band fetch+broadcast cycle. The fetch
// runs in the background; the handler only confirms the trigger.
func (s *Server) forceUpdate(c *gin.Context) {
	var body struct {
		Symbols []string `json:"symbols"`
	}
	if err := c.ShouldBindJSON(&body); err != nil && c.Request.ContentLength > 0 {
		c.JSON(400, gin.H{"error": "malformed body"})
		return
	}

	go s.Scheduler.ForceUpdate(body.Symbols)

	c.JSON(202, gin.H{
		"status":  "triggered",
		"symbols": models.CanonicalSymbols(body.Symbols),
	})
}

// -----------------------------------------------------------------------------

func (s *Server) getWatchlist(c *gin.Context) {
	symbols, err := s.Store.DefaultWatchlistSymbols(c.Param("userId"))
	if err != nil {
		s.Logger.Error("Watchlist lookup failed: %v", err)
		c.JSON(500, gin.H{"error": "watchlist unavailable"})
		return
	}
	if symbols == nil {
		symbols = []string{}
	}
	c.JSON(200, gin.H{"symbols": symbols})
}

// -----------------------------------------------------------------------------

func (s *Server) putWatchlist(c *gin.Context) {
	var body struct {
		Symbols []string `json:"symbols"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(400, gin.H{"error": "malformed body"})
		return
	}

	if err := s.Store.SaveWatchlist(c.Param("userId"), body.Symbols); err != nil {
		s.Logger.Error("Watchlist save failed: %v", err)
		c.JSON(500, gin.H{"error": "watchlist save failed"})
		return
	}
	c.JSON(200, gin.H{"symbols": models.CanonicalSymbols(body.Symbols)})
}
