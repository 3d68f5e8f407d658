// Package api exposes the trading core over HTTP for dashboards and tools.
package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"autotrader/internal/controller"
	"autotrader/internal/events"
	"autotrader/internal/indicators"
	"autotrader/internal/marketdata"
	"autotrader/internal/signal"
	"autotrader/pkg/db"
	"autotrader/pkg/exchanges/common"
)

// Server wires HTTP endpoints around the controller and market cache.
type Server struct {
	Router    *gin.Engine
	Ctrl      *controller.Controller
	Cache     *marketdata.Cache
	Bus       *events.Bus
	Users     *db.Queries
	JWTSecret string
	Meta      SystemMeta
}

// SystemMeta describes runtime status exposed to the UI.
type SystemMeta struct {
	Venue   string   `json:"venue"`
	Testnet bool     `json:"testnet"`
	Symbols []string `json:"symbols"`
	Version string   `json:"version"`
}

// NewServer builds the router with the standard middleware stack.
func NewServer(ctrl *controller.Controller, cache *marketdata.Cache, bus *events.Bus, users *db.Queries, meta SystemMeta, jwtSecret string) *Server {
	r := gin.New()

	// Order matters: recover first, tag, log, then throttle.
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(RequestLogger())
	r.Use(RateLimitMiddleware())
	r.Use(TimeoutMiddleware(30 * time.Second))
	r.Use(CORSMiddleware())

	s := &Server{
		Router:    r,
		Ctrl:      ctrl,
		Cache:     cache,
		Bus:       bus,
		Users:     users,
		JWTSecret: jwtSecret,
		Meta:      meta,
	}
	s.routes()
	return s
}

// Start blocks serving HTTP on addr.
func (s *Server) Start(addr string) error {
	return s.Router.Run(addr)
}

func (s *Server) routes() {
	s.Router.GET("/health", s.health)
	s.Router.GET("/ws", s.websocket)

	api := s.Router.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", s.registerUser)
			auth.POST("/login", s.loginUser)
		}

		protected := api.Group("")
		protected.Use(AuthMiddleware(s.JWTSecret))
		{
			protected.GET("/status", s.getStatus)

			protected.POST("/trading/enable", s.enableTrading)
			protected.POST("/trading/disable", s.disableTrading)
			protected.POST("/trading/execute", s.executeSignal)

			protected.GET("/orders", s.getOrders)
			protected.GET("/orders/:id", s.getOrderByID)
			protected.POST("/orders/:id/cancel", s.cancelOrder)

			protected.GET("/balance", s.getBalance)

			protected.GET("/market/:symbol", s.getSnapshot)
			protected.GET("/market/:symbol/klines", s.getKlines)
			protected.GET("/market/:symbol/indicators", s.getIndicators)
		}
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now()})
}

func (s *Server) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"meta":    s.Meta,
		"enabled": s.Ctrl.Enabled(),
	})
}

func (s *Server) enableTrading(c *gin.Context) {
	s.Ctrl.Enable()
	c.JSON(http.StatusOK, gin.H{"enabled": true})
}

func (s *Server) disableTrading(c *gin.Context) {
	s.Ctrl.Disable()
	c.JSON(http.StatusOK, gin.H{"enabled": false})
}

func (s *Server) executeSignal(c *gin.Context) {
	var sig signal.Signal
	if err := c.BindJSON(&sig); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signal payload"})
		return
	}
	if sig.Timestamp.IsZero() {
		sig.Timestamp = time.Now()
	}

	res, err := s.Ctrl.ExecuteSignal(c.Request.Context(), sig)
	switch {
	case errors.Is(err, controller.ErrNotEnabled):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, orderView(res))
}

func (s *Server) getOrders(c *gin.Context) {
	orders := s.Ctrl.GetOrders()
	out := make([]gin.H, 0, len(orders))
	for _, o := range orders {
		out = append(out, orderView(o))
	}
	c.JSON(http.StatusOK, gin.H{"orders": out, "count": len(out)})
}

func (s *Server) getOrderByID(c *gin.Context) {
	order, ok := s.Ctrl.GetOrderByID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	c.JSON(http.StatusOK, orderView(order))
}

func (s *Server) cancelOrder(c *gin.Context) {
	if !s.Ctrl.CancelOrder(c.Request.Context(), c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": true})
}

func (s *Server) getBalance(c *gin.Context) {
	balances, err := s.Ctrl.GetAccountBalance(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"balances": balances})
}

func (s *Server) getSnapshot(c *gin.Context) {
	symbol := c.Param("symbol")

	if c.Query("fetch") == "true" {
		snap, err := s.Cache.Fetch(c.Request.Context(), symbol)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, snap)
		return
	}

	snap, ok := s.Cache.GetCached(symbol)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no snapshot for symbol"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) getKlines(c *gin.Context) {
	symbol := c.Param("symbol")
	interval := c.DefaultQuery("interval", "1h")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	klines, err := s.Cache.Klines(c.Request.Context(), symbol, interval, limit)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"klines": klines, "count": len(klines)})
}

func (s *Server) getIndicators(c *gin.Context) {
	symbol := c.Param("symbol")
	interval := c.DefaultQuery("interval", "1h")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	klines, err := s.Cache.Klines(c.Request.Context(), symbol, interval, limit)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	prices := make([]float64, 0, len(klines))
	for _, k := range klines {
		prices = append(prices, k.Close)
	}
	c.JSON(http.StatusOK, gin.H{
		"symbol":     symbol,
		"interval":   interval,
		"samples":    len(prices),
		"indicators": indicators.Compute(prices),
	})
}

func orderView(o common.OrderResult) gin.H {
	return gin.H{
		"orderId":       o.OrderID,
		"symbol":        o.Symbol,
		"side":          o.Side,
		"qty":           o.Qty,
		"price":         o.Price,
		"status":        o.Status,
		"reason":        o.Reason,
		"fees":          o.Fees,
		"executedQty":   o.ExecutedQty,
		"executedPrice": o.ExecutedPrice,
		"timestamp":     o.Timestamp,
	}
}
