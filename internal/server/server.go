// Package server exposes a read-only HTTP API over the in-memory state for
// UI collaborators. It never mutates; responses are eventually-consistent
// snapshots.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"bandwatch/internal/market"
)

// UniverseView is the read surface of the universe manager.
type UniverseView interface {
	Streamed() []*market.Stock
	Indices() []market.Index
}

// EngineView is the read surface of the limit strategy engine.
type EngineView interface {
	Started() bool
	UpperAlerts() []market.LimitAlert
	LowerAlerts() []market.LimitAlert
}

// StreamView is the read surface of the transport connection.
type StreamView interface {
	Connected() bool
	Receiving() bool
}

// Server serves the read-only API.
type Server struct {
	universe UniverseView
	engine   EngineView
	stream   StreamView
	logger   *logrus.Logger
}

// New wires the API server.
func New(universe UniverseView, engine EngineView, streamView StreamView, logger *logrus.Logger) *Server {
	return &Server{universe: universe, engine: engine, stream: streamView, logger: logger}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	api := router.Group("/api")
	{
		api.GET("/status", s.getStatus)
		api.GET("/stocks", s.getStocks)
		api.GET("/indices", s.getIndices)
		api.GET("/alerts/upper", s.getUpperAlerts)
		api.GET("/alerts/lower", s.getLowerAlerts)
	}
	return router
}

// Run blocks serving the API on addr.
func (s *Server) Run(addr string) error {
	s.logger.Infof("API listening on %s", addr)
	return s.Router().Run(addr)
}

type stockResponse struct {
	FIGI          string  `json:"figi"`
	Ticker        string  `json:"ticker"`
	Alias         string  `json:"alias,omitempty"`
	Currency      string  `json:"currency"`
	Price         float64 `json:"price"`
	ChangePercent float64 `json:"change_percent"`
	LimitUp       float64 `json:"limit_up"`
	LimitDown     float64 `json:"limit_down"`
}

func (s *Server) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"stream_connected": s.stream.Connected(),
		"stream_receiving": s.stream.Receiving(),
		"strategy_started": s.engine.Started(),
	})
}

func (s *Server) getStocks(c *gin.Context) {
	stocks := s.universe.Streamed()
	out := make([]stockResponse, 0, len(stocks))
	for _, st := range stocks {
		resp := stockResponse{
			FIGI:          st.FIGI(),
			Ticker:        st.Ticker(),
			Alias:         st.Alias,
			Currency:      st.Instrument.Currency,
			Price:         st.PriceNow(),
			ChangePercent: st.PriceChangePercent(),
		}
		if info, ok := st.Info(); ok {
			resp.LimitUp = info.LimitUp
			resp.LimitDown = info.LimitDown
		}
		out = append(out, resp)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getIndices(c *gin.Context) {
	c.JSON(http.StatusOK, s.universe.Indices())
}

func (s *Server) getUpperAlerts(c *gin.Context) {
	c.JSON(http.StatusOK, s.engine.UpperAlerts())
}

func (s *Server) getLowerAlerts(c *gin.Context) {
	c.JSON(http.StatusOK, s.engine.LowerAlerts())
}
