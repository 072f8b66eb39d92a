package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"game-stock-advisor/console/internal/advisor"
	"game-stock-advisor/console/internal/render"
	"game-stock-advisor/console/internal/view"
)

const (
	sessionCookie = "gsa_session"
	sessionKey    = "session_id"
)

// Config defines server dependencies.
type Config struct {
	Dispatcher     advisor.Dispatcher
	Years          *advisor.YearCache
	BackendURL     string
	AllowedOrigins []string
	TrainCooldown  time.Duration
	ScrollDelay    time.Duration
	SessionTTL     time.Duration
}

// Server wires the console pages and workflows to the model backend.
type Server struct {
	dispatcher     advisor.Dispatcher
	years          *advisor.YearCache
	renderer       *render.Renderer
	sessions       *view.Registry
	notifier       *SnapshotNotifier
	allowedOrigins []string
	backendURL     string
	trainFlight    singleflight.Group
}

// NewServer constructs the console server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Dispatcher == nil {
		return nil, errors.New("dispatcher required")
	}
	notifier := NewSnapshotNotifier()
	return &Server{
		dispatcher:     cfg.Dispatcher,
		years:          cfg.Years,
		renderer:       render.NewRenderer(cfg.ScrollDelay),
		sessions:       view.NewRegistry(cfg.TrainCooldown, cfg.SessionTTL, notifier.Publish),
		notifier:       notifier,
		allowedOrigins: cfg.AllowedOrigins,
		backendURL:     cfg.BackendURL,
	}, nil
}

// Sessions exposes the session registry so callers can run its sweeper.
func (s *Server) Sessions() *view.Registry {
	return s.sessions
}

// Router configures gin routes.
func (s *Server) Router() (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		corsCfg := cors.DefaultConfig()
		if len(s.allowedOrigins) == 0 {
			corsCfg.AllowAllOrigins = true
		} else {
			corsCfg.AllowOrigins = s.allowedOrigins
		}
		corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
		corsCfg.AllowMethods = []string{"GET", "OPTIONS"}
		api.Use(cors.New(corsCfg))

		api.GET("/healthz", s.handleHealth)
		api.GET("/config", s.handleConfig)
	}

	ui := r.Group("/", s.withSession)
	{
		ui.GET("/", s.handleIndex)
		ui.GET("/ui/state", s.handleState)
		ui.GET("/ui/years", s.handleYears)
		ui.GET("/ui/stream", s.handleStream)
		ui.POST("/ui/train", s.handleTrain)
		ui.POST("/ui/predict", s.handlePredict)
	}

	return r, nil
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logrus.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.FullPath(),
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		}).Debug("request served")
	}
}

// withSession resolves the browser session from its cookie, issuing a new
// id when the cookie is missing or malformed.
func (s *Server) withSession(c *gin.Context) {
	id, err := c.Cookie(sessionCookie)
	if err != nil || uuid.Validate(id) != nil {
		id = uuid.NewString()
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(sessionCookie, id, 0, "/", "", false, true)
	}
	c.Set(sessionKey, id)
	c.Next()
}

func (s *Server) session(c *gin.Context) (string, *view.Presenter) {
	id := c.GetString(sessionKey)
	return id, s.sessions.Get(id)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleConfig(c *gin.Context) {
	var years []int
	if s.years != nil {
		years = s.years.Years()
	}
	c.JSON(http.StatusOK, gin.H{
		"backend_url":    s.backendURL,
		"sessions":       s.sessions.Len(),
		"stream_clients": s.notifier.Count(),
		"years":          len(years),
	})
}

func (s *Server) handleState(c *gin.Context) {
	_, p := s.session(c)
	c.JSON(http.StatusOK, p.Snapshot())
}

func (s *Server) handleYears(c *gin.Context) {
	if s.years == nil {
		c.JSON(http.StatusOK, gin.H{"years": []int{}})
		return
	}
	s.years.Refresh(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"years": s.years.Years()})
}

func (s *Server) handleTrain(c *gin.Context) {
	id, p := s.session(c)
	status, _ := s.runTraining(c.Request.Context(), id, p)
	c.JSON(status, p.Snapshot())
}

func (s *Server) handlePredict(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	id, p := s.session(c)
	status, _ := s.runPrediction(c.Request.Context(), id, p, c.Request.PostForm)
	c.JSON(status, p.Snapshot())
}

func (s *Server) handleStream(c *gin.Context) {
	upgrader := websocket.Upgrader{
		HandshakeTimeout:  5 * time.Second,
		EnableCompression: true,
		CheckOrigin: func(r *http.Request) bool {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin == "" || len(s.allowedOrigins) == 0 {
				return sameHost(origin, r.Host)
			}
			for _, allowed := range s.allowedOrigins {
				if strings.EqualFold(origin, allowed) {
					return true
				}
			}
			return sameHost(origin, r.Host)
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("upgrade websocket")
		return
	}

	id := c.GetString(sessionKey)
	p := s.sessions.Attach(id)
	client := s.notifier.Register(conn, id, p.Snapshot())
	streamClients.Inc()
	logrus.WithField("remote", conn.RemoteAddr().String()).Debug("snapshot stream connected")
	defer func() {
		s.notifier.Unregister(client)
		s.sessions.Detach(id)
		streamClients.Dec()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithField("remote", conn.RemoteAddr().String()).Debug("snapshot stream closed")
			} else {
				logrus.WithError(err).Warn("snapshot stream unexpected close")
			}
			break
		}
	}
}

func sameHost(origin, host string) bool {
	if origin == "" {
		return true
	}
	trimmed := strings.TrimPrefix(strings.TrimPrefix(origin, "https://"), "http://")
	return strings.EqualFold(trimmed, host)
}

func (s *Server) renderError(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}
