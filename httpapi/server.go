// Package httpapi serves conversions over HTTP.
package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/teranos/camio"
	"github.com/teranos/camio/config"
	"github.com/teranos/camio/hostscript"
	"github.com/teranos/camio/trip"
)

// MaxBodyBytes limits uploaded CamIO files.
const MaxBodyBytes = 64 << 20

// Server converts uploaded CamIO files with a default profile that query
// parameters can override per request.
type Server struct {
	defaults config.Config
	logger   *slog.Logger
	router   *gin.Engine
}

// convertQuery holds the per-request overrides of POST /api/convert.
type convertQuery struct {
	FrameRate    float64 `form:"fps"`
	Duration     float64 `form:"duration"`
	Width        float64 `form:"width"`
	Height       float64 `form:"height"`
	NativeAspect float64 `form:"native_aspect"`
	Mode         string  `form:"mode"`
	AcceptNewer  bool    `form:"accept_newer"`
	Format       string  `form:"format"` // sheet (default) or jsx
	CameraName   string  `form:"camera"`
}

// New creates a server. A nil logger discards.
func New(defaults config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{defaults: defaults, logger: logger}
	s.setRouter()
	return s
}

func (s *Server) setRouter() {
	r := gin.New()
	r.Use(gin.Recovery(), s.logRequests)

	api := r.Group("/api")
	{
		api.GET("/version", s.handleVersion)
		api.POST("/convert", s.handleConvert)
	}

	s.router = r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on addr until the server fails.
func (s *Server) Run(addr string) error {
	s.logger.Info("camio http api listening", "addr", addr)
	return s.router.Run(addr)
}

func (s *Server) logRequests(c *gin.Context) {
	start := time.Now()
	c.Next()
	s.logger.Info("request",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status", c.Writer.Status(),
		"elapsed", time.Since(start),
	)
}

// GET /api/version
func (s *Server) handleVersion(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"max_supported_version": s.defaults.MaxVersion,
		"rotation_modes":        []string{"auto", "matrix", "direct"},
	})
}

// POST /api/convert
func (s *Server) handleConvert(c *gin.Context) {
	q := convertQuery{
		FrameRate:    s.defaults.FrameRate,
		Duration:     s.defaults.Duration,
		Width:        s.defaults.Width,
		Height:       s.defaults.Height,
		NativeAspect: s.defaults.NativeAspect,
		Mode:         s.defaults.RotationMode,
		AcceptNewer:  s.defaults.VersionPolicy == config.VersionAccept,
		Format:       "sheet",
		CameraName:   s.defaults.CameraName,
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query: " + err.Error()})
		return
	}
	if q.Format != "sheet" && q.Format != "jsx" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be sheet or jsx"})
		return
	}

	cfg := s.defaults
	cfg.FrameRate, cfg.Duration = q.FrameRate, q.Duration
	cfg.Width, cfg.Height, cfg.NativeAspect = q.Width, q.Height, q.NativeAspect
	cfg.RotationMode = q.Mode
	if q.AcceptNewer {
		cfg.VersionPolicy = config.VersionAccept
	} else {
		cfg.VersionPolicy = config.VersionReject
	}
	if err := cfg.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	runID := uuid.NewString()
	body := http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)
	result, err := cfg.Converter().
		WithLogger(s.logger.With("run_id", runID)).
		Convert(body)
	if err != nil {
		s.writeConvertError(c, err)
		return
	}

	warnings := make([]string, 0, len(result.Warnings))
	for _, w := range result.Warnings {
		warnings = append(warnings, w.Error())
	}

	if q.Format == "jsx" {
		c.Header("X-Run-ID", runID)
		c.Header("Content-Disposition", `attachment; filename="camio-import.jsx"`)
		c.Header("Content-Type", "application/javascript; charset=utf-8")
		c.Status(http.StatusOK)
		opts := hostscript.Options{CameraName: q.CameraName, MinCompWidth: cfg.Width}
		if err := hostscript.Generate(c.Writer, result, opts); err != nil {
			s.logger.Error("script generation failed", "run_id", runID, "error", err)
		}
		return
	}

	if err := camio.CheckFinite(result.Frames); err != nil {
		s.writeConvertError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id":   runID,
		"sheet":    camio.NewSheet(result),
		"warnings": warnings,
		"dropped":  result.Dropped,
	})
}

func (s *Server) writeConvertError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "camio file exceeds upload limit"})
		return
	}

	t, ok := trip.As(err)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	switch t.Kind {
	case trip.UnsupportedVersionKind:
		c.JSON(http.StatusConflict, gin.H{
			"error":     t.Message,
			"kind":      t.Kind,
			"declared":  t.Int(trip.KeyDeclared),
			"supported": t.Int(trip.KeySupported),
		})
	case trip.InvalidParamsKind:
		c.JSON(http.StatusBadRequest, gin.H{"error": t.Message, "kind": t.Kind})
	default:
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   t.Message,
			"kind":    t.Kind,
			"context": t.Context,
		})
	}
}
