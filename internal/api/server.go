// Package api exposes the preview session over HTTP so a browser or
// another process can drive playback and editing.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/storyboard/internal/engine"
	"github.com/ivlev/storyboard/internal/export"
	"github.com/ivlev/storyboard/internal/geometry"
	"github.com/ivlev/storyboard/internal/render"
	"github.com/ivlev/storyboard/internal/timeline"
)

type Server struct {
	router    *gin.Engine
	session   *engine.Session
	submitter export.Submitter
}

// NewServer wires the routes. submitter may be nil, in which case export
// submission answers 501.
func NewServer(session *engine.Session, submitter export.Submitter) *Server {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	s := &Server{router: router, session: session, submitter: submitter}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/timeline", s.handleGetTimeline)
	s.router.PUT("/content", s.handlePutContent)
	s.router.PATCH("/scenes/:id", s.handlePatchScene)
	s.router.POST("/scenes/:index/select", s.handleSelectScene)
	s.router.POST("/play", s.handlePlay)
	s.router.POST("/pause", s.handlePause)
	s.router.POST("/seek", s.handleSeek)
	s.router.POST("/scrub", s.handleScrub)
	s.router.POST("/fit", s.handleFit)
	s.router.GET("/status", s.handleStatus)
	s.router.GET("/settings", s.handleGetSettings)
	s.router.PUT("/settings", s.handlePutSettings)
	s.router.PUT("/aspect", s.handlePutAspect)
	s.router.GET("/export", s.handleExport)
	s.router.POST("/export", s.handleSubmit)
	s.router.GET("/frame.png", s.handleFrame)
}

func (s *Server) Handler() http.Handler { return s.router }

// Run serves on addr and drives the playback clock until ctx ends
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router, ReadHeaderTimeout: 10 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := s.session.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		slog.Info("preview api listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("request", "method", c.Request.Method, "path", c.FullPath(),
			"status", c.Writer.Status(), "duration", time.Since(start))
	}
}

// fail maps engine errors onto HTTP status codes
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, timeline.ErrUnknownScene):
		status = http.StatusNotFound
	case errors.Is(err, timeline.ErrUnknownField),
		errors.Is(err, timeline.ErrInvalidValue),
		errors.Is(err, timeline.ErrDuplicateScene),
		errors.Is(err, geometry.ErrInvalidAspect):
		status = http.StatusBadRequest
	case errors.Is(err, export.ErrNoTimeline):
		status = http.StatusPreconditionFailed
	case errors.Is(err, engine.ErrStageInit):
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, ErrorResponse{Error: err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
}

func (s *Server) handleGetTimeline(c *gin.Context) {
	tl := s.session.Timeline()
	if tl == nil {
		fail(c, export.ErrNoTimeline)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"timeline":      tl,
		"totalDuration": tl.TotalDuration(),
	})
}

func (s *Server) handlePutContent(c *gin.Context) {
	var req ContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.session.ApplyContent(c.Request.Context(), req.Scenes); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.session.Timeline())
}

func (s *Server) handlePatchScene(c *gin.Context) {
	var req FieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.session.SetSceneField(c.Request.Context(), c.Param("id"), req.Field, req.Value); err != nil {
		fail(c, err)
		return
	}
	tl := s.session.Timeline()
	if i := tl.Index(c.Param("id")); i >= 0 {
		c.JSON(http.StatusOK, tl.Scenes[i])
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleSelectScene(c *gin.Context) {
	i, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "scene index must be an integer"})
		return
	}
	st, err := s.session.SelectScene(i)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, st)
}

func (s *Server) handlePlay(c *gin.Context) {
	s.session.Play()
	c.JSON(http.StatusOK, s.session.Status())
}

func (s *Server) handlePause(c *gin.Context) {
	s.session.Pause()
	c.JSON(http.StatusOK, s.session.Status())
}

func (s *Server) handleSeek(c *gin.Context) {
	var req SeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, s.session.Seek(*req.Ratio))
}

func (s *Server) handleScrub(c *gin.Context) {
	var req ScrubRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	switch req.Phase {
	case "begin":
		s.session.ScrubBegin(req.Ratio)
	case "move":
		s.session.ScrubMove(req.Ratio)
	case "end":
		s.session.ScrubEnd()
	}
	c.JSON(http.StatusOK, s.session.Status())
}

func (s *Server) handleFit(c *gin.Context) {
	var req FitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.session.FitDuration(c.Request.Context(), req.Seconds); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.session.Status())
}

func (s *Server) handleStatus(c *gin.Context) {
	st := s.session.Status()
	c.JSON(http.StatusOK, gin.H{"status": st, "label": st.Label()})
}

func (s *Server) handleGetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, s.session.Settings())
}

func (s *Server) handlePutSettings(c *gin.Context) {
	req := s.session.Settings()
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.session.SetSettings(c.Request.Context(), req); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.session.Settings())
}

func (s *Server) handlePutAspect(c *gin.Context) {
	var req AspectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.session.SetAspect(c.Request.Context(), req.Aspect); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"aspect": req.Aspect, "stage": s.session.Stage()})
}

func (s *Server) handleExport(c *gin.Context) {
	p, err := s.session.Export()
	if err != nil {
		fail(c, err)
		return
	}
	if c.Query("format") == "yaml" {
		data, err := p.YAML()
		if err != nil {
			fail(c, err)
			return
		}
		c.Data(http.StatusOK, "application/yaml", data)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleSubmit(c *gin.Context) {
	if s.submitter == nil {
		c.JSON(http.StatusNotImplemented, ErrorResponse{Error: "no render job endpoint configured"})
		return
	}
	p, err := s.session.Export()
	if err != nil {
		fail(c, err)
		return
	}
	r, err := s.submitter.Submit(c.Request.Context(), p)
	if err != nil {
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, SubmitResponse{Receipt: r, Payload: p})
}

type pngEncoder interface {
	EncodePNG(w io.Writer) error
}

func (s *Server) handleFrame(c *gin.Context) {
	err := s.session.WithSurface(func(surface render.Surface) error {
		enc, ok := surface.(pngEncoder)
		if !ok {
			c.JSON(http.StatusNotImplemented, ErrorResponse{Error: "surface cannot produce images"})
			return nil
		}
		c.Header("Content-Type", "image/png")
		c.Status(http.StatusOK)
		if err := enc.EncodePNG(c.Writer); err != nil {
			slog.Warn("failed to encode frame", "error", err)
		}
		return nil
	})
	if err != nil {
		fail(c, err)
	}
}
