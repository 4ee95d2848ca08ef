// Package server is the remote completion store the tracker syncs
// against: a single endpoint that returns or replaces the full snapshot.
package server

import (
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fmizzell/chores"
)

// TasksPath is where the snapshot endpoint is mounted
const TasksPath = "/api/tasks"

const maxBodyBytes = 8 << 20

// Server serves the snapshot endpoint
type Server struct {
	store  Store
	router *gin.Engine
	logger *log.Logger
}

// New creates a server over store. A nil logger discards output.
func New(store Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())

	s := &Server{
		store:  store,
		router: router,
		logger: logger,
	}

	router.GET("/healthz", s.handleHealth)

	api := router.Group("/api")
	{
		api.GET("/tasks", s.handleLoad)
		api.POST("/tasks", s.handleSave)
	}

	return s
}

// ServeHTTP lets the server be mounted or tested with httptest
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleLoad(c *gin.Context) {
	entries, err := s.store.All(c.Request.Context())
	if err != nil {
		s.logger.Printf("load %s: %v", c.GetHeader(chores.RequestIDHeader), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read completions"})
		return
	}
	if entries == nil {
		entries = []chores.CompletedTask{}
	}
	c.JSON(http.StatusOK, chores.LoadResponse{Data: entries})
}

func (s *Server) handleSave(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}

	entries, err := chores.DecodeSaveRequest(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	entries = chores.Dedupe(entries)

	if err := s.store.ReplaceAll(c.Request.Context(), entries); err != nil {
		s.logger.Printf("save %s: %v", c.GetHeader(chores.RequestIDHeader), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store completions"})
		return
	}

	s.logger.Printf("save %s: stored %d entries", c.GetHeader(chores.RequestIDHeader), len(entries))
	c.JSON(http.StatusOK, gin.H{"saved": len(entries)})
}
