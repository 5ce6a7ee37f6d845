// Package server exposes the catalog over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/tordrt/metacatalog/internal/executor"
	"github.com/tordrt/metacatalog/internal/schema"
	"github.com/tordrt/metacatalog/internal/statement"
)

// Catalog is what the HTTP surface needs from an open catalog
type Catalog interface {
	Execute(ctx context.Context, text string) (*executor.Outcome, error)
	Databases(ctx context.Context) ([]schema.Database, error)
	Tables(ctx context.Context, dbName string) ([]schema.Table, error)
}

// QueryRequest is the body of POST /api/query
type QueryRequest struct {
	SQLQuery string `json:"sql_query" binding:"required"`
}

const (
	msgNoTables     = "No tables found for this database."
	msgTablesFailed = "Failed to fetch tables. "
	msgBadRequest   = "Invalid request body: "

	shutdownTimeout = 10 * time.Second
)

type handler struct {
	catalog Catalog
	log     *slog.Logger
}

// New builds the gin engine serving cat
func New(cat Catalog, log *slog.Logger) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	corsConfig.MaxAge = 12 * time.Hour
	r.Use(cors.New(corsConfig))

	h := &handler{catalog: cat, log: log}

	api := r.Group("/api")
	{
		api.POST("/query", h.runQuery)
		api.GET("/databases", h.listDatabases)
		api.GET("/databases/:name/tables", h.listTables)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return r
}

func (h *handler) runQuery(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, executor.Outcome{
			Success: false,
			Message: msgBadRequest + err.Error(),
		})
		return
	}

	out, err := h.catalog.Execute(c.Request.Context(), req.SQLQuery)
	if err != nil {
		c.JSON(statusFor(err), executor.ErrorOutcome(err))
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *handler) listDatabases(c *gin.Context) {
	dbs, err := h.catalog.Databases(c.Request.Context())
	if err != nil {
		h.log.Error("failed to list databases", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch databases. " + err.Error()})
		return
	}

	names := make([]string, len(dbs))
	for i, d := range dbs {
		names[i] = d.Name
	}
	c.JSON(http.StatusOK, gin.H{"databases": names})
}

func (h *handler) listTables(c *gin.Context) {
	tables, err := h.catalog.Tables(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.log.Error("failed to list tables", "database", c.Param("name"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgTablesFailed + err.Error()})
		return
	}
	if len(tables) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": msgNoTables})
		return
	}

	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.Name
	}
	c.JSON(http.StatusOK, gin.H{"tables": names})
}

// statusFor maps an Execute error to its HTTP status. Statement errors are
// the caller's fault; everything else happened in the backend.
func statusFor(err error) int {
	var stmtErr *statement.Error
	switch {
	case errors.As(err, &stmtErr),
		errors.Is(err, statement.ErrUnsupportedStatement),
		errors.Is(err, statement.ErrDatabaseNameMissing):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// Run serves handler on addr until ctx is cancelled, then shuts down
// gracefully
func Run(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
