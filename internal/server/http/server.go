// Package httpserver exposes the inventory backend over REST.
package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/and161185/stock-keeper/internal/convert"
	"github.com/and161185/stock-keeper/internal/errs"
	"github.com/and161185/stock-keeper/internal/service"
)

// Pinger reports backend storage health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server wires services into HTTP handlers.
type Server struct {
	auth    service.AuthService
	inv     service.InventoryService
	db      Pinger
	signKey []byte
	log     *zap.Logger
}

// New constructs a server with injected services.
func New(auth service.AuthService, inv service.InventoryService, db Pinger, signKey []byte, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{auth: auth, inv: inv, db: db, signKey: signKey, log: log}
}

// Router builds the gin engine with every route and middleware.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(Recover(s.log), Logging(s.log), Metrics())

	r.GET("/healthz", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	v1.POST("/auth/token", s.issueKey)

	api := v1.Group("", RequireKey(s.signKey))
	api.GET("/inventory_items", s.listItems)
	api.POST("/inventory_items", s.createItems)
	api.PUT("/inventory_items/:id", s.putItem)
	api.DELETE("/inventory_items/:id", s.deleteItem)
	api.POST("/rpc/reduce_inventory_quantity", s.reduceQuantity)

	api.GET("/job_sites", s.listJobSites)
	api.POST("/job_sites", s.createJobSite)
	api.PUT("/job_sites/:id", s.putJobSite)

	api.GET("/job_site_usage", s.listUsage)
	api.POST("/job_site_usage", s.recordUsage)
	return r
}

func (s *Server) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := s.db.Ping(ctx); err != nil {
		s.log.Warn("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// fail maps domain errors to HTTP statuses.
func (s *Server) fail(c *gin.Context, op string, err error) {
	var ve *errs.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, convert.ErrorResponse{Error: ve.Reason, Field: ve.Field})
	case errors.Is(err, errs.ErrValidation):
		c.JSON(http.StatusBadRequest, convert.ErrorResponse{Error: err.Error()})
	case errors.Is(err, errs.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, convert.ErrorResponse{Error: "bad credentials"})
	case errors.Is(err, errs.ErrNotFound):
		c.JSON(http.StatusNotFound, convert.ErrorResponse{Error: "not found"})
	case errors.Is(err, errs.ErrConflict):
		c.JSON(http.StatusConflict, convert.ErrorResponse{Error: err.Error()})
	case errors.Is(err, errs.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, convert.ErrorResponse{Error: "rate limited"})
	default:
		s.log.Error(op, zap.Error(err))
		c.JSON(http.StatusInternalServerError, convert.ErrorResponse{Error: "internal"})
	}
}

func badBody(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, convert.ErrorResponse{Error: "bad body: " + err.Error()})
}

// --- Auth ---

func (s *Server) issueKey(c *gin.Context) {
	var req convert.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}
	tok, exp, err := s.auth.IssueKey(c.Request.Context(), req.Secret, c.ClientIP())
	if err != nil {
		s.fail(c, "issue key", err)
		return
	}
	c.JSON(http.StatusOK, convert.TokenResponse{Token: tok, ExpiresAt: exp})
}

// --- Items ---

func (s *Server) listItems(c *gin.Context) {
	items, err := s.inv.ListItems(c.Request.Context())
	if err != nil {
		s.fail(c, "list items", err)
		return
	}
	c.JSON(http.StatusOK, convert.ToItemDTOs(items))
}

func (s *Server) createItems(c *gin.Context) {
	var body []convert.ItemDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		badBody(c, err)
		return
	}
	items, err := s.inv.CreateItems(c.Request.Context(), convert.FromItemDTOs(body))
	if err != nil {
		s.fail(c, "create items", err)
		return
	}
	c.JSON(http.StatusCreated, convert.ToItemDTOs(items))
}

func (s *Server) putItem(c *gin.Context) {
	var body convert.ItemDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		badBody(c, err)
		return
	}
	it := convert.FromItemDTO(body)
	it.ID = c.Param("id")
	out, err := s.inv.PutItem(c.Request.Context(), it)
	if err != nil {
		s.fail(c, "put item", err)
		return
	}
	c.JSON(http.StatusOK, convert.ToItemDTO(out))
}

func (s *Server) deleteItem(c *gin.Context) {
	if err := s.inv.DeleteItem(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, "delete item", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) reduceQuantity(c *gin.Context) {
	var req convert.ReduceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}
	left, err := s.inv.ReduceQuantity(c.Request.Context(), req.ItemID, req.QuantityToReduce)
	if err != nil {
		s.fail(c, "reduce quantity", err)
		return
	}
	stockMovements.WithLabelValues("rpc").Add(float64(req.QuantityToReduce))
	c.JSON(http.StatusOK, convert.ReduceResponse{Quantity: left})
}

// --- Job sites ---

func (s *Server) listJobSites(c *gin.Context) {
	sites, err := s.inv.ListJobSites(c.Request.Context())
	if err != nil {
		s.fail(c, "list job sites", err)
		return
	}
	c.JSON(http.StatusOK, convert.ToJobSiteDTOs(sites))
}

func (s *Server) createJobSite(c *gin.Context) {
	var body convert.JobSiteDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		badBody(c, err)
		return
	}
	js, err := s.inv.PutJobSite(c.Request.Context(), convert.FromJobSiteDTO(body))
	if err != nil {
		s.fail(c, "create job site", err)
		return
	}
	c.JSON(http.StatusCreated, convert.ToJobSiteDTO(js))
}

func (s *Server) putJobSite(c *gin.Context) {
	var body convert.JobSiteDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		badBody(c, err)
		return
	}
	js := convert.FromJobSiteDTO(body)
	js.ID = c.Param("id")
	out, err := s.inv.PutJobSite(c.Request.Context(), js)
	if err != nil {
		s.fail(c, "put job site", err)
		return
	}
	c.JSON(http.StatusOK, convert.ToJobSiteDTO(out))
}

// --- Usage ---

func (s *Server) listUsage(c *gin.Context) {
	usage, err := s.inv.ListUsage(c.Request.Context())
	if err != nil {
		s.fail(c, "list usage", err)
		return
	}
	c.JSON(http.StatusOK, convert.ToUsageDTOs(usage))
}

func (s *Server) recordUsage(c *gin.Context) {
	var body convert.UsageDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		badBody(c, err)
		return
	}
	rec, created, err := s.inv.RecordUsage(c.Request.Context(), convert.FromUsageDTO(body))
	if err != nil {
		s.fail(c, "record usage", err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
		stockMovements.WithLabelValues("usage").Add(float64(rec.QuantityUsed))
	}
	c.JSON(status, convert.ToUsageDTO(rec))
}
