// Package server exposes the inbound deep-link HTTP surface. A shared
// property link resolves to the full record for its owner and to the
// stripped public view for everyone else.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/uptwnp/deal-network-sub001/internal/api"
	"github.com/uptwnp/deal-network-sub001/internal/auth"
	"github.com/uptwnp/deal-network-sub001/internal/property"
)

var (
	errMissingRecordSource     = errors.New("record source dependency required")
	errMissingSessionValidator = errors.New("session validator dependency required")
)

// RecordSource fetches a single property record by id.
type RecordSource interface {
	GetProperty(ctx context.Context, id property.PropertyID) (property.Property, error)
}

// SessionValidator screens the Authorization header of a request.
type SessionValidator interface {
	ValidateRequest(r *http.Request) (auth.Session, error)
}

// Dependencies wires the handler's collaborators.
type Dependencies struct {
	Records  RecordSource
	Sessions SessionValidator
	Logger   *zap.Logger
}

// NewHTTPHandler builds the gin router for the deep-link surface.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Records == nil {
		return nil, errMissingRecordSource
	}
	if deps.Sessions == nil {
		return nil, errMissingSessionValidator
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		records:  deps.Records,
		sessions: deps.Sessions,
		logger:   logger,
	}

	router.GET("/healthz", handler.handleHealth)
	router.GET("/p/:id", handler.handlePropertyLink)

	return router, nil
}

type httpHandler struct {
	records  RecordSource
	sessions SessionValidator
	logger   *zap.Logger
}

func (h *httpHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *httpHandler) handlePropertyLink(c *gin.Context) {
	rawID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	id, err := property.NewPropertyID(rawID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	record, err := h.records.GetProperty(c.Request.Context(), id)
	if err != nil {
		if api.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
			return
		}
		h.logger.Error("property lookup failed", zap.Int64("property_id", id.Int64()), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream_failed"})
		return
	}

	// The owner sees the full record. An invalid token is treated the
	// same as no token so stale sessions still reach the public view.
	if session, err := h.sessions.ValidateRequest(c.Request); err == nil && session.OwnerID.Int64() == record.OwnerID {
		c.JSON(http.StatusOK, record)
		return
	}

	if !record.IsPublic {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	c.JSON(http.StatusOK, record.PublicView())
}
