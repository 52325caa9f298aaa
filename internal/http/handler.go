package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"go.ngs.io/oceanprep/internal/usecase"
)

// Handler handles HTTP requests for prepared products.
type Handler struct {
	inspectUC *usecase.InspectUseCase
}

// NewHandler creates a new HTTP handler.
func NewHandler(inspectUC *usecase.InspectUseCase) *Handler {
	return &Handler{
		inspectUC: inspectUC,
	}
}

// ListProducts handles GET /v1/products.
func (h *Handler) ListProducts(c *gin.Context) {
	products := h.inspectUC.Products()
	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"count":    len(products),
	})
}

// DescribeProduct handles GET /v1/products/:name.
func (h *Handler) DescribeProduct(c *gin.Context) {
	d, err := h.inspectUC.Describe(c.Param("name"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// GetProfile handles GET /v1/products/:name/profile.
func (h *Handler) GetProfile(c *gin.Context) {
	lat, err := parseFloatParam(c, "lat", -90, 90)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	lon, err := parseFloatParam(c, "lon", -180, 360)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	month := 1
	if s := c.Query("month"); s != "" {
		month, err = strconv.Atoi(s)
		if err != nil || month < 1 || month > 12 {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid month %q: expected 1-12", s)})
			return
		}
	}

	p, err := h.inspectUC.Profile(c.Param("name"), lat, lon, month)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func parseFloatParam(c *gin.Context, name string, lo, hi float64) (float64, error) {
	s := c.Query(name)
	if s == "" {
		return 0, fmt.Errorf("%s parameter is required", name)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", name, err)
	}
	if v < lo || v > hi {
		return 0, fmt.Errorf("%s must be between %g and %g", name, lo, hi)
	}
	return v, nil
}

func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, usecase.ErrUnknownProduct), errors.Is(err, usecase.ErrNotPrepared):
		status = http.StatusNotFound
	case errors.Is(err, usecase.ErrOutsideGrid):
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
