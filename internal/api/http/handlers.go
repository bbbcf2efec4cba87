package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/AgentOS/appletd/internal/domain/am"
	"github.com/GriffinCanCode/AgentOS/appletd/internal/domain/applet"
	"github.com/GriffinCanCode/AgentOS/appletd/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/appletd/internal/kernel"
	"github.com/GriffinCanCode/AgentOS/appletd/internal/service"
)

// Version is reported by the root endpoint
const Version = "0.3.0"

// Handlers contains all admin HTTP handlers
type Handlers struct {
	applets   *applet.Registry
	directory *service.Registry
	metrics   *monitoring.Metrics
}

// NewHandlers creates a new handler set
func NewHandlers(applets *applet.Registry, directory *service.Registry, metrics *monitoring.Metrics) *Handlers {
	return &Handlers{
		applets:   applets,
		directory: directory,
		metrics:   metrics,
	}
}

// Root handles liveness
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "appletd",
		"version": Version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	_, broker := h.directory.Get(am.ServiceName)

	c.JSON(http.StatusOK, gin.H{
		"status":           "healthy",
		"applets":          h.applets.Stats(),
		"service_registry": h.directory.Stats(),
		"broker":           gin.H{"registered": broker},
		"ipc":              h.metrics.GetSnapshot(),
	})
}

// ListServices lists the published services and their command tables
func (h *Handlers) ListServices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"services": h.directory.List(),
		"stats":    h.directory.Stats(),
	})
}

// ListApplets lists every applet record
func (h *Handlers) ListApplets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"applets": h.applets.List(),
		"stats":   h.applets.Stats(),
	})
}

// GetApplet returns the record for one process
func (h *Handlers) GetApplet(c *gin.Context) {
	pid, err := strconv.ParseUint(c.Param("pid"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pid must be an unsigned integer"})
		return
	}

	a, ok := h.applets.Lookup(kernel.ProcessID(pid))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "applet not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"applet":     a,
		"generation": a.Generation(),
	})
}

// MetricsJSON returns the metrics snapshot as JSON
func (h *Handlers) MetricsJSON(c *gin.Context) {
	c.JSON(http.StatusOK, h.metrics.GetSnapshot())
}
