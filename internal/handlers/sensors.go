package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"thermal_telemetry/internal/service"
)

const (
	errChipFeatureRequired = "query parameters 'chip' and 'feature' are required"
	errMinutesInvalid      = "invalid 'minutes'; use a positive integer"
	errSensorNotFound      = "sensor not found"
	errLoadState           = "failed to load sensor state"
	errJournalDisabled     = "event journal is disabled"

	maxHistoryMinutes = 7 * 24 * 60
)

// @Summary      List sensors
// @Description  Every sensor seen so far with its latest reading, statistics over retained history, threshold and alert state.
// @Tags         sensors
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, sensors"
// @Router       /api/v1/sensors [get]
func (h *Handler) getSensors(c *gin.Context) {
	views := h.services.Monitoring.Sensors()
	c.JSON(http.StatusOK, gin.H{
		"count":   len(views),
		"sensors": views,
	})
}

// @Summary      Sensor history
// @Description  Retained readings of one sensor, oldest first. 'minutes' limits the window to the last N minutes.
// @Tags         sensors
// @Produce      json
// @Param        chip     query  string  true   "Chip label"     example(coretemp-isa-0000)
// @Param        feature  query  string  true   "Feature label"  example(Core 0)
// @Param        minutes  query  int     false  "Only readings from the last N minutes"
// @Success      200  {object}  map[string]interface{}  "identity, count, readings"
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/sensors/history [get]
func (h *Handler) getHistory(c *gin.Context) {
	chip := strings.TrimSpace(c.Query("chip"))
	feature := strings.TrimSpace(c.Query("feature"))
	if chip == "" || feature == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": errChipFeatureRequired})
		return
	}

	var since time.Time
	if qs := c.Query("minutes"); qs != "" {
		n, err := strconv.Atoi(qs)
		if err != nil || n <= 0 || n > maxHistoryMinutes {
			c.JSON(http.StatusBadRequest, gin.H{"error": errMinutesInvalid})
			return
		}
		since = time.Now().Add(-time.Duration(n) * time.Minute)
	}

	id, ok := h.services.Monitoring.Lookup(chip, feature)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": errSensorNotFound})
		return
	}
	readings, ok := h.services.Monitoring.History(id, since)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": errSensorNotFound})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"identity": id,
		"count":    len(readings),
		"readings": readings,
	})
}

// @Summary      Alert states
// @Tags         alerts
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, alerts"
// @Router       /api/v1/alerts [get]
func (h *Handler) getAlerts(c *gin.Context) {
	alerts := h.services.Monitoring.Alerts()
	c.JSON(http.StatusOK, gin.H{
		"count":  len(alerts),
		"alerts": alerts,
	})
}

// @Summary      Last known sensor state
// @Description  Persisted per-sensor state, available across restarts.
// @Tags         sensors
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, states"
// @Failure      500  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/v1/sensors/state [get]
func (h *Handler) getLastKnown(c *gin.Context) {
	states, err := h.services.Monitoring.LastKnown(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrJournalDisabled) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": errJournalDisabled})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errLoadState, "sensor_state_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":  len(states),
		"states": states,
	})
}
