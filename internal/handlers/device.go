package handlers

import (
	"net/http"

	"co2_ampel/internal/button"

	"github.com/gin-gonic/gin"
)

const (
	statusOK     = "ok"
	statusQueued = "queued"

	errGetState    = "failed to load state"
	errCalibration = "failed to queue calibration"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}

// getState returns the last status snapshot written by the controller.
func (h *Handler) getState(c *gin.Context) {
	st, err := h.services.Monitoring.GetState(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetState, "device_get_state_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// requestCalibration is the remote calibration button. The controller
// switches to zero calibration on its next frame.
func (h *Handler) requestCalibration(c *gin.Context) {
	ack, err := h.services.Calibration.Request(c.Request.Context(), button.SourceHTTP)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errCalibration, "calibration_request_failed", err)
		return
	}
	if h.log != nil {
		operatorID, _ := c.Get(operatorCtxKey)
		h.log.Infow("calibration_requested", "operator_id", operatorID, "clock_ms", ack.ClockMS)
	}
	c.JSON(http.StatusAccepted, gin.H{"status": statusQueued, "ack": ack})
}
