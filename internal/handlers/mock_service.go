package handlers

import (
	"context"
	"net/http"
	"time"

	"co2_ampel/internal/config"
	"co2_ampel/internal/models"
	"co2_ampel/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	enabled       bool
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastGenUsername string
	lastGenPassword string
	lastParseToken  string
}

func (m *mockAuth) Enabled() bool                  { return m.enabled }
func (m *mockAuth) Seed(ctx context.Context) error { return nil }
func (m *mockAuth) GenerateToken(ctx context.Context, username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockCalibration struct {
	err        error
	calls      int
	lastSource string
}

func (m *mockCalibration) Request(ctx context.Context, source string) (service.CalibrationAck, error) {
	m.calls++
	m.lastSource = source
	if m.err != nil {
		return service.CalibrationAck{}, m.err
	}
	return service.CalibrationAck{Source: source, ClockMS: 1234, Queued: time.Now().UTC()}, nil
}

type mockMonitoring struct {
	state models.DeviceState
	err   error
	calls int
}

func (m *mockMonitoring) GetState(ctx context.Context) (models.DeviceState, error) {
	m.calls++
	return m.state, m.err
}

type mockEventLog struct {
	resp     []models.DeviceEvent
	err      error
	calls    int
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.DeviceEvent, error) {
	m.calls++
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	return newTestRouterWith(s, config.HTTPConfig{})
}

func newTestRouterWith(s *service.Service, cfg config.HTTPConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewHandler(s, nil, cfg).InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
