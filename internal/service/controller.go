package service

import (
	"context"
	"time"

	"co2_ampel/internal/band"
	"co2_ampel/internal/button"
	"co2_ampel/internal/clock"
	"co2_ampel/internal/indicator"
	"co2_ampel/internal/logger"
	"co2_ampel/internal/models"
	"co2_ampel/internal/repository"
	"co2_ampel/internal/uplink"
)

// Default timings in milliseconds.
const (
	DefaultWarmupMS          = 180000
	DefaultZeroCalibrationMS = 1260000
	DefaultSampleIntervalMS  = 300000

	DefaultFrame = 10 * time.Millisecond
)

const (
	warmupLogMS     = 1000
	zeroLogMS       = 10000
	blinkHalfMS     = 500
	blinkCount      = 2
	snapshotEveryMS = 1000

	noProgress = ^uint32(0)
)

// SensorGateway is what the controller needs from the sensor.
type SensorGateway interface {
	Init(ctx context.Context) error
	RequestZeroCalibration(ctx context.Context) error
	Read(ctx context.Context) models.Measurement
	LastCode() models.SensorCode
}

// Display is the pixel renderer.
type Display interface {
	Solid(c indicator.RGB)
	Loading(percent uint8, phaseMS uint32)
	Off()
}

// Publisher is the network uplink.
type Publisher interface {
	Enabled() bool
	BringUp(ctx context.Context) bool
	Validate(ctx context.Context) bool
	Publish(ctx context.Context, m models.Measurement) bool
}

// EventSource yields pending calibration requests without blocking.
type EventSource interface {
	Poll() (button.Event, bool)
}

// Timings are the controller durations. Zero fields fall back to the defaults.
type Timings struct {
	WarmupMS          uint32
	ZeroCalibrationMS uint32
	SampleIntervalMS  uint32
}

func (t Timings) withDefaults() Timings {
	if t.WarmupMS == 0 {
		t.WarmupMS = DefaultWarmupMS
	}
	if t.ZeroCalibrationMS == 0 {
		t.ZeroCalibrationMS = DefaultZeroCalibrationMS
	}
	if t.SampleIntervalMS == 0 {
		t.SampleIntervalMS = DefaultSampleIntervalMS
	}
	return t
}

// phaseTimer is fixed at mode entry.
type phaseTimer struct {
	start    uint32
	duration uint32
}

func (p phaseTimer) elapsed(now uint32) uint32 { return clock.Elapsed(now, p.start) }

func (p phaseTimer) done(now uint32) bool { return p.elapsed(now) >= p.duration }

func (p phaseTimer) percent(now uint32) uint8 {
	if p.duration == 0 {
		return 100
	}
	pc := uint64(p.elapsed(now)) * 100 / uint64(p.duration)
	if pc > 100 {
		pc = 100
	}
	return uint8(pc)
}

// mode is one of *initialization, *zeroCalibration or *measurement.
type mode interface {
	name() models.Mode
}

type initialization struct {
	timer     phaseTimer
	loggedSec uint32
}

type zeroCalibration struct {
	timer      phaseTimer
	sendCmd    bool
	loggedStep uint32
}

type measurement struct {
	nextDeadline uint32
}

func (*initialization) name() models.Mode  { return models.ModeInitialization }
func (*zeroCalibration) name() models.Mode { return models.ModeZeroCalibration }
func (*measurement) name() models.Mode     { return models.ModeMeasurement }

// blink is the cyan error overlay: on/off blinkCount times, then the
// previous picture comes back.
type blink struct {
	start uint32
	frame int
}

// ControllerDeps are the collaborators of the controller. States and
// Journal may be nil.
type ControllerDeps struct {
	Clock   clock.Clock
	Sensor  SensorGateway
	Display Display
	Uplink  Publisher
	Events  EventSource
	States  repository.StateRepo
	Journal repository.EventRepo
	Timings Timings
	Log     *logger.Logger
}

// ControllerService is the device state machine. All of its state is owned
// by the goroutine calling Run (or Start/Step in tests).
type ControllerService struct {
	clk     clock.Clock
	sensor  SensorGateway
	display Display
	uplink  Publisher
	events  EventSource
	states  repository.StateRepo
	journal repository.EventRepo
	timings Timings
	log     *logger.Logger
	wall    func() time.Time

	mode     mode
	progress uint8
	link     uplink.State
	last     models.Measurement
	band     band.Band
	color    indicator.RGB
	hasColor bool
	errCodes []string
	blink    *blink

	dirty        bool
	lastSnapshot uint32
}

func NewControllerService(d ControllerDeps) *ControllerService {
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}
	return &ControllerService{
		clk:     d.Clock,
		sensor:  d.Sensor,
		display: d.Display,
		uplink:  d.Uplink,
		events:  d.Events,
		states:  d.States,
		journal: d.Journal,
		timings: d.Timings.withDefaults(),
		log:     log,
		wall:    time.Now,
	}
}

// Mode returns the current mode. Only safe from the controller goroutine.
func (c *ControllerService) Mode() models.Mode {
	if c.mode == nil {
		return models.ModeInitialization
	}
	return c.mode.name()
}

// Run starts the controller and steps it every frame until ctx is canceled.
// The pixel is switched off on the way out.
func (c *ControllerService) Run(ctx context.Context, frame time.Duration) {
	if frame <= 0 {
		frame = DefaultFrame
	}
	c.Start(ctx)

	t := time.NewTicker(frame)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			c.display.Off()
			c.log.Infow("controller stopped", "mode", c.Mode())
			return
		case <-t.C:
			c.Step(ctx)
		}
	}
}

// Start runs the setup sequence: sensor init and check, then Initialization.
func (c *ControllerService) Start(ctx context.Context) {
	if c.mode != nil {
		return
	}
	c.log.Infof("Setup: Initializing sensor")
	if err := c.sensor.Init(ctx); err != nil {
		c.log.Warnw("sensor init failed", "err", err)
	}
	now := c.clk.Millis()
	if code := c.sensor.LastCode(); code != models.SensorOK {
		c.sensorFailed(ctx, code, now)
	}
	if !c.uplink.Enabled() {
		c.log.Infof("No database configured, light only mode")
	}
	c.enter(ctx, &initialization{
		timer:     phaseTimer{start: now, duration: c.timings.WarmupMS},
		loggedSec: noProgress,
	})
	c.stepBlink(now)
	c.snapshot(ctx, now)
}

// Step runs one iteration of the main loop.
func (c *ControllerService) Step(ctx context.Context) {
	if c.mode == nil {
		c.Start(ctx)
	}
	now := c.clk.Millis()
	c.drainEvents(ctx, now)

	switch m := c.mode.(type) {
	case *initialization:
		c.stepInitialization(ctx, m, now)
	case *zeroCalibration:
		c.stepZeroCalibration(ctx, m, now)
	case *measurement:
		c.stepMeasurement(ctx, m, now)
	}
	c.stepBlink(c.clk.Millis())

	if c.dirty || clock.Elapsed(now, c.lastSnapshot) >= snapshotEveryMS {
		c.snapshot(ctx, now)
	}
}

func (c *ControllerService) drainEvents(ctx context.Context, now uint32) {
	if c.events == nil {
		return
	}
	for {
		ev, ok := c.events.Poll()
		if !ok {
			return
		}
		c.onCalibrationRequest(ctx, ev, now)
	}
}

// onCalibrationRequest (re-)enters ZeroCalibration with the timer starting
// at the press. A press stamped after now starts at now.
func (c *ControllerService) onCalibrationRequest(ctx context.Context, ev button.Event, now uint32) {
	start := ev.At
	if !clock.Reached(now, start) {
		start = now
	}
	c.log.Debugw("calibration request", "source", ev.Source, "at", ev.At)
	c.record(ctx, models.EventCalibrationRequest, "zero calibration requested",
		map[string]any{"source": ev.Source, "at_ms": ev.At})

	c.blink = nil
	c.enter(ctx, &zeroCalibration{
		timer:      phaseTimer{start: start, duration: c.timings.ZeroCalibrationMS},
		sendCmd:    true,
		loggedStep: noProgress,
	})
}

func (c *ControllerService) stepInitialization(ctx context.Context, m *initialization, now uint32) {
	if m.timer.done(now) {
		c.log.Infof("Switch to measurement mode.")
		c.enter(ctx, c.newMeasurement(now))
		return
	}
	el := m.timer.elapsed(now)
	if sec := el / warmupLogMS; sec != m.loggedSec {
		m.loggedSec = sec
		c.log.Infof("Initial calibration in progress: %d/%ds", sec+1, m.timer.duration/1000)
	}
	c.progress = m.timer.percent(now)
	if c.blink == nil {
		c.display.Loading(c.progress, el%indicator.RampCycleMS)
	}
}

func (c *ControllerService) stepZeroCalibration(ctx context.Context, m *zeroCalibration, now uint32) {
	if m.sendCmd {
		m.sendCmd = false
		c.display.Off()
		c.log.Infof("Start zero calibration progress.")
		err := c.sensor.RequestZeroCalibration(ctx)
		meta := map[string]any{"code": c.sensor.LastCode().String()}
		if err != nil {
			c.log.Errorw("zero calibration command failed", "err", err)
			meta["error"] = err.Error()
		}
		c.record(ctx, models.EventZeroCommand, "zero point command sent", meta)
	}
	if m.timer.done(now) {
		c.log.Infof("Switch to measurement mode.")
		c.enter(ctx, c.newMeasurement(now))
		return
	}
	el := m.timer.elapsed(now)
	if step := el / zeroLogMS; step != m.loggedStep {
		m.loggedStep = step
		c.log.Infof("Zero calibration in progress: %d/%ds", step*zeroLogMS/1000, m.timer.duration/1000)
	}
	c.progress = m.timer.percent(now)
	c.display.Loading(c.progress, el%indicator.RampCycleMS)
}

// newMeasurement aligns the first sample to the next interval boundary.
func (c *ControllerService) newMeasurement(now uint32) *measurement {
	iv := c.timings.SampleIntervalMS
	next := now
	if rem := now % iv; rem != 0 {
		next = now + (iv - rem)
	}
	return &measurement{nextDeadline: next}
}

// stepMeasurement runs at most one sample cycle per interval window. Windows
// missed while a cycle was blocking are skipped, not made up.
func (c *ControllerService) stepMeasurement(ctx context.Context, m *measurement, now uint32) {
	if !clock.Reached(now, m.nextDeadline) {
		return
	}
	c.sampleCycle(ctx, now)

	after := c.clk.Millis()
	for clock.Reached(after, m.nextDeadline) {
		m.nextDeadline += c.timings.SampleIntervalMS
	}
}

func (c *ControllerService) sampleCycle(ctx context.Context, now uint32) {
	m := c.sensor.Read(ctx)
	if !m.OK() {
		code := m.Code
		if code == models.SensorOK {
			code = models.SensorFilter
		}
		c.sensorFailed(ctx, code, now)
		return
	}

	c.errCodes = nil
	c.last = m
	c.band = band.Classify(m.CO2)
	c.color = c.band.Color()
	c.hasColor = true
	c.blink = nil
	c.dirty = true

	c.display.Solid(c.color)
	c.log.Infof("CO2 [ppm]: %4d, Temperature [C]: %.1f", m.CO2, m.TemperatureC)

	c.publish(ctx, m)
}

// publish checks both links and writes the sample only when both are up.
func (c *ControllerService) publish(ctx context.Context, m models.Measurement) {
	if !c.uplink.Enabled() {
		return
	}
	c.link.WifiUp = c.uplink.BringUp(ctx)
	c.link.DBUp = c.uplink.Validate(ctx)
	if !c.link.Ready() {
		c.record(ctx, models.EventPublishFailed, "uplink not ready",
			map[string]any{"wifi_up": c.link.WifiUp, "db_up": c.link.DBUp, "co2_ppm": m.CO2})
		return
	}
	if !c.uplink.Publish(ctx, m) {
		c.record(ctx, models.EventPublishFailed, "database write failed",
			map[string]any{"co2_ppm": m.CO2})
	}
}

func (c *ControllerService) sensorFailed(ctx context.Context, code models.SensorCode, now uint32) {
	c.log.Errorf("FAILED TO READ SENSOR! Error code: %d (%s)", code, code)
	c.errCodes = []string{"SENSOR_" + code.String()}
	c.dirty = true
	c.blink = &blink{start: now, frame: -1}
	c.record(ctx, models.EventSensorError, "sensor read failed", map[string]any{"code": code.String()})
}

// stepBlink advances the overlay. The first frame is cyan.
func (c *ControllerService) stepBlink(now uint32) {
	if c.blink == nil {
		return
	}
	frame := int(clock.Elapsed(now, c.blink.start) / blinkHalfMS)
	if frame >= 2*blinkCount {
		c.blink = nil
		c.restore()
		return
	}
	if frame == c.blink.frame {
		return
	}
	c.blink.frame = frame
	if frame%2 == 0 {
		c.display.Solid(indicator.Cyan)
	} else {
		c.display.Off()
	}
}

// restore puts back what the overlay covered. Loading frames redraw
// themselves on the next tick.
func (c *ControllerService) restore() {
	if _, ok := c.mode.(*measurement); !ok {
		return
	}
	if c.hasColor {
		c.display.Solid(c.color)
	} else {
		c.display.Off()
	}
}

func (c *ControllerService) enter(ctx context.Context, next mode) {
	prev := c.mode
	c.mode = next
	c.dirty = true
	if _, ok := next.(*measurement); ok {
		c.progress = 0
	}
	if prev == nil {
		return
	}
	c.log.Debugw("mode change", "from", prev.name(), "to", next.name())
	c.record(ctx, models.EventModeChange, "mode changed to "+string(next.name()),
		map[string]any{"from": prev.name(), "to": next.name()})
}

func (c *ControllerService) record(ctx context.Context, typ, desc string, meta map[string]any) {
	if c.journal == nil {
		return
	}
	err := c.journal.Append(ctx, models.DeviceEvent{
		OccurredAt:  c.wall().UTC(),
		Type:        typ,
		Description: desc,
		Metadata:    meta,
	})
	if err != nil {
		c.log.Warnw("journal append failed", "type", typ, "err", err)
	}
}

// State returns the status snapshot the controller would persist.
func (c *ControllerService) State() models.DeviceState {
	st := models.DeviceState{
		ID:              1,
		Mode:            c.Mode(),
		ProgressPercent: int(c.progress),
		CO2:             int(c.last.CO2),
		TemperatureC:    c.last.TemperatureC,
		WifiUp:          c.link.WifiUp,
		DBUp:            c.link.DBUp,
		UplinkEnabled:   c.uplink.Enabled(),
		ErrorCodes:      append([]string(nil), c.errCodes...),
		UpdatedAt:       c.wall().UTC(),
	}
	if c.hasColor {
		st.Band = c.band.String()
		st.Color = [3]uint8{c.color.R, c.color.G, c.color.B}
	}
	return st
}

func (c *ControllerService) snapshot(ctx context.Context, now uint32) {
	c.dirty = false
	c.lastSnapshot = now
	if c.states == nil {
		return
	}
	if err := c.states.Save(ctx, c.State()); err != nil {
		c.log.Warnw("state save failed", "err", err)
	}
}
