package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"co2_ampel/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingJournal captures List arguments.
type recordingJournal struct {
	from, to time.Time
	typ      string
	calls    int

	events []models.DeviceEvent
	err    error
}

func (j *recordingJournal) Append(ctx context.Context, e models.DeviceEvent) error { return nil }

func (j *recordingJournal) List(ctx context.Context, from, to time.Time, typ string) ([]models.DeviceEvent, error) {
	j.calls++
	j.from, j.to, j.typ = from, to, typ
	return j.events, j.err
}

func TestLogFilter_Normalized(t *testing.T) {
	t.Parallel()

	plus2 := time.FixedZone("CEST", 2*3600)
	tests := []struct {
		name    string
		in      LogFilter
		want    LogFilter
		wantErr error
	}{
		{name: "empty filter", in: LogFilter{}, want: LogFilter{}},
		{
			name: "bounds converted to UTC",
			in: LogFilter{
				From: time.Date(2025, 9, 10, 10, 0, 0, 0, plus2),
				To:   time.Date(2025, 9, 10, 12, 0, 0, 0, time.UTC),
				Type: " zero_command ",
			},
			want: LogFilter{
				From: time.Date(2025, 9, 10, 8, 0, 0, 0, time.UTC),
				To:   time.Date(2025, 9, 10, 12, 0, 0, 0, time.UTC),
				Type: models.EventZeroCommand,
			},
		},
		{
			name: "only lower bound",
			in:   LogFilter{From: time.Date(2025, 1, 1, 1, 0, 0, 0, plus2), Type: "sensor_error"},
			want: LogFilter{From: time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC), Type: models.EventSensorError},
		},
		{
			name: "reversed range",
			in: LogFilter{
				From: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
				To:   time.Date(2025, 1, 1, 23, 0, 0, 0, time.UTC),
			},
			wantErr: errInvalidTimeRange,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := tc.in.normalized()
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.From.Equal(tc.want.From), "from %v, want %v", got.From, tc.want.From)
			assert.True(t, got.To.Equal(tc.want.To), "to %v, want %v", got.To, tc.want.To)
			assert.Equal(t, tc.want.Type, got.Type)
			if !got.From.IsZero() {
				assert.Equal(t, time.UTC, got.From.Location())
			}
		})
	}
}

func TestEventLogService_List(t *testing.T) {
	t.Parallel()

	j := &recordingJournal{events: []models.DeviceEvent{{EventID: "1", Type: models.EventPublishFailed}}}
	svc := NewEventLogService(j)

	from := time.Date(2025, 10, 1, 10, 0, 0, 0, time.FixedZone("UTC+5", 5*3600))
	out, err := svc.List(context.Background(), LogFilter{From: from, Type: "publish_failed"})
	require.NoError(t, err)
	require.Len(t, out, 1)

	assert.Equal(t, 1, j.calls)
	assert.True(t, j.from.Equal(time.Date(2025, 10, 1, 5, 0, 0, 0, time.UTC)))
	assert.True(t, j.to.IsZero())
	assert.Equal(t, models.EventPublishFailed, j.typ)
}

func TestEventLogService_List_Errors(t *testing.T) {
	t.Parallel()

	j := &recordingJournal{}
	svc := NewEventLogService(j)
	_, err := svc.List(context.Background(), LogFilter{
		From: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, errInvalidTimeRange)
	assert.Zero(t, j.calls, "journal must not be queried for an invalid range")

	j.err = errors.New("db down")
	_, err = svc.List(context.Background(), LogFilter{})
	assert.ErrorIs(t, err, j.err)
	assert.Equal(t, 1, j.calls)
}
