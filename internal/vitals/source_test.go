package vitals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vitals-app/internal/domain"
)

func TestReplaySource_UnsupportedType(t *testing.T) {
	src := NewReplaySource(domain.EntryPaint)

	assert.True(t, src.Supports(domain.EntryPaint))
	assert.False(t, src.Supports(domain.EntryLayoutShift))

	h, err := src.Observe(domain.EntryLayoutShift, ObserveOptions{}, func([]domain.Entry) {})
	assert.ErrorIs(t, err, ErrUnsupportedEntryType)
	assert.Nil(t, h)
}

func TestReplaySource_BufferedReplay(t *testing.T) {
	src := NewReplaySource()
	src.Dispatch(domain.Entry{EntryType: domain.EntryPaint, Name: "first-paint", StartTime: 10})

	var unbuffered, buffered []domain.Entry
	_, err := src.Observe(domain.EntryPaint, ObserveOptions{}, func(es []domain.Entry) {
		unbuffered = append(unbuffered, es...)
	})
	require.NoError(t, err)
	_, err = src.Observe(domain.EntryPaint, ObserveOptions{Buffered: true}, func(es []domain.Entry) {
		buffered = append(buffered, es...)
	})
	require.NoError(t, err)

	assert.Empty(t, unbuffered)
	assert.Len(t, buffered, 1)

	src.Dispatch(domain.Entry{EntryType: domain.EntryPaint, Name: "first-contentful-paint", StartTime: 20})
	assert.Len(t, unbuffered, 1)
	assert.Len(t, buffered, 2)
}

func TestReplaySource_DurationThreshold(t *testing.T) {
	src := NewReplaySource()

	var got []domain.Entry
	_, err := src.Observe(domain.EntryEvent, ObserveOptions{DurationThreshold: 40}, func(es []domain.Entry) {
		got = append(got, es...)
	})
	require.NoError(t, err)

	src.Dispatch(
		domain.Entry{EntryType: domain.EntryEvent, InteractionID: 1, Duration: 16},
		domain.Entry{EntryType: domain.EntryEvent, InteractionID: 2, Duration: 48},
	)
	require.Len(t, got, 1)
	assert.Equal(t, uint64(2), got[0].InteractionID)
}

func TestReplaySource_DisconnectIsIdempotent(t *testing.T) {
	src := NewReplaySource()

	calls := 0
	h, err := src.Observe(domain.EntryLongTask, ObserveOptions{}, func([]domain.Entry) { calls++ })
	require.NoError(t, err)
	assert.Equal(t, 1, src.Subscribers())

	src.Dispatch(domain.Entry{EntryType: domain.EntryLongTask, Duration: 80})
	assert.Equal(t, 1, calls)

	assert.NotPanics(t, func() {
		h.Disconnect()
		h.Disconnect()
	})
	assert.Equal(t, 0, src.Subscribers())

	src.Dispatch(domain.Entry{EntryType: domain.EntryLongTask, Duration: 90})
	assert.Equal(t, 1, calls)
}

func TestReplaySource_DisconnectFromCallback(t *testing.T) {
	src := NewReplaySource()

	calls := 0
	var h Handle
	h, err := src.Observe(domain.EntryPaint, ObserveOptions{}, func([]domain.Entry) {
		calls++
		h.Disconnect()
	})
	require.NoError(t, err)

	src.Dispatch(domain.Entry{EntryType: domain.EntryPaint})
	src.Dispatch(domain.Entry{EntryType: domain.EntryPaint})
	assert.Equal(t, 1, calls)
}
