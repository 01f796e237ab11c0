package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ocppmeter/backend/services/meter-trace/internal/emitter"
	"ocppmeter/backend/services/meter-trace/internal/measurand"
	"ocppmeter/backend/services/meter-trace/internal/trace"
)

const (
	exampleLine = `2024-01-01 12:00:00 X X X X X X X {"meterValue":[{"timestamp":"2024-01-01T12:00:00Z","sampledValue":[{"value":"10.5","measurand":"Voltage","phase":"L1"}]}]}`
	powerLine   = `2024-01-01 12:00:10 X X X X X X X {"connectorId":1,"meterValue":[{"timestamp":"2024-01-01T12:00:10Z","sampledValue":[{"value":"100","measurand":"Power.Active.Import","phase":"L1"},{"value":"200","measurand":"Power.Active.Import","phase":"L2"},{"value":"abc","measurand":"Power.Active.Import","phase":"L3"}]}]}`
	bootLine    = `2024-01-01 12:00:05 X X X X X X X {"chargePointVendor":"acme","chargePointModel":"m1"}`
	badTimeLine = `2024-01-01 noon X X X X X X X {"meterValue":[]}`
)

type write struct {
	channel string
	value   float64
}

type record struct {
	at     time.Time
	writes []write
}

// recorder captures every call in order.
type recorder struct {
	series  []emitter.Series
	records []record
	flushes int
	failOn  int
	err     error
}

func (r *recorder) DescribeChannel(_ context.Context, s emitter.Series) error {
	r.series = append(r.series, s)
	return nil
}

func (r *recorder) BeginRecord(_ context.Context, at time.Time) error {
	if r.err != nil && len(r.records)+1 == r.failOn {
		return r.err
	}
	r.records = append(r.records, record{at: at})
	return nil
}

func (r *recorder) WriteChannel(_ context.Context, name string, value float64) error {
	last := &r.records[len(r.records)-1]
	last.writes = append(last.writes, write{name, value})
	return nil
}

func (r *recorder) Flush(context.Context) error {
	r.flushes++
	return nil
}

func (r *recorder) value(t *testing.T, i int, ch measurand.Channel) float64 {
	t.Helper()
	for _, w := range r.records[i].writes {
		if w.channel == string(ch) {
			return w.value
		}
	}
	t.Fatalf("channel %s not written", ch)
	return 0
}

func convert(t *testing.T, rec *recorder, opts Options, lines ...string) (*Converter, error) {
	t.Helper()
	c := NewConverter(rec, opts, zap.NewNop())
	err := c.Convert(context.Background(), "test.trace", strings.NewReader(strings.Join(lines, "\n")))
	return c, err
}

func TestConvertExampleLine(t *testing.T) {
	rec := &recorder{}

	c, err := convert(t, rec, Options{}, exampleLine)
	require.NoError(t, err)

	require.Len(t, rec.records, 1)
	assert.True(t, rec.records[0].at.Equal(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)))
	require.Len(t, rec.records[0].writes, len(measurand.Channels))
	for i, w := range rec.records[0].writes {
		assert.Equal(t, string(measurand.Channels[i]), w.channel)
		if w.channel == string(measurand.VoltageL1) {
			assert.Equal(t, 10.5, w.value)
		} else {
			assert.Zero(t, w.value, w.channel)
		}
	}
	assert.Equal(t, 1, rec.flushes)
	assert.Len(t, rec.series, len(measurand.Channels))
	assert.Equal(t, Stats{Files: 1, Lines: 1, Records: 1}, c.Stats())
}

func TestConvertSkipsNonRecords(t *testing.T) {
	rec := &recorder{}

	c, err := convert(t, rec, Options{},
		"HEADER LINE",
		"",
		bootLine,
		badTimeLine,
		powerLine,
		"2024-01-01 12:00:00 X X X X X X {}",
	)
	require.NoError(t, err)

	require.Len(t, rec.records, 1)
	assert.Equal(t, 100.0, rec.value(t, 0, measurand.PowerActiveImportL1))
	assert.Equal(t, 200.0, rec.value(t, 0, measurand.PowerActiveImportL2))
	assert.Zero(t, rec.value(t, 0, measurand.PowerActiveImportL3))
	assert.Equal(t, 300.0, rec.value(t, 0, measurand.PowerActiveImportSum))

	assert.Equal(t, Stats{
		Files:          1,
		Lines:          6,
		WrongShape:     3,
		BadTimestamp:   1,
		NotMeterValues: 1,
		Records:        1,
	}, c.Stats())
}

func TestConvertNoRecordsNoSeries(t *testing.T) {
	rec := &recorder{}

	_, err := convert(t, rec, Options{}, bootLine, badTimeLine)
	require.NoError(t, err)

	assert.Empty(t, rec.records)
	assert.Empty(t, rec.series)
}

func TestConvertStrictTimestamps(t *testing.T) {
	rec := &recorder{}

	_, err := convert(t, rec, Options{StrictTimestamps: true}, exampleLine, badTimeLine, powerLine)
	require.Error(t, err)

	assert.Contains(t, err.Error(), "test.trace:2")
	assert.Len(t, rec.records, 1)
}

func TestConvertSinkErrorAborts(t *testing.T) {
	boom := errors.New("viewer gone")
	rec := &recorder{err: boom, failOn: 2}

	_, err := convert(t, rec, Options{}, exampleLine, powerLine, exampleLine)
	require.ErrorIs(t, err, boom)

	assert.Contains(t, err.Error(), "test.trace:2")
	assert.Len(t, rec.records, 1)
}

func TestConvertHonoursCancellation(t *testing.T) {
	rec := &recorder{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewConverter(rec, Options{}, zap.NewNop())
	err := c.Convert(ctx, "test.trace", strings.NewReader(exampleLine))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rec.records)
}

func TestConvertFiles(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.trace")
	second := filepath.Join(dir, "b.trace")
	require.NoError(t, os.WriteFile(first, []byte(exampleLine+"\n"), 0o644))
	require.NoError(t, os.WriteFile(second, []byte(bootLine+"\n"+powerLine+"\n"), 0o644))

	rec := &recorder{}
	c := NewConverter(rec, Options{}, zap.NewNop())

	require.NoError(t, c.ConvertFiles(context.Background(), []string{first, second}))

	require.Len(t, rec.records, 2)
	assert.Equal(t, 10.5, rec.value(t, 0, measurand.VoltageL1))
	assert.Equal(t, 300.0, rec.value(t, 1, measurand.PowerActiveImportSum))
	assert.Len(t, rec.series, len(measurand.Channels))
	assert.Equal(t, 2, c.Stats().Files)
	assert.Equal(t, 3, c.Stats().Lines)
}

func TestConvertFilesMissingFileIsFatal(t *testing.T) {
	c := NewConverter(&recorder{}, Options{}, zap.NewNop())

	err := c.ConvertFiles(context.Background(), []string{filepath.Join(t.TempDir(), "missing.trace")})
	assert.Error(t, err)
}

func TestDecodeLineIsIdempotent(t *testing.T) {
	c := NewConverter(&recorder{}, Options{}, zap.NewNop())
	reader := trace.NewReader("test.trace", strings.NewReader(powerLine))
	require.True(t, reader.Next())
	line := reader.Line()

	at1, b1, err := c.DecodeLine(line)
	require.NoError(t, err)
	at2, b2, err := c.DecodeLine(line)
	require.NoError(t, err)

	assert.Equal(t, at1, at2)
	assert.Equal(t, b1.Samples(), b2.Samples())
}
