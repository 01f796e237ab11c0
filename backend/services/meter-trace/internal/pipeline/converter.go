package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"ocppmeter/backend/services/meter-trace/internal/emitter"
	"ocppmeter/backend/services/meter-trace/internal/measurand"
	"ocppmeter/backend/services/meter-trace/internal/ocpp"
	"ocppmeter/backend/services/meter-trace/internal/trace"
)

// Stats counts what happened to the input of a run.
type Stats struct {
	Files          int `json:"files"`
	Lines          int `json:"lines"`
	WrongShape     int `json:"wrong_shape"`
	BadTimestamp   int `json:"bad_timestamp"`
	NotMeterValues int `json:"not_meter_values"`
	Records        int `json:"records"`
}

// Fields returns the stats as zap fields.
func (s Stats) Fields() []zap.Field {
	return []zap.Field{
		zap.Int("files", s.Files),
		zap.Int("lines", s.Lines),
		zap.Int("wrong_shape", s.WrongShape),
		zap.Int("bad_timestamp", s.BadTimestamp),
		zap.Int("not_meter_values", s.NotMeterValues),
		zap.Int("records", s.Records),
	}
}

// Options tunes record handling.
type Options struct {
	// StrictTimestamps aborts the run on a malformed timestamp instead of skipping the line.
	StrictTimestamps bool
}

// Converter turns trace lines into channel writes.
type Converter struct {
	decoder   *ocpp.Decoder
	emitter   emitter.Emitter
	opts      Options
	logger    *zap.Logger
	described bool
	stats     Stats
}

// NewConverter builds Converter.
func NewConverter(em emitter.Emitter, opts Options, logger *zap.Logger) *Converter {
	return &Converter{
		decoder: ocpp.NewDecoder(),
		emitter: em,
		opts:    opts,
		logger:  logger,
	}
}

// Stats returns the counters accumulated so far.
func (c *Converter) Stats() Stats {
	return c.stats
}

// DecodeLine resolves the timestamp and channel values of one record line.
// Errors wrap trace.ErrMalformedTimestamp or ocpp.ErrNotMeterValues.
func (c *Converter) DecodeLine(line trace.Line) (time.Time, measurand.Bundle, error) {
	at, err := trace.ResolveTimestamp(line.Date(), line.Time())
	if err != nil {
		return time.Time{}, measurand.Bundle{}, err
	}
	req, err := c.decoder.Decode([]byte(line.Payload()))
	if err != nil {
		return time.Time{}, measurand.Bundle{}, err
	}
	return at, measurand.Extract(req), nil
}

// ConvertFiles converts every file in order. Files are opened one at a time.
func (c *Converter) ConvertFiles(ctx context.Context, paths []string) error {
	for _, path := range paths {
		if err := c.convertFile(ctx, path); err != nil {
			return err
		}
	}
	return nil
}

func (c *Converter) convertFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("pipeline: open trace file: %w", err)
	}
	defer f.Close()

	return c.Convert(ctx, path, f)
}

// Convert processes a single trace stream named name.
func (c *Converter) Convert(ctx context.Context, name string, r io.Reader) error {
	c.stats.Files++
	reader := trace.NewReader(name, r)
	records := 0
	defer func() {
		c.stats.Lines += reader.Lines()
		c.stats.WrongShape += reader.Dropped()
		c.logger.Debug("trace file processed",
			zap.String("file", name),
			zap.Int("lines", reader.Lines()),
			zap.Int("records", records),
		)
	}()

	for reader.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := reader.Line()
		at, bundle, err := c.DecodeLine(line)
		switch {
		case err == nil:
		case errors.Is(err, trace.ErrMalformedTimestamp):
			c.stats.BadTimestamp++
			if c.opts.StrictTimestamps {
				return fmt.Errorf("pipeline: %s: %w", line.Location(), err)
			}
			c.logger.Debug("skipping line with malformed timestamp", zap.String("at", line.Location()), zap.Error(err))
			continue
		case errors.Is(err, ocpp.ErrNotMeterValues):
			c.stats.NotMeterValues++
			c.logger.Debug("skipping non meter values payload", zap.String("at", line.Location()), zap.Error(err))
			continue
		default:
			return fmt.Errorf("pipeline: %s: %w", line.Location(), err)
		}

		if err := c.emit(ctx, at, bundle); err != nil {
			return fmt.Errorf("pipeline: %s: emit: %w", line.Location(), err)
		}
		records++
		c.stats.Records++
	}

	return reader.Err()
}

func (c *Converter) emit(ctx context.Context, at time.Time, bundle measurand.Bundle) error {
	if !c.described {
		if d, ok := c.emitter.(emitter.Describer); ok {
			for _, s := range emitter.DefaultSeries() {
				if err := d.DescribeChannel(ctx, s); err != nil {
					return err
				}
			}
		}
		c.described = true
	}

	if err := c.emitter.BeginRecord(ctx, at); err != nil {
		return err
	}
	for _, s := range bundle.Samples() {
		if err := c.emitter.WriteChannel(ctx, string(s.Channel), s.Value); err != nil {
			return err
		}
	}
	if f, ok := c.emitter.(emitter.Flusher); ok {
		return f.Flush(ctx)
	}
	return nil
}
