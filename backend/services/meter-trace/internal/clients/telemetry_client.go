package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// TelemetryClient forwards decoded records to a telemetry HTTP endpoint.
type TelemetryClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// MeterRecordRequest payload for the telemetry endpoint.
type MeterRecordRequest struct {
	RunID     string             `json:"run_id"`
	Timestamp time.Time          `json:"timestamp"`
	Channels  map[string]float64 `json:"channels"`
}

// NewTelemetryClient returns client wrapper.
func NewTelemetryClient(baseURL string, timeout time.Duration, logger *zap.Logger) *TelemetryClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &TelemetryClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// NotifyMeterRecord posts one record. Non-2xx responses are returned as errors.
func (c *TelemetryClient) NotifyMeterRecord(ctx context.Context, req MeterRecordRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/internal/ocpp/meter-values", c.baseURL), bytes.NewReader(data))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		c.logger.Warn("telemetry client request failed", zap.Error(err))
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		c.logger.Warn("telemetry client returned non-success", zap.Int("status", resp.StatusCode))
		return fmt.Errorf("clients: telemetry returned status %d", resp.StatusCode)
	}
	return nil
}
