package models

import "time"

// ChannelSample represents a single decoded channel value.
type ChannelSample struct {
	ID         int64     `db:"id" json:"id"`
	RunID      string    `db:"run_id" json:"run_id"`
	Channel    string    `db:"channel" json:"channel"`
	Value      float64   `db:"value" json:"value"`
	RecordedAt time.Time `db:"recorded_at" json:"recorded_at"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
