package datarecording

import (
	"errors"
	"fmt"
)

// Recorder types accepted by RecorderConfig.
const (
	TypeSQLite     = "sqlite"
	TypeClickHouse = "clickhouse"
)

// ErrUnknownRecorder is returned for a RecorderConfig.Type no backend serves.
var ErrUnknownRecorder = errors.New("unknown recorder type")

// RecorderConfig selects and configures a DataRecorder backend.
type RecorderConfig struct {
	// Type is TypeSQLite (default) or TypeClickHouse.
	Type string

	// Path is the SQLite file name without the extension.
	Path string

	// DSN is the ClickHouse connection string.
	DSN string

	// BatchSize is the number of entries buffered before an automatic flush.
	BatchSize int
}

// NewDataRecorderWithConfig creates the recorder described by cfg.
func NewDataRecorderWithConfig(cfg RecorderConfig) (DataRecorder, error) {
	switch cfg.Type {
	case "", TypeSQLite:
		r := New(cfg.Path)
		if cfg.BatchSize > 0 {
			r.(*sqliteWriter).batchSize = cfg.BatchSize
		}

		return r, nil
	case TypeClickHouse:
		return NewClickHouse(cfg.DSN, cfg.BatchSize)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRecorder, cfg.Type)
	}
}
