package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sarchlab/fairarb/datarecording"
)

// Environment variables that provide the defaults of the run flags.
const (
	EnvDB            = "FAIRARB_DB"
	EnvRecorder      = "FAIRARB_RECORDER"
	EnvClickHouseDSN = "FAIRARB_CLICKHOUSE_DSN"
	EnvMySQLDSN      = "FAIRARB_MYSQL_DSN"
	EnvMongoDBURI    = "FAIRARB_MONGODB_URI"
	EnvMonitor       = "FAIRARB_MONITOR"
	EnvMonitorPort   = "FAIRARB_MONITOR_PORT"
	EnvOpenBrowser   = "FAIRARB_OPEN_BROWSER"
	EnvMaxSteps      = "FAIRARB_MAX_STEPS"
)

// Config holds the settings of a run.
type Config struct {
	// DB is the SQLite file to record services into, without extension.
	// Empty disables SQLite recording.
	DB string

	// Recorder is datarecording.TypeSQLite or datarecording.TypeClickHouse.
	Recorder string

	// ClickHouseDSN is used when Recorder is datarecording.TypeClickHouse.
	ClickHouseDSN string

	// MySQLDSN and MongoDBURI export services to those servers when set.
	MySQLDSN   string
	MongoDBURI string

	Monitor     bool
	MonitorPort int
	OpenBrowser bool

	// MaxSteps caps the number of steps of the scenario. Zero keeps the
	// scenario's own count.
	MaxSteps uint64

	// Trace prints one line per step.
	Trace bool

	// Snapshot is a JSON file receiving the final state of the components.
	Snapshot string

	// Hold keeps the monitor alive after the run until interrupted.
	Hold bool
}

// LoadConfig reads the defaults from the environment. The given env files
// are loaded first when they exist; variables already set win.
func LoadConfig(envFiles ...string) (Config, error) {
	for _, f := range envFiles {
		err := godotenv.Load(f)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	cfg := Config{
		DB:            os.Getenv(EnvDB),
		Recorder:      os.Getenv(EnvRecorder),
		ClickHouseDSN: os.Getenv(EnvClickHouseDSN),
		MySQLDSN:      os.Getenv(EnvMySQLDSN),
		MongoDBURI:    os.Getenv(EnvMongoDBURI),
	}

	if cfg.Recorder == "" {
		cfg.Recorder = datarecording.TypeSQLite
	}

	var err error

	if cfg.Monitor, err = envBool(EnvMonitor); err != nil {
		return Config{}, err
	}

	if cfg.OpenBrowser, err = envBool(EnvOpenBrowser); err != nil {
		return Config{}, err
	}

	if v := os.Getenv(EnvMonitorPort); v != "" {
		if cfg.MonitorPort, err = strconv.Atoi(v); err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvMonitorPort, err)
		}
	}

	if v := os.Getenv(EnvMaxSteps); v != "" {
		if cfg.MaxSteps, err = strconv.ParseUint(v, 10, 64); err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvMaxSteps, err)
		}
	}

	return cfg, nil
}

func envBool(name string) (bool, error) {
	v := os.Getenv(name)
	if v == "" {
		return false, nil
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", name, err)
	}

	return b, nil
}

// recording tells if the run writes services into a database.
func (c Config) recording() bool {
	if c.Recorder == datarecording.TypeClickHouse {
		return true
	}

	return c.DB != ""
}

func (c Config) recorderConfig() datarecording.RecorderConfig {
	return datarecording.RecorderConfig{
		Type: c.Recorder,
		Path: c.DB,
		DSN:  c.ClickHouseDSN,
	}
}
