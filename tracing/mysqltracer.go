package tracing

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"sync"

	// Need to use MySQL connections.
	_ "github.com/go-sql-driver/mysql"
	"github.com/tebeka/atexit"
)

// MySQLTracer stores completed services into the services table of a MySQL
// database. Rows are written in batches.
type MySQLTracer struct {
	lock      sync.Mutex
	db        *sql.DB
	filter    TaskFilter
	batchSize int
	pending   []ServiceRecord
	written   int
}

// NewMySQLTracer connects with a DSN such as
// "user:pass@tcp(127.0.0.1:3306)/fairarb". The database must exist; the
// table is created if missing.
func NewMySQLTracer(
	dsn string,
	filter TaskFilter,
	batchSize int,
) (*MySQLTracer, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening mysql: %w", err)
	}

	t, err := NewMySQLTracerWithDB(db, filter, batchSize)
	if err != nil {
		db.Close()
		return nil, err
	}

	fmt.Fprintf(os.Stderr, "Services are recorded in MySQL table %s\n",
		ServiceTable)

	return t, nil
}

// NewMySQLTracerWithDB uses an open database. Only portable SQL is issued.
func NewMySQLTracerWithDB(
	db *sql.DB,
	filter TaskFilter,
	batchSize int,
) (*MySQLTracer, error) {
	if batchSize <= 0 {
		batchSize = 1000
	}

	t := &MySQLTracer{
		db:        db,
		filter:    filter,
		batchSize: batchSize,
	}

	if err := t.createTable(); err != nil {
		return nil, err
	}

	atexit.Register(func() { _ = t.Flush() })

	return t, nil
}

func (t *MySQLTracer) createTable() error {
	_, err := t.db.Exec(`
		CREATE TABLE IF NOT EXISTS ` + ServiceTable + `
		(
			id           VARCHAR(64) NOT NULL PRIMARY KEY,
			location     VARCHAR(200),
			client       INT,
			admit_step   BIGINT UNSIGNED,
			grant_step   BIGINT UNSIGNED,
			release_step BIGINT UNSIGNED,
			wait         BIGINT UNSIGNED,
			hold         BIGINT UNSIGNED,
			start_time   DOUBLE,
			end_time     DOUBLE
		)`)
	if err != nil {
		return fmt.Errorf("creating %s: %w", ServiceTable, err)
	}

	return nil
}

// StartTask does nothing; services are written when they end.
func (t *MySQLTracer) StartTask(_ Task) {}

// StepTask does nothing; services are written when they end.
func (t *MySQLTracer) StepTask(_ Task) {}

// EndTask queues the service and writes the batch once it is full.
func (t *MySQLTracer) EndTask(task Task) {
	if !t.filter(task) {
		return
	}

	record, ok := ServiceRecordOf(task)
	if !ok {
		return
	}

	t.lock.Lock()
	t.pending = append(t.pending, record)
	full := len(t.pending) >= t.batchSize
	t.lock.Unlock()

	if full {
		if err := t.Flush(); err != nil {
			panic(err)
		}
	}
}

// Flush writes the queued services.
func (t *MySQLTracer) Flush() error {
	t.lock.Lock()
	defer t.lock.Unlock()

	if len(t.pending) == 0 {
		return nil
	}

	rows := make([]string, len(t.pending))
	vals := make([]any, 0, len(t.pending)*10)

	for i, r := range t.pending {
		rows[i] = "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
		vals = append(vals,
			r.ID, r.Location, r.Client,
			r.AdmitStep, r.GrantStep, r.ReleaseStep,
			r.Wait, r.Hold,
			r.StartTime, r.EndTime,
		)
	}

	_, err := t.db.Exec(
		"INSERT INTO "+ServiceTable+" VALUES "+strings.Join(rows, ", "),
		vals...)
	if err != nil {
		return fmt.Errorf("writing services: %w", err)
	}

	t.written += len(t.pending)
	t.pending = t.pending[:0]

	return nil
}

// Count returns the number of services written so far.
func (t *MySQLTracer) Count() int {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.written
}

// Close flushes and closes the database.
func (t *MySQLTracer) Close() error {
	if err := t.Flush(); err != nil {
		return err
	}

	return t.db.Close()
}
