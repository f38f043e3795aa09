package datarecording

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/fatih/structs"
	"github.com/tebeka/atexit"
)

// clickHouseRecorder batches entries in memory and sends them to ClickHouse
// with one batch per table.
type clickHouseRecorder struct {
	conn      clickhouse.Conn
	lock      sync.Mutex
	batchSize int

	tables     map[string]*table
	entryCount int
}

// NewClickHouse connects to the server described by dsn, for example
// "clickhouse://localhost:9000/fairarb?username=default". A batchSize of zero
// uses 100000.
func NewClickHouse(dsn string, batchSize int) (DataRecorder, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing clickhouse dsn: %w", err)
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("connecting to clickhouse: %w", err)
	}

	if err := conn.Ping(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("pinging clickhouse: %w", err)
	}

	return newClickHouseRecorder(conn, batchSize), nil
}

func newClickHouseRecorder(
	conn clickhouse.Conn,
	batchSize int,
) *clickHouseRecorder {
	if batchSize == 0 {
		batchSize = 100000
	}

	r := &clickHouseRecorder{
		conn:      conn,
		batchSize: batchSize,
		tables:    make(map[string]*table),
	}

	atexit.Register(func() { r.Flush() })

	return r
}

func clickHouseType(kind reflect.Kind) string {
	switch kind {
	case reflect.Bool:
		return "Bool"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32,
		reflect.Int64:
		return "Int64"
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64:
		return "UInt64"
	case reflect.Float32, reflect.Float64:
		return "Float64"
	case reflect.String:
		return "String"
	default:
		panic(fmt.Sprintf("kind %s cannot be stored", kind))
	}
}

// clickHouseSchema returns the CREATE TABLE statement for entries shaped
// like sampleEntry. Rows are ordered by the first column.
func clickHouseSchema(tableName string, sampleEntry any) (string, error) {
	if err := checkStructFields(sampleEntry); err != nil {
		return "", err
	}

	names := structs.Names(sampleEntry)
	t := reflect.TypeOf(sampleEntry)

	columns := make([]string, len(names))
	for i, name := range names {
		columns[i] = name + " " + clickHouseType(t.Field(i).Type.Kind())
	}

	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n\t%s\n) ENGINE = MergeTree()\n"+
			"ORDER BY %s",
		tableName, strings.Join(columns, ",\n\t"), names[0],
	), nil
}

// clickHouseRow widens the fields of entry to the column types used by
// clickHouseSchema.
func clickHouseRow(entry any) []any {
	v := reflect.ValueOf(entry)
	row := make([]any, v.NumField())

	for i := range row {
		f := v.Field(i)

		switch f.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32,
			reflect.Int64:
			row[i] = f.Int()
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
			reflect.Uint64:
			row[i] = f.Uint()
		case reflect.Float32, reflect.Float64:
			row[i] = f.Float()
		default:
			row[i] = f.Interface()
		}
	}

	return row
}

func (r *clickHouseRecorder) CreateTable(tableName string, sampleEntry any) {
	createSQL, err := clickHouseSchema(tableName, sampleEntry)
	if err != nil {
		panic(err)
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	err = r.conn.Exec(context.Background(), createSQL)
	if err != nil {
		panic(fmt.Errorf("failed to create table %s: %w", tableName, err))
	}

	r.tables[tableName] = &table{structType: reflect.TypeOf(sampleEntry)}
}

func (r *clickHouseRecorder) InsertData(tableName string, entry any) {
	r.lock.Lock()

	table, exists := r.tables[tableName]
	if !exists {
		r.lock.Unlock()
		panic(fmt.Sprintf("table %s does not exist", tableName))
	}

	if reflect.TypeOf(entry) != table.structType {
		r.lock.Unlock()
		panic(fmt.Sprintf("entry of type %T does not fit table %s",
			entry, tableName))
	}

	table.entries = append(table.entries, entry)
	r.entryCount++
	full := r.entryCount >= r.batchSize

	r.lock.Unlock()

	if full {
		r.Flush()
	}
}

func (r *clickHouseRecorder) ListTables() []string {
	r.lock.Lock()
	defer r.lock.Unlock()

	tables := make([]string, 0, len(r.tables))
	for name := range r.tables {
		tables = append(tables, name)
	}

	sort.Strings(tables)

	return tables
}

func (r *clickHouseRecorder) Flush() {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.entryCount == 0 {
		return
	}

	ctx := context.Background()

	for tableName, table := range r.tables {
		if len(table.entries) == 0 {
			continue
		}

		batch, err := r.conn.PrepareBatch(ctx, "INSERT INTO "+tableName)
		if err != nil {
			panic(fmt.Errorf("failed to prepare batch for %s: %w",
				tableName, err))
		}

		for _, entry := range table.entries {
			if err := batch.Append(clickHouseRow(entry)...); err != nil {
				panic(fmt.Errorf("failed to append to batch: %w", err))
			}
		}

		if err := batch.Send(); err != nil {
			panic(fmt.Errorf("failed to send batch: %w", err))
		}

		table.entries = table.entries[:0]
	}

	r.entryCount = 0
}

func (r *clickHouseRecorder) Close() error {
	r.Flush()

	return r.conn.Close()
}
