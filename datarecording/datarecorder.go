// Package datarecording persists simulation results into SQLite files so
// external tools can query them after the run.
package datarecording

import (
	"database/sql"
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"

	"github.com/fatih/structs"

	// SQLite driver.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// A DataRecorder can batch structs into database tables.
type DataRecorder interface {
	// CreateTable creates a table whose columns are the fields of the
	// sample entry. Fields must be scalar.
	CreateTable(tableName string, sampleEntry any)

	// InsertData buffers one entry for a table created earlier.
	InsertData(tableName string, entry any)

	// ListTables returns the names of all created tables.
	ListTables() []string

	// Flush writes all buffered entries to the database.
	Flush()
}

// New creates a DataRecorder writing to path + ".sqlite3". An empty path
// generates a unique file name. Buffered entries are flushed when the
// process exits through atexit.
func New(path string) DataRecorder {
	if path == "" {
		path = "memhier_run_" + xid.New().String()
	}

	filename := path + ".sqlite3"
	if _, err := os.Stat(filename); err == nil {
		panic(fmt.Errorf("file %s already exists", filename))
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		panic(err)
	}

	w := &sqliteWriter{
		db:        db,
		batchSize: 100000,
		tables:    make(map[string]*table),
	}

	atexit.Register(func() { w.Flush() })

	return w
}

// NewWithDB creates a DataRecorder on an already-open database.
func NewWithDB(db *sql.DB) DataRecorder {
	w := &sqliteWriter{
		db:        db,
		batchSize: 100000,
		tables:    make(map[string]*table),
	}

	atexit.Register(func() { w.Flush() })

	return w
}

type table struct {
	fields  []string
	entries []any
}

type sqliteWriter struct {
	db *sql.DB

	tables     map[string]*table
	batchSize  int
	entryCount int
}

func scalarKind(kind reflect.Kind) bool {
	switch kind {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16,
		reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16,
		reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.String:
		return true
	default:
		return false
	}
}

func (w *sqliteWriter) CreateTable(tableName string, sampleEntry any) {
	entryType := reflect.TypeOf(sampleEntry)
	for i := 0; i < entryType.NumField(); i++ {
		field := entryType.Field(i)
		if !scalarKind(field.Type.Kind()) {
			panic(fmt.Errorf(
				"field %s of table %s is not a scalar",
				field.Name, tableName))
		}
	}

	fields := structs.Names(sampleEntry)

	w.mustExecute(fmt.Sprintf(
		"CREATE TABLE %s (\n\t%s\n);",
		tableName, strings.Join(fields, ",\n\t")))

	w.tables[tableName] = &table{fields: fields}
}

func (w *sqliteWriter) InsertData(tableName string, entry any) {
	t, ok := w.tables[tableName]
	if !ok {
		panic(fmt.Errorf("table %s does not exist", tableName))
	}

	t.entries = append(t.entries, entry)

	w.entryCount++
	if w.entryCount >= w.batchSize {
		w.Flush()
	}
}

func (w *sqliteWriter) ListTables() []string {
	names := make([]string, 0, len(w.tables))
	for name := range w.tables {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func (w *sqliteWriter) Flush() {
	if w.entryCount == 0 {
		return
	}

	w.mustExecute("BEGIN TRANSACTION")
	defer w.mustExecute("COMMIT TRANSACTION")

	for _, tableName := range w.ListTables() {
		w.flushTable(tableName, w.tables[tableName])
	}

	w.entryCount = 0
}

func (w *sqliteWriter) flushTable(tableName string, t *table) {
	if len(t.entries) == 0 {
		return
	}

	placeholders := strings.TrimSuffix(
		strings.Repeat("?, ", len(t.fields)), ", ")

	stmt, err := w.db.Prepare(fmt.Sprintf(
		"INSERT INTO %s VALUES (%s)", tableName, placeholders))
	if err != nil {
		panic(err)
	}
	defer stmt.Close()

	for _, entry := range t.entries {
		value := reflect.ValueOf(entry)

		args := make([]any, 0, value.NumField())
		for i := 0; i < value.NumField(); i++ {
			args = append(args, value.Field(i).Interface())
		}

		if _, err := stmt.Exec(args...); err != nil {
			panic(err)
		}
	}

	t.entries = nil
}

func (w *sqliteWriter) mustExecute(query string) {
	if _, err := w.db.Exec(query); err != nil {
		panic(fmt.Errorf("failed to execute %q: %w", query, err))
	}
}
