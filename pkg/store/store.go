package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/richard-senior/footstats/internal/logger"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by FindByPrimaryKey when no row matches
var ErrNotFound = errors.New("record not found")

// Persistable is implemented by structs stored through struct tags:
//
//	column  column name (defaults to the lower-cased field name)
//	dbtype  sqlite column definition, fields without one are not stored
//	primary "true" for (compound) primary key columns
//	index   "true" to create an index on the column
type Persistable interface {
	GetTableName() string
	GetPrimaryKey() map[string]any
	BeforeSave() error
}

// DB wraps a sqlite connection
type DB struct {
	conn *sql.DB
	path string
}

// execer is satisfied by both *sql.DB and *sql.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open opens (creating if needed) the sqlite database at path. ":memory:" is allowed.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite allows a single writer and each :memory: connection is its own database
	conn.SetMaxOpenConns(1)

	if err = conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	logger.Info("Database initialized successfully", path)
	return &DB{conn: conn, path: path}, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	if d == nil || d.conn == nil {
		return nil
	}
	return d.conn.Close()
}

// CreateTable creates the table (and indexes) for obj if they do not exist
func (d *DB) CreateTable(obj Persistable) error {
	tableName := obj.GetTableName()
	createSQL := generateCreateTableSQL(obj, tableName)
	logger.Debug("Creating table with SQL", createSQL)

	if _, err := d.conn.Exec(createSQL); err != nil {
		return fmt.Errorf("failed to create table %s: %w", tableName, err)
	}
	for _, query := range generateIndexSQL(obj, tableName) {
		logger.Debug("Creating index with SQL", query)
		if _, err := d.conn.Exec(query); err != nil {
			logger.Warn("Failed to create index", err)
		}
	}
	return nil
}

// CreateTables creates a table for every object
func (d *DB) CreateTables(objs ...Persistable) error {
	for _, o := range objs {
		if err := d.CreateTable(o); err != nil {
			return err
		}
	}
	return nil
}

// Save inserts obj, or updates it when a row with the same primary key exists
func (d *DB) Save(obj Persistable) error {
	return save(context.Background(), d.conn, obj)
}

// SaveAll saves every object in one transaction; nothing is written if any fails
func (d *DB) SaveAll(objs ...Persistable) error {
	ctx := context.Background()
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, obj := range objs {
		if err := save(ctx, tx, obj); err != nil {
			return fmt.Errorf("failed to save object: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	logger.Debug("Saved", len(objs), "objects")
	return nil
}

func save(ctx context.Context, ex execer, obj Persistable) error {
	if err := obj.BeforeSave(); err != nil {
		return fmt.Errorf("before save hook failed: %w", err)
	}
	exists, err := exists(ctx, ex, obj)
	if err != nil {
		return fmt.Errorf("failed to check existence: %w", err)
	}
	tableName := obj.GetTableName()

	var query string
	var values []any
	if exists {
		setPairs, setValues := getUpdateData(obj)
		if len(setPairs) == 0 {
			return nil
		}
		whereClause, whereValues := buildWhereClause(obj.GetPrimaryKey())
		query = fmt.Sprintf("UPDATE %s SET %s WHERE %s", tableName, strings.Join(setPairs, ", "), whereClause)
		values = append(setValues, whereValues...)
	} else {
		columns, placeholders, insertValues := getInsertData(obj)
		query = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			tableName, strings.Join(columns, ", "), strings.Join(placeholders, ", "))
		values = insertValues
	}
	logger.Debug("Save SQL", query)

	if _, err := ex.ExecContext(ctx, query, values...); err != nil {
		return fmt.Errorf("failed to save into %s: %w", tableName, err)
	}
	return nil
}

// Exists checks whether a row with obj's primary key is stored
func (d *DB) Exists(obj Persistable) (bool, error) {
	return exists(context.Background(), d.conn, obj)
}

func exists(ctx context.Context, ex execer, obj Persistable) (bool, error) {
	tableName := obj.GetTableName()
	whereClause, values := buildWhereClause(obj.GetPrimaryKey())
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", tableName, whereClause)

	var count int
	if err := ex.QueryRowContext(ctx, query, values...).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check existence in %s: %w", tableName, err)
	}
	return count > 0, nil
}

// Delete removes the row with obj's primary key
func (d *DB) Delete(obj Persistable) error {
	tableName := obj.GetTableName()
	whereClause, values := buildWhereClause(obj.GetPrimaryKey())
	query := fmt.Sprintf("DELETE FROM %s WHERE %s", tableName, whereClause)

	if _, err := d.conn.Exec(query, values...); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", tableName, err)
	}
	return nil
}

// FindByPrimaryKey loads the row matching primaryKey into obj
func (d *DB) FindByPrimaryKey(obj Persistable, primaryKey map[string]any) error {
	tableName := obj.GetTableName()
	columns, destinations := getSelectData(obj)
	whereClause, values := buildWhereClause(primaryKey)
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s", strings.Join(columns, ", "), tableName, whereClause)

	err := d.conn.QueryRow(query, values...).Scan(destinations...)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", tableName, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to scan row from %s: %w", tableName, err)
	}
	return nil
}

// FindAll returns every stored row of type T
func FindAll[T any, PT interface {
	*T
	Persistable
}](d *DB) ([]T, error) {
	return FindWhere[T, PT](d, "1 = 1")
}

// FindWhere returns the rows of type T matching a sql WHERE clause
func FindWhere[T any, PT interface {
	*T
	Persistable
}](d *DB, whereClause string, args ...any) ([]T, error) {
	var zero T
	tableName := PT(&zero).GetTableName()
	columns, _ := getSelectData(&zero)
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s", strings.Join(columns, ", "), tableName, whereClause)
	logger.Debug("FindWhere SQL", query)

	rows, err := d.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", tableName, err)
	}
	defer rows.Close()

	var results []T
	for rows.Next() {
		var item T
		_, destinations := getSelectData(&item)
		if err := rows.Scan(destinations...); err != nil {
			return nil, fmt.Errorf("failed to scan row from %s: %w", tableName, err)
		}
		results = append(results, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows from %s: %w", tableName, err)
	}
	return results, nil
}

// storedFields returns the exported fields carrying a dbtype tag with their column names
func storedFields(t reflect.Type) ([]reflect.StructField, []string) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	var fields []reflect.StructField
	var columns []string
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() || field.Tag.Get("dbtype") == "" || field.Tag.Get("db") == "-" {
			continue
		}
		columnName := field.Tag.Get("column")
		if columnName == "" {
			columnName = strings.ToLower(field.Name)
		}
		fields = append(fields, field)
		columns = append(columns, columnName)
	}
	return fields, columns
}

func generateCreateTableSQL(obj any, tableName string) string {
	fields, names := storedFields(reflect.TypeOf(obj))

	var columns, primaryKeys []string
	for i, field := range fields {
		dbType := field.Tag.Get("dbtype")
		if field.Tag.Get("primary") == "true" {
			primaryKeys = append(primaryKeys, names[i])
			dbType = strings.TrimSpace(strings.ReplaceAll(dbType, "PRIMARY KEY", ""))
		}
		columns = append(columns, fmt.Sprintf("%s %s", names[i], dbType))
	}
	if len(primaryKeys) > 0 {
		columns = append(columns, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(primaryKeys, ", ")))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", tableName, strings.Join(columns, ", "))
}

func generateIndexSQL(obj any, tableName string) []string {
	fields, names := storedFields(reflect.TypeOf(obj))

	var indexSQL []string
	for i, field := range fields {
		if field.Tag.Get("index") != "true" {
			continue
		}
		indexName := fmt.Sprintf("idx_%s_%s", tableName, names[i])
		indexSQL = append(indexSQL, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s(%s)", indexName, tableName, names[i]))
	}
	return indexSQL
}

func getInsertData(obj any) ([]string, []string, []any) {
	v := reflect.Indirect(reflect.ValueOf(obj))
	fields, columns := storedFields(v.Type())

	placeholders := make([]string, len(fields))
	values := make([]any, len(fields))
	for i, field := range fields {
		placeholders[i] = "?"
		values[i] = v.FieldByIndex(field.Index).Interface()
	}
	return columns, placeholders, values
}

func getUpdateData(obj any) ([]string, []any) {
	v := reflect.Indirect(reflect.ValueOf(obj))
	fields, columns := storedFields(v.Type())

	var setPairs []string
	var values []any
	for i, field := range fields {
		if field.Tag.Get("primary") == "true" {
			continue
		}
		setPairs = append(setPairs, fmt.Sprintf("%s = ?", columns[i]))
		values = append(values, v.FieldByIndex(field.Index).Interface())
	}
	return setPairs, values
}

func getSelectData(obj any) ([]string, []any) {
	v := reflect.Indirect(reflect.ValueOf(obj))
	fields, columns := storedFields(v.Type())

	destinations := make([]any, len(fields))
	for i, field := range fields {
		destinations[i] = v.FieldByIndex(field.Index).Addr().Interface()
	}
	return columns, destinations
}

// buildWhereClause builds a WHERE clause from a primary key map, columns in name order
func buildWhereClause(primaryKey map[string]any) (string, []any) {
	keys := make([]string, 0, len(primaryKey))
	for column := range primaryKey {
		keys = append(keys, column)
	}
	sort.Strings(keys)

	conditions := make([]string, len(keys))
	values := make([]any, len(keys))
	for i, column := range keys {
		conditions[i] = fmt.Sprintf("%s = ?", column)
		values[i] = primaryKey[column]
	}
	return strings.Join(conditions, " AND "), values
}
