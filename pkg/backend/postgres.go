package backend

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// identifierPattern guards table and column names interpolated into SQL.
// Everything else goes through placeholders.
var identifierPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Postgres is a Client over a direct database connection, for deployments
// that skip the hosted API and write straight to their own instance.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an existing connection pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// ConnectPostgres opens a pool for the given DSN and verifies connectivity.
func ConnectPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("backend: connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("backend: ping postgres: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close releases the pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

func checkIdentifier(kind, name string) error {
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("backend: unsafe %s name %q", kind, name)
	}
	return nil
}

func buildWhere(filters []Filter, args []any) (string, []any, error) {
	if len(filters) == 0 {
		return "", args, nil
	}
	clauses := make([]string, 0, len(filters))
	for _, f := range filters {
		if err := checkIdentifier("column", f.Column); err != nil {
			return "", nil, err
		}
		args = append(args, f.Value)
		clauses = append(clauses, fmt.Sprintf("%s = $%d", f.Column, len(args)))
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

func (p *Postgres) Select(ctx context.Context, resource string, filters ...Filter) ([]Record, error) {
	if err := checkIdentifier("table", resource); err != nil {
		return nil, err
	}
	where, args, err := buildWhere(filters, nil)
	if err != nil {
		return nil, err
	}

	rows, err := p.pool.Query(ctx, "SELECT * FROM "+resource+where, args...)
	if err != nil {
		return nil, fmt.Errorf("backend: select %s: %w", resource, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("backend: scan %s row: %w", resource, err)
		}
		record := make(Record, len(values))
		for i, field := range rows.FieldDescriptions() {
			record[string(field.Name)] = values[i]
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("backend: iterate %s rows: %w", resource, err)
	}
	return records, nil
}

func (p *Postgres) Insert(ctx context.Context, resource string, record Record) (Record, error) {
	if err := checkIdentifier("table", resource); err != nil {
		return nil, err
	}
	if len(record) == 0 {
		return nil, fmt.Errorf("backend: insert into %s: empty record", resource)
	}

	columns := make([]string, 0, len(record))
	for column := range record {
		if err := checkIdentifier("column", column); err != nil {
			return nil, err
		}
		columns = append(columns, column)
	}
	sort.Strings(columns)

	placeholders := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, column := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = record[column]
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		resource, strings.Join(columns, ", "), strings.Join(placeholders, ", "))

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("backend: insert into %s: %w", resource, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("backend: insert into %s: %w", resource, err)
		}
		return Record{}, nil
	}
	values, err := rows.Values()
	if err != nil {
		return nil, fmt.Errorf("backend: scan inserted %s row: %w", resource, err)
	}
	inserted := make(Record, len(values))
	for i, field := range rows.FieldDescriptions() {
		inserted[string(field.Name)] = values[i]
	}
	return inserted, nil
}

func (p *Postgres) Update(ctx context.Context, resource string, filters []Filter, record Record) ([]Record, error) {
	if err := checkIdentifier("table", resource); err != nil {
		return nil, err
	}
	if len(record) == 0 {
		return nil, fmt.Errorf("backend: update %s: empty record", resource)
	}

	columns := make([]string, 0, len(record))
	for column := range record {
		if err := checkIdentifier("column", column); err != nil {
			return nil, err
		}
		columns = append(columns, column)
	}
	sort.Strings(columns)

	sets := make([]string, len(columns))
	args := make([]any, 0, len(columns)+len(filters))
	for i, column := range columns {
		args = append(args, record[column])
		sets[i] = fmt.Sprintf("%s = $%d", column, len(args))
	}
	where, args, err := buildWhere(filters, args)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("UPDATE %s SET %s%s RETURNING *", resource, strings.Join(sets, ", "), where)
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("backend: update %s: %w", resource, err)
	}
	defer rows.Close()

	var updated []Record
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("backend: scan updated %s row: %w", resource, err)
		}
		record := make(Record, len(values))
		for i, field := range rows.FieldDescriptions() {
			record[string(field.Name)] = values[i]
		}
		updated = append(updated, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("backend: iterate updated %s rows: %w", resource, err)
	}
	return updated, nil
}

func (p *Postgres) Delete(ctx context.Context, resource string, filters ...Filter) error {
	if err := checkIdentifier("table", resource); err != nil {
		return err
	}
	if len(filters) == 0 {
		return fmt.Errorf("backend: delete from %s requires a filter", resource)
	}
	where, args, err := buildWhere(filters, nil)
	if err != nil {
		return err
	}
	if _, err := p.pool.Exec(ctx, "DELETE FROM "+resource+where, args...); err != nil {
		return fmt.Errorf("backend: delete from %s: %w", resource, err)
	}
	return nil
}
