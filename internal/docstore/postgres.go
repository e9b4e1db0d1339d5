package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"strconv"
)

// postgresBackend keeps every collection in one JSONB table:
//
//	documents(collection TEXT, id TEXT, fields JSONB, seq BIGSERIAL, PRIMARY KEY (collection, id))
//
// seq is assigned on first insert and never changes, which gives streams their insertion order.
// The table is created by the migration package.
type postgresBackend struct {
	db *sql.DB
}

// NewPostgres returns a Store over db. The store does not own db; Close leaves it open.
func NewPostgres(db *sql.DB) *Store {
	return &Store{b: &postgresBackend{db: db}}
}

func (p *postgresBackend) set(ctx context.Context, collection, id string, fields map[string]any) error {
	const q = `
		INSERT INTO documents (collection, id, fields)
		VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (collection, id) DO UPDATE
		SET fields = EXCLUDED.fields, updated_at = now()
	`
	b, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode fields: %w", err)
	}
	if _, err := p.db.ExecContext(ctx, q, collection, id, string(b)); err != nil {
		return fmt.Errorf("set %s/%s: %w", collection, id, err)
	}
	return nil
}

func (p *postgresBackend) update(ctx context.Context, collection, id string, partial map[string]any) error {
	const q = `
		INSERT INTO documents (collection, id, fields)
		VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (collection, id) DO UPDATE
		SET fields = documents.fields || EXCLUDED.fields, updated_at = now()
	`
	b, err := json.Marshal(partial)
	if err != nil {
		return fmt.Errorf("encode fields: %w", err)
	}
	if _, err := p.db.ExecContext(ctx, q, collection, id, string(b)); err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	return nil
}

func (p *postgresBackend) get(ctx context.Context, collection, id string) (map[string]any, bool, error) {
	const q = `SELECT fields FROM documents WHERE collection = $1 AND id = $2`
	var raw []byte
	err := p.db.QueryRowContext(ctx, q, collection, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	fields, err := decodeFields(raw)
	if err != nil {
		return nil, false, fmt.Errorf("decode %s/%s: %w", collection, id, err)
	}
	return fields, true, nil
}

func (p *postgresBackend) delete(ctx context.Context, collection, id string) error {
	const q = `DELETE FROM documents WHERE collection = $1 AND id = $2`
	if _, err := p.db.ExecContext(ctx, q, collection, id); err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (p *postgresBackend) stream(ctx context.Context, collection string, q query) iter.Seq2[Snapshot, error] {
	return func(yield func(Snapshot, error) bool) {
		stmt, args, err := buildStreamQuery(collection, q)
		if err != nil {
			yield(Snapshot{}, err)
			return
		}
		rows, err := p.db.QueryContext(ctx, stmt, args...)
		if err != nil {
			yield(Snapshot{}, fmt.Errorf("stream %s: %w", collection, err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var (
				id  string
				raw []byte
			)
			if err := rows.Scan(&id, &raw); err != nil {
				yield(Snapshot{}, fmt.Errorf("stream %s: %w", collection, err))
				return
			}
			fields, err := decodeFields(raw)
			if err != nil {
				yield(Snapshot{}, fmt.Errorf("decode %s/%s: %w", collection, id, err))
				return
			}
			if !yield(Snapshot{ID: id, Exists: true, Fields: fields}, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(Snapshot{}, fmt.Errorf("stream %s: %w", collection, err))
		}
	}
}

func buildStreamQuery(collection string, q query) (string, []any, error) {
	stmt := `SELECT id, fields FROM documents WHERE collection = $1`
	args := []any{collection}
	if q.hasFilter {
		v, err := json.Marshal(q.value)
		if err != nil {
			return "", nil, fmt.Errorf("encode filter value: %w", err)
		}
		args = append(args, q.field, string(v))
		stmt += ` AND fields -> $2 = $3::jsonb`
	}
	stmt += ` ORDER BY seq`
	if q.hasLimit {
		args = append(args, q.limit)
		stmt += ` LIMIT $` + strconv.Itoa(len(args))
	}
	return stmt, args, nil
}

func (p *postgresBackend) ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *postgresBackend) close() error {
	return nil
}

func decodeFields(raw []byte) (map[string]any, error) {
	fields := map[string]any{}
	if len(raw) == 0 {
		return fields, nil
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}
