package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Simplici0/calcoz/internal/pricing"
)

// Template is a named, reusable set of costing inputs.
type Template struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	Inputs    pricing.Inputs `json:"inputs"`
	CreatedAt time.Time      `json:"createdAt"`
}

// SaveTemplate stores inputs under name. Names are unique ignoring case.
func (s *Store) SaveTemplate(ctx context.Context, name string, in pricing.Inputs) (Template, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Template{}, errors.New("template name is required")
	}

	payload, err := json.Marshal(in)
	if err != nil {
		return Template{}, fmt.Errorf("encode template inputs: %w", err)
	}

	now := s.timestamp()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO templates (name, inputs_json, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO NOTHING
	`, name, string(payload), now, now)
	if err != nil {
		return Template{}, fmt.Errorf("insert template: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return Template{}, fmt.Errorf("insert template: %w", err)
	}
	if affected == 0 {
		return Template{}, fmt.Errorf("save template %q: %w", name, ErrDuplicateName)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return Template{}, fmt.Errorf("read template id: %w", err)
	}

	return s.GetTemplate(ctx, id)
}

// ListTemplates returns every template in creation order.
func (s *Store) ListTemplates(ctx context.Context) ([]Template, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, inputs_json, created_at
		FROM templates
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query templates: %w", err)
	}
	defer rows.Close()

	templates := make([]Template, 0)
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate templates: %w", err)
	}

	return templates, nil
}

// GetTemplate loads one template by id.
func (s *Store) GetTemplate(ctx context.Context, id int64) (Template, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, inputs_json, created_at
		FROM templates
		WHERE id = ?
	`, id)

	t, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Template{}, fmt.Errorf("template %d: %w", id, ErrNotFound)
	}
	return t, err
}

// DeleteTemplate removes a template by id.
func (s *Store) DeleteTemplate(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("template %d: %w", id, ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row scanner) (Template, error) {
	var (
		t          Template
		inputsJSON string
		createdAt  string
	)
	if err := row.Scan(&t.ID, &t.Name, &inputsJSON, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Template{}, err
		}
		return Template{}, fmt.Errorf("scan template: %w", err)
	}

	if err := json.Unmarshal([]byte(inputsJSON), &t.Inputs); err != nil {
		return Template{}, fmt.Errorf("decode template %d inputs: %w", t.ID, err)
	}

	var err error
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return Template{}, err
	}
	return t, nil
}
