package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Simplici0/calcoz/internal/pricing"
)

// Calculation is a logged snapshot of one computation.
type Calculation struct {
	ID           string         `json:"id"`
	DesignNumber string         `json:"designNumber"`
	Currency     string         `json:"currency"`
	Plan         string         `json:"plan"`
	Inputs       pricing.Inputs `json:"inputs"`
	Result       pricing.Result `json:"result"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// RecordCalculation logs c, assigning an id and timestamp. A result that
// overflowed to an infinity is rejected with ErrNonFiniteResult.
func (s *Store) RecordCalculation(ctx context.Context, c Calculation) (Calculation, error) {
	if !c.Result.Finite() {
		return Calculation{}, fmt.Errorf("record calculation: %w", ErrNonFiniteResult)
	}
	c.ID = uuid.NewString()
	c.CreatedAt = s.now().UTC().Truncate(time.Second)

	inputsJSON, err := json.Marshal(c.Inputs)
	if err != nil {
		return Calculation{}, fmt.Errorf("encode calculation inputs: %w", err)
	}
	resultJSON, err := json.Marshal(c.Result)
	if err != nil {
		return Calculation{}, fmt.Errorf("encode calculation result: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO calculations (id, design_number, currency, plan, inputs_json, results_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.DesignNumber, c.Currency, c.Plan, string(inputsJSON), string(resultJSON), c.CreatedAt.Format(timeLayout))
	if err != nil {
		return Calculation{}, fmt.Errorf("insert calculation: %w", err)
	}

	return c, nil
}

// GetCalculation reads a logged snapshot without recomputing it.
func (s *Store) GetCalculation(ctx context.Context, id string) (Calculation, error) {
	var (
		c          Calculation
		inputsJSON string
		resultJSON string
		createdAt  string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, design_number, currency, plan, inputs_json, results_json, created_at
		FROM calculations
		WHERE id = ?
	`, id).Scan(&c.ID, &c.DesignNumber, &c.Currency, &c.Plan, &inputsJSON, &resultJSON, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Calculation{}, fmt.Errorf("calculation %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Calculation{}, fmt.Errorf("query calculation: %w", err)
	}

	if err := json.Unmarshal([]byte(inputsJSON), &c.Inputs); err != nil {
		return Calculation{}, fmt.Errorf("decode calculation inputs: %w", err)
	}
	if err := json.Unmarshal([]byte(resultJSON), &c.Result); err != nil {
		return Calculation{}, fmt.Errorf("decode calculation result: %w", err)
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return Calculation{}, err
	}
	return c, nil
}

// CountCalculations returns how many calculations have been logged.
func (s *Store) CountCalculations(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM calculations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count calculations: %w", err)
	}
	return n, nil
}

// NextDesignNumber proposes the identifier for the next calculation:
// DN-YYMMDD-NNN, where NNN is one more than the number already logged.
func (s *Store) NextDesignNumber(ctx context.Context) (string, error) {
	n, err := s.CountCalculations(ctx)
	if err != nil {
		return "", err
	}
	return FormatDesignNumber(s.now(), n+1), nil
}

// FormatDesignNumber renders a design number for day t and sequence seq.
func FormatDesignNumber(t time.Time, seq int) string {
	return fmt.Sprintf("DN-%s-%03d", t.UTC().Format("060102"), seq)
}
