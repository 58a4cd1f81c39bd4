package seed

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Simplici0/calcoz/internal/pricing"
)

// Starter is a template created on first start.
type Starter struct {
	Name   string
	Inputs pricing.Inputs
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	Skipped int
}

// DefaultStarters returns the built-in starter templates.
func DefaultStarters() []Starter {
	f := pricing.Float
	return []Starter{
		{
			Name: "Basic T-Shirt",
			Inputs: pricing.Inputs{
				TotalFabricUsed:          f(120),
				PiecesProduced:           f(100),
				FabricCostPerM:           f(180),
				JobberCostPerPiece:       f(25),
				WashingCostPerPiece:      f(0),
				PressPackingCostPerPiece: f(6),
				AccessoriesCostPerPiece:  f(4),
				MonthlyFixed:             f(40000),
				MonthlyProduction:        f(2500),
				Quantity:                 f(500),
				ProfitPercent:            f(30),
			},
		},
		{
			Name: "Denim Jeans",
			Inputs: pricing.Inputs{
				TotalFabricUsed:          f(150),
				PiecesProduced:           f(100),
				FabricCostPerM:           f(200),
				JobberCostPerPiece:       f(30),
				WashingCostPerPiece:      f(10),
				PressPackingCostPerPiece: f(5),
				AccessoriesCostPerPiece:  f(8),
				MonthlyFixed:             f(50000),
				MonthlyProduction:        f(2000),
				Quantity:                 f(500),
				ProfitPercent:            f(25),
			},
		},
		{
			Name: "Kurta",
			Inputs: pricing.Inputs{
				TotalFabricUsed:          f(260),
				PiecesProduced:           f(100),
				FabricCostPerM:           f(140),
				JobberCostPerPiece:       f(45),
				PressPackingCostPerPiece: f(8),
				AccessoriesCostPerPiece:  f(12),
				MonthlyFixed:             f(60000),
				MonthlyProduction:        f(1500),
				Quantity:                 f(200),
				ProfitPercent:            f(35),
			},
		},
	}
}

// Run inserts the starter templates into an empty template library in a
// single transaction. Once any template exists it does nothing, so starters
// the user deleted stay deleted.
func Run(ctx context.Context, db *sql.DB, starters []Starter) (Stats, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var existing int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM templates`).Scan(&existing); err != nil {
		return Stats{}, fmt.Errorf("count templates: %w", err)
	}
	if existing > 0 {
		return Stats{Skipped: len(starters)}, nil
	}

	stats := Stats{}
	now := time.Now().UTC().Format(time.RFC3339)
	for _, s := range starters {
		if err := insertTemplate(ctx, tx, s, now); err != nil {
			return Stats{}, err
		}
		stats.Inserts++
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func insertTemplate(ctx context.Context, tx *sql.Tx, s Starter, now string) error {
	payload, err := json.Marshal(s.Inputs)
	if err != nil {
		return fmt.Errorf("encode template %q: %w", s.Name, err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO templates (name, inputs_json, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`, s.Name, string(payload), now, now); err != nil {
		return fmt.Errorf("insert template %q: %w", s.Name, err)
	}
	return nil
}
