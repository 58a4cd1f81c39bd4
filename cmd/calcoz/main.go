// Command calcoz is the command-line front end of the cost calculator.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Simplici0/calcoz/internal/config"
	"github.com/Simplici0/calcoz/internal/currency"
	"github.com/Simplici0/calcoz/internal/db"
	"github.com/Simplici0/calcoz/internal/logging"
	"github.com/Simplici0/calcoz/internal/migrations"
	"github.com/Simplici0/calcoz/internal/store"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

type app struct {
	envFile string
	dbPath  string
	verbose bool

	cfg    config.Config
	logger *zap.Logger
	logOut io.Writer
	now    func() time.Time
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{logOut: errOut, now: time.Now}

	root := &cobra.Command{
		Use:   "calcoz",
		Short: "Calculate apparel manufacturing costs",
		Long: `calcoz computes per-piece and batch manufacturing costs for apparel
production and suggests a selling price from your target margin.

Examples:
  calcoz calc --total-fabric-used 150 --pieces-produced 100 --fabric-cost-per-meter 200
  calcoz calc --template 2 --quantity 1000 --currency USD
  calcoz export --template 2 --format xlsx --out denim.xlsx
  calcoz templates list`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file read before the environment")
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "SQLite database path (default $DB_PATH)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newCalcCmd(a),
		newExportCmd(a),
		newTemplatesCmd(a),
		newMigrateCmd(a),
		newSeedCmd(a),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.envFile)
	if err != nil {
		return err
	}
	if a.dbPath != "" {
		cfg.DBPath = a.dbPath
	}

	level := cfg.LogLevel
	if a.verbose {
		level = "debug"
	}
	a.cfg = cfg
	a.logger = logging.NewWithWriter(logging.Config{Level: level, Format: "console"}, a.logOut)
	return nil
}

// openDB opens and migrates the configured database.
func (a *app) openDB(ctx context.Context) (*sql.DB, error) {
	database, err := db.Open(ctx, a.cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if err := migrations.Up(ctx, database, a.logger); err != nil {
		_ = database.Close()
		return nil, err
	}
	a.logger.Debug("database ready", zap.String("path", a.cfg.DBPath))
	return database, nil
}

func (a *app) withStore(ctx context.Context, fn func(*store.Store) error) error {
	database, err := a.openDB(ctx)
	if err != nil {
		return err
	}
	defer database.Close()
	return fn(store.New(database))
}

func (a *app) currency(code string) (currency.Currency, error) {
	if code == "" {
		code = a.cfg.DefaultCurrency
	}
	c, ok := currency.Find(code)
	if !ok {
		return currency.Currency{}, fmt.Errorf("unsupported currency %q (supported: %v)", code, currency.Codes())
	}
	return c, nil
}
