package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/calcoz/internal/export"
	"github.com/Simplici0/calcoz/internal/pricing"
)

type cli struct {
	t      *testing.T
	dbPath string
	env    string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	t.Setenv("APP_ENV", "development")
	t.Setenv("DEFAULT_CURRENCY", "INR")
	dir := t.TempDir()
	return &cli{t: t, dbPath: filepath.Join(dir, "calcoz.db"), env: filepath.Join(dir, "missing.env")}
}

func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd(&out, &errOut)
	root.SetArgs(append([]string{"--db", c.dbPath, "--env-file", c.env}, args...))
	err := root.Execute()
	return out.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run(args...)
	require.NoError(c.t, err, out)
	return out
}

var referenceArgs = []string{
	"--total-fabric-used", "150",
	"--pieces-produced", "100",
	"--fabric-cost-per-meter", "200",
	"--jobber-cost-per-piece", "30",
	"--washing-cost-per-piece", "10",
	"--press-packing-cost-per-piece", "5",
	"--accessories-cost-per-piece", "8",
	"--monthly-fixed", "50000",
	"--monthly-production", "2000",
	"--quantity", "500",
}

func TestFlagName(t *testing.T) {
	assert.Equal(t, "press-packing-cost-per-piece", flagName(pricing.FieldPressPackingCostPerPiece))
	assert.Equal(t, "quantity", flagName(pricing.FieldQuantity))
	assert.Equal(t, "fabric-cost-per-meter", flagName(pricing.FieldFabricCostPerMeter))
}

func TestCalc_JSON(t *testing.T) {
	c := newCLI(t)

	out := c.mustRun(append([]string{"calc", "--json"}, referenceArgs...)...)

	var res reportJSON
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "INR", res.Currency)
	assert.InDelta(t, 378, res.Result.CostPerPiece, 1e-9)
	assert.InDelta(t, 472.5, res.Result.SuggestedPrice, 1e-9)
	assert.InDelta(t, 47250, res.Result.TotalProfit, 1e-9)
	assert.InDelta(t, 25, res.Inputs.ProfitPercent, 1e-9)
	assert.Len(t, res.Batch, 6)
	assert.Empty(t, res.Warnings)
}

func TestCalc_Table(t *testing.T) {
	c := newCLI(t)

	out := c.mustRun(append([]string{"calc", "--currency", "usd", "--profit-percent", "10"}, referenceArgs...)...)

	assert.Contains(t, out, "$4.54")
	assert.Contains(t, out, "Fabric yield: 1.50 m per piece")
	assert.Contains(t, out, "Warning: Low Profit Margin.")
}

func TestCalc_Errors(t *testing.T) {
	c := newCLI(t)

	_, err := c.run("calc", "--currency", "XYZ")
	assert.ErrorContains(t, err, "unsupported currency")

	_, err = c.run("calc", "--quantity", "many")
	assert.Error(t, err)

	_, err = c.run("calc", "--template", "9")
	assert.ErrorContains(t, err, "not found")

	_, err = c.run("calc", "--jobber-cost-per-piece", "1e308", "--quantity", "10", "--json")
	assert.ErrorIs(t, err, errOverflow)
	_, err = c.run("export", "--jobber-cost-per-piece", "1e308", "--quantity", "10", "--out", filepath.Join(t.TempDir(), "big.pdf"))
	assert.ErrorIs(t, err, errOverflow)
}

func TestTemplatesWorkflow(t *testing.T) {
	c := newCLI(t)

	assert.Contains(t, c.mustRun("migrate"), "at version 2")
	assert.Contains(t, c.mustRun("templates", "list"), "no templates saved")
	assert.Contains(t, c.mustRun("seed"), "3 inserted")
	assert.Contains(t, c.mustRun("seed"), "no starter templates inserted")

	list := c.mustRun("templates", "list")
	assert.Contains(t, list, "Denim Jeans")
	assert.Contains(t, list, "₹378.00")

	out := c.mustRun("calc", "--template", "2", "--quantity", "1000", "--json")
	var res reportJSON
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.InDelta(t, 378000, res.Result.TotalCost, 1e-9)

	assert.Contains(t, c.mustRun("templates", "save", "Jobwork only", "--jobber-cost-per-piece", "40"), "#4")
	_, err := c.run("templates", "save", "JOBWORK ONLY")
	assert.ErrorContains(t, err, "already exists")

	show := c.mustRun("templates", "show", "4")
	assert.Contains(t, show, "Jobwork only (#4)")
	assert.Contains(t, show, "INR 40.00")

	assert.Contains(t, c.mustRun("templates", "delete", "4"), "deleted template #4")
	_, err = c.run("templates", "show", "4")
	assert.Error(t, err)
	_, err = c.run("templates", "show", "four")
	assert.ErrorContains(t, err, "positive integer")

	c.mustRun("templates", "delete", "3")
	assert.Contains(t, c.mustRun("seed"), "no starter templates inserted")
	assert.NotContains(t, c.mustRun("templates", "list"), "Kurta")
}

func TestExport_WritesReportAndLogsCalculation(t *testing.T) {
	c := newCLI(t)
	out := filepath.Join(t.TempDir(), "report.xlsx")

	msg := c.mustRun(append([]string{"export", "--format", "xlsx", "--out", out}, referenceArgs...)...)
	assert.Contains(t, msg, "wrote "+out)
	assert.Regexp(t, `DN-\d{6}-001`, msg)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("PK")))

	pdfOut := filepath.Join(t.TempDir(), "report.pdf")
	msg = c.mustRun("export", "--out", pdfOut)
	assert.Regexp(t, `DN-\d{6}-002`, msg)
	data, err = os.ReadFile(pdfOut)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF-"))

	_, err = c.run("export", "--format", "docx")
	assert.ErrorIs(t, err, export.ErrUnknownFormat)
}
