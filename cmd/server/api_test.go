package main

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/calcoz/internal/plan"
	"github.com/Simplici0/calcoz/internal/store"
)

const referenceInputsJSON = `{
	"totalFabricUsed": 150, "piecesProduced": 100, "fabricCostPerMeter": 200,
	"jobberCostPerPiece": 30, "washingCostPerPiece": 10, "pressPackingCostPerPiece": 5,
	"accessoriesCostPerPiece": 8, "monthlyFixed": 50000, "monthlyProduction": 2000,
	"quantity": 500, "profitPercent": 25
}`

func postJSON(path, body string, st *plan.State) testRequest {
	return testRequest{
		method:      http.MethodPost,
		path:        path,
		body:        strings.NewReader(body),
		contentType: "application/json",
		state:       st,
	}
}

type apiErrorResponse struct {
	Error struct {
		Code    string       `json:"code"`
		Message string       `json:"message"`
		Details []fieldError `json:"details"`
	} `json:"error"`
}

func decodeError(t *testing.T, body []byte) apiErrorResponse {
	t.Helper()
	var out apiErrorResponse
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestAPICalculate_ReferenceScenario(t *testing.T) {
	srv, h := newTestServer(t)

	rec := srv.do(t, h, postJSON("/api/v1/calculate", `{"inputs": `+referenceInputsJSON+`}`, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res calculationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.NotEmpty(t, res.ID)
	assert.Regexp(t, `^DN-\d{6}-001$`, res.DesignNumber)
	assert.Equal(t, "INR", res.Currency.Code)
	assert.InDelta(t, 378, res.Result.CostPerPiece, 1e-9)
	assert.InDelta(t, 472.5, res.Result.SuggestedPrice, 1e-9)
	assert.InDelta(t, 94.5, res.Result.ProfitPerPiece, 1e-9)
	assert.InDelta(t, 189000, res.Result.TotalCost, 1e-9)
	assert.InDelta(t, 47250, res.Result.TotalProfit, 1e-9)
	assert.Equal(t, "₹47,250.00", res.Display["totalProfit"])
	assert.Nil(t, res.Batch, "insights need a plan")

	rec = srv.do(t, h, testRequest{method: http.MethodGet, path: "/api/v1/calculations/" + res.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	var again calculationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &again))
	assert.Equal(t, res.Result, again.Result)
	assert.Equal(t, res.DesignNumber, again.DesignNumber)
}

func TestAPICalculate_EmptyInputsAndPlanInsights(t *testing.T) {
	srv, h := newTestServer(t)

	rec := srv.do(t, h, postJSON("/api/v1/calculate", `{"inputs": {}, "currency": "usd"}`, basicState))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res calculationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "USD", res.Currency.Code)
	assert.Zero(t, res.Result.CostPerPiece)
	assert.InDelta(t, 25, res.ResolvedInputs.ProfitPercent, 1e-9)
	assert.Len(t, res.Batch, 6)
	assert.Nil(t, res.Yield)
}

func TestAPICalculate_RejectsBadRequests(t *testing.T) {
	srv, h := newTestServer(t)

	rec := srv.do(t, h, postJSON("/api/v1/calculate", `{"inputs": {}, "currency": "XYZ"}`, nil))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	errRes := decodeError(t, rec.Body.Bytes())
	assert.Equal(t, "validation_failed", errRes.Error.Code)
	require.Len(t, errRes.Error.Details, 1)
	assert.Equal(t, fieldError{Field: "currency", Rule: "currency"}, errRes.Error.Details[0])

	rec = srv.do(t, h, postJSON("/api/v1/calculate", `{"inputs": {"fabric": 1}}`, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, h, postJSON("/api/v1/calculate", ``, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "request body is empty", decodeError(t, rec.Body.Bytes()).Error.Message)

	rec = srv.do(t, h, testRequest{method: http.MethodGet, path: "/api/v1/calculations/nope"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPIState(t *testing.T) {
	srv, h := newTestServer(t)

	rec := srv.do(t, h, testRequest{
		method:      http.MethodPut,
		path:        "/api/v1/state",
		body:        strings.NewReader(`{"plan": "basic", "currency": "eur"}`),
		contentType: "application/json",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res stateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, plan.Basic, res.Plan)
	assert.Equal(t, "EUR", res.Currency.Code)
	assert.Len(t, res.Features, 4)

	st, ok := stateCookie(t, srv, rec)
	require.True(t, ok)
	assert.Equal(t, plan.State{Plan: plan.Basic, Currency: "EUR"}, st)

	rec = srv.do(t, h, testRequest{
		method:      http.MethodPut,
		path:        "/api/v1/state",
		body:        strings.NewReader(`{"plan": "gold"}`),
		contentType: "application/json",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = srv.do(t, h, testRequest{method: http.MethodGet, path: "/api/v1/state", state: proState})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, plan.Pro, res.Plan)
	assert.Equal(t, "INR", res.Currency.Code)
}

func TestAPICurrenciesAndPlans(t *testing.T) {
	srv, h := newTestServer(t)

	rec := srv.do(t, h, testRequest{method: http.MethodGet, path: "/api/v1/currencies"})
	require.Equal(t, http.StatusOK, rec.Code)
	var cur struct {
		Base       string `json:"base"`
		Currencies []struct {
			Code string  `json:"code"`
			Rate float64 `json:"rate"`
		} `json:"currencies"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cur))
	assert.Equal(t, "INR", cur.Base)
	assert.Len(t, cur.Currencies, 5)

	rec = srv.do(t, h, testRequest{method: http.MethodGet, path: "/api/v1/plans"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"priceInr":249`)
}

func TestAPITemplates(t *testing.T) {
	srv, h := newTestServer(t)

	rec := srv.do(t, h, postJSON("/api/v1/templates", `{"name": "Kurta", "inputs": {}}`, basicState))
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "feature_locked", decodeError(t, rec.Body.Bytes()).Error.Code)

	rec = srv.do(t, h, postJSON("/api/v1/templates", `{"name": "Denim Jeans", "inputs": `+referenceInputsJSON+`}`, proState))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created store.Template
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Denim Jeans", created.Name)
	require.NotNil(t, created.Inputs.FabricCostPerM)
	assert.InDelta(t, 200, *created.Inputs.FabricCostPerM, 1e-9)

	rec = srv.do(t, h, postJSON("/api/v1/templates", `{"name": "DENIM JEANS", "inputs": {}}`, proState))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = srv.do(t, h, postJSON("/api/v1/templates", `{"name": "", "inputs": {}}`, proState))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = srv.do(t, h, testRequest{method: http.MethodGet, path: "/api/v1/templates", state: proState})
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Templates []store.Template `json:"templates"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Templates, 1)

	path := "/api/v1/templates/" + jsonNumber(created.ID)
	rec = srv.do(t, h, testRequest{method: http.MethodGet, path: path, state: proState})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, h, testRequest{method: http.MethodDelete, path: path, state: proState})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = srv.do(t, h, testRequest{method: http.MethodGet, path: path, state: proState})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(t, h, testRequest{method: http.MethodDelete, path: "/api/v1/templates/abc", state: proState})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func jsonNumber(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}

func TestAPISensitivity(t *testing.T) {
	srv, h := newTestServer(t)
	body := `{"inputs": ` + referenceInputsJSON + `, "field": "jobberCostPerPiece", "percent": 10}`

	rec := srv.do(t, h, postJSON("/api/v1/sensitivity", body, basicState))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = srv.do(t, h, postJSON("/api/v1/sensitivity", body, proState))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res struct {
		CostDelta  float64 `json:"costDelta"`
		PriceDelta float64 `json:"priceDelta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.InDelta(t, 3, res.CostDelta, 1e-9)
	assert.InDelta(t, 3.75, res.PriceDelta, 1e-9)

	rec = srv.do(t, h, postJSON("/api/v1/sensitivity", `{"inputs": {}, "field": "quantity", "percent": 10}`, proState))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = srv.do(t, h, postJSON("/api/v1/sensitivity", `{"inputs": {}, "field": "nope", "percent": 10}`, proState))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = srv.do(t, h, postJSON("/api/v1/sensitivity", `{"inputs": {}, "field": "monthlyFixed", "percent": 80}`, proState))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAPIExport(t *testing.T) {
	srv, h := newTestServer(t)
	body := `{"inputs": ` + referenceInputsJSON + `, "designNumber": "DN-261019-042"}`

	rec := srv.do(t, h, postJSON("/api/v1/export/xlsx", body, basicState))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = srv.do(t, h, postJSON("/api/v1/export/xlsx", body, proState))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "attachment; filename=\"DN-261019-042.xlsx\"", rec.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "PK"), "xlsx is a zip archive")

	rec = srv.do(t, h, postJSON("/api/v1/export/pdf", `{"inputs": {}}`, basicState))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Regexp(t, `filename="DN-\d{6}-001\.pdf"`, rec.Header().Get("Content-Disposition"))

	rec = srv.do(t, h, postJSON("/api/v1/export/docx", body, proState))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

const overflowingInputsJSON = `{"jobberCostPerPiece": 1e308, "quantity": 10}`

func TestAPI_RejectsResultsThatOverflow(t *testing.T) {
	srv, h := newTestServer(t)

	rec := srv.do(t, h, postJSON("/api/v1/calculate", `{"inputs": `+overflowingInputsJSON+`}`, nil))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	assert.Equal(t, "non_finite_result", decodeError(t, rec.Body.Bytes()).Error.Code)

	body := `{"inputs": ` + overflowingInputsJSON + `, "field": "jobberCostPerPiece", "percent": 10}`
	rec = srv.do(t, h, postJSON("/api/v1/sensitivity", body, proState))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	assert.Equal(t, "non_finite_result", decodeError(t, rec.Body.Bytes()).Error.Code)

	rec = srv.do(t, h, postJSON("/api/v1/export/pdf", `{"inputs": `+overflowingInputsJSON+`}`, basicState))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	assert.Equal(t, "non_finite_result", decodeError(t, rec.Body.Bytes()).Error.Code)

	// nothing was logged, so numbering starts at 001
	rec = srv.do(t, h, postJSON("/api/v1/calculate", `{"inputs": {}}`, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res calculationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Regexp(t, `^DN-\d{6}-001$`, res.DesignNumber)
}

func TestWriteJSON_EncodeFailureIsWellFormed500(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, map[string]float64{"totalCost": math.Inf(1)})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "internal", decodeError(t, rec.Body.Bytes()).Error.Code)
}
