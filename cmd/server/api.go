package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Simplici0/calcoz/internal/currency"
	"github.com/Simplici0/calcoz/internal/export"
	"github.com/Simplici0/calcoz/internal/insights"
	"github.com/Simplici0/calcoz/internal/plan"
	"github.com/Simplici0/calcoz/internal/pricing"
	"github.com/Simplici0/calcoz/internal/store"
)

const maxRequestBody = 1 << 20

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type fieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

type stateRequest struct {
	Plan     string `json:"plan" validate:"required,oneof=basic pro"`
	Currency string `json:"currency" validate:"omitempty,currency"`
}

type stateResponse struct {
	Plan     plan.Plan         `json:"plan"`
	Currency currency.Currency `json:"currency"`
	Features []plan.Feature    `json:"features"`
}

type calculateRequest struct {
	Inputs   pricing.Inputs `json:"inputs"`
	Currency string         `json:"currency" validate:"omitempty,currency"`
}

type calculationResponse struct {
	ID             string                `json:"id"`
	DesignNumber   string                `json:"designNumber"`
	Currency       currency.Currency     `json:"currency"`
	Inputs         pricing.Inputs        `json:"inputs"`
	ResolvedInputs pricing.Values        `json:"resolvedInputs"`
	Result         pricing.Result        `json:"result"`
	Display        map[string]string     `json:"display"`
	Warnings       []insights.Warning    `json:"warnings,omitempty"`
	Yield          *insights.Yield       `json:"yield,omitempty"`
	Batch          []insights.BatchPoint `json:"batch,omitempty"`
}

type sensitivityRequest struct {
	Inputs  pricing.Inputs `json:"inputs"`
	Field   string         `json:"field" validate:"required"`
	Percent float64        `json:"percent" validate:"gte=-50,lte=50"`
}

type exportRequest struct {
	Inputs       pricing.Inputs `json:"inputs"`
	Currency     string         `json:"currency" validate:"omitempty,currency"`
	DesignNumber string         `json:"designNumber" validate:"omitempty,max=32"`
}

type templateRequest struct {
	Name   string         `json:"name" validate:"required,max=80"`
	Inputs pricing.Inputs `json:"inputs"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
		_, ok := currency.Find(fl.Field().String())
		return ok
	})
	return v
}

const encodeFailedBody = `{"error":{"code":"internal","message":"failed to encode response"}}` + "\n"

// writeJSON encodes v before touching the response so an encoding failure
// still produces a well-formed 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		status = http.StatusInternalServerError
		buf.Reset()
		buf.WriteString(encodeFailedBody)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func writeNonFinite(w http.ResponseWriter) {
	writeError(w, http.StatusUnprocessableEntity, "non_finite_result",
		"inputs are too large: the result overflows", nil)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	writeJSON(w, status, map[string]any{
		"error": errorBody{Code: code, Message: message, Details: details},
	})
}

// decodeAndValidate reads a JSON body into dst and runs its validation tags.
// It writes the error response itself and reports whether to continue.
func (s *server) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		msg := "request body must be valid JSON"
		if errors.Is(err, io.EOF) {
			msg = "request body is empty"
		}
		writeError(w, http.StatusBadRequest, "invalid_json", msg, err.Error())
		return false
	}

	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
			return false
		}
		details := make([]fieldError, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, fieldError{Field: fe.Field(), Rule: fe.Tag()})
		}
		writeError(w, http.StatusUnprocessableEntity, "validation_failed", "request failed validation", details)
		return false
	}
	return true
}

func (s *server) apiRequire(w http.ResponseWriter, r *http.Request, f plan.Feature) bool {
	if err := stateFrom(r.Context()).Plan.Require(f); err != nil {
		writeError(w, http.StatusForbidden, "feature_locked", err.Error(), nil)
		return false
	}
	return true
}

func (s *server) apiCurrencies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"base":       currency.BaseCode,
		"default":    s.cfg.DefaultCurrency,
		"currencies": currency.All(),
	})
}

func (s *server) apiPlans(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"plans": plan.Offers()})
}

func (s *server) stateResponse(st plan.State) stateResponse {
	return stateResponse{
		Plan:     st.Plan,
		Currency: st.CurrencyOrDefault(s.cfg.DefaultCurrency),
		Features: st.Plan.Features(),
	}
}

func (s *server) apiGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.stateResponse(stateFrom(r.Context())))
}

func (s *server) apiPutState(w http.ResponseWriter, r *http.Request) {
	var req stateRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	st := plan.State{Plan: plan.Plan(req.Plan)}
	if req.Currency != "" {
		st.Currency = currency.Lookup(req.Currency).Code
	} else {
		st.Currency = stateFrom(r.Context()).Currency
	}
	s.setStateCookie(w, st)
	writeJSON(w, http.StatusOK, s.stateResponse(st))
}

// apiCalculate is open to every caller; plan-gated insights are added when
// the state allows them.
func (s *server) apiCalculate(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	st := stateFrom(r.Context())
	if req.Currency != "" {
		st.Currency = currency.Lookup(req.Currency).Code
	}

	calc, err := s.recordCalculation(r.Context(), st, req.Inputs, "api")
	if errors.Is(err, store.ErrNonFiniteResult) {
		writeNonFinite(w)
		return
	}
	if err != nil {
		s.logger.Error("record calculation", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", "failed to save calculation", nil)
		return
	}

	writeJSON(w, http.StatusOK, s.calculationResponse(calc, st))
}

func (s *server) apiGetCalculation(w http.ResponseWriter, r *http.Request) {
	calc, err := s.store.GetCalculation(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "calculation not found", nil)
		return
	}
	if err != nil {
		s.logger.Error("load calculation", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", "failed to load calculation", nil)
		return
	}

	st := stateFrom(r.Context())
	st.Currency = calc.Currency
	writeJSON(w, http.StatusOK, s.calculationResponse(calc, st))
}

func (s *server) calculationResponse(calc store.Calculation, st plan.State) calculationResponse {
	cur := st.CurrencyOrDefault(s.cfg.DefaultCurrency)
	values := calc.Inputs.Resolved()
	res := calculationResponse{
		ID:             calc.ID,
		DesignNumber:   calc.DesignNumber,
		Currency:       cur,
		Inputs:         calc.Inputs,
		ResolvedInputs: values,
		Result:         calc.Result,
		Display: map[string]string{
			"costPerPiece":   cur.Format(calc.Result.CostPerPiece),
			"suggestedPrice": cur.Format(calc.Result.SuggestedPrice),
			"profitPerPiece": cur.Format(calc.Result.ProfitPerPiece),
			"totalCost":      cur.Format(calc.Result.TotalCost),
			"totalProfit":    cur.Format(calc.Result.TotalProfit),
		},
	}
	if st.Plan.Allows(plan.FeatureWarnings) {
		res.Warnings = insights.Warnings(calc.Result, values.ProfitPercent)
		if y, ok := insights.YieldEfficiency(values.TotalFabricUsed, values.PiecesProduced); ok {
			res.Yield = &y
		}
	}
	if st.Plan.Allows(plan.FeatureBatch) {
		res.Batch = insights.SimulateBatch(calc.Result, values.Quantity)
	}
	return res
}

func (s *server) apiSensitivity(w http.ResponseWriter, r *http.Request) {
	if !s.apiRequire(w, r, plan.FeatureSensitivity) {
		return
	}
	var req sensitivityRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	field, ok := pricing.ParseField(req.Field)
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, "validation_failed", fmt.Sprintf("unknown field %q", req.Field),
			[]fieldError{{Field: "field", Rule: "field"}})
		return
	}

	res, err := insights.Sensitivity(req.Inputs, field, req.Percent)
	if errors.Is(err, insights.ErrNotAdjustable) {
		writeError(w, http.StatusUnprocessableEntity, "validation_failed", err.Error(),
			[]fieldError{{Field: "field", Rule: "adjustable"}})
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "failed to compute sensitivity", nil)
		return
	}
	if !res.Finite() {
		writeNonFinite(w)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *server) apiExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown_format", err.Error(), nil)
		return
	}
	if !s.apiRequire(w, r, format.Feature()) {
		return
	}

	var req exportRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	result := pricing.Calculate(req.Inputs)
	if !result.Finite() {
		writeNonFinite(w)
		return
	}

	st := stateFrom(r.Context())
	if req.Currency != "" {
		st.Currency = req.Currency
	}

	designNumber := strings.TrimSpace(req.DesignNumber)
	if designNumber == "" {
		designNumber, err = s.store.NextDesignNumber(r.Context())
		if err != nil {
			s.logger.Error("next design number", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal", "failed to number report", nil)
			return
		}
	}

	cur := st.CurrencyOrDefault(s.cfg.DefaultCurrency)
	report := export.NewReport(designNumber, st.Plan, cur, req.Inputs, result, s.now())
	body, err := s.renderReport(format, report)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "export_failed", "failed to export report", nil)
		return
	}
	sendReport(w, format, report, body)
}

func (s *server) apiListTemplates(w http.ResponseWriter, r *http.Request) {
	if !s.apiRequire(w, r, plan.FeatureTemplates) {
		return
	}
	templates, err := s.store.ListTemplates(r.Context())
	s.metrics.ObserveTemplate("list", err)
	if err != nil {
		s.logger.Error("list templates", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", "failed to load templates", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"templates": templates})
}

func (s *server) apiCreateTemplate(w http.ResponseWriter, r *http.Request) {
	if !s.apiRequire(w, r, plan.FeatureTemplates) {
		return
	}
	var req templateRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	t, err := s.store.SaveTemplate(r.Context(), req.Name, req.Inputs)
	s.metrics.ObserveTemplate("create", err)
	switch {
	case errors.Is(err, store.ErrDuplicateName):
		writeError(w, http.StatusConflict, "duplicate_name", err.Error(), nil)
		return
	case err != nil:
		s.logger.Error("save template", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", "failed to save template", nil)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *server) apiGetTemplate(w http.ResponseWriter, r *http.Request) {
	if !s.apiRequire(w, r, plan.FeatureTemplates) {
		return
	}
	id, ok := templateID(w, r)
	if !ok {
		return
	}

	t, err := s.store.GetTemplate(r.Context(), id)
	s.metrics.ObserveTemplate("load", err)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "template not found", nil)
		return
	}
	if err != nil {
		s.logger.Error("load template", zap.Int64("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", "failed to load template", nil)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *server) apiDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if !s.apiRequire(w, r, plan.FeatureTemplates) {
		return
	}
	id, ok := templateID(w, r)
	if !ok {
		return
	}

	err := s.store.DeleteTemplate(r.Context(), id)
	s.metrics.ObserveTemplate("delete", err)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "template not found", nil)
		return
	}
	if err != nil {
		s.logger.Error("delete template", zap.Int64("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", "failed to delete template", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func templateID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_id", "template id must be a positive integer", nil)
		return 0, false
	}
	return id, true
}
