package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Simplici0/calcoz/internal/currency"
	"github.com/Simplici0/calcoz/internal/export"
	"github.com/Simplici0/calcoz/internal/insights"
	"github.com/Simplici0/calcoz/internal/plan"
	"github.com/Simplici0/calcoz/internal/pricing"
	"github.com/Simplici0/calcoz/internal/store"
)

// sensitivityStep is the what-if change shown next to each cost component.
const sensitivityStep = 10.0

type homeViewData struct {
	baseViewData
	Fields         []fieldView
	Templates      []store.Template
	LoadedTemplate string
}

type resultViewData struct {
	baseViewData
	Calculation store.Calculation
	Report      export.Report
	Fields      []fieldView
	Sensitivity []sensitivityRow
}

type sensitivityRow struct {
	Label      string
	CostDelta  float64
	PriceDelta float64
}

type planViewData struct {
	baseViewData
	Offers []plan.Offer
}

type templateRow struct {
	store.Template
	Result pricing.Result
}

type templatesViewData struct {
	baseViewData
	Templates []templateRow
	Fields    []fieldView
}

type planForm struct {
	Plan     string `validate:"required,oneof=basic pro"`
	Currency string `validate:"omitempty,currency"`
}

type templateForm struct {
	Name string `validate:"required,max=80"`
}

func (s *server) handleHome(w http.ResponseWriter, r *http.Request) {
	data, err := s.homeView(r, pricing.Inputs{})
	if err != nil {
		s.logger.Error("load home", zap.Error(err))
		http.Error(w, "failed to load templates", http.StatusInternalServerError)
		return
	}
	s.renderTemplate(w, http.StatusOK, "home.html", data)
}

func (s *server) homeView(r *http.Request, in pricing.Inputs) (homeViewData, error) {
	data := homeViewData{
		baseViewData: s.baseView(r),
		Fields:       fieldViews(in),
	}
	if data.State.Plan.Allows(plan.FeatureTemplates) {
		templates, err := s.store.ListTemplates(r.Context())
		if err != nil {
			return homeViewData{}, err
		}
		data.Templates = templates
	}
	return data, nil
}

func (s *server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	in := parseInputsForm(r.PostForm)
	calc, err := s.recordCalculation(r.Context(), stateFrom(r.Context()), in, "form")
	if errors.Is(err, store.ErrNonFiniteResult) {
		data, viewErr := s.homeView(r, in)
		if viewErr != nil {
			s.logger.Error("load home", zap.Error(viewErr))
			http.Error(w, "failed to load templates", http.StatusInternalServerError)
			return
		}
		data.ErrorMessage = "These inputs are too large to calculate. Reduce the largest values and try again."
		s.renderTemplate(w, http.StatusUnprocessableEntity, "home.html", data)
		return
	}
	if err != nil {
		s.logger.Error("record calculation", zap.Error(err))
		http.Error(w, "failed to save calculation", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/calculations/"+calc.ID, http.StatusSeeOther)
}

// recordCalculation computes in and logs the snapshot under a new design number.
func (s *server) recordCalculation(ctx context.Context, st plan.State, in pricing.Inputs, source string) (store.Calculation, error) {
	cur := st.CurrencyOrDefault(s.cfg.DefaultCurrency)
	designNumber, err := s.store.NextDesignNumber(ctx)
	if err != nil {
		return store.Calculation{}, err
	}

	calc, err := s.store.RecordCalculation(ctx, store.Calculation{
		DesignNumber: designNumber,
		Currency:     cur.Code,
		Plan:         string(st.Plan),
		Inputs:       in,
		Result:       pricing.Calculate(in),
	})
	if err != nil {
		return store.Calculation{}, err
	}

	s.metrics.ObserveCalculation(source, cur.Code)
	return calc, nil
}

func (s *server) handleCalculationDetail(w http.ResponseWriter, r *http.Request) {
	calc, err := s.store.GetCalculation(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.logger.Error("load calculation", zap.Error(err))
		http.Error(w, "failed to load calculation", http.StatusInternalServerError)
		return
	}

	base := s.baseView(r)
	data := resultViewData{
		baseViewData: base,
		Calculation:  calc,
		Report:       export.NewReport(calc.DesignNumber, base.State.Plan, base.Currency, calc.Inputs, calc.Result, s.now()),
		Fields:       fieldViews(calc.Inputs),
	}
	if base.State.Plan.Allows(plan.FeatureSensitivity) {
		data.Sensitivity = sensitivityRows(calc.Inputs)
	}

	s.renderTemplate(w, http.StatusOK, "result.html", data)
}

func sensitivityRows(in pricing.Inputs) []sensitivityRow {
	fields := insights.AdjustableFields()
	rows := make([]sensitivityRow, 0, len(fields))
	for _, f := range fields {
		res, err := insights.Sensitivity(in, f, sensitivityStep)
		if err != nil || !res.Finite() {
			continue
		}
		rows = append(rows, sensitivityRow{Label: f.Label(), CostDelta: res.CostDelta, PriceDelta: res.PriceDelta})
	}
	return rows
}

func (s *server) handleCalculationExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	st := stateFrom(r.Context())
	if err := st.Plan.Require(format.Feature()); err != nil {
		http.Redirect(w, r, "/plan?error="+url.QueryEscape("Upgrade to Pro to export "+strings.ToUpper(string(format))+"."), http.StatusSeeOther)
		return
	}

	calc, err := s.store.GetCalculation(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.logger.Error("load calculation", zap.Error(err))
		http.Error(w, "failed to load calculation", http.StatusInternalServerError)
		return
	}

	cur := st.CurrencyOrDefault(s.cfg.DefaultCurrency)
	report := export.NewReport(calc.DesignNumber, st.Plan, cur, calc.Inputs, calc.Result, s.now())
	body, err := s.renderReport(format, report)
	if err != nil {
		http.Error(w, "failed to export report", http.StatusInternalServerError)
		return
	}
	sendReport(w, format, report, body)
}

// renderReport renders into memory so a failure never reaches the client as
// a truncated file. Failures are logged and counted here.
func (s *server) renderReport(format export.Format, report export.Report) ([]byte, error) {
	var buf bytes.Buffer
	err := export.Write(&buf, format, report)
	s.metrics.ObserveExport(string(format), err)
	if err != nil {
		s.logger.Error("export report", zap.String("format", string(format)), zap.String("design_number", report.DesignNumber), zap.Error(err))
		return nil, err
	}
	return buf.Bytes(), nil
}

func sendReport(w http.ResponseWriter, format export.Format, report export.Report, body []byte) {
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.FileName(format)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *server) handleCurrencySubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	cur, ok := currency.Find(r.FormValue("currency"))
	if !ok {
		http.Error(w, "unsupported currency", http.StatusBadRequest)
		return
	}

	st := stateFrom(r.Context())
	st.Currency = cur.Code
	s.setStateCookie(w, st)
	http.Redirect(w, r, localRedirect(r.FormValue("return")), http.StatusSeeOther)
}

// localRedirect keeps redirects on this site.
func localRedirect(target string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return "/"
	}
	return target
}

func (s *server) handlePlanForm(w http.ResponseWriter, r *http.Request) {
	s.renderTemplate(w, http.StatusOK, "plan.html", planViewData{
		baseViewData: s.baseView(r),
		Offers:       plan.Offers(),
	})
}

func (s *server) handlePlanSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	form := planForm{
		Plan:     strings.ToLower(strings.TrimSpace(r.FormValue("plan"))),
		Currency: strings.ToUpper(strings.TrimSpace(r.FormValue("currency"))),
	}
	if err := s.validate.Struct(form); err != nil {
		data := planViewData{baseViewData: s.baseView(r), Offers: plan.Offers()}
		data.ErrorMessage = "Choose a plan to continue."
		s.renderTemplate(w, http.StatusBadRequest, "plan.html", data)
		return
	}

	st := stateFrom(r.Context())
	st.Plan = plan.Plan(form.Plan)
	if form.Currency != "" {
		st.Currency = form.Currency
	}
	s.setStateCookie(w, st)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *server) handlePlanReset(w http.ResponseWriter, r *http.Request) {
	s.clearStateCookie(w)
	http.Redirect(w, r, "/plan", http.StatusSeeOther)
}

// requireTemplates redirects plans without template storage to the plan picker.
func (s *server) requireTemplates(w http.ResponseWriter, r *http.Request) bool {
	if err := stateFrom(r.Context()).Plan.Require(plan.FeatureTemplates); err != nil {
		http.Redirect(w, r, "/plan?error="+url.QueryEscape("Upgrade to Pro to use templates."), http.StatusSeeOther)
		return false
	}
	return true
}

func (s *server) handleTemplatesList(w http.ResponseWriter, r *http.Request) {
	if !s.requireTemplates(w, r) {
		return
	}

	templates, err := s.store.ListTemplates(r.Context())
	if err != nil {
		s.logger.Error("list templates", zap.Error(err))
		http.Error(w, "failed to load templates", http.StatusInternalServerError)
		return
	}

	rows := make([]templateRow, 0, len(templates))
	for _, t := range templates {
		rows = append(rows, templateRow{Template: t, Result: pricing.Calculate(t.Inputs)})
	}
	s.renderTemplate(w, http.StatusOK, "templates.html", templatesViewData{
		baseViewData: s.baseView(r),
		Templates:    rows,
		Fields:       fieldViews(pricing.Inputs{}),
	})
}

func (s *server) handleTemplatesCreate(w http.ResponseWriter, r *http.Request) {
	if !s.requireTemplates(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	form := templateForm{Name: strings.TrimSpace(r.FormValue("name"))}
	if err := s.validate.Struct(form); err != nil {
		http.Redirect(w, r, "/templates?error="+url.QueryEscape("Template name is required (max 80 characters)."), http.StatusSeeOther)
		return
	}

	_, err := s.store.SaveTemplate(r.Context(), form.Name, parseInputsForm(r.PostForm))
	s.metrics.ObserveTemplate("create", err)
	switch {
	case errors.Is(err, store.ErrDuplicateName):
		http.Redirect(w, r, "/templates?error="+url.QueryEscape("A template named "+form.Name+" already exists."), http.StatusSeeOther)
		return
	case err != nil:
		s.logger.Error("save template", zap.Error(err))
		http.Error(w, "failed to save template", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/templates?success=Template+saved", http.StatusSeeOther)
}

func (s *server) handleTemplatesDelete(w http.ResponseWriter, r *http.Request) {
	if !s.requireTemplates(w, r) {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid template id", http.StatusBadRequest)
		return
	}

	err = s.store.DeleteTemplate(r.Context(), id)
	s.metrics.ObserveTemplate("delete", err)
	if errors.Is(err, store.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.logger.Error("delete template", zap.Int64("id", id), zap.Error(err))
		http.Error(w, "failed to delete template", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/templates?success=Template+deleted", http.StatusSeeOther)
}

func (s *server) handleTemplatesLoad(w http.ResponseWriter, r *http.Request) {
	if !s.requireTemplates(w, r) {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid template id", http.StatusBadRequest)
		return
	}

	t, err := s.store.GetTemplate(r.Context(), id)
	s.metrics.ObserveTemplate("load", err)
	if errors.Is(err, store.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.logger.Error("load template", zap.Int64("id", id), zap.Error(err))
		http.Error(w, "failed to load template", http.StatusInternalServerError)
		return
	}

	data, err := s.homeView(r, t.Inputs)
	if err != nil {
		s.logger.Error("load home", zap.Error(err))
		http.Error(w, "failed to load templates", http.StatusInternalServerError)
		return
	}
	data.LoadedTemplate = t.Name
	s.renderTemplate(w, http.StatusOK, "home.html", data)
}
