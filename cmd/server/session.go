package main

import (
	"context"
	"net/http"

	"github.com/Simplici0/calcoz/internal/plan"
)

const stateCookieName = "calcoz_state"

type stateKey struct{}

func (s *server) setStateCookie(w http.ResponseWriter, st plan.State) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    s.states.Encode(st),
		Path:     "/",
		MaxAge:   60 * 60 * 24 * 365,
		HttpOnly: true,
		Secure:   !s.cfg.IsDev(),
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *server) clearStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// readState returns the signed state carried by r. A missing or tampered
// cookie yields an empty state.
func (s *server) readState(r *http.Request) plan.State {
	cookie, err := r.Cookie(stateCookieName)
	if err != nil {
		return plan.State{}
	}
	st, ok := s.states.Decode(cookie.Value)
	if !ok {
		return plan.State{}
	}
	return st
}

func (s *server) stateMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), stateKey{}, s.readState(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func stateFrom(ctx context.Context) plan.State {
	st, _ := ctx.Value(stateKey{}).(plan.State)
	return st
}

// requirePlan sends browsers without a chosen plan to the plan picker.
func (s *server) requirePlan(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !stateFrom(r.Context()).Chosen() {
			http.Redirect(w, r, "/plan", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
