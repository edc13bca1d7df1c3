package controllers

import (
	"net/http"

	"github.com/smeazy/invoicing-backend/api/middleware"
	"github.com/smeazy/invoicing-backend/api/responses"
	"github.com/smeazy/invoicing-backend/internal/identity"
	"github.com/smeazy/invoicing-backend/internal/stats"
	pkgerrors "github.com/smeazy/invoicing-backend/pkg/errors"
	"github.com/smeazy/invoicing-backend/pkg/logger"
)

// UserProfile returns the authenticated user's own profile.
func UserProfile(svc identity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "identity service unavailable"))
			return
		}

		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.FindByID(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, identity.FromModel(user))
	}
}

// UserStats returns the authenticated user's invoicing counters.
func UserStats(svc stats.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stats service unavailable"))
			return
		}

		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userStats, err := svc.Fetch(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, userStats)
	}
}

// UserLookup resolves a business profile by username so a customer can verify
// who an invoice came from.
func UserLookup(svc identity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "identity service unavailable"))
			return
		}

		username := r.URL.Query().Get("username")
		if username == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "username is required"))
			return
		}

		user, err := svc.FindByUsername(r.Context(), username)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile := identity.FromModel(user)
		// phone numbers stay private outside the owning account
		if middleware.UserIDFromContext(r.Context()) != user.ID.String() {
			profile.PhoneNumber = ""
		}
		responses.WriteSuccess(w, profile)
	}
}
