package controllers

import (
	"net/http"

	"github.com/nyeinchan/shwecart-backend/api/responses"
	"github.com/nyeinchan/shwecart-backend/api/validators"
	"github.com/nyeinchan/shwecart-backend/internal/settings"
	"github.com/nyeinchan/shwecart-backend/pkg/enums"
	"github.com/nyeinchan/shwecart-backend/pkg/logger"
)

// OrdersEnabled reports whether checkout is currently open.
func OrdersEnabled(svc settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		enabled, err := svc.OrdersEnabled(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"orders_enabled": enabled})
	}
}

type ordersEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

// SetOrdersEnabled flips the checkout gate on behalf of an admin. Admin
// writes always win over the scheduler.
func SetOrdersEnabled(svc settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload ordersEnabledRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetOrdersEnabled(r.Context(), payload.Enabled, enums.SettingSourceAdmin); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"orders_enabled": payload.Enabled})
	}
}
