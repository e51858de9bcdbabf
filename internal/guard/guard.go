// Package guard contains the route guard decision logic. Guards hold no
// state of their own; they are pure projections over the session manager's
// loading/authenticated/role fields, evaluated on every navigation.
package guard

import (
	"strings"

	"storefront/internal/models"
)

// Route paths the guards redirect to.
const (
	LoginPath     = "/login"
	DashboardPath = "/dashboard"
	AdminPrefix   = "/admin"
)

// State is the slice of session state guards decide on.
type State struct {
	Loading       bool
	Authenticated bool
	Role          models.Role
}

// Outcome is what a guard tells the shell to do.
type Outcome int

const (
	// ShowLoading renders a placeholder; authentication is still unknown.
	ShowLoading Outcome = iota
	// Allow renders the requested page.
	Allow
	// Redirect sends the user elsewhere, carrying origin and message.
	Redirect
)

// Decision is a guard's full answer for one navigation attempt.
type Decision struct {
	Outcome Outcome
	// Target, From, and Message are set only for Redirect outcomes. From
	// preserves the attempted location so login can return the user there.
	Target  string
	From    string
	Message string
}

// RequireAuth gates authenticated-only pages. Loading state renders a
// placeholder, never a redirect. Authenticated non-admin users requesting an
// admin-prefixed path are sent to the regular dashboard, not to login.
func RequireAuth(state State, path string) Decision {
	return evaluate(state, path, "Please log in to continue")
}

// RequireCheckout gates the checkout flow. Identical state machine to
// RequireAuth with purchase-flow messaging.
func RequireCheckout(state State, path string) Decision {
	return evaluate(state, path, "Please log in to continue with your purchase")
}

func evaluate(state State, path, loginMessage string) Decision {
	if state.Loading {
		return Decision{Outcome: ShowLoading}
	}
	if !state.Authenticated {
		return Decision{
			Outcome: Redirect,
			Target:  LoginPath,
			From:    path,
			Message: loginMessage,
		}
	}
	if isAdminPath(path) && state.Role != models.RoleAdmin {
		return Decision{
			Outcome: Redirect,
			Target:  DashboardPath,
			From:    path,
		}
	}
	return Decision{Outcome: Allow}
}

func isAdminPath(path string) bool {
	return path == AdminPrefix || strings.HasPrefix(path, AdminPrefix+"/")
}
