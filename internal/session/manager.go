// Package session holds the single source of truth for "who is logged in".
// The Manager mediates every auth operation against the remote API, keeps the
// loading/authenticated flags consumers gate on, and owns the persisted
// dark-mode preference.
package session

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/go-playground/validator/v10"

	"storefront/internal/api"
	"storefront/internal/models"
	"storefront/internal/storage"
)

// AdminHomePath is where admin users land after login.
const AdminHomePath = "/admin"

// darkModeKey is the storage key for the persisted UI preference.
const darkModeKey = "dark_mode"

// Snapshot is an immutable view of session state handed to change listeners
// and guards. While Loading is true the authentication state is unknown, not
// unauthenticated.
type Snapshot struct {
	User          *models.User
	Authenticated bool
	Loading       bool
	DarkMode      bool
}

// Listener receives a snapshot after every state change.
type Listener func(Snapshot)

// Manager is the session/auth state container.
type Manager struct {
	api      *api.Client
	store    storage.Store
	nav      NavigationStrategy
	validate *validator.Validate

	mu            sync.RWMutex
	user          *models.User
	authenticated bool
	loading       bool
	darkMode      bool
	listeners     []Listener
}

// NewManager creates a Manager in the loading state. The dark-mode preference
// is rehydrated from store immediately; the user is only known after Verify.
func NewManager(client *api.Client, store storage.Store, nav NavigationStrategy) *Manager {
	m := &Manager{
		api:      client,
		store:    store,
		nav:      nav,
		validate: validator.New(),
		loading:  true,
	}
	if data, ok, err := store.Get(darkModeKey); err != nil {
		log.Printf("Failed to load dark mode preference: %v", err)
	} else if ok {
		m.darkMode = string(data) == "true"
	}
	return m
}

// OnChange registers a listener notified after every state change.
func (m *Manager) OnChange(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// Snapshot returns the current session state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() Snapshot {
	var user *models.User
	if m.user != nil {
		cp := *m.user
		user = &cp
	}
	return Snapshot{
		User:          user,
		Authenticated: m.authenticated,
		Loading:       m.loading,
		DarkMode:      m.darkMode,
	}
}

// notify snapshots under the lock and invokes listeners outside it.
func (m *Manager) notify() {
	m.mu.RLock()
	snap := m.snapshotLocked()
	listeners := make([]Listener, len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.RUnlock()

	for _, l := range listeners {
		l(snap)
	}
}

// Verify checks the session cookie against the server. It is meant to run
// once at startup. On any failure the local state is cleared and a logout is
// attempted once to scrub the server-side cookie. Loading always ends false,
// whatever path the verification took.
func (m *Manager) Verify(ctx context.Context) api.Result {
	defer func() {
		m.mu.Lock()
		m.loading = false
		m.mu.Unlock()
		m.notify()
	}()

	user, res := m.api.Verify(ctx)
	if !res.Success {
		m.clearSession()
		// Outcome intentionally ignored; the local state is already clean.
		m.api.Logout(ctx)
		return res
	}

	m.mu.Lock()
	m.user = user
	m.authenticated = true
	m.mu.Unlock()
	return res
}

// Login authenticates against the remote API. On success the session state is
// populated; admin users are handed to the navigation strategy so they land
// on the admin area.
func (m *Manager) Login(ctx context.Context, email, password string) api.Result {
	user, res := m.api.Login(ctx, email, password)
	if !res.Success {
		return res
	}

	m.mu.Lock()
	m.user = user
	m.authenticated = true
	m.mu.Unlock()
	m.notify()

	if user.IsAdmin() && m.nav != nil {
		m.nav.Navigate(AdminHomePath)
	}
	return res
}

// Register creates a new account. The form is validated client-side before
// any request goes out; a successful registration does not authenticate.
func (m *Manager) Register(ctx context.Context, req api.RegisterRequest) api.Result {
	if err := m.validate.Struct(req); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			return api.Result{
				Success: false,
				Message: fmt.Sprintf("Field '%s' failed on the '%s' rule", errs[0].Field(), errs[0].Tag()),
			}
		}
		return api.Result{Success: false, Message: "Invalid registration details"}
	}
	return m.api.Register(ctx, req)
}

// Logout clears the local session unconditionally and reports only whether
// the server-side logout call succeeded.
func (m *Manager) Logout(ctx context.Context) bool {
	res := m.api.Logout(ctx)
	m.clearSession()
	m.notify()
	return res.Success
}

// UpdateUser applies a partial profile update. A 401 triggers a single
// re-verification, not a retry of the update itself. Returned fields are
// merged into the existing user rather than replacing it.
func (m *Manager) UpdateUser(ctx context.Context, update api.ProfileUpdate) api.Result {
	updated, res := m.api.UpdateProfile(ctx, update)
	if !res.Success {
		if res.Unauthorized() {
			m.Verify(ctx)
		}
		return res
	}

	m.mu.Lock()
	m.mergeUserLocked(updated)
	m.mu.Unlock()
	m.notify()
	return res
}

// mergeUserLocked folds non-empty fields of updated into the current user.
func (m *Manager) mergeUserLocked(updated *models.User) {
	if updated == nil || m.user == nil {
		if updated != nil {
			cp := *updated
			m.user = &cp
		}
		return
	}
	if updated.FirstName != "" {
		m.user.FirstName = updated.FirstName
	}
	if updated.LastName != "" {
		m.user.LastName = updated.LastName
	}
	if updated.Email != "" {
		m.user.Email = updated.Email
	}
	if updated.PhoneNumber != "" {
		m.user.PhoneNumber = updated.PhoneNumber
	}
	if updated.Address != "" {
		m.user.Address = updated.Address
	}
	if updated.Role != "" {
		m.user.Role = updated.Role
	}
}

// RequestPasswordReset is a stateless pass-through to the remote endpoint.
func (m *Manager) RequestPasswordReset(ctx context.Context, email string) api.Result {
	return m.api.RequestPasswordReset(ctx, email)
}

// ResetPassword is a stateless pass-through to the remote endpoint.
func (m *Manager) ResetPassword(ctx context.Context, email, otp, newPassword string) api.Result {
	return m.api.ResetPassword(ctx, email, otp, newPassword)
}

// DarkMode returns the current UI preference.
func (m *Manager) DarkMode() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.darkMode
}

// ToggleDarkMode flips the preference, persists it, and notifies listeners so
// the shell can mirror it onto the UI root. The new value is returned.
func (m *Manager) ToggleDarkMode() (bool, error) {
	m.mu.Lock()
	m.darkMode = !m.darkMode
	value := "false"
	if m.darkMode {
		value = "true"
	}
	enabled := m.darkMode
	m.mu.Unlock()

	err := m.store.Set(darkModeKey, []byte(value))
	if err != nil {
		log.Printf("Failed to persist dark mode preference: %v", err)
	}
	m.notify()
	return enabled, err
}

func (m *Manager) clearSession() {
	m.mu.Lock()
	m.user = nil
	m.authenticated = false
	m.mu.Unlock()
}
