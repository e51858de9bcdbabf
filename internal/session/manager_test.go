package session_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/api"
	"storefront/internal/models"
	"storefront/internal/session"
	"storefront/internal/storage"
)

// recordingNav captures navigation requests instead of performing them.
type recordingNav struct {
	mu    sync.Mutex
	paths []string
}

func (r *recordingNav) Navigate(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

func (r *recordingNav) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	paths := make([]string, len(r.paths))
	copy(paths, r.paths)
	return paths
}

func newManager(t *testing.T, baseURL string, nav session.NavigationStrategy, store storage.Store) *session.Manager {
	t.Helper()
	client, err := api.NewClient(api.Config{BaseURL: baseURL, Timeout: 2 * time.Second})
	require.NoError(t, err)
	if store == nil {
		store = storage.NewMemoryStore()
	}
	return session.NewManager(client, store, nav)
}

func writeUser(w http.ResponseWriter, message string, user models.User) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"message": message, "user": user})
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}

var customer = models.User{
	ID: "user-1", FirstName: "Ada", LastName: "Mensah",
	Email: "ada@example.com", PhoneNumber: "+233200000001",
	Address: "12 Ring Road", Role: models.RoleCustomer,
}

func TestManager_VerifySuccessPopulatesSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/users/verify", func(w http.ResponseWriter, r *http.Request) {
		writeUser(w, "Session valid", customer)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	m := newManager(t, srv.URL, nil, nil)
	assert.True(t, m.Snapshot().Loading, "state is unknown before verify completes")

	res := m.Verify(context.Background())
	assert.True(t, res.Success)

	snap := m.Snapshot()
	assert.False(t, snap.Loading)
	assert.True(t, snap.Authenticated)
	require.NotNil(t, snap.User)
	assert.Equal(t, "user-1", snap.User.ID)
}

func TestManager_VerifyFailureClearsStateAndLogsOutOnce(t *testing.T) {
	var logoutCalls int
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/users/verify", func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusUnauthorized, "Not authenticated")
	})
	mux.HandleFunc("POST /api/users/logout", func(w http.ResponseWriter, r *http.Request) {
		logoutCalls++
		writeMessage(w, http.StatusOK, "Logged out")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	var transitions []bool
	m := newManager(t, srv.URL, nil, nil)
	m.OnChange(func(snap session.Snapshot) {
		transitions = append(transitions, snap.Loading)
	})

	res := m.Verify(context.Background())
	assert.False(t, res.Success)

	snap := m.Snapshot()
	assert.False(t, snap.Loading)
	assert.False(t, snap.Authenticated)
	assert.Nil(t, snap.User)
	assert.Equal(t, 1, logoutCalls, "verify failure attempts a server-side logout exactly once")
	require.NotEmpty(t, transitions)
	assert.False(t, transitions[len(transitions)-1], "loading must end false")
}

func TestManager_VerifyNetworkErrorEndsLoading(t *testing.T) {
	// A server that is already gone simulates a transport failure.
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	m := newManager(t, url, nil, nil)
	res := m.Verify(context.Background())

	assert.False(t, res.Success)
	snap := m.Snapshot()
	assert.False(t, snap.Loading)
	assert.False(t, snap.Authenticated)
	assert.Nil(t, snap.User)
}

func TestManager_LoginCustomerDoesNotNavigate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/users/login", func(w http.ResponseWriter, r *http.Request) {
		writeUser(w, "Login successful", customer)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	nav := &recordingNav{}
	m := newManager(t, srv.URL, nav, nil)

	res := m.Login(context.Background(), "ada@example.com", "password123")
	assert.True(t, res.Success)

	snap := m.Snapshot()
	assert.True(t, snap.Authenticated)
	require.NotNil(t, snap.User)
	assert.Equal(t, models.RoleCustomer, snap.User.Role)
	assert.Empty(t, nav.Paths(), "customer login triggers no forced navigation")
}

func TestManager_LoginAdminNavigatesImmediately(t *testing.T) {
	admin := customer
	admin.ID = "admin-1"
	admin.Role = models.RoleAdmin

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/users/login", func(w http.ResponseWriter, r *http.Request) {
		writeUser(w, "Login successful", admin)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	nav := &recordingNav{}
	m := newManager(t, srv.URL, nav, nil)

	res := m.Login(context.Background(), "admin@example.com", "password123")
	assert.True(t, res.Success)
	assert.Equal(t, []string{session.AdminHomePath}, nav.Paths())
}

func TestManager_LoginInvalidCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/users/login", func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusUnauthorized, "Invalid email or password")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	m := newManager(t, srv.URL, nil, nil)
	res := m.Login(context.Background(), "ada@example.com", "wrong")

	assert.False(t, res.Success)
	assert.Equal(t, "Invalid email or password", res.Message)
	assert.False(t, m.Snapshot().Authenticated)
	assert.Nil(t, m.Snapshot().User)
}

func TestManager_RegisterDoesNotAuthenticate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/users/register", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"message": "Account created successfully. Please log in."})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	m := newManager(t, srv.URL, nil, nil)
	res := m.Register(context.Background(), api.RegisterRequest{
		FirstName: "Ada", LastName: "Mensah",
		Email: "ada@example.com", Password: "password123",
	})

	assert.True(t, res.Success)
	assert.False(t, m.Snapshot().Authenticated, "registration never grants a session")
}

func TestManager_RegisterValidatesBeforeSending(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer srv.Close()

	m := newManager(t, srv.URL, nil, nil)
	res := m.Register(context.Background(), api.RegisterRequest{Email: "not-an-email"})

	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Message)
	assert.Equal(t, 0, requests, "an invalid form never reaches the network")
}

func TestManager_LogoutClearsStateEvenOnNetworkFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/users/login", func(w http.ResponseWriter, r *http.Request) {
		writeUser(w, "Login successful", customer)
	})
	mux.HandleFunc("POST /api/users/logout", func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusInternalServerError, "boom")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	m := newManager(t, srv.URL, nil, nil)
	require.True(t, m.Login(context.Background(), "ada@example.com", "password123").Success)

	ok := m.Logout(context.Background())
	assert.False(t, ok, "the return value reflects the network call only")

	snap := m.Snapshot()
	assert.False(t, snap.Authenticated)
	assert.Nil(t, snap.User, "local state is cleared regardless of the network outcome")
}

func TestManager_UpdateUserMergesReturnedFields(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/users/login", func(w http.ResponseWriter, r *http.Request) {
		writeUser(w, "Login successful", customer)
	})
	mux.HandleFunc("PUT /api/users/profile", func(w http.ResponseWriter, r *http.Request) {
		// The server echoes only the fields it changed.
		writeUser(w, "Profile updated", models.User{Address: "1 New Street"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	m := newManager(t, srv.URL, nil, nil)
	require.True(t, m.Login(context.Background(), "ada@example.com", "password123").Success)

	res := m.UpdateUser(context.Background(), api.ProfileUpdate{Address: "1 New Street"})
	assert.True(t, res.Success)

	user := m.Snapshot().User
	require.NotNil(t, user)
	assert.Equal(t, "1 New Street", user.Address)
	assert.Equal(t, "Ada", user.FirstName, "unreturned fields keep their old values")
	assert.Equal(t, "ada@example.com", user.Email)
}

func TestManager_UpdateUser401TriggersSingleReverify(t *testing.T) {
	verifyCalls := 0
	profileCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /api/users/profile", func(w http.ResponseWriter, r *http.Request) {
		profileCalls++
		writeMessage(w, http.StatusUnauthorized, "Invalid or expired session")
	})
	mux.HandleFunc("GET /api/users/verify", func(w http.ResponseWriter, r *http.Request) {
		verifyCalls++
		writeMessage(w, http.StatusUnauthorized, "Not authenticated")
	})
	mux.HandleFunc("POST /api/users/logout", func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusOK, "Logged out")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	m := newManager(t, srv.URL, nil, nil)
	res := m.UpdateUser(context.Background(), api.ProfileUpdate{Address: "1 New Street"})

	assert.False(t, res.Success)
	assert.Equal(t, 1, verifyCalls, "a 401 re-verifies once")
	assert.Equal(t, 1, profileCalls, "the original request is never retried")
	assert.False(t, m.Snapshot().Authenticated)
}

func TestManager_DarkModePersistsAcrossManagers(t *testing.T) {
	store := storage.NewMemoryStore()
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	m := newManager(t, srv.URL, nil, store)
	assert.False(t, m.DarkMode())

	enabled, err := m.ToggleDarkMode()
	assert.NoError(t, err)
	assert.True(t, enabled)

	// A fresh manager over the same store rehydrates the preference.
	m2 := newManager(t, srv.URL, nil, store)
	assert.True(t, m2.DarkMode())

	enabled, err = m2.ToggleDarkMode()
	assert.NoError(t, err)
	assert.False(t, enabled)
}

func TestManager_ListenersSeeDarkModeChanges(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	m := newManager(t, srv.URL, nil, nil)

	var seen []bool
	m.OnChange(func(snap session.Snapshot) {
		seen = append(seen, snap.DarkMode)
	})

	_, err := m.ToggleDarkMode()
	assert.NoError(t, err)
	require.Len(t, seen, 1)
	assert.True(t, seen[0])
}
