package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ptdat/roomledger/internal/auth"
	"github.com/ptdat/roomledger/internal/cache"
	"github.com/ptdat/roomledger/internal/notify"
	"github.com/ptdat/roomledger/internal/service"
	"github.com/ptdat/roomledger/internal/storage/sqlite"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tempDir, err := os.MkdirTemp("", "roomledger-api-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := sqlite.New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	views := cache.NewMemory()
	hub := notify.NewHub()
	t.Cleanup(func() { hub.Close() })

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store)

	server := NewServer(
		service.NewAuthService(authenticator, jwtManager, store, testLogger()),
		service.NewRoomService(store, views),
		service.NewInvoiceService(store, views, hub),
		service.NewPresenceService(store, views, hub),
		hub,
	)
	return server.Router(jwtManager, "*")
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
	return v
}

// registerUser signs up a user and returns their token and ID.
func registerUser(t *testing.T, router *gin.Engine, email string) (token, userID string) {
	t.Helper()

	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email":        email,
		"display_name": email,
		"password":     "correct-horse-battery",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register returned %d: %s", w.Code, w.Body.String())
	}

	resp := decode[struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}](t, w)
	return resp.Token, resp.User.ID
}

func TestAuthFlow(t *testing.T) {
	router := newTestRouter(t)

	token, _ := registerUser(t, router, "alice@example.com")

	// Duplicate registration conflicts.
	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email":        "alice@example.com",
		"display_name": "Alice Again",
		"password":     "another-password",
	})
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409 for duplicate email, got %d", w.Code)
	}

	// Wrong password is rejected without detail.
	w = doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    "alice@example.com",
		"password": "wrong",
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for wrong password, got %d", w.Code)
	}

	w = doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    "alice@example.com",
		"password": "correct-horse-battery",
	})
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 for login, got %d: %s", w.Code, w.Body.String())
	}

	// /me requires a token and returns the profile without the hash.
	if w = doJSON(t, router, http.MethodGet, "/api/v1/me", "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", w.Code)
	}
	w = doJSON(t, router, http.MethodGet, "/api/v1/me", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 for /me, got %d", w.Code)
	}
	if bytes.Contains(w.Body.Bytes(), []byte("password")) {
		t.Error("Profile response must not contain password material")
	}
}

func TestRoomAndInvoiceFlow(t *testing.T) {
	router := newTestRouter(t)

	aliceToken, aliceID := registerUser(t, router, "alice@example.com")
	bobToken, bobID := registerUser(t, router, "bob@example.com")

	w := doJSON(t, router, http.MethodPost, "/api/v1/rooms", aliceToken, gin.H{"name": "Flat 4B"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create room returned %d: %s", w.Code, w.Body.String())
	}
	room := decode[struct {
		ID string `json:"id"`
	}](t, w)

	// Outsiders cannot see the room until they join.
	if w = doJSON(t, router, http.MethodGet, "/api/v1/rooms/"+room.ID, bobToken, nil); w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for outsider, got %d", w.Code)
	}
	if w = doJSON(t, router, http.MethodPost, "/api/v1/rooms/"+room.ID+"/join", bobToken, nil); w.Code != http.StatusNoContent {
		t.Fatalf("join returned %d: %s", w.Code, w.Body.String())
	}

	// Equal-split invoice for both members.
	w = doJSON(t, router, http.MethodPost, "/api/v1/rooms/"+room.ID+"/invoices", aliceToken, gin.H{
		"title":        "Groceries",
		"amount":       100000,
		"type":         "other",
		"split_method": "equal",
		"apply_to":     []string{aliceID, bobID},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create invoice returned %d: %s", w.Code, w.Body.String())
	}
	inv := decode[struct {
		ID string `json:"id"`
	}](t, w)

	w = doJSON(t, router, http.MethodGet, "/api/v1/rooms/"+room.ID+"/invoices", bobToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list invoices returned %d", w.Code)
	}
	list := decode[[]struct {
		PersonalAmount float64 `json:"personal_amount"`
	}](t, w)
	if len(list) != 1 || list[0].PersonalAmount != 50000 {
		t.Errorf("Expected one invoice with share 50000, got %+v", list)
	}

	// Bob settles his share; a second payment conflicts.
	w = doJSON(t, router, http.MethodPost, "/api/v1/invoices/"+inv.ID+"/pay", bobToken, gin.H{"amount": 50000})
	if w.Code != http.StatusOK {
		t.Fatalf("pay returned %d: %s", w.Code, w.Body.String())
	}
	paid := decode[struct {
		IsPaidByMe bool `json:"is_paid_by_me"`
	}](t, w)
	if !paid.IsPaidByMe {
		t.Error("Expected share settled after full payment")
	}
	if w = doJSON(t, router, http.MethodPost, "/api/v1/invoices/"+inv.ID+"/pay", bobToken, gin.H{"amount": 1}); w.Code != http.StatusConflict {
		t.Errorf("Expected 409 for settled share, got %d: %s", w.Code, w.Body.String())
	}

	// Bob cannot delete alice's invoice, alice can.
	if w = doJSON(t, router, http.MethodDelete, "/api/v1/invoices/"+inv.ID, bobToken, nil); w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for non-creator delete, got %d", w.Code)
	}
	if w = doJSON(t, router, http.MethodDelete, "/api/v1/invoices/"+inv.ID, aliceToken, nil); w.Code != http.StatusNoContent {
		t.Errorf("Expected 204 for creator delete, got %d", w.Code)
	}
	if w = doJSON(t, router, http.MethodGet, "/api/v1/invoices/"+inv.ID, aliceToken, nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", w.Code)
	}
}

func TestPresenceEndpoints(t *testing.T) {
	router := newTestRouter(t)

	token, _ := registerUser(t, router, "alice@example.com")

	w := doJSON(t, router, http.MethodPost, "/api/v1/rooms", token, gin.H{"name": "Flat 4B"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create room returned %d", w.Code)
	}
	room := decode[struct {
		ID string `json:"id"`
	}](t, w)

	base := fmt.Sprintf("/api/v1/rooms/%s/presence/2024-06", room.ID)

	w = doJSON(t, router, http.MethodGet, base, token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get presence returned %d: %s", w.Code, w.Body.String())
	}
	records := decode[[]struct {
		Days []int `json:"days"`
	}](t, w)
	if len(records) != 1 || len(records[0].Days) != 30 {
		t.Fatalf("Expected one 30-day calendar, got %+v", records)
	}

	w = doJSON(t, router, http.MethodPut, base+"/days/0", token, gin.H{"status": "present"})
	if w.Code != http.StatusOK {
		t.Fatalf("set day returned %d: %s", w.Code, w.Body.String())
	}

	// present -> absent via toggle.
	w = doJSON(t, router, http.MethodPost, base+"/days/0/toggle", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("toggle returned %d: %s", w.Code, w.Body.String())
	}
	rec := decode[struct {
		Days []int `json:"days"`
	}](t, w)
	if rec.Days[0] != 2 {
		t.Errorf("Expected day 0 absent (2) after toggle, got %d", rec.Days[0])
	}

	if w = doJSON(t, router, http.MethodPut, base+"/days/31", token, gin.H{"status": "present"}); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for out-of-range day, got %d", w.Code)
	}
	if w = doJSON(t, router, http.MethodPut, base+"/days/0", token, gin.H{"status": "maybe"}); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown status, got %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 from /health, got %d", w.Code)
	}
}
