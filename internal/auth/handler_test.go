package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/quillpress/quillpress/internal/identity"
	_ "github.com/quillpress/quillpress/testing"
)

func newTestRouter(t *testing.T) (chi.Router, *stubRepo) {
	t.Helper()
	repo := newStubRepo()
	codec := identity.NewTokenCodec("test-secret", time.Hour)
	handler := NewHandler(slog.Default(), NewService(repo, codec, nil, slog.Default()))

	r := chi.NewRouter()
	r.Route("/api/auth", handler.MountRoutes)
	return r, repo
}

func postJSON(t *testing.T, router http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

func TestRegisterEndpoint(t *testing.T) {
	router, repo := newTestRouter(t)

	res := postJSON(t, router, "/api/auth/register",
		`{"email":"ada@example.com","name":"Ada","password":"secret123","roles":["author"]}`)
	if res.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (%s)", res.Code, res.Body.String())
	}

	var body map[string]any
	if err := json.Unmarshal(res.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["email"] != "ada@example.com" {
		t.Fatalf("email = %v", body["email"])
	}
	if _, ok := body["password"]; ok {
		t.Fatal("password must not be echoed")
	}
	if _, err := repo.FindByEmail(context.Background(), "ada@example.com"); err != nil {
		t.Fatalf("user not stored: %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	cases := []string{
		`{"email":"not-an-email","name":"Ada","password":"secret123"}`,
		`{"email":"a@b.c","name":"Ada","password":"short"}`,
		`{"email":"a@b.c","name":"Ada","password":"secret123","roles":["superuser"]}`,
		`not json`,
	}
	for _, body := range cases {
		res := postJSON(t, router, "/api/auth/register", body)
		if res.Code != http.StatusBadRequest {
			t.Fatalf("body %q: status = %d, want 400", body, res.Code)
		}
	}
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	router, _ := newTestRouter(t)

	body := `{"email":"a@b.c","name":"Ada","password":"secret123"}`
	if res := postJSON(t, router, "/api/auth/register", body); res.Code != http.StatusCreated {
		t.Fatalf("first register: %d", res.Code)
	}
	if res := postJSON(t, router, "/api/auth/register", body); res.Code != http.StatusConflict {
		t.Fatalf("second register: %d, want 409", res.Code)
	}
}

func TestLoginEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	postJSON(t, router, "/api/auth/register",
		`{"email":"ada@example.com","name":"Ada","password":"secret123"}`)

	res := postJSON(t, router, "/api/auth/login",
		`{"email":"ada@example.com","password":"secret123"}`)
	if res.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", res.Code, res.Body.String())
	}
	var body map[string]string
	if err := json.Unmarshal(res.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["token"] == "" {
		t.Fatal("missing token")
	}

	res = postJSON(t, router, "/api/auth/login",
		`{"email":"ada@example.com","password":"wrong"}`)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("bad password status = %d, want 401", res.Code)
	}
}
