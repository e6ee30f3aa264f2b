package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Aldorax/soo-ade/internal/application/service"
	"github.com/Aldorax/soo-ade/internal/application/store"
	authmodels "github.com/Aldorax/soo-ade/internal/auth/models"
	userstore "github.com/Aldorax/soo-ade/internal/auth/store/user"
	"github.com/Aldorax/soo-ade/internal/dashboard"
	jwttoken "github.com/Aldorax/soo-ade/internal/jwt_token"
	"github.com/Aldorax/soo-ade/internal/platform/middleware"
)

type fixture struct {
	router http.Handler
	svc    *service.Service
	users  *userstore.InMemoryUserStore
	tokens *jwttoken.JWTService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	users := userstore.New()
	apps := store.NewInMemory()
	svc := service.New(apps, users)
	tokens := jwttoken.NewJWTService("test-signing-key", "soo-portal", "soo-portal")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := New(svc, dashboard.NewCache(nil, time.Minute, logger), logger)
	r := chi.NewRouter()
	h.Register(r)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(jwttoken.NewJWTServiceAdapter(tokens), logger))
		h.RegisterProtected(r)
	})

	return &fixture{router: r, svc: svc, users: users, tokens: tokens}
}

func (f *fixture) newApplicant(t *testing.T) *authmodels.User {
	t.Helper()
	user := &authmodels.User{
		ID:        uuid.New(),
		FirstName: "Adaeze",
		LastName:  "Okafor",
		Email:     "adaeze@example.com",
		Role:      authmodels.RoleApplicant,
	}
	if err := f.users.Create(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := f.svc.Create(context.Background(), user.ID, service.CreateInput{
		StateOfOrigin:   "Enugu",
		LocalGovernment: "Nsukka",
		Address:         "12 Marina Road",
		Nationality:     "Nigerian",
		NIN:             "12345678901",
	}); err != nil {
		t.Fatalf("create application: %v", err)
	}
	return user
}

func (f *fixture) bearer(t *testing.T, user *authmodels.User) string {
	t.Helper()
	token, err := f.tokens.GenerateAccessToken(user.ID, string(user.Role), time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return "Bearer " + token
}

func TestGetMineRequiresAuth(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/applications/me", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", rec.Code)
	}
}

func TestGetMine(t *testing.T) {
	f := newFixture(t)
	user := f.newApplicant(t)

	req := httptest.NewRequest(http.MethodGet, "/applications/me", nil)
	req.Header.Set("Authorization", f.bearer(t, user))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp ApplicationResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "PENDING" || resp.PaymentStatus != "UNPAID" {
		t.Fatalf("unexpected initial state %s/%s", resp.Status, resp.PaymentStatus)
	}
	if resp.StateOfOrigin != "Enugu" {
		t.Fatalf("unexpected state_of_origin %q", resp.StateOfOrigin)
	}
}

func TestVerifyCertificate(t *testing.T) {
	f := newFixture(t)
	user := f.newApplicant(t)

	app, err := f.svc.GetByUser(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("load application: %v", err)
	}
	approved, err := f.svc.Approve(context.Background(), app.ID)
	if err != nil {
		t.Fatalf("approve application: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/verify/"+approved.CertificateNumber, nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp CertificateResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Valid {
		t.Fatalf("expected certificate to be valid")
	}
	if resp.HolderName != "Adaeze Okafor" {
		t.Fatalf("unexpected holder name %q", resp.HolderName)
	}
}

func TestVerifyCertificateUnknown(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/verify/SOC-000000-0000", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown certificate, got %d", rec.Code)
	}
}
