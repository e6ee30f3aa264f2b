package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/Aldorax/soo-ade/internal/payment/models"
	"github.com/Aldorax/soo-ade/internal/platform/config"
	dErrors "github.com/Aldorax/soo-ade/pkg/domain-errors"
)

func newClient(baseURL string) *Client {
	return New(config.PaystackConfig{
		SecretKey:   "sk_test_secret",
		BaseURL:     baseURL,
		CallbackURL: "http://localhost:3000/payment/verify",
	})
}

func TestInitializeTransaction(t *testing.T) {
	appID, userID := uuid.New(), uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transaction/initialize" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test_secret" {
			t.Errorf("unexpected authorization header %q", got)
		}

		var body struct {
			Email       string          `json:"email"`
			Amount      int64           `json:"amount"`
			Reference   string          `json:"reference"`
			Metadata    models.Metadata `json:"metadata"`
			CallbackURL string          `json:"callback_url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		if body.Amount != 10000*100 {
			t.Errorf("expected amount in kobo 1000000, got %d", body.Amount)
		}
		if body.Metadata.ApplicationID != appID {
			t.Errorf("metadata lost the application id")
		}
		if body.CallbackURL == "" {
			t.Errorf("expected callback_url to be set")
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": true,
			"message": "Authorization URL created",
			"data": {
				"authorization_url": "https://checkout.paystack.com/abc123",
				"access_code": "abc123",
				"reference": "` + body.Reference + `"
			}
		}`))
	}))
	defer srv.Close()

	client := newClient(srv.URL)
	result, err := client.InitializeTransaction(context.Background(), "adaeze@example.com", 10000, "SOO-1-000001", models.Metadata{
		Version:         models.MetadataVersion,
		ApplicationType: "STATE_OF_ORIGIN",
		ApplicationID:   appID,
		UserID:          userID,
	})
	if err != nil {
		t.Fatalf("InitializeTransaction: %v", err)
	}
	if result.AuthorizationURL != "https://checkout.paystack.com/abc123" {
		t.Errorf("unexpected authorization url %q", result.AuthorizationURL)
	}
	if result.Reference != "SOO-1-000001" {
		t.Errorf("unexpected reference %q", result.Reference)
	}
}

func TestInitializeTransactionMissingAuthorizationURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status": false, "message": "nope", "data": {}}`))
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).InitializeTransaction(context.Background(), "a@example.com", 10000, "SOO-1-000001", models.Metadata{})
	if !dErrors.HasCode(err, dErrors.CodeGatewayError) {
		t.Fatalf("expected gateway_error, got %v", err)
	}
}

func TestVerifyTransaction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transaction/verify/SOO-1-000001" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		_, _ = w.Write([]byte(`{
			"status": true,
			"message": "Verification successful",
			"data": {
				"status": "success",
				"reference": "SOO-1-000001",
				"amount": 1000000,
				"customer": {"email": "adaeze@example.com"}
			}
		}`))
	}))
	defer srv.Close()

	result, err := newClient(srv.URL).VerifyTransaction(context.Background(), "SOO-1-000001")
	if err != nil {
		t.Fatalf("VerifyTransaction: %v", err)
	}
	if result.Status != "success" {
		t.Errorf("unexpected status %q", result.Status)
	}
	if result.Amount != 1000000 {
		t.Errorf("unexpected amount %d", result.Amount)
	}
	if result.CustomerEmail != "adaeze@example.com" {
		t.Errorf("unexpected customer email %q", result.CustomerEmail)
	}
}

func TestGatewayErrors(t *testing.T) {
	t.Run("non-2xx status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := newClient(srv.URL).VerifyTransaction(context.Background(), "SOO-1-000001")
		if !dErrors.HasCode(err, dErrors.CodeGatewayError) {
			t.Fatalf("expected gateway_error, got %v", err)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}))
		defer srv.Close()

		_, err := newClient(srv.URL).VerifyTransaction(context.Background(), "SOO-1-000001")
		if !dErrors.HasCode(err, dErrors.CodeGatewayError) {
			t.Fatalf("expected gateway_error, got %v", err)
		}
	})

	t.Run("unreachable server", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
		srv.Close()

		_, err := newClient(srv.URL).VerifyTransaction(context.Background(), "SOO-1-000001")
		if !dErrors.HasCode(err, dErrors.CodeGatewayError) {
			t.Fatalf("expected gateway_error, got %v", err)
		}
	})
}
