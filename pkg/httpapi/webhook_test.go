package httpapi

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clowarden/clowarden/pkg/ghclient"
	"github.com/clowarden/clowarden/pkg/jobs"
	"github.com/clowarden/clowarden/pkg/service"
)

type fakeNotifier struct {
	checkRunID  int64
	createErr   error
	createCalls int
}

func (f *fakeNotifier) PostComment(ctx context.Context, ec ghclient.ExecutionContext, repo string, number int, body string) error {
	return nil
}

func (f *fakeNotifier) CreateCheckRun(ctx context.Context, ec ghclient.ExecutionContext, repo string, run ghclient.CheckRun) (int64, error) {
	f.createCalls++
	return f.checkRunID, f.createErr
}

func (f *fakeNotifier) UpdateCheckRun(ctx context.Context, ec ghclient.ExecutionContext, repo string, checkRunID int64, run ghclient.CheckRun) error {
	return nil
}

func sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func newTestServer() (*WebhookServer, *jobs.Engine, *fakeNotifier) {
	notifier := &fakeNotifier{checkRunID: 99}
	engine := jobs.NewEngine(noopHandler{}, nil)
	s := &WebhookServer{
		Orgs: map[string]service.Org{
			"acme": {Name: "acme", InstallationID: 7, RepositoryOwner: "acme", RepositoryName: "config"},
		},
		Engine:         engine,
		Notifier:       notifier,
		Secret:         []byte("current-secret"),
		SecretFallback: []byte("previous-secret"),
	}
	return s, engine, notifier
}

type noopHandler struct{}

func (noopHandler) HandleValidate(ctx context.Context, job jobs.ValidateJob)   {}
func (noopHandler) HandleReconcile(ctx context.Context, job jobs.ReconcileJob) {}

func doRequest(t *testing.T, s *WebhookServer, eventType string, body []byte, sig string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook/github", bytes.NewReader(body))
	req.Header.Set("X-GitHub-Event", eventType)
	if sig != "" {
		req.Header.Set("X-Hub-Signature-256", sig)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestServeHTTPRejectsMissingSignature(t *testing.T) {
	s, _, _ := newTestServer()
	rec := doRequest(t, s, "pull_request", []byte(`{}`), "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a missing signature, got %d", rec.Code)
	}
}

func TestServeHTTPRejectsWrongSignature(t *testing.T) {
	s, _, _ := newTestServer()
	body := []byte(`{"action":"opened"}`)
	rec := doRequest(t, s, "pull_request", body, sign([]byte("wrong-secret"), body))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a wrong signature, got %d", rec.Code)
	}
}

func TestServeHTTPAcceptsFallbackSecret(t *testing.T) {
	s, _, _ := newTestServer()
	body := []byte(`{"action":"closed","repository":{"owner":{"login":"acme"},"name":"config"}}`)
	rec := doRequest(t, s, "pull_request", body, sign([]byte("previous-secret"), body))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 when signed with the fallback secret, got %d", rec.Code)
	}
}

func TestServeHTTPIgnoresOtherEventTypes(t *testing.T) {
	s, _, notifier := newTestServer()
	body := []byte(`{}`)
	rec := doRequest(t, s, "ping", body, sign(s.Secret, body))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if notifier.createCalls != 0 {
		t.Fatalf("a ping event should never reach the check-run creation path")
	}
}

func TestServeHTTPEnqueuesValidateOnOpened(t *testing.T) {
	s, _, notifier := newTestServer()
	body := []byte(`{"action":"opened","number":5,"repository":{"owner":{"login":"acme"},"name":"config"},"pull_request":{"head":{"sha":"abc123"}}}`)
	rec := doRequest(t, s, "pull_request", body, sign(s.Secret, body))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if notifier.createCalls != 1 {
		t.Fatalf("expected the validate path to create one in-progress check run before enqueueing, got %d", notifier.createCalls)
	}
}

func TestServeHTTPSkipsUnconfiguredRepository(t *testing.T) {
	s, _, _ := newTestServer()
	body := []byte(`{"action":"opened","number":5,"repository":{"owner":{"login":"other-org"},"name":"config"}}`)
	rec := doRequest(t, s, "pull_request", body, sign(s.Secret, body))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 even for an unconfigured repo, got %d", rec.Code)
	}
}
