package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/gatepass/internal/api"
	"github.com/charlesng35/gatepass/internal/app"
	"github.com/charlesng35/gatepass/internal/credentials"
	sharedtestutil "github.com/charlesng35/gatepass/internal/database/testutil"
	"github.com/charlesng35/gatepass/internal/middleware"
	"github.com/charlesng35/gatepass/internal/models"
	"github.com/charlesng35/gatepass/internal/realtime"
	"github.com/charlesng35/gatepass/internal/services"
	"github.com/charlesng35/gatepass/internal/storage"
	"github.com/charlesng35/gatepass/pkg/response"
)

const (
	// AdminKey is the administrator key accepted by every test environment.
	AdminKey = "test-admin-key-0123456789"
	// BaseURL prefixes validation URLs issued in tests.
	BaseURL = "https://gate.example.com"
)

// Env encapsulates a fully-wired API instance backed by an in-memory database for handler tests.
type Env struct {
	T           *testing.T
	DB          *gorm.DB
	Router      *gin.Engine
	Hub         *realtime.Hub
	Images      *storage.LocalStore
	Config      *app.Config
	Credentials *services.CredentialService
}

// Option mutates the configuration used by NewEnv.
type Option func(*app.Config)

// WithRateLimit sets the public endpoint rate limit.
func WithRateLimit(requestsPerMinute int) Option {
	return func(cfg *app.Config) {
		cfg.Server.RateLimit.RequestsPerMinute = requestsPerMinute
	}
}

// NewEnv provisions a fresh handler test environment with migrations applied.
func NewEnv(t *testing.T, opts ...Option) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db := sharedtestutil.MustOpenTestDB(t, sharedtestutil.WithAutoMigrate())

	cfg := &app.Config{
		Credentials: app.CredentialsConfig{
			Secret:  "handler-test-secret-0123456789",
			BaseURL: BaseURL,
			QRSize:  128,
		},
		Admin:      app.AdminConfig{APIKey: AdminKey},
		Monitoring: app.MonitoringConfig{Prometheus: app.PrometheusConfig{Enabled: true, Endpoint: "/metrics"}},
		Realtime:   app.RealtimeConfig{Enabled: true},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	images, err := storage.NewLocalStore(storage.LocalConfig{Path: t.TempDir()})
	require.NoError(t, err)

	generator, err := credentials.NewGenerator(cfg.Credentials.GeneratorConfig())
	require.NoError(t, err)

	hub := realtime.NewHub()

	registrantSvc, err := services.NewRegistrantService(db)
	require.NoError(t, err)
	credentialSvc, err := services.NewCredentialService(db, generator, images)
	require.NoError(t, err)
	validationSvc, err := services.NewValidationService(db, services.WithValidationListener(realtime.ScanPublisher(hub)))
	require.NoError(t, err)
	reportSvc, err := services.NewReportService(db)
	require.NoError(t, err)
	resetSvc, err := services.NewResetService(db, images)
	require.NoError(t, err)

	router, err := api.NewRouter(api.Dependencies{
		DB:          db,
		Config:      cfg,
		Registrants: registrantSvc,
		Credentials: credentialSvc,
		Validation:  validationSvc,
		Reports:     reportSvc,
		Reset:       resetSvc,
		Images:      images,
		Hub:         hub,
	})
	require.NoError(t, err)

	return &Env{
		T:           t,
		DB:          db,
		Router:      router,
		Hub:         hub,
		Images:      images,
		Config:      cfg,
		Credentials: credentialSvc,
	}
}

// CreateRegistrant inserts a registrant directly into the store.
func (e *Env) CreateRegistrant(externalID, name string) *models.Registrant {
	e.T.Helper()

	registrant := &models.Registrant{ExternalID: externalID, Name: name, Email: externalID + "@example.com"}
	require.NoError(e.T, e.DB.Create(registrant).Error)
	return registrant
}

// IssueCredential issues a credential for the registrant and returns it.
func (e *Env) IssueCredential(registrant *models.Registrant) *models.Credential {
	e.T.Helper()

	cred, issued, err := e.Credentials.Issue(e.T.Context(), registrant)
	require.NoError(e.T, err)
	require.True(e.T, issued)
	return cred
}

// APIResponse represents the canonical API envelope returned by handlers.
type APIResponse struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
	Meta    *response.Meta      `json:"meta"`
}

// DecodeResponse parses the standard API response object from a recorder.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DecodeInto unmarshals the data payload into the provided destination.
func DecodeInto[T any](t *testing.T, raw json.RawMessage, dest *T) {
	t.Helper()
	if dest == nil {
		t.Fatal("destination must not be nil")
	}
	require.NoError(t, json.Unmarshal(raw, dest))
}

// Request executes an unauthenticated HTTP request against the test router.
func (e *Env) Request(method, path string, body any) *httptest.ResponseRecorder {
	e.T.Helper()
	return e.request(method, path, body, nil)
}

// AdminRequest executes an HTTP request carrying the administrator key.
func (e *Env) AdminRequest(method, path string, body any) *httptest.ResponseRecorder {
	e.T.Helper()
	return e.request(method, path, body, http.Header{middleware.AdminKeyHeader: []string{AdminKey}})
}

// RequestWithHeaders executes an HTTP request with additional headers.
func (e *Env) RequestWithHeaders(method, path string, body any, headers http.Header) *httptest.ResponseRecorder {
	e.T.Helper()
	return e.request(method, path, body, headers)
}

func (e *Env) request(method, path string, body any, headers http.Header) *httptest.ResponseRecorder {
	e.T.Helper()

	var buf *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.T, err)
		buf = bytes.NewBuffer(data)
	} else {
		buf = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, path, buf)
	require.NoError(e.T, err)
	req.RemoteAddr = "192.0.2.10:40000"

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, values := range headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}
