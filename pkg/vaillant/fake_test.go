package vaillant

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testUser     = "jane@example.com"
	testPassword = "s3cret"
	testCode     = "auth-code-42"
	testToken    = "access-token-1"
	testSystemID = "sys-1"
)

const testSystemDocument = `{
  "systemId": "sys-1",
  "state": {
    "system": {"outdoorTemperature": 3.5, "systemWaterPressure": 1.7},
    "zones": [{"index": 0, "desiredRoomTemperatureSetpoint": 20.5, "currentRoomTemperature": 21.1, "currentSpecialFunction": "NONE"}],
    "circuits": [{"index": 0, "circuitState": "HEATING", "currentCircuitFlowTemperature": 34.2}],
    "domesticHotWater": [{"index": 255, "currentDhwTemperature": 48.5, "currentSpecialFunction": "REGULAR"}]
  },
  "configuration": {
    "zones": [{"index": 0, "general": {"name": "Ground floor"}, "quickVetoDuration": 4}],
    "circuits": [{"index": 0, "heatingCurve": 1.2}],
    "domesticHotWater": [{"index": 255, "operationModeDhw": "DAY", "tappingSetpoint": 50}]
  }
}`

type recordedCall struct {
	Method string
	Path   string
	Body   map[string]any
}

// fakeVaillant stands in for both the Keycloak realm and the API
type fakeVaillant struct {
	t      *testing.T
	server *httptest.Server
	mu     sync.Mutex
	calls  []recordedCall
	status int // status of mutating calls, 0 means 204
}

func newFakeVaillant(t *testing.T) *fakeVaillant {
	f := &fakeVaillant{t: t}
	realm := "/auth/realms/vaillant-poland-b2c"

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+realm+"/protocol/openid-connect/auth", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("client_id") != CLIENT_ID || q.Get("code_challenge_method") != "S256" || q.Get("code_challenge") == "" {
			http.Error(w, "bad auth request", http.StatusBadRequest)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "AUTH_SESSION_ID", Value: "kc-session", Path: "/"})
		fmt.Fprintf(w, `<html><body>
<form id="kc-locale" action="%s/ignored"></form>
<form id="kc-form-login" method="post" action="%s%s/login-actions/authenticate?session_code=abc&amp;execution=xyz">
<input name="username"/><input name="password" type="password"/>
</form></body></html>`, f.server.URL, f.server.URL, realm)
	})
	mux.HandleFunc("POST "+realm+"/login-actions/authenticate", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("AUTH_SESSION_ID"); err != nil || c.Value != "kc-session" {
			http.Error(w, "no session", http.StatusBadRequest)
			return
		}
		if r.URL.Query().Get("execution") != "xyz" {
			http.Error(w, "bad action", http.StatusBadRequest)
			return
		}
		if r.FormValue("username") != testUser || r.FormValue("password") != testPassword {
			fmt.Fprint(w, `<html><form id="kc-form-login" action="again"></form></html>`)
			return
		}
		w.Header().Set("Location", REDIRECT_URI+"?state=s&code="+testCode)
		w.WriteHeader(http.StatusFound)
	})
	mux.HandleFunc("POST "+realm+"/protocol/openid-connect/token", func(w http.ResponseWriter, r *http.Request) {
		if r.FormValue("grant_type") != "authorization_code" || r.FormValue("code") != testCode || r.FormValue("code_verifier") == "" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":%q,"token_type":"Bearer","refresh_token":"refresh-1","expires_in":300}`, testToken)
	})

	api := http.NewServeMux()
	api.HandleFunc("GET /api/homes", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"systemId":"sys-1","homeName":"Home","serialNumber":"21223300"},{"systemId":"sys-2","homeName":"Cottage"}]`)
	})
	api.HandleFunc("GET /api/systems/{id}/meta-info/control-identifier", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"controlIdentifier":"tli"}`)
	})
	api.HandleFunc("GET /api/systems/sys-1/tli", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, testSystemDocument)
	})
	api.HandleFunc("/api/systems/sys-1/tli/", func(w http.ResponseWriter, r *http.Request) {
		call := recordedCall{Method: r.Method, Path: r.URL.Path}
		data, _ := io.ReadAll(r.Body)
		if len(data) > 0 {
			assert.NoError(f.t, json.Unmarshal(data, &call.Body))
		}
		f.mu.Lock()
		f.calls = append(f.calls, call)
		status := f.status
		f.mu.Unlock()
		if status == 0 {
			status = http.StatusNoContent
		}
		w.WriteHeader(status)
	})
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+testToken {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if r.Header.Get("ocp-apim-subscription-key") != SUBSCRIPTION_KEY || r.Header.Get("x-app-identifier") != "VAILLANT" {
			http.Error(w, "missing app headers", http.StatusForbidden)
			return
		}
		api.ServeHTTP(w, r)
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeVaillant) options() []Option {
	return []Option{
		WithIdentityBase(f.server.URL + "/auth/realms"),
		WithAPIBase(f.server.URL + "/api"),
	}
}

func (f *fakeVaillant) lastCall() recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(f.t, f.calls)
	return f.calls[len(f.calls)-1]
}

func (f *fakeVaillant) connect(t *testing.T) *Client {
	c, err := New(context.Background(), testUser, testPassword, DEFAULT_BRAND, DEFAULT_COUNTRY, f.options()...)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}
