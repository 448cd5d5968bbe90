// Package copernicustest provides a fake Copernicus Data Space endpoint for
// tests: an OAuth2 token route plus whatever API handler the test supplies.
package copernicustest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Justclemax/Land-cover-Temporel-monthly-Sentinel-2/internal/config"
)

const TokenPath = "/oauth/token"

type Server struct {
	*httptest.Server
	TokenRequests atomic.Int32
	// RejectClients lists client ids whose token requests fail with 401.
	RejectClients map[string]bool
	// TokenFailures is the number of upcoming token requests answered with
	// 503 Service Unavailable.
	TokenFailures atomic.Int32
}

func NewServer(t *testing.T, api http.Handler) *Server {
	t.Helper()
	s := &Server{RejectClients: map[string]bool{}}

	mux := http.NewServeMux()
	mux.HandleFunc(TokenPath, func(w http.ResponseWriter, r *http.Request) {
		s.TokenRequests.Add(1)
		clientID, _, ok := r.BasicAuth()
		if !ok {
			_ = r.ParseForm()
			clientID = r.PostForm.Get("client_id")
		}
		if s.TokenFailures.Load() > 0 {
			s.TokenFailures.Add(-1)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":"temporarily_unavailable"}`))
			return
		}
		if s.RejectClients[clientID] {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "token-" + clientID,
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.Handle("/", api)

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// Config returns credentials pointing at the fake server.
func (s *Server) Config(clientIDs ...string) config.Copernicus {
	if len(clientIDs) == 0 {
		clientIDs = []string{"client"}
	}
	secrets := make([]string, len(clientIDs))
	for i := range clientIDs {
		secrets[i] = "secret"
	}
	return config.Copernicus{
		ClientIDs:     clientIDs,
		ClientSecrets: secrets,
		TokenURL:      s.URL + TokenPath,
		BaseURL:       s.URL,
		Retries:       2,
		RetryWait:     time.Millisecond,
		Timeout:       5 * time.Second,
	}
}
