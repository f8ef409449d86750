package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"

	"offboard/internal/integration"
)

type ClientSuite struct {
	suite.Suite
	ctx context.Context
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.ctx = context.Background()
}

// TestUpdateProfileOnResale verifies path, method, auth headers and payload
// pass-through.
func (s *ClientSuite) TestUpdateProfileOnResale() {
	var gotPath, gotMethod string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		s.Equal("secret-key", r.Header.Get("X-Integration-Key"))
		s.Equal("Bearer bearer-token", r.Header.Get("Authorization"))
		s.Require().NoError(json.NewDecoder(r.Body).Decode(&gotBody))
	}))
	defer srv.Close()

	client := New(srv.URL, "secret-key")
	err := client.UpdateProfileOnResale(s.ctx, "bearer-token", 9999, map[string]any{"phone": "123"})
	s.Require().NoError(err)

	s.Equal(http.MethodPut, gotMethod)
	s.Equal("/v1/users/9999/profile-on-resale", gotPath)
	s.Equal("123", gotBody["phone"])
}

// TestUpdateCommunicationDetailsOnResale verifies the second endpoint.
func (s *ClientSuite) TestUpdateCommunicationDetailsOnResale() {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
	}))
	defer srv.Close()

	client := New(srv.URL, "secret-key")
	err := client.UpdateCommunicationDetailsOnResale(s.ctx, "bearer-token", 9999, map[string]any{"email": "x@y.z"})
	s.Require().NoError(err)
	s.Equal("/v1/users/9999/communication-on-resale", gotPath)
}

// TestErrorCategories spot-checks the shared taxonomy on this client.
func (s *ClientSuite) TestErrorCategories() {
	s.Run("401 is authentication", func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		err := New(srv.URL, "k").UpdateProfileOnResale(s.ctx, "t", 1, nil)
		s.Equal(integration.ErrorAuthentication, integration.CategoryOf(err))
	})

	s.Run("503 is outage", func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		err := New(srv.URL, "k").UpdateProfileOnResale(s.ctx, "t", 1, nil)
		s.Equal(integration.ErrorOutage, integration.CategoryOf(err))
	})

	s.Run("409 is bad data", func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusConflict)
		}))
		defer srv.Close()

		err := New(srv.URL, "k").UpdateProfileOnResale(s.ctx, "t", 1, nil)
		s.Equal(integration.ErrorBadData, integration.CategoryOf(err))
	})
}
