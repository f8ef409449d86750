package accesscontrol

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

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

// TestRequestsByUnit verifies the query shape, the dual auth headers and
// the grouped decoding.
func (s *ClientSuite) TestRequestsByUnit() {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		_ = json.NewEncoder(w).Encode(map[string][]CardRequest{
			"open":      {{ID: "cr-1", CardKind: "resident", Status: "open"}},
			"completed": {{ID: "cr-2", CardKind: "parking", Status: "completed"}},
		})
	}))
	defer srv.Close()

	client := New(srv.URL, "secret-key")
	grouped, err := client.RequestsByUnit(s.ctx, "bearer-token", 55, 9)
	s.Require().NoError(err)

	s.Equal("/v1/access-card-requests", got.URL.Path)
	s.Equal("55", got.URL.Query().Get("unitId"))
	s.Equal("9", got.URL.Query().Get("userId"))
	s.Equal("secret-key", got.Header.Get("X-Integration-Key"))
	s.Equal("Bearer bearer-token", got.Header.Get("Authorization"))

	s.Len(grouped["open"], 1)
	s.Equal("parking", grouped["completed"][0].CardKind)
}

// TestCreateCancellation verifies the request body downstream expects.
func (s *ClientSuite) TestCreateCancellation() {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.Equal(http.MethodPost, r.Method)
		s.Equal("application/json", r.Header.Get("Content-Type"))
		s.Require().NoError(json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client := New(srv.URL, "secret-key")
	err := client.CreateCancellation(s.ctx, "bearer-token", "resident", 55, []string{"deactivate"})
	s.Require().NoError(err)

	s.Equal("resident", body["cardKind"])
	s.Equal("55", body["unitId"])
	s.Equal([]any{"deactivate"}, body["actionList"])
}

// TestStatusMapping verifies the error taxonomy per response code.
func (s *ClientSuite) TestStatusMapping() {
	cases := []struct {
		status int
		want   integration.ErrorCategory
	}{
		{http.StatusUnauthorized, integration.ErrorAuthentication},
		{http.StatusForbidden, integration.ErrorAuthentication},
		{http.StatusInternalServerError, integration.ErrorOutage},
		{http.StatusBadGateway, integration.ErrorOutage},
		{http.StatusNotFound, integration.ErrorBadData},
		{http.StatusUnprocessableEntity, integration.ErrorBadData},
	}
	for _, tc := range cases {
		s.Run(http.StatusText(tc.status), func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			err := New(srv.URL, "secret-key").CreateCancellation(s.ctx, "t", "resident", 55, nil)
			s.Require().Error(err)
			s.Equal(tc.want, integration.CategoryOf(err))
		})
	}
}

// TestTimeoutCategory verifies a slow downstream surfaces as a timeout, not
// an outage.
func (s *ClientSuite) TestTimeoutCategory() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := New(srv.URL, "secret-key",
		WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}))
	_, err := client.RequestsByUnit(s.ctx, "t", 55, 9)
	s.Require().Error(err)
	s.Equal(integration.ErrorTimeout, integration.CategoryOf(err))
}

// TestConnectionRefused verifies a dead downstream reads as an outage.
func (s *ClientSuite) TestConnectionRefused() {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // nothing listening anymore

	_, err := New(srv.URL, "secret-key").RequestsByUnit(s.ctx, "t", 55, 9)
	s.Require().Error(err)
	s.Equal(integration.ErrorOutage, integration.CategoryOf(err))
}

// TestMalformedBody verifies undecodable payloads map to bad data.
func (s *ClientSuite) TestMalformedBody() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"open": "not-a-list"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, "secret-key").RequestsByUnit(s.ctx, "t", 55, 9)
	s.Require().Error(err)
	s.Equal(integration.ErrorBadData, integration.CategoryOf(err))
}
