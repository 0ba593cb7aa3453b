package stubapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

// HandlerSuite tests the users API at the HTTP boundary.
type HandlerSuite struct {
	suite.Suite
	store *Store
	mux   *http.ServeMux
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.store = NewStore()
	s.store.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	s.mux = NewMux(s.store)
}

func (s *HandlerSuite) doRequest(method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	reqBody := bytes.NewBuffer(nil)
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBody)
	}
	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func (s *HandlerSuite) TestListUsers() {
	s.Run("second page", func() {
		rec, body := s.doRequest(http.MethodGet, "/users?page=2", nil)
		s.Equal(http.StatusOK, rec.Code)
		s.Equal("application/json", rec.Header().Get("Content-Type"))
		s.Equal(float64(2), body["page"])
		s.Equal(float64(12), body["total"])
		s.Equal(float64(2), body["total_pages"])

		data := body["data"].([]any)
		s.Len(data, 6)
		first := data[0].(map[string]any)
		s.Equal(float64(7), first["id"])
		s.Equal("michael.lawson@reqres.in", first["email"])
	})

	s.Run("past the end", func() {
		_, body := s.doRequest(http.MethodGet, "/users?page=5", nil)
		s.Empty(body["data"])
	})

	s.Run("custom page size", func() {
		_, body := s.doRequest(http.MethodGet, "/users?per_page=5&page=3", nil)
		s.Len(body["data"], 2)
		s.Equal(float64(3), body["total_pages"])
	})

	s.Run("invalid page", func() {
		rec, body := s.doRequest(http.MethodGet, "/users?page=zero", nil)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal("page must be a positive integer", body["error"])
	})
}

func (s *HandlerSuite) TestGetUser() {
	rec, body := s.doRequest(http.MethodGet, "/users/2", nil)
	s.Equal(http.StatusOK, rec.Code)
	data := body["data"].(map[string]any)
	s.Equal(float64(2), data["id"])
	s.Equal("janet.weaver@reqres.in", data["email"])
	s.Equal("Janet", data["first_name"])

	rec, body = s.doRequest(http.MethodGet, "/users/23", nil)
	s.Equal(http.StatusNotFound, rec.Code)
	s.Empty(body)
}

func (s *HandlerSuite) TestCreateUser() {
	rec, body := s.doRequest(http.MethodPost, "/users", map[string]string{"name": "morpheus", "job": "leader"})
	s.Equal(http.StatusCreated, rec.Code)
	s.Equal("morpheus", body["name"])
	s.Equal("leader", body["job"])
	s.NotEmpty(body["id"])
	s.Equal("2026-03-01T12:00:00Z", body["createdAt"])
	s.Equal(1, s.store.Created())

	rec, _ = s.doRequest(http.MethodPost, "/users", nil)
	s.Equal(http.StatusCreated, rec.Code)
}

func (s *HandlerSuite) TestCreateUserInvalidBody() {
	req := httptest.NewRequest(http.MethodPost, "/users", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestUpdateAndDelete() {
	rec, body := s.doRequest(http.MethodPut, "/users/2", map[string]string{"job": "zion resident"})
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("zion resident", body["job"])
	s.Equal("2026-03-01T12:00:00Z", body["updatedAt"])

	rec, _ = s.doRequest(http.MethodDelete, "/users/2", nil)
	s.Equal(http.StatusNoContent, rec.Code)
	_, ok := s.store.Get(2)
	s.False(ok)

	s.store.Reset()
	_, ok = s.store.Get(2)
	s.True(ok)
}

func (s *HandlerSuite) TestHealth() {
	rec, body := s.doRequest(http.MethodGet, "/health", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("healthy", body["status"])
}
