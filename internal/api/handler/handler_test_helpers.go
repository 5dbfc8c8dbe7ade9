package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"

	mw "github.com/platebridge/portal/internal/api/middleware"
	"github.com/platebridge/portal/internal/model"
)

// newRequest creates a new HTTP request with an optional JSON body.
func newRequest(method, target string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	r := httptest.NewRequest(method, target, &buf)
	r.Header.Set("Content-Type", "application/json")
	return r
}

// newRequestRaw creates a new HTTP request with a raw string body.
func newRequestRaw(method, target, body string) *http.Request {
	r := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

// withChiURLParam adds a chi URL parameter to the request context.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// withChiURLParams adds multiple chi URL parameters to the request context.
func withChiURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// decodeErrorResponse parses the JSON error response body into a map.
func decodeErrorResponse(rec *httptest.ResponseRecorder) map[string]string {
	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	return body
}

// withAdmin injects a platform-level admin session into the request context.
func withAdmin(r *http.Request) *http.Request {
	claims := &model.SessionClaims{
		Sub:  "test-admin",
		Role: model.RoleAdmin,
	}
	return r.WithContext(mw.WithClaims(r.Context(), claims))
}

// withCompanyUser injects a session scoped to one company.
func withCompanyUser(r *http.Request, companyID, role string) *http.Request {
	claims := &model.SessionClaims{
		Sub:       "test-user",
		Role:      role,
		CompanyID: &companyID,
	}
	return r.WithContext(mw.WithClaims(r.Context(), claims))
}

// withPodKey injects an authenticated pod API key scoped to a community.
func withPodKey(r *http.Request, communityID string, podID *string) *http.Request {
	key := &model.PodAPIKey{
		ID:          "test-pod-key",
		Name:        "test-pod",
		CommunityID: communityID,
		PodID:       podID,
	}
	return r.WithContext(mw.WithPodKey(r.Context(), key))
}

const validID = "test-id-1"
const validID2 = "test-id-2"
