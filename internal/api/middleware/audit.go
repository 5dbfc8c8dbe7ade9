package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const auditBuffer = 1024

// AuditLogger records every mutating admin request to audit_logs. Writes
// happen on a background goroutine so a slow insert never stretches the
// request it describes; a full buffer drops the entry rather than block.
type AuditLogger struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
	ch     chan auditEntry
}

type auditEntry struct {
	UserID       *string
	Method       string
	Path         string
	ResourceType *string
	ResourceID   *string
	StatusCode   int
	RequestBody  json.RawMessage
}

func NewAuditLogger(pool *pgxpool.Pool, logger zerolog.Logger) *AuditLogger {
	al := &AuditLogger{
		pool:   pool,
		logger: logger,
		ch:     make(chan auditEntry, auditBuffer),
	}
	go al.drain()
	return al
}

func (al *AuditLogger) drain() {
	// The request that produced an entry may be long gone, so writes run
	// under a background context.
	for entry := range al.ch {
		_, err := al.pool.Exec(context.Background(),
			`INSERT INTO audit_logs (user_id, method, path, resource_type, resource_id, status_code, request_body, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, now())`,
			entry.UserID, entry.Method, entry.Path, entry.ResourceType, entry.ResourceID, entry.StatusCode, entry.RequestBody,
		)
		if err != nil {
			al.logger.Error().Err(err).Str("path", entry.Path).Msg("failed to write audit log")
		}
	}
}

// Close stops accepting entries; the drain goroutine finishes the backlog.
func (al *AuditLogger) Close() {
	close(al.ch)
}

// Middleware captures mutating requests. Reads pass through untouched.
func (al *AuditLogger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		default:
			next.ServeHTTP(w, r)
			return
		}

		// The handler consumes the body, so buffer it up front.
		var bodyBytes []byte
		if r.Body != nil {
			bodyBytes, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
		}

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		var userID *string
		if claims := GetClaims(r.Context()); claims != nil {
			id := claims.Sub
			userID = &id
		}

		var body json.RawMessage
		if len(bodyBytes) > 0 && json.Valid(bodyBytes) {
			body = sanitizeBody(bodyBytes)
		}

		resourceType, resourceID := extractResource(r.URL.Path)

		select {
		case al.ch <- auditEntry{
			UserID:       userID,
			Method:       r.Method,
			Path:         r.URL.Path,
			ResourceType: resourceType,
			ResourceID:   resourceID,
			StatusCode:   sw.status,
			RequestBody:  body,
		}:
		default:
			al.logger.Warn().Str("path", r.URL.Path).Msg("audit log buffer full, dropping entry")
		}
	})
}

// extractResource pulls the deepest resource segment and its optional id
// from an admin path. Collections sit at even depth, ids at odd:
//
//	/api/v1/communities               -> communities, nil
//	/api/v1/communities/abc           -> communities, abc
//	/api/v1/communities/abc/sites     -> sites, nil
//	/api/v1/communities/abc/sites/def -> sites, def
func extractResource(path string) (*string, *string) {
	var resourceType, resourceID *string
	for i, part := range strings.Split(strings.TrimPrefix(path, "/api/v1/"), "/") {
		if part == "" {
			continue
		}
		p := part
		if i%2 == 0 {
			resourceType, resourceID = &p, nil
		} else {
			resourceID = &p
		}
	}
	return resourceType, resourceID
}

// Credentials never land in the audit trail, even though the rows are
// admin-only reading.
var sensitiveFields = map[string]bool{
	"password": true, "api_key": true, "secret": true, "token": true,
	"raw_key": true, "registration_token": true,
}

func sanitizeBody(body []byte) json.RawMessage {
	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		return body
	}
	for k := range data {
		if sensitiveFields[k] {
			data[k] = "[REDACTED]"
		}
	}
	sanitized, _ := json.Marshal(data)
	return sanitized
}
