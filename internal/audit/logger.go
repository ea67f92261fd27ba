package audit

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"
)

// Entry is a single audit record for a mutating portal operation.
type Entry struct {
	Timestamp      time.Time         `json:"timestamp"`
	Action         string            `json:"action"`
	Actor          string            `json:"actor"`
	OrganizationID string            `json:"organization_id,omitempty"`
	ResourceType   string            `json:"resource_type,omitempty"`
	ResourceID     string            `json:"resource_id,omitempty"`
	IPAddress      string            `json:"ip_address,omitempty"`
	Status         string            `json:"status"` // "success" or "failure"
	Details        map[string]string `json:"details,omitempty"`
}

// Logger writes structured audit entries. Audit output is kept separate
// from application logging so it can be shipped to a different sink.
type Logger struct {
	output *log.Logger
}

func NewLogger() *Logger {
	return &Logger{
		output: log.New(log.Writer(), "[AUDIT] ", 0),
	}
}

func (l *Logger) Log(entry Entry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		log.Printf("ERROR: failed to marshal audit entry: %v", err)
		return
	}
	l.output.Println(string(data))
}

// LogFromRequest records a completed operation using the request for the
// client IP. Actor and organization come from the verified session claims.
func (l *Logger) LogFromRequest(r *http.Request, action, actor, orgID, resourceType, resourceID, status string, details map[string]string) {
	l.Log(Entry{
		Action:         action,
		Actor:          actor,
		OrganizationID: orgID,
		ResourceType:   resourceType,
		ResourceID:     resourceID,
		IPAddress:      clientIP(r),
		Status:         status,
		Details:        details,
	})
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// First hop is the original client.
		if idx := strings.Index(xff, ","); idx > 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if idx := strings.LastIndex(r.RemoteAddr, ":"); idx > 0 {
		return r.RemoteAddr[:idx]
	}
	return r.RemoteAddr
}
