package xhs

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeCookies(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cookies.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func futureExpiry() float64 {
	return float64(time.Now().Add(24 * time.Hour).Unix())
}

func TestSessionCheckValid(t *testing.T) {
	exp := futureExpiry()
	path := writeCookies(t, fmt.Sprintf(`{
		"version": "2.0",
		"cookies": [
			{"name": "web_session", "value": "abc", "expiry": %f},
			{"name": "a1", "value": "x"},
			{"name": "gid", "value": "y"},
			{"name": "webId", "value": "z"}
		]
	}`, exp))

	status := NewSessionChecker(path).Check()
	if !status.LoggedIn {
		t.Fatalf("LoggedIn = false, want true (status %q: %s)", status.Status, status.Message)
	}
	if status.Status != "valid" {
		t.Errorf("Status = %q, want valid", status.Status)
	}
	if status.CookieCount != 4 {
		t.Errorf("CookieCount = %d, want 4", status.CookieCount)
	}
}

func TestSessionCheckBareListFormat(t *testing.T) {
	path := writeCookies(t, `[
		{"name": "web_session", "value": "abc"},
		{"name": "a1", "value": "x"},
		{"name": "gid", "value": "y"}
	]`)

	status := NewSessionChecker(path).Check()
	if !status.LoggedIn {
		t.Errorf("v1 bare-list cookies should be accepted, got status %q", status.Status)
	}
}

func TestSessionCheckToleratesSomeMissingCriticals(t *testing.T) {
	// web_session plus one more is enough; two criticals may be missing.
	path := writeCookies(t, `[
		{"name": "web_session", "value": "abc"},
		{"name": "a1", "value": "x"}
	]`)

	status := NewSessionChecker(path).Check()
	if !status.LoggedIn {
		t.Errorf("two missing criticals should still pass, got %q", status.Status)
	}
}

func TestSessionCheckFailures(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		wantStatus string
	}{
		{
			name:       "No web_session",
			content:    `[{"name": "a1"}, {"name": "gid"}, {"name": "webId"}]`,
			wantStatus: "incomplete",
		},
		{
			name:       "Expired web_session",
			content:    `[{"name": "web_session", "expiry": 1000}, {"name": "a1"}, {"name": "gid"}]`,
			wantStatus: "expired",
		},
		{
			name:       "Empty list",
			content:    `[]`,
			wantStatus: "empty",
		},
		{
			name:       "Garbage file",
			content:    `not json at all`,
			wantStatus: "invalid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeCookies(t, tt.content)
			status := NewSessionChecker(path).Check()
			if status.LoggedIn {
				t.Error("LoggedIn = true, want false")
			}
			if status.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", status.Status, tt.wantStatus)
			}
		})
	}
}

func TestSessionCheckMissingFile(t *testing.T) {
	status := NewSessionChecker(filepath.Join(t.TempDir(), "nope.json")).Check()
	if status.LoggedIn {
		t.Error("LoggedIn = true for missing file, want false")
	}
	if status.Status != "not_logged_in" {
		t.Errorf("Status = %q, want not_logged_in", status.Status)
	}
}
