// Package xhs holds the narrow interfaces to the Xiaohongshu account: the
// cookie-based session check and the publish call against the local
// browser-automation bridge.
package xhs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"
)

// ErrAuthRequired reports that no valid account session exists.
var ErrAuthRequired = errors.New("not logged in to Xiaohongshu")

// Cookies the web session cannot work without. web_session is the one that
// actually authenticates; the others mostly fingerprint the browser.
var criticalCookies = []string{"web_session", "a1", "gid", "webId"}

type SessionChecker struct {
	cookiesFile string
	now         func() time.Time
}

func NewSessionChecker(cookiesFile string) *SessionChecker {
	return &SessionChecker{cookiesFile: cookiesFile, now: time.Now}
}

type cookieRecord struct {
	Name           string  `json:"name"`
	Value          string  `json:"value"`
	Expiry         float64 `json:"expiry"`
	ExpirationDate float64 `json:"expirationDate"`
}

// cookieFile supports both layouts in the wild: a bare cookie list (v1) and
// a record with metadata (v2).
type cookieFile struct {
	Cookies []cookieRecord `json:"cookies"`
	SavedAt string         `json:"saved_at"`
	Version string         `json:"version"`
}

type SessionStatus struct {
	LoggedIn        bool     `json:"logged_in"`
	Status          string   `json:"status"`
	Message         string   `json:"message"`
	CookieCount     int      `json:"cookie_count"`
	MissingCritical []string `json:"critical_cookies_missing,omitempty"`
	Expired         []string `json:"expired_cookies,omitempty"`
}

// Check validates the saved cookies without touching the network.
func (s *SessionChecker) Check() *SessionStatus {
	data, err := os.ReadFile(s.cookiesFile)
	if err != nil {
		return &SessionStatus{Status: "not_logged_in", Message: "未找到 Cookie 文件，请先登录小红书。"}
	}

	cookies, ok := parseCookies(data)
	if !ok {
		return &SessionStatus{Status: "invalid", Message: "Cookie 文件格式错误，请重新登录。"}
	}
	if len(cookies) == 0 {
		return &SessionStatus{Status: "empty", Message: "Cookie 文件为空，请重新登录。"}
	}

	found := make(map[string]bool)
	var expired []string
	nowTS := float64(s.now().Unix())

	for _, c := range cookies {
		for _, name := range criticalCookies {
			if c.Name == name {
				found[name] = true
			}
		}
		exp := c.Expiry
		if exp == 0 {
			exp = c.ExpirationDate
		}
		if exp > 0 && exp < nowTS {
			expired = append(expired, c.Name)
		}
	}

	var missing []string
	for _, name := range criticalCookies {
		if !found[name] {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)

	webSessionExpired := false
	for _, name := range expired {
		if name == "web_session" {
			webSessionExpired = true
		}
	}

	loggedIn := found["web_session"] && len(missing) <= 2 && !webSessionExpired

	status := &SessionStatus{
		LoggedIn:        loggedIn,
		CookieCount:     len(cookies),
		MissingCritical: missing,
		Expired:         expired,
	}
	switch {
	case loggedIn:
		status.Status = "valid"
		status.Message = "登录状态正常，Cookie 有效。"
	case len(expired) > 0:
		status.Status = "expired"
		status.Message = "Cookie 已过期，请重新登录。"
	default:
		status.Status = "incomplete"
		status.Message = fmt.Sprintf("缺少关键 Cookie（%v），请重新登录。", missing)
	}
	return status
}

func parseCookies(data []byte) ([]cookieRecord, bool) {
	var file cookieFile
	if err := json.Unmarshal(data, &file); err == nil && file.Cookies != nil {
		return file.Cookies, true
	}
	var list []cookieRecord
	if err := json.Unmarshal(data, &list); err == nil {
		return list, true
	}
	return nil, false
}
