package auth

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"

	"github.com/ibeckermayer/leadscout/internal/config"
)

// SessionCookie is the cookie Reddit sets once a user is logged in
const SessionCookie = "reddit_session"

// CookieStore handles storage of platform session cookies
type CookieStore struct {
	path     string
	domain   string
	required []string
	now      func() time.Time
}

// StoredCookies represents the persisted cookie data
type StoredCookies struct {
	Cookies    []*network.Cookie `json:"cookies"`
	CapturedAt time.Time         `json:"captured_at"`
	ExpiresAt  time.Time         `json:"expires_at"`
}

// NewCookieStore creates a cookie store at the given path for cookies of
// domain. required names the cookies that must be present for the stored
// session to count as valid.
func NewCookieStore(path, domain string, required ...string) *CookieStore {
	return &CookieStore{path: path, domain: domain, required: required, now: time.Now}
}

// NewRedditCookieStore is a store for reddit.com session cookies
func NewRedditCookieStore(path string) *CookieStore {
	return NewCookieStore(path, "reddit.com", SessionCookie)
}

// DefaultCookieStorePath returns the default path for cookie storage
func DefaultCookieStorePath() (string, error) {
	configDir, err := config.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "cookies.json"), nil
}

// Save persists cookies to disk
// TODO: Encrypt cookies at rest
func (cs *CookieStore) Save(cookies []*network.Cookie) error {
	if err := os.MkdirAll(filepath.Dir(cs.path), 0700); err != nil {
		return err
	}

	// Earliest expiry among the required cookies bounds the session
	var earliestExpiry time.Time
	for _, c := range cookies {
		if !cs.isRequired(c.Name) || c.Expires <= 0 {
			continue
		}
		exp := time.Unix(int64(c.Expires), 0)
		if earliestExpiry.IsZero() || exp.Before(earliestExpiry) {
			earliestExpiry = exp
		}
	}

	stored := StoredCookies{
		Cookies:    cookies,
		CapturedAt: cs.now(),
		ExpiresAt:  earliestExpiry,
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(cs.path, data, 0600)
}

// Load retrieves cookies from disk
func (cs *CookieStore) Load() (*StoredCookies, error) {
	data, err := os.ReadFile(cs.path)
	if err != nil {
		return nil, err
	}

	var stored StoredCookies
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, err
	}

	return &stored, nil
}

// IsValid checks if stored cookies are present and unexpired
func (cs *CookieStore) IsValid() bool {
	stored, err := cs.Load()
	if err != nil {
		return false
	}

	// Session cookies have no expiry; anything else must still be live
	if !stored.ExpiresAt.IsZero() && cs.now().After(stored.ExpiresAt) {
		return false
	}

	found := make(map[string]bool, len(cs.required))
	for _, c := range stored.Cookies {
		if cs.isRequired(c.Name) && c.Value != "" {
			found[c.Name] = true
		}
	}
	return len(found) == len(cs.required)
}

// Clear removes stored cookies
func (cs *CookieStore) Clear() error {
	err := os.Remove(cs.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// DomainCookies returns only the cookies belonging to the store's domain
func (cs *CookieStore) DomainCookies() ([]*network.Cookie, error) {
	stored, err := cs.Load()
	if err != nil {
		return nil, err
	}

	var out []*network.Cookie
	for _, c := range stored.Cookies {
		if MatchesDomain(c.Domain, cs.domain) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (cs *CookieStore) isRequired(name string) bool {
	for _, r := range cs.required {
		if r == name {
			return true
		}
	}
	return false
}

// MatchesDomain reports whether a cookie domain belongs to domain or one of
// its subdomains
func MatchesDomain(cookieDomain, domain string) bool {
	d := strings.TrimPrefix(cookieDomain, ".")
	return d == domain || strings.HasSuffix(d, "."+domain)
}
