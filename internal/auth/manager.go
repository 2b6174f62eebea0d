package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"

	"github.com/ibeckermayer/leadscout/internal/browser"
)

// RedditLoginURL is where the interactive login starts
const RedditLoginURL = "https://www.reddit.com/login/"

// Manager handles interactive platform authentication
type Manager struct {
	cookieStore *CookieStore
	loginURL    string
	timeout     time.Duration
	profileDir  string
}

// NewManager creates a new auth manager for the Reddit login page
func NewManager(cookieStore *CookieStore, profileDir string, timeout time.Duration) *Manager {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Manager{
		cookieStore: cookieStore,
		loginURL:    RedditLoginURL,
		timeout:     timeout,
		profileDir:  profileDir,
	}
}

// IsAuthenticated checks if we have valid stored credentials
func (m *Manager) IsAuthenticated() bool {
	return m.cookieStore.IsValid()
}

// Login opens a visible browser window for the user to log in and stores
// the resulting session cookies
func (m *Manager) Login(ctx context.Context) error {
	allocCtx, cancel := chromedp.NewExecAllocator(ctx, browser.Options(false, m.profileDir)...)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	if err := chromedp.Run(browserCtx, chromedp.Navigate(m.loginURL)); err != nil {
		return fmt.Errorf("failed to navigate to login page: %w", err)
	}

	slog.Info("[auth] waiting for user to finish logging in", "timeout", m.timeout)
	cookies, err := m.waitForLogin(browserCtx)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	if err := m.cookieStore.Save(cookies); err != nil {
		return fmt.Errorf("failed to save cookies: %w", err)
	}
	slog.Info("[auth] session cookies saved", "count", len(cookies))
	return nil
}

// waitForLogin polls until the required session cookies show up
func (m *Manager) waitForLogin(ctx context.Context) ([]*network.Cookie, error) {
	timeout := time.After(m.timeout)
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-timeout:
			return nil, fmt.Errorf("login timeout exceeded")
		case <-ticker.C:
			cookies, err := ExtractCookies(ctx)
			if err != nil {
				continue
			}
			if m.hasSession(cookies) {
				return cookies, nil
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (m *Manager) hasSession(cookies []*network.Cookie) bool {
	for _, c := range cookies {
		if m.cookieStore.isRequired(c.Name) && c.Value != "" && MatchesDomain(c.Domain, m.cookieStore.domain) {
			return true
		}
	}
	return false
}

// ExtractCookies gets all cookies from the browser
func ExtractCookies(ctx context.Context) ([]*network.Cookie, error) {
	var cookies []*network.Cookie

	err := chromedp.Run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			cookies, err = storage.GetCookies().Do(ctx)
			return err
		}),
	)

	return cookies, err
}

// InjectCookies sets cookies in a browser context before navigation
func InjectCookies(ctx context.Context, cookies []*network.Cookie) error {
	return chromedp.Run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			for _, c := range cookies {
				err := network.SetCookie(c.Name, c.Value).
					WithDomain(c.Domain).
					WithPath(c.Path).
					WithSecure(c.Secure).
					WithHTTPOnly(c.HTTPOnly).
					WithSameSite(c.SameSite).
					Do(ctx)
				if err != nil {
					return err
				}
			}
			return nil
		}),
	)
}

// Logout clears stored credentials
func (m *Manager) Logout() error {
	return m.cookieStore.Clear()
}

// GetCookies returns the stored cookies for the platform domain
func (m *Manager) GetCookies() ([]*network.Cookie, error) {
	return m.cookieStore.DomainCookies()
}
