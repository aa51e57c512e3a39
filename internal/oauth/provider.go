// Package oauth wraps the external identity providers used for social
// sign-in.  A provider turns an authorization code into a verified
// UserInfo; account provisioning happens elsewhere.
package oauth

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "net/http"
    "sort"
    "strings"

    "golang.org/x/oauth2"

    "github.com/iliyamo/portfolio-blog/internal/config"
)

// ErrNoSubject is returned when a provider answers without a stable id.
var ErrNoSubject = errors.New("oauth: provider returned no subject id")

// UserInfo is the identity a provider vouches for.  Email is empty when
// the provider has no verified address.
type UserInfo struct {
    Subject string
    Email   string
    Name    string
}

// Provider is one configured identity provider.
type Provider interface {
    Name() string
    AuthCodeURL(state string) string
    Exchange(ctx context.Context, code string) (*oauth2.Token, error)
    FetchUser(ctx context.Context, tok *oauth2.Token) (UserInfo, error)
}

// Registry maps provider names to providers.
type Registry struct {
    providers map[string]Provider
}

// NewRegistry registers every provider that has a client id configured.
// Callback URLs are <RedirectBaseURL>/auth/oauth/<name>/callback.
func NewRegistry(cfg config.OAuthConfig) *Registry {
    r := &Registry{providers: map[string]Provider{}}
    base := strings.TrimRight(cfg.RedirectBaseURL, "/")
    if cfg.GoogleClientID != "" {
        r.Register(NewGoogle(cfg.GoogleClientID, cfg.GoogleClientSecret, base+"/auth/oauth/google/callback"))
    }
    if cfg.GitHubClientID != "" {
        r.Register(NewGitHub(cfg.GitHubClientID, cfg.GitHubClientSecret, base+"/auth/oauth/github/callback"))
    }
    return r
}

// Register adds or replaces a provider.
func (r *Registry) Register(p Provider) { r.providers[p.Name()] = p }

// Get looks a provider up by name.
func (r *Registry) Get(name string) (Provider, bool) {
    p, ok := r.providers[name]
    return p, ok
}

// Names lists registered providers in alphabetical order.
func (r *Registry) Names() []string {
    out := make([]string, 0, len(r.providers))
    for name := range r.providers {
        out = append(out, name)
    }
    sort.Strings(out)
    return out
}

// getJSON issues an authenticated GET and decodes a 200 response into v.
func getJSON(ctx context.Context, client *http.Client, url string, v any) error {
    req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
    if err != nil {
        return err
    }
    req.Header.Set("Accept", "application/json")
    resp, err := client.Do(req)
    if err != nil {
        return err
    }
    defer resp.Body.Close()
    if resp.StatusCode != http.StatusOK {
        body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
        return fmt.Errorf("GET %s: status %d: %s", url, resp.StatusCode, strings.TrimSpace(string(body)))
    }
    return json.NewDecoder(resp.Body).Decode(v)
}
