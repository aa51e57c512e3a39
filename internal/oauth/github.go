package oauth

import (
    "context"
    "encoding/json"
    "fmt"

    "golang.org/x/oauth2"
    githubOAuth2 "golang.org/x/oauth2/github"
)

// GitHub API endpoints.
const (
    GitHubUserURL   = "https://api.github.com/user"
    GitHubEmailsURL = "https://api.github.com/user/emails"
)

// GitHub signs users in with their GitHub account.  The profile email is
// often private, so the primary verified address is read from the emails
// endpoint.
type GitHub struct {
    Config    *oauth2.Config
    UserURL   string
    EmailsURL string
}

func NewGitHub(clientID, clientSecret, redirectURL string) *GitHub {
    return &GitHub{
        Config: &oauth2.Config{
            ClientID:     clientID,
            ClientSecret: clientSecret,
            RedirectURL:  redirectURL,
            Scopes:       []string{"read:user", "user:email"},
            Endpoint:     githubOAuth2.Endpoint,
        },
        UserURL:   GitHubUserURL,
        EmailsURL: GitHubEmailsURL,
    }
}

func (g *GitHub) Name() string { return "github" }

func (g *GitHub) AuthCodeURL(state string) string { return g.Config.AuthCodeURL(state) }

func (g *GitHub) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
    return g.Config.Exchange(ctx, code)
}

func (g *GitHub) FetchUser(ctx context.Context, tok *oauth2.Token) (UserInfo, error) {
    client := g.Config.Client(ctx, tok)

    var user struct {
        ID    json.Number `json:"id"`
        Login string      `json:"login"`
        Name  string      `json:"name"`
    }
    if err := getJSON(ctx, client, g.UserURL, &user); err != nil {
        return UserInfo{}, fmt.Errorf("github: %w", err)
    }
    if user.ID == "" {
        return UserInfo{}, ErrNoSubject
    }
    info := UserInfo{Subject: user.ID.String(), Name: user.Name}
    if info.Name == "" {
        info.Name = user.Login
    }

    var emails []struct {
        Email    string `json:"email"`
        Primary  bool   `json:"primary"`
        Verified bool   `json:"verified"`
    }
    if err := getJSON(ctx, client, g.EmailsURL, &emails); err != nil {
        return UserInfo{}, fmt.Errorf("github: %w", err)
    }
    for _, e := range emails {
        if e.Verified && (e.Primary || info.Email == "") {
            info.Email = e.Email
            if e.Primary {
                break
            }
        }
    }
    return info, nil
}
