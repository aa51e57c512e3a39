package oauth

import (
    "context"
    "fmt"

    "golang.org/x/oauth2"
    "golang.org/x/oauth2/endpoints"
)

// GoogleUserInfoURL is the OpenID Connect userinfo endpoint.
const GoogleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// Google signs users in with their Google account.
type Google struct {
    Config      *oauth2.Config
    UserInfoURL string
}

func NewGoogle(clientID, clientSecret, redirectURL string) *Google {
    return &Google{
        Config: &oauth2.Config{
            ClientID:     clientID,
            ClientSecret: clientSecret,
            RedirectURL:  redirectURL,
            Scopes:       []string{"openid", "email", "profile"},
            Endpoint:     endpoints.Google,
        },
        UserInfoURL: GoogleUserInfoURL,
    }
}

func (g *Google) Name() string { return "google" }

func (g *Google) AuthCodeURL(state string) string {
    return g.Config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func (g *Google) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
    return g.Config.Exchange(ctx, code)
}

func (g *Google) FetchUser(ctx context.Context, tok *oauth2.Token) (UserInfo, error) {
    var raw struct {
        Sub           string `json:"sub"`
        Email         string `json:"email"`
        EmailVerified bool   `json:"email_verified"`
        Name          string `json:"name"`
    }
    if err := getJSON(ctx, g.Config.Client(ctx, tok), g.UserInfoURL, &raw); err != nil {
        return UserInfo{}, fmt.Errorf("google: %w", err)
    }
    if raw.Sub == "" {
        return UserInfo{}, ErrNoSubject
    }
    info := UserInfo{Subject: raw.Sub, Name: raw.Name}
    if raw.EmailVerified {
        info.Email = raw.Email
    }
    return info, nil
}
