package vaillant

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/oauth2"
)

// The identity provider is a Keycloak realm per brand and country. There is no
// password grant: the app's authorization-code flow with PKCE is replayed by
// submitting the HTML login form and catching the redirect to the app URI.

func (c *Client) oauth2Config() *oauth2.Config {
	realm := realmURL(c.identityBase, c.brand, c.country)
	return &oauth2.Config{
		ClientID:    CLIENT_ID,
		RedirectURL: REDIRECT_URI,
		Endpoint: oauth2.Endpoint{
			AuthURL:   realm + "/protocol/openid-connect/auth",
			TokenURL:  realm + "/protocol/openid-connect/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

func (c *Client) login(ctx context.Context, user, password string) (*oauth2.Token, error) {
	conf := c.oauth2Config()
	verifier := oauth2.GenerateVerifier()
	state := oauth2.GenerateVerifier()

	authURL := conf.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, authURL, nil)
	if err != nil {
		return nil, err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching login page: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: login page returned %s", ErrAuthentication, res.Status)
	}

	action, err := loginFormAction(res.Body)
	if err != nil {
		return nil, err
	}
	loginURL, err := res.Request.URL.Parse(action)
	if err != nil {
		return nil, fmt.Errorf("%w: bad login form action %q: %w", ErrAuthentication, action, err)
	}

	code, err := c.submitLogin(ctx, loginURL.String(), user, password)
	if err != nil {
		return nil, err
	}

	token, err := conf.Exchange(context.WithValue(ctx, oauth2.HTTPClient, c.http), code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("%w: token exchange: %w", ErrAuthentication, err)
	}
	return token, nil
}

// submitLogin posts the credentials and returns the authorization code carried by
// the redirect to the app URI
func (c *Client) submitLogin(ctx context.Context, loginURL, user, password string) (string, error) {
	form := url.Values{}
	form.Set("username", user)
	form.Set("password", password)
	form.Set("credentialId", "")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, loginURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	noRedirect := *c.http
	noRedirect.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	res, err := noRedirect.Do(req)
	if err != nil {
		return "", fmt.Errorf("submitting login form: %w", err)
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)

	location := res.Header.Get("Location")
	if location == "" {
		// Keycloak answers 200 with the form again on bad credentials
		return "", fmt.Errorf("%w: invalid username or password (status %s)", ErrAuthentication, res.Status)
	}
	u, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("%w: bad redirect %q: %w", ErrAuthentication, location, err)
	}
	code := u.Query().Get("code")
	if code == "" {
		return "", fmt.Errorf("%w: no code in redirect (%s)", ErrAuthentication, u.Query().Get("error"))
	}
	return code, nil
}

// loginFormAction extracts the action of the Keycloak login form (id "kc-form-login"),
// falling back to the first form that has an action
func loginFormAction(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("%w: parsing login page: %w", ErrAuthentication, err)
	}

	var first, login string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "form" {
			var id, action string
			for _, a := range n.Attr {
				switch a.Key {
				case "id":
					id = a.Val
				case "action":
					action = a.Val
				}
			}
			if action != "" {
				if first == "" {
					first = action
				}
				if id == "kc-form-login" && login == "" {
					login = action
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	if login != "" {
		return login, nil
	}
	if first != "" {
		return first, nil
	}
	return "", fmt.Errorf("%w: no login form found", ErrAuthentication)
}
