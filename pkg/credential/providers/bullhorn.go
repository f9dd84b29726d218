package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"

	"github.com/meridiancrm/core/pkg/credential"
)

// bullhornAdapter implements credential.TwoStepExchange: Bullhorn's refresh
// token exchanges for an OAuth access token exactly like any other provider,
// but that access token must then be traded for a REST "session token"
// tied to a tenant-specific REST endpoint URL (the "endpoint hint") before
// any API call can be made.
type bullhornAdapter struct {
	oauth2Adapter
	restLoginURL string
	httpClient   *http.Client
}

// NewBullhorn builds the Bullhorn ATS adapter.
func NewBullhorn(clientID, clientSecret, redirectURL string) credential.ProviderAdapter {
	return &bullhornAdapter{
		oauth2Adapter: oauth2Adapter{
			kind: credential.KindBullhorn,
			config: &oauth2.Config{
				ClientID:     clientID,
				ClientSecret: clientSecret,
				RedirectURL:  redirectURL,
				Endpoint: oauth2.Endpoint{
					AuthURL:  "https://auth.bullhornstaffing.com/oauth/authorize",
					TokenURL: "https://auth.bullhornstaffing.com/oauth/token",
				},
				Scopes: []string{"Placement:Read", "Candidate:Read"},
			},
		},
		restLoginURL: "https://rest.bullhornstaffing.com/rest-services/login",
		httpClient:   http.DefaultClient,
	}
}

// Refresh performs the full two-step handshake: refresh the OAuth access
// token, then trade it for a fresh REST session token and endpoint.
func (a *bullhornAdapter) Refresh(ctx context.Context, current credential.Credential) (credential.RefreshResult, error) {
	base, err := a.oauth2Adapter.Refresh(ctx, current)
	if err != nil {
		return credential.RefreshResult{}, err
	}

	sessionToken, endpoint, err := a.restLogin(ctx, base.AccessSecret)
	if err != nil {
		return credential.RefreshResult{}, fmt.Errorf("bullhorn rest login: %w", err)
	}
	base.SessionToken = sessionToken
	base.EndpointHint = endpoint
	return base, nil
}

// ResolveEndpoint re-derives the REST endpoint for an already-valid session
// token, satisfying credential.TwoStepExchange without a fresh OAuth round
// trip (used when only the endpoint, not the session, has gone stale).
func (a *bullhornAdapter) ResolveEndpoint(ctx context.Context, sessionToken string) (string, error) {
	_, endpoint, err := a.restLoginWithSession(ctx, sessionToken)
	return endpoint, err
}

func (a *bullhornAdapter) restLogin(ctx context.Context, accessToken string) (sessionToken, endpoint string, err error) {
	q := url.Values{"version": {"*"}, "access_token": {accessToken}}
	return a.doRestLogin(ctx, q)
}

func (a *bullhornAdapter) restLoginWithSession(ctx context.Context, sessionToken string) (string, string, error) {
	q := url.Values{"version": {"*"}, "ticket": {sessionToken}}
	return a.doRestLogin(ctx, q)
}

func (a *bullhornAdapter) doRestLogin(ctx context.Context, params url.Values) (sessionToken, endpoint string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.restLoginURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", "", err
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("rest login returned status %d", resp.StatusCode)
	}

	var body struct {
		BhRestToken string `json:"BhRestToken"`
		RestURL     string `json:"restUrl"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", "", fmt.Errorf("decoding rest login response: %w", err)
	}
	return body.BhRestToken, body.RestURL, nil
}

// ClassifyError applies the shared OAuth classification: a token-endpoint
// rejection (invalid_grant and similar, or a 4xx) is permanent. A REST-login
// failure is a plain error, not an oauth2.RetrieveError, so it classifies
// as transient whatever its status code.
func (a *bullhornAdapter) ClassifyError(err error) credential.ErrorClass {
	return classifyOAuth2Error(err)
}

var _ credential.TwoStepExchange = (*bullhornAdapter)(nil)
