// Package providers implements one credential.ProviderAdapter per
// integration kind, each wrapping an oauth2.Config (Bullhorn adds a
// two-step session handshake on top; Slack uses slack-go's OAuth v2 calls
// instead).
package providers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"github.com/meridiancrm/core/pkg/credential"
)

// oauth2Adapter is the common shape shared by every standard
// authorization-code-flow integration (Fathom, Google, HubSpot, SavvyCal,
// Stripe). Bullhorn embeds it and wraps Refresh with its REST-login step;
// Slack does not use it at all (slack-go's own OAuth v2 client instead).
type oauth2Adapter struct {
	kind   credential.Kind
	config *oauth2.Config
}

func (a *oauth2Adapter) Kind() credential.Kind { return a.kind }

func (a *oauth2Adapter) AuthCodeURL(state string) string {
	return a.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

func (a *oauth2Adapter) Exchange(ctx context.Context, code string) (credential.RefreshResult, error) {
	tok, err := a.config.Exchange(ctx, code)
	if err != nil {
		return credential.RefreshResult{}, fmt.Errorf("exchanging authorization code: %w", err)
	}
	return tokenToResult(tok), nil
}

func (a *oauth2Adapter) Refresh(ctx context.Context, current credential.Credential) (credential.RefreshResult, error) {
	if current.RefreshSecret == "" {
		return credential.RefreshResult{}, fmt.Errorf("%s: no refresh secret stored", a.kind)
	}
	src := a.config.TokenSource(ctx, &oauth2.Token{RefreshToken: current.RefreshSecret})
	tok, err := src.Token()
	if err != nil {
		return credential.RefreshResult{}, fmt.Errorf("%s: refreshing token: %w", a.kind, err)
	}
	return tokenToResult(tok), nil
}

// ClassifyError treats a token endpoint's rejection of the refresh token
// (invalid_grant and similar codes, or any 4xx response) as permanent and
// every other failure as transient; providers with a richer error taxonomy
// override this.
func (a *oauth2Adapter) ClassifyError(err error) credential.ErrorClass {
	return classifyOAuth2Error(err)
}

func tokenToResult(tok *oauth2.Token) credential.RefreshResult {
	var expiresAt *time.Time
	if !tok.Expiry.IsZero() {
		e := tok.Expiry
		expiresAt = &e
	}
	return credential.RefreshResult{
		AccessSecret:  tok.AccessToken,
		RefreshSecret: tok.RefreshToken,
		ExpiresAt:     expiresAt,
	}
}

// classifyOAuth2Error distinguishes a provider's rejection of the refresh
// token itself (permanent — invalid_grant, unauthorized_client) from
// transient network/5xx failures. oauth2.RetrieveError carries the token
// endpoint's error response body when the provider returned one.
func classifyOAuth2Error(err error) credential.ErrorClass {
	var rErr *oauth2.RetrieveError
	if errors.As(err, &rErr) {
		switch rErr.ErrorCode {
		case "invalid_grant", "unauthorized_client", "invalid_client":
			return credential.ErrorClassPermanent
		}
		if rErr.Response != nil && rErr.Response.StatusCode >= 400 && rErr.Response.StatusCode < 500 {
			return credential.ErrorClassPermanent
		}
	}
	return credential.ErrorClassTransient
}
