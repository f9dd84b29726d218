package providers

import (
	"context"
	"fmt"
	"net/http"

	goslack "github.com/slack-go/slack"

	"github.com/meridiancrm/core/pkg/credential"
)

// slackAdapter wraps slack-go's own OAuth v2 exchange rather than a generic
// oauth2.Config, since Slack's bot-token grants never expire and have no
// refresh flow — Refresh only re-validates the stored token is still live.
type slackAdapter struct {
	clientID, clientSecret, redirectURL string
	httpClient                          *http.Client
}

// NewSlack builds the Slack adapter (OAuth v2, bot token scope).
func NewSlack(clientID, clientSecret, redirectURL string) credential.ProviderAdapter {
	return &slackAdapter{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURL:  redirectURL,
		httpClient:   http.DefaultClient,
	}
}

func (a *slackAdapter) Kind() credential.Kind { return credential.KindSlack }

func (a *slackAdapter) AuthCodeURL(state string) string {
	return fmt.Sprintf(
		"https://slack.com/oauth/v2/authorize?client_id=%s&scope=chat:write,users:read&redirect_uri=%s&state=%s",
		a.clientID, a.redirectURL, state,
	)
}

func (a *slackAdapter) Exchange(ctx context.Context, code string) (credential.RefreshResult, error) {
	resp, err := goslack.GetOAuthV2ResponseContext(ctx, a.httpClient, a.clientID, a.clientSecret, code, a.redirectURL)
	if err != nil {
		return credential.RefreshResult{}, fmt.Errorf("exchanging slack oauth code: %w", err)
	}
	return credential.RefreshResult{
		AccessSecret: resp.AccessToken,
		EndpointHint: resp.Team.ID,
		Metadata: map[string]any{
			"team_name": resp.Team.Name,
			"bot_user_id": resp.BotUserID,
		},
	}, nil
}

// Refresh re-validates a Slack bot token via auth.test — bot tokens do not
// expire, so there is nothing to exchange; a failure here means the app was
// uninstalled or the token revoked.
func (a *slackAdapter) Refresh(ctx context.Context, current credential.Credential) (credential.RefreshResult, error) {
	client := goslack.New(current.AccessSecret, goslack.OptionHTTPClient(a.httpClient))
	_, err := client.AuthTestContext(ctx)
	if err != nil {
		return credential.RefreshResult{}, fmt.Errorf("validating slack token: %w", err)
	}
	return credential.RefreshResult{
		AccessSecret: current.AccessSecret,
		EndpointHint: current.EndpointHint,
		Metadata:     current.Metadata,
	}, nil
}

func (a *slackAdapter) ClassifyError(err error) credential.ErrorClass {
	// auth.test failures (account_inactive, token_revoked, invalid_auth)
	// always mean reconnection is required; Slack has no transient
	// refresh-endpoint failure mode since there is no token endpoint.
	return credential.ErrorClassPermanent
}
