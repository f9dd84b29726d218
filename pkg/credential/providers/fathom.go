package providers

import (
	"golang.org/x/oauth2"

	"github.com/meridiancrm/core/pkg/credential"
)

// NewFathom builds the Fathom Video adapter — a standard authorization-code
// OAuth2 integration with no provider-specific quirks.
func NewFathom(clientID, clientSecret, redirectURL string) credential.ProviderAdapter {
	return &oauth2Adapter{
		kind: credential.KindFathom,
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://fathom.video/oauth/authorize",
				TokenURL: "https://fathom.video/oauth/token",
			},
			Scopes: []string{"meetings:read"},
		},
	}
}
