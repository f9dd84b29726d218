package providers

import (
	"golang.org/x/oauth2"

	"github.com/meridiancrm/core/pkg/credential"
)

// NewStripe builds the Stripe Connect adapter (read-only billing context
// for AI dossiers — no charges, no billing UI, per spec Non-goals).
func NewStripe(clientID, clientSecret, redirectURL string) credential.ProviderAdapter {
	return &oauth2Adapter{
		kind: credential.KindStripe,
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://connect.stripe.com/oauth/authorize",
				TokenURL: "https://connect.stripe.com/oauth/token",
			},
			Scopes: []string{"read_only"},
		},
	}
}
