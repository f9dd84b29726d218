package providers

import (
	"golang.org/x/oauth2"

	"github.com/meridiancrm/core/pkg/credential"
)

// NewSavvyCal builds the SavvyCal scheduling adapter.
func NewSavvyCal(clientID, clientSecret, redirectURL string) credential.ProviderAdapter {
	return &oauth2Adapter{
		kind: credential.KindSavvyCal,
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://savvycal.com/oauth/authorize",
				TokenURL: "https://api.savvycal.com/oauth/token",
			},
			Scopes: []string{"links:read", "events:read"},
		},
	}
}
