package providers

import (
	"golang.org/x/oauth2"

	"github.com/meridiancrm/core/pkg/credential"
)

// NewHubSpot builds the HubSpot CRM adapter.
func NewHubSpot(clientID, clientSecret, redirectURL string) credential.ProviderAdapter {
	return &oauth2Adapter{
		kind: credential.KindHubSpot,
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://app.hubspot.com/oauth/authorize",
				TokenURL: "https://api.hubapi.com/oauth/v1/token",
			},
			Scopes: []string{"crm.objects.contacts.read", "crm.objects.deals.read"},
		},
	}
}
