package providers

import (
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/meridiancrm/core/pkg/credential"
)

// NewGoogle builds the Google adapter (Calendar + Contacts scopes, read-only —
// C3 reconciles meetings and contacts, it never sends mail).
func NewGoogle(clientID, clientSecret, redirectURL string) credential.ProviderAdapter {
	return &oauth2Adapter{
		kind: credential.KindGoogle,
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     google.Endpoint,
			Scopes: []string{
				"https://www.googleapis.com/auth/calendar.readonly",
				"https://www.googleapis.com/auth/contacts.readonly",
			},
		},
	}
}
