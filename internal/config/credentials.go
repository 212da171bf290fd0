package config

import (
	"fmt"

	"github.com/openkcm/common-sdk/pkg/commoncfg"
)

// ClientCredentials resolves the upstream client ID and secret from their
// configured sources.
func ClientCredentials(conf Provider) (string, string, error) {
	clientID, err := commoncfg.LoadValueFromSourceRef(conf.ClientID)
	if err != nil {
		return "", "", fmt.Errorf("loading provider client ID: %w", err)
	}

	clientSecret, err := commoncfg.LoadValueFromSourceRef(conf.ClientSecret)
	if err != nil {
		return "", "", fmt.Errorf("loading provider client secret: %w", err)
	}

	return string(clientID), string(clientSecret), nil
}
