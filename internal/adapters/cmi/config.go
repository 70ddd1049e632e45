package cmi

import (
	"strings"

	"github.com/integrationcmi/cmi/internal/domain"
)

// Config holds the merchant's gateway settings. It is validated once and then
// shared read-only by the signer, verifier and form renderer.
type Config struct {
	// ClientID is the numeric merchant id issued by CMI
	ClientID string

	// StoreKey is the shared secret. Never log it.
	StoreKey string

	// GatewayURL is the hosted payment page the form posts to
	// Test: https://testpayment.cmi.co.ma/fim/est3Dgate
	GatewayURL string

	StoreType domain.StoreType
	TranType  domain.TranType

	ShopURL string

	// CallbackURL is sent as callbackURL when set
	CallbackURL string

	ConfirmationMode domain.ConfirmationMode
}

// DefaultConfig returns the settings of a 3D pay hosting store in auto
// confirmation mode. Credentials and URLs must still be filled in.
func DefaultConfig() *Config {
	return &Config{
		StoreType:        domain.StoreType3DPayHosting,
		TranType:         "PreAuth",
		ConfirmationMode: domain.ConfirmationModeAuto,
	}
}

// Validate checks required settings and normalizes the store type and
// confirmation mode in place. The transaction type is checked
// case-insensitively but sent as configured.
func (c *Config) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"storeKey", c.StoreKey},
		{"clientId", c.ClientID},
		{"gatewayUrl", c.GatewayURL},
		{"storetype", string(c.StoreType)},
		{"trantype", string(c.TranType)},
		{"shopUrl", c.ShopURL},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return domain.NewConfigurationError(r.field, "missing required config field: "+r.field)
		}
	}

	if !domain.IsNumeric(c.ClientID) {
		return domain.NewConfigurationError("clientId", "clientId must be numeric")
	}

	urls := []struct {
		field    string
		value    string
		optional bool
	}{
		{"gatewayUrl", c.GatewayURL, false},
		{"shopUrl", c.ShopURL, false},
		{"callbackUrl", c.CallbackURL, true},
	}
	for _, u := range urls {
		if u.optional && u.value == "" {
			continue
		}
		if !domain.IsHTTPURL(u.value) {
			return domain.NewConfigurationError(u.field, "invalid "+u.field+": missing http/https protocol or host")
		}
	}

	storeType, err := domain.NormalizeStoreType(string(c.StoreType))
	if err != nil {
		return domain.NewConfigurationError("storetype", err.Error())
	}
	if _, err := domain.NormalizeTranType(string(c.TranType)); err != nil {
		return domain.NewConfigurationError("trantype", err.Error())
	}
	mode, err := domain.NormalizeConfirmationMode(string(c.ConfirmationMode))
	if err != nil {
		return domain.NewConfigurationError("confirmationMode", err.Error())
	}

	c.StoreType = storeType
	c.TranType = domain.TranType(strings.TrimSpace(string(c.TranType)))
	c.ConfirmationMode = mode
	return nil
}
