package salesforce

import (
	salesforce "github.com/k-capehart/go-salesforce/v2"

	"github.com/atlasfield/soqlgate/pkg/errors"
)

// Config holds Salesforce connection settings.
type Config struct {
	Domain         string `json:"domain" yaml:"domain" mapstructure:"domain"`
	Username       string `json:"username" yaml:"username" mapstructure:"username"`
	Password       string `json:"-" yaml:"password" mapstructure:"password"`
	SecurityToken  string `json:"-" yaml:"security_token" mapstructure:"security_token"`
	ConsumerKey    string `json:"-" yaml:"consumer_key" mapstructure:"consumer_key"`
	ConsumerSecret string `json:"-" yaml:"consumer_secret" mapstructure:"consumer_secret"`
	AccessToken    string `json:"-" yaml:"access_token" mapstructure:"access_token"`
	APIVersion     string `json:"api_version" yaml:"api_version" mapstructure:"api_version"`
	// JWTKeyPath points at a PEM-encoded RSA key for the JWT bearer flow.
	// When set it takes precedence over the password and client-credential
	// flows.
	JWTKeyPath string `json:"jwt_key_path" yaml:"jwt_key_path" mapstructure:"jwt_key_path"`
	// JWTAudience is the token audience, https://login.salesforce.com by
	// default.
	JWTAudience string `json:"jwt_audience" yaml:"jwt_audience" mapstructure:"jwt_audience"`
	// TokenCachePath stores the encrypted access token between runs; empty
	// disables caching.
	TokenCachePath string `json:"token_cache_path" yaml:"token_cache_path" mapstructure:"token_cache_path"`
	// RestrictedObjects are sobjects the gateway refuses to touch.
	RestrictedObjects []string `json:"restricted_objects" yaml:"restricted_objects" mapstructure:"restricted_objects"`
}

// DefaultRestrictedObjects are hidden from listing and blocked from access
// unless the configuration overrides them.
var DefaultRestrictedObjects = []string{
	"AuthSession",
	"LoginHistory",
	"SetupAuditTrail",
	"TwoFactorInfo",
}

// Validate checks the configuration and applies defaults.
func (c *Config) Validate() error {
	if c.Domain == "" {
		return errors.New(errors.CodeInvalidParams, "salesforce domain is required")
	}
	if c.APIVersion == "" {
		c.APIVersion = "v60.0"
	}
	if c.JWTAudience == "" {
		c.JWTAudience = "https://login.salesforce.com"
	}
	if c.JWTKeyPath != "" && (c.ConsumerKey == "" || c.Username == "") {
		return errors.New(errors.CodeInvalidParams,
			"jwt bearer flow requires consumer_key and username")
	}
	if c.RestrictedObjects == nil {
		c.RestrictedObjects = DefaultRestrictedObjects
	}
	return nil
}

// Creds maps the configuration onto go-salesforce credentials. Which auth
// flow runs is decided by which fields are set: username-password,
// client-credentials, or a pre-issued access token.
func (c *Config) Creds() salesforce.Creds {
	return salesforce.Creds{
		Domain:         c.Domain,
		Username:       c.Username,
		Password:       c.Password,
		SecurityToken:  c.SecurityToken,
		ConsumerKey:    c.ConsumerKey,
		ConsumerSecret: c.ConsumerSecret,
		AccessToken:    c.AccessToken,
	}
}
