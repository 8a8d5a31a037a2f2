package salesforce

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/afero"

	"github.com/atlasfield/soqlgate/pkg/errors"
)

// assertionLifetime is how long a bearer assertion stays valid. Salesforce
// caps it at five minutes.
const assertionLifetime = 3 * time.Minute

// buildAssertion signs a JWT bearer assertion for the configured connected
// app and user.
func buildAssertion(consumerKey, username, audience string, key *rsa.PrivateKey) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    consumerKey,
		Subject:   username,
		Audience:  jwt.ClaimStrings{audience},
		ExpiresAt: jwt.NewNumericDate(now.Add(assertionLifetime)),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, "assertion signing failed")
	}
	return signed, nil
}

// loadSigningKey reads a PEM-encoded RSA private key from fs.
func loadSigningKey(fs afero.Fs, path string) (*rsa.PrivateKey, error) {
	pemBytes, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidParams,
			fmt.Sprintf("cannot read jwt key %s", path))
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(pemBytes)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidParams, "invalid jwt key")
	}
	return key, nil
}

// tokenResponse is the OAuth token endpoint payload.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	InstanceURL string `json:"instance_url"`
	TokenType   string `json:"token_type"`
}

// exchangeAssertion trades a signed assertion for an access token at the
// domain's token endpoint.
func exchangeAssertion(ctx context.Context, client *http.Client, domain, assertion string) (*tokenResponse, error) {
	form := url.Values{
		"grant_type": {"urn:ietf:params:oauth:grant-type:jwt-bearer"},
		"assertion":  {assertion},
	}

	endpoint := strings.TrimRight(domain, "/") + "/services/oauth2/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "token request build failed")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeConnectionFailed, "token request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(errors.CodeUnauthorized,
			fmt.Sprintf("token endpoint returned status %d", resp.StatusCode))
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "token decode failed")
	}
	if token.AccessToken == "" {
		return nil, errors.New(errors.CodeUnauthorized, "token endpoint returned no token")
	}
	return &token, nil
}

// JWTAuthenticator runs the OAuth JWT bearer flow, reusing a cached token
// when one is available.
type JWTAuthenticator struct {
	fs         afero.Fs
	httpClient *http.Client
	store      *TokenStore
	logger     Logger
	// maxTokenAge forces a refresh for tokens older than this, since the
	// token endpoint gives no expiry for the bearer flow.
	maxTokenAge time.Duration
}

// NewJWTAuthenticator creates an authenticator. The store may be nil to
// disable token caching.
func NewJWTAuthenticator(fs afero.Fs, store *TokenStore, logger Logger) *JWTAuthenticator {
	return &JWTAuthenticator{
		fs:          fs,
		httpClient:  http.DefaultClient,
		store:       store,
		logger:      logger,
		maxTokenAge: 90 * time.Minute,
	}
}

// Authenticate returns a valid access token for the configuration, from the
// cache when possible.
func (a *JWTAuthenticator) Authenticate(ctx context.Context, cfg *Config) (*StoredToken, error) {
	if a.store != nil {
		if cached, err := a.store.Load(); err == nil {
			if time.Since(cached.IssuedAt) < a.maxTokenAge {
				a.logger.Debug("using cached access token")
				return cached, nil
			}
			a.logger.Debug("cached token stale; refreshing")
		}
	}

	key, err := loadSigningKey(a.fs, cfg.JWTKeyPath)
	if err != nil {
		return nil, err
	}

	assertion, err := buildAssertion(cfg.ConsumerKey, cfg.Username, cfg.JWTAudience, key)
	if err != nil {
		return nil, err
	}

	resp, err := exchangeAssertion(ctx, a.httpClient, cfg.Domain, assertion)
	if err != nil {
		return nil, err
	}

	token := &StoredToken{
		AccessToken: resp.AccessToken,
		InstanceURL: resp.InstanceURL,
		IssuedAt:    time.Now(),
	}
	if a.store != nil {
		if err := a.store.Save(token); err != nil {
			a.logger.Warn("token cache write failed", "error", err.Error())
		}
	}
	a.logger.Info("authenticated via jwt bearer flow", "instance", token.InstanceURL)
	return token, nil
}
