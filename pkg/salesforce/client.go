// Package salesforce wraps the go-salesforce client behind the narrow
// interface the gateway tools consume, adding describe caching, restricted
// object enforcement, and typed decoding of REST payloads.
package salesforce

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	salesforce "github.com/k-capehart/go-salesforce/v2"
	"github.com/spf13/afero"

	"github.com/atlasfield/soqlgate/pkg/cache"
	"github.com/atlasfield/soqlgate/pkg/errors"
	"github.com/atlasfield/soqlgate/pkg/models"
)

// Logger defines logging interface.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Client is the slice of the Salesforce API the gateway uses.
type Client interface {
	DescribeSObject(ctx context.Context, name string) (*models.SObjectDescribe, error)
	DescribeGlobal(ctx context.Context) ([]models.GlobalSObject, error)
	Query(ctx context.Context, soql string) ([]models.Record, error)
	Search(ctx context.Context, sosl string) ([]models.Record, error)
	GetRecord(ctx context.Context, object, id string, fields []string) (models.Record, error)
	OrgLimits(ctx context.Context) (map[string]models.OrgLimit, error)
	RecentItems(ctx context.Context, limit int) ([]models.RecentItem, error)
	UserInfo(ctx context.Context) (*models.UserInfo, error)
	DescribeLayouts(ctx context.Context, object string) ([]models.LayoutDescribe, error)
}

// restAPI is the part of go-salesforce the client depends on.
type restAPI interface {
	Query(query string, sObject any) error
	DoRequest(method string, uri string, body []byte) (*http.Response, error)
	GetAccessToken() string
}

// RESTClient implements Client over the Salesforce REST API.
type RESTClient struct {
	api        restAPI
	describes  cache.Cache
	logger     Logger
	restricted map[string]bool
	httpClient *http.Client
	// authBase is the instance base URL for OAuth endpoints outside the
	// data API prefix.
	authBase string
}

// NewClient authenticates against Salesforce and returns a REST client.
// With a JWT key configured the bearer flow runs first and the resulting
// token is handed to go-salesforce; otherwise the credentials decide the
// flow.
func NewClient(ctx context.Context, cfg *Config, describes cache.Cache, logger Logger) (*RESTClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	creds := cfg.Creds()
	if cfg.JWTKeyPath != "" {
		fs := afero.NewOsFs()
		var store *TokenStore
		if cfg.TokenCachePath != "" {
			key := sha256.Sum256([]byte(cfg.ConsumerKey + "\x00" + cfg.Username + "\x00" + cfg.Domain))
			var err error
			store, err = NewTokenStore(fs, cfg.TokenCachePath, key[:])
			if err != nil {
				return nil, err
			}
		}

		token, err := NewJWTAuthenticator(fs, store, logger).Authenticate(ctx, cfg)
		if err != nil {
			return nil, err
		}
		creds = salesforce.Creds{
			Domain:      token.InstanceURL,
			AccessToken: token.AccessToken,
		}
	}

	sf, err := salesforce.Init(creds)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeConnectionFailed, "salesforce authentication failed")
	}
	logger.Info("connected to salesforce", "domain", cfg.Domain)

	return newClient(sf, cfg, describes, logger), nil
}

func newClient(api restAPI, cfg *Config, describes cache.Cache, logger Logger) *RESTClient {
	restricted := make(map[string]bool, len(cfg.RestrictedObjects))
	for _, obj := range cfg.RestrictedObjects {
		restricted[strings.ToLower(obj)] = true
	}
	return &RESTClient{
		api:        api,
		describes:  describes,
		logger:     logger,
		restricted: restricted,
		httpClient: http.DefaultClient,
		authBase:   cfg.Domain,
	}
}

// IsRestricted reports whether an object is blocked by configuration.
func (c *RESTClient) IsRestricted(object string) bool {
	return c.restricted[strings.ToLower(object)]
}

func (c *RESTClient) checkObject(object string) error {
	if c.IsRestricted(object) {
		return errors.New(errors.CodePermissionDenied,
			fmt.Sprintf("access to object %s is restricted", object))
	}
	return nil
}

// DescribeSObject fetches an object describe, serving repeats from the cache.
func (c *RESTClient) DescribeSObject(ctx context.Context, name string) (*models.SObjectDescribe, error) {
	if err := c.checkObject(name); err != nil {
		return nil, err
	}
	if c.describes != nil {
		if d, ok := c.describes.Get(ctx, name); ok {
			return d, nil
		}
	}

	var describe models.SObjectDescribe
	uri := fmt.Sprintf("/sobjects/%s/describe", url.PathEscape(name))
	if err := c.doGet(ctx, uri, &describe); err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.Wrap(err, errors.CodeNotFound,
				fmt.Sprintf("object %s not found", name))
		}
		return nil, errors.Wrap(err, errors.CodeMetadataFailed,
			fmt.Sprintf("describe failed for %s", name))
	}

	if c.describes != nil {
		c.describes.Put(ctx, name, &describe)
	}
	return &describe, nil
}

// DescribeGlobal lists all queryable objects, with restricted objects
// filtered out.
func (c *RESTClient) DescribeGlobal(ctx context.Context) ([]models.GlobalSObject, error) {
	var payload struct {
		SObjects []models.GlobalSObject `json:"sobjects"`
	}
	if err := c.doGet(ctx, "/sobjects", &payload); err != nil {
		return nil, errors.Wrap(err, errors.CodeMetadataFailed, "global describe failed")
	}

	out := make([]models.GlobalSObject, 0, len(payload.SObjects))
	for _, obj := range payload.SObjects {
		if c.IsRestricted(obj.Name) {
			continue
		}
		out = append(out, obj)
	}
	return out, nil
}

// Query runs a SOQL query and returns the loosely-typed records.
func (c *RESTClient) Query(ctx context.Context, soql string) ([]models.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeCanceled, "query canceled")
	}

	var records []models.Record
	if err := c.api.Query(soql, &records); err != nil {
		return nil, errors.Wrap(err, errors.CodeQueryFailed, "query failed")
	}
	return records, nil
}

// Search runs a SOSL search and returns the matched records.
func (c *RESTClient) Search(ctx context.Context, sosl string) ([]models.Record, error) {
	var result models.SearchResult
	uri := "/search/?q=" + url.QueryEscape(sosl)
	if err := c.doGet(ctx, uri, &result); err != nil {
		return nil, errors.Wrap(err, errors.CodeSearchFailed, "search failed")
	}
	return result.SearchRecords, nil
}

// GetRecord fetches a single record by id, optionally limited to a field
// list.
func (c *RESTClient) GetRecord(ctx context.Context, object, id string, fields []string) (models.Record, error) {
	if err := c.checkObject(object); err != nil {
		return nil, err
	}

	uri := fmt.Sprintf("/sobjects/%s/%s", url.PathEscape(object), url.PathEscape(id))
	if len(fields) > 0 {
		uri += "?fields=" + url.QueryEscape(strings.Join(fields, ","))
	}

	var record models.Record
	if err := c.doGet(ctx, uri, &record); err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.Wrap(err, errors.CodeNotFound,
				fmt.Sprintf("%s record %s not found", object, id))
		}
		return nil, errors.Wrap(err, errors.CodeQueryFailed, "record fetch failed")
	}
	return record, nil
}

// OrgLimits fetches the org limit usage map.
func (c *RESTClient) OrgLimits(ctx context.Context) (map[string]models.OrgLimit, error) {
	var limits map[string]models.OrgLimit
	if err := c.doGet(ctx, "/limits/", &limits); err != nil {
		return nil, errors.Wrap(err, errors.CodeMetadataFailed, "limits fetch failed")
	}
	return limits, nil
}

// RecentItems fetches the recently viewed records. The endpoint returns
// loosely-typed records; they are decoded into typed items afterwards.
func (c *RESTClient) RecentItems(ctx context.Context, limit int) ([]models.RecentItem, error) {
	uri := "/recent/"
	if limit > 0 {
		uri = fmt.Sprintf("/recent/?limit=%d", limit)
	}

	var records []models.Record
	if err := c.doGet(ctx, uri, &records); err != nil {
		return nil, errors.Wrap(err, errors.CodeQueryFailed, "recent items fetch failed")
	}

	var items []models.RecentItem
	if err := DecodeRecords(records, &items); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "recent items decode failed")
	}
	return items, nil
}

// UserInfo fetches the OpenID Connect userinfo claims for the connected
// user. The endpoint lives outside the data API prefix, so the request is
// made directly against the instance with the bearer token.
func (c *RESTClient) UserInfo(ctx context.Context) (*models.UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		strings.TrimRight(c.authBase, "/")+"/services/oauth2/userinfo", nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "userinfo request build failed")
	}
	req.Header.Set("Authorization", "Bearer "+c.api.GetAccessToken())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeConnectionFailed, "userinfo request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(errors.CodeUnauthorized,
			fmt.Sprintf("userinfo returned status %d", resp.StatusCode))
	}

	var info models.UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "userinfo decode failed")
	}
	return &info, nil
}

// DescribeLayouts fetches the page layouts for an object.
func (c *RESTClient) DescribeLayouts(ctx context.Context, object string) ([]models.LayoutDescribe, error) {
	if err := c.checkObject(object); err != nil {
		return nil, err
	}

	var payload struct {
		Layouts []models.LayoutDescribe `json:"layouts"`
	}
	uri := fmt.Sprintf("/sobjects/%s/describe/layouts", url.PathEscape(object))
	if err := c.doGet(ctx, uri, &payload); err != nil {
		return nil, errors.Wrap(err, errors.CodeMetadataFailed,
			fmt.Sprintf("layout describe failed for %s", object))
	}
	return payload.Layouts, nil
}

// doGet performs a GET against the data API and decodes the JSON response.
func (c *RESTClient) doGet(ctx context.Context, uri string, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, errors.CodeCanceled, "request canceled")
	}

	resp, err := c.api.DoRequest(http.MethodGet, uri, nil)
	if err != nil {
		// a failed request still carries the response status when the
		// server answered
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return errors.Wrap(err, errors.CodeNotFound, "resource not found")
		}
		return errors.Wrap(err, errors.CodeConnectionFailed, "request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, errors.CodeConnectionFailed, "response read failed")
	}

	if resp.StatusCode == http.StatusNotFound {
		return errors.New(errors.CodeNotFound, "resource not found")
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return errors.New(errors.CodeQueryFailed,
			fmt.Sprintf("salesforce returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "response decode failed")
	}
	return nil
}
