// Copyright (c) 2017-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

// Package registry resolves logical service names to base URLs using the
// service registry, and registers the coordinator with it.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mattermost/mattermost-server/v6/shared/mlog"
	gocache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"github.com/mattermost/rda-coordinator/metrics"
)

const (
	resourcePath = "rda-service-registry.service-instance"

	defaultCacheTTL = 30 * time.Second
	defaultTimeout  = 10 * time.Second

	opLookup   = "registry-lookup"
	opRegister = "registry-register"
)

// ErrServiceNotFound is returned when no address is known for a service.
var ErrServiceNotFound = errors.New("service not found in registry")

// ServiceInstance is a running service as stored by the registry.
type ServiceInstance struct {
	Identifier string `json:"identifier"`
	Address    string `json:"address"`
}

// Options configure a Client.
type Options struct {
	// URL is the base URL of the service registry. Without it only Overrides
	// can be resolved.
	URL string
	// Overrides map service names to fixed base URLs and bypass the registry.
	Overrides map[string]string
	// CacheTTL is how long a resolved address is reused.
	CacheTTL time.Duration
	Timeout  time.Duration

	Transport http.RoundTripper
	Metrics   metrics.Provider
}

// Client resolves service names. It is safe for concurrent use; concurrent
// lookups of the same name share one registry request.
type Client struct {
	baseURL    string
	overrides  map[string]string
	httpClient *http.Client
	cache      *gocache.Cache
	group      singleflight.Group
}

func NewClient(opts Options) *Client {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultCacheTTL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNopProvider()
	}

	overrides := make(map[string]string, len(opts.Overrides))
	for name, address := range opts.Overrides {
		overrides[name] = normalizeAddress(address)
	}

	httpClient := metrics.NewTransport(opts.Transport, opts.Metrics).Client()
	httpClient.Timeout = opts.Timeout

	return &Client{
		baseURL:    strings.TrimRight(opts.URL, "/"),
		overrides:  overrides,
		httpClient: httpClient,
		cache:      gocache.New(opts.CacheTTL, 2*opts.CacheTTL),
	}
}

// Resolve returns the base URL of the named service.
func (c *Client) Resolve(ctx context.Context, name string) (string, error) {
	if address, ok := c.overrides[name]; ok {
		return address, nil
	}
	if address, ok := c.cache.Get(name); ok {
		return address.(string), nil
	}
	if c.baseURL == "" {
		return "", errors.Wrapf(ErrServiceNotFound, "no registry configured to resolve %s", name)
	}

	ch := c.group.DoChan(name, func() (interface{}, error) {
		// Shared by all waiters, so not bound to any caller's context.
		lookupCtx, cancel := context.WithTimeout(context.Background(), c.httpClient.Timeout)
		defer cancel()
		return c.lookup(lookupCtx, name)
	})

	select {
	case <-ctx.Done():
		return "", errors.Wrapf(ctx.Err(), "resolving %s", name)
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// Invalidate drops a cached address so that the next Resolve asks the
// registry again.
func (c *Client) Invalidate(name string) {
	c.cache.Delete(name)
}

func (c *Client) lookup(ctx context.Context, name string) (string, error) {
	u := fmt.Sprintf("%s/%s/%s", c.baseURL, resourcePath, url.PathEscape(name))
	req, err := http.NewRequestWithContext(metrics.ContextWithOperation(ctx, opLookup), http.MethodGet, u, nil)
	if err != nil {
		return "", errors.Wrap(err, "unable to build registry request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrapf(err, "unable to resolve %s", name)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return "", errors.Wrapf(ErrServiceNotFound, "service %s", name)
	default:
		return "", errors.Errorf("registry returned status %d resolving %s", resp.StatusCode, name)
	}

	var instance ServiceInstance
	if err := json.NewDecoder(resp.Body).Decode(&instance); err != nil {
		return "", errors.Wrap(err, "error decoding service instance")
	}
	if instance.Address == "" {
		return "", errors.Wrapf(ErrServiceNotFound, "service %s has no address", name)
	}

	address := normalizeAddress(instance.Address)
	c.cache.SetDefault(name, address)
	mlog.Debug("Resolved service", mlog.String("service", name), mlog.String("address", address))

	return address, nil
}

// Register announces a service instance to the registry.
func (c *Client) Register(ctx context.Context, instance ServiceInstance) error {
	if c.baseURL == "" {
		return errors.New("no registry configured")
	}

	b, err := json.Marshal(instance)
	if err != nil {
		return errors.Wrap(err, "error encoding service instance")
	}

	u := fmt.Sprintf("%s/%s", c.baseURL, resourcePath)
	req, err := http.NewRequestWithContext(metrics.ContextWithOperation(ctx, opRegister), http.MethodPost, u, bytes.NewReader(b))
	if err != nil {
		return errors.Wrap(err, "unable to build registry request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "unable to register %s", instance.Identifier)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return errors.Errorf("registry returned status %d registering %s", resp.StatusCode, instance.Identifier)
	}
	return nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func normalizeAddress(address string) string {
	address = strings.TrimRight(strings.TrimSpace(address), "/")
	if address != "" && !strings.Contains(address, "://") {
		address = "http://" + address
	}
	return address
}
