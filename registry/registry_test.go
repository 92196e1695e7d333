// Copyright (c) 2017-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package registry

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const registryURL = "http://registry.test"

func TestResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("override wins without touching the registry", func(t *testing.T) {
		mock := httpmock.NewMockTransport()
		c := NewClient(Options{
			URL:       registryURL,
			Overrides: map[string]string{"rda-cluster": "cluster.local:8080/"},
			Transport: mock,
		})

		address, err := c.Resolve(ctx, "rda-cluster")
		require.NoError(t, err)
		assert.Equal(t, "http://cluster.local:8080", address)
		assert.Equal(t, 0, mock.GetTotalCallCount())
	})

	t.Run("registry lookup is cached", func(t *testing.T) {
		mock := httpmock.NewMockTransport()
		mock.RegisterResponder(http.MethodGet, registryURL+"/rda-service-registry.service-instance/ds1",
			httpmock.NewStringResponder(http.StatusOK, `{"identifier":"ds1","address":"http://storage.test"}`))
		c := NewClient(Options{URL: registryURL + "/", Transport: mock})

		for i := 0; i < 3; i++ {
			address, err := c.Resolve(ctx, "ds1")
			require.NoError(t, err)
			assert.Equal(t, "http://storage.test", address)
		}
		assert.Equal(t, 1, mock.GetTotalCallCount())

		c.Invalidate("ds1")
		_, err := c.Resolve(ctx, "ds1")
		require.NoError(t, err)
		assert.Equal(t, 2, mock.GetTotalCallCount())
	})

	t.Run("cache expires", func(t *testing.T) {
		mock := httpmock.NewMockTransport()
		mock.RegisterResponder(http.MethodGet, registryURL+"/rda-service-registry.service-instance/ds1",
			httpmock.NewStringResponder(http.StatusOK, `{"identifier":"ds1","address":"storage.test"}`))
		c := NewClient(Options{URL: registryURL, Transport: mock, CacheTTL: 50 * time.Millisecond})

		_, err := c.Resolve(ctx, "ds1")
		require.NoError(t, err)
		time.Sleep(100 * time.Millisecond)
		_, err = c.Resolve(ctx, "ds1")
		require.NoError(t, err)
		assert.Equal(t, 2, mock.GetTotalCallCount())
	})

	t.Run("unknown service", func(t *testing.T) {
		mock := httpmock.NewMockTransport()
		mock.RegisterResponder(http.MethodGet, registryURL+"/rda-service-registry.service-instance/nope",
			httpmock.NewStringResponder(http.StatusNotFound, ``))
		c := NewClient(Options{URL: registryURL, Transport: mock})

		_, err := c.Resolve(ctx, "nope")
		assert.True(t, errors.Is(err, ErrServiceNotFound))
	})

	t.Run("registry failure is not cached", func(t *testing.T) {
		mock := httpmock.NewMockTransport()
		mock.RegisterResponder(http.MethodGet, registryURL+"/rda-service-registry.service-instance/ds1",
			httpmock.NewStringResponder(http.StatusInternalServerError, ``))
		c := NewClient(Options{URL: registryURL, Transport: mock})

		_, err := c.Resolve(ctx, "ds1")
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrServiceNotFound))

		mock.RegisterResponder(http.MethodGet, registryURL+"/rda-service-registry.service-instance/ds1",
			httpmock.NewStringResponder(http.StatusOK, `{"identifier":"ds1","address":"http://storage.test"}`))
		address, err := c.Resolve(ctx, "ds1")
		require.NoError(t, err)
		assert.Equal(t, "http://storage.test", address)
	})

	t.Run("empty address", func(t *testing.T) {
		mock := httpmock.NewMockTransport()
		mock.RegisterResponder(http.MethodGet, registryURL+"/rda-service-registry.service-instance/ds1",
			httpmock.NewStringResponder(http.StatusOK, `{"identifier":"ds1"}`))
		c := NewClient(Options{URL: registryURL, Transport: mock})

		_, err := c.Resolve(ctx, "ds1")
		assert.True(t, errors.Is(err, ErrServiceNotFound))
	})

	t.Run("no registry configured", func(t *testing.T) {
		c := NewClient(Options{})
		_, err := c.Resolve(ctx, "ds1")
		assert.True(t, errors.Is(err, ErrServiceNotFound))
	})

	t.Run("concurrent lookups share one request", func(t *testing.T) {
		release := make(chan struct{})
		mock := httpmock.NewMockTransport()
		mock.RegisterResponder(http.MethodGet, registryURL+"/rda-service-registry.service-instance/ds1",
			func(req *http.Request) (*http.Response, error) {
				<-release
				return httpmock.NewStringResponse(http.StatusOK, `{"identifier":"ds1","address":"http://storage.test"}`), nil
			})
		c := NewClient(Options{URL: registryURL, Transport: mock})

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				address, err := c.Resolve(ctx, "ds1")
				assert.NoError(t, err)
				assert.Equal(t, "http://storage.test", address)
			}()
		}
		time.Sleep(50 * time.Millisecond)
		close(release)
		wg.Wait()

		assert.Equal(t, 1, mock.GetTotalCallCount())
	})

	t.Run("caller context is honored", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)
		mock := httpmock.NewMockTransport()
		mock.RegisterResponder(http.MethodGet, registryURL+"/rda-service-registry.service-instance/slow",
			func(req *http.Request) (*http.Response, error) {
				<-release
				return httpmock.NewStringResponse(http.StatusOK, `{"address":"x"}`), nil
			})
		c := NewClient(Options{URL: registryURL, Transport: mock})

		cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		_, err := c.Resolve(cctx, "slow")
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
	})
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	mock := httpmock.NewMockTransport()
	var got ServiceInstance
	mock.RegisterResponder(http.MethodPost, registryURL+"/rda-service-registry.service-instance",
		func(req *http.Request) (*http.Response, error) {
			require.NoError(t, json.NewDecoder(req.Body).Decode(&got))
			return httpmock.NewStringResponse(http.StatusCreated, ``), nil
		})
	c := NewClient(Options{URL: registryURL, Transport: mock})

	require.NoError(t, c.Register(ctx, ServiceInstance{Identifier: "rda-coordinator", Address: "http://10.0.0.1:8000"}))
	assert.Equal(t, ServiceInstance{Identifier: "rda-coordinator", Address: "http://10.0.0.1:8000"}, got)

	mock.RegisterResponder(http.MethodPost, registryURL+"/rda-service-registry.service-instance",
		httpmock.NewStringResponder(http.StatusServiceUnavailable, ``))
	assert.Error(t, c.Register(ctx, ServiceInstance{Identifier: "rda-coordinator"}))

	assert.Error(t, NewClient(Options{}).Register(ctx, ServiceInstance{}))
}
