// Copyright (c) 2017-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattermost/rda-coordinator/model"
)

const (
	clusterHost = "http://cluster.test"
	storageHost = "http://storage.test"
)

func newTestClient(t *testing.T) (*Client, *httpmock.MockTransport) {
	mock := httpmock.NewMockTransport()
	c := New(Options{Transport: mock, Timeout: 5 * time.Second})
	t.Cleanup(c.Close)
	return c, mock
}

func TestClusterExists(t *testing.T) {
	c, mock := newTestClient(t)
	ctx := context.Background()

	mock.RegisterResponder(http.MethodGet, clusterHost+"/rda-cluster.cluster/ds1/exists",
		httpmock.NewStringResponder(http.StatusOK, `{}`))
	mock.RegisterResponder(http.MethodGet, clusterHost+"/rda-cluster.cluster/ds1/missing",
		httpmock.NewStringResponder(http.StatusNotFound, ``))
	mock.RegisterResponder(http.MethodGet, clusterHost+"/rda-cluster.cluster/ds1/broken",
		httpmock.NewStringResponder(http.StatusInternalServerError, `boom`))

	exists, err := c.ClusterExists(ctx, clusterHost, "ds1/exists")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = c.ClusterExists(ctx, clusterHost+"/", "ds1/missing")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = c.ClusterExists(ctx, clusterHost, "ds1/broken")
	require.Error(t, err)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
	assert.Equal(t, "boom", se.Body)
	assert.Equal(t, http.StatusInternalServerError, StatusCode(err))
}

func TestGetCluster(t *testing.T) {
	c, mock := newTestClient(t)
	ctx := context.Background()

	mock.RegisterResponder(http.MethodGet, clusterHost+"/rda-cluster.cluster/7",
		httpmock.NewStringResponder(http.StatusOK, `{"clusterId":7,"clusterIdentifier":"ds1/set1","status":"active","shards":[{"id":1}]}`))
	mock.RegisterResponder(http.MethodGet, clusterHost+"/rda-cluster.cluster/8",
		httpmock.NewStringResponder(http.StatusNotFound, ``))
	mock.RegisterResponder(http.MethodGet, clusterHost+"/rda-cluster.cluster/9",
		httpmock.NewStringResponder(http.StatusBadGateway, ``))

	record, err := c.GetCluster(ctx, clusterHost, "7")
	require.NoError(t, err)
	assert.Equal(t, model.ClusterID("7"), record.ClusterID)
	assert.Equal(t, model.ClusterStatusActive, record.Status)
	assert.Len(t, record.Shards, 1)

	_, err = c.GetCluster(ctx, clusterHost, "8")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = c.GetCluster(ctx, clusterHost, "9")
	assert.Equal(t, http.StatusBadGateway, StatusCode(err))
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestCreateCluster(t *testing.T) {
	c, mock := newTestClient(t)
	ctx := context.Background()

	var sent model.CreateClusterRequest
	mock.RegisterResponder(http.MethodPost, clusterHost+"/rda-cluster.cluster",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
			body, err := io.ReadAll(req.Body)
			require.NoError(t, err)
			require.NoError(t, json.Unmarshal(body, &sent))
			return httpmock.NewStringResponse(http.StatusCreated, `{"clusterId":"c-1","shards":[{"id":"a"},{"id":"b"}]}`), nil
		})

	record, err := c.CreateCluster(ctx, clusterHost, &model.CreateClusterRequest{
		RequiredMemory: "2048",
		RecordCount:    "1000",
		DataSet:        "set1",
		DataSource:     "ds1",
	})
	require.NoError(t, err)
	assert.Equal(t, model.ClusterID("c-1"), record.ClusterID)
	assert.Len(t, record.Shards, 2)
	assert.Equal(t, model.CreateClusterRequest{RequiredMemory: "2048", RecordCount: "1000", DataSet: "set1", DataSource: "ds1"}, sent)

	t.Run("200 is not accepted", func(t *testing.T) {
		mock.RegisterResponder(http.MethodPost, clusterHost+"/rda-cluster.cluster",
			httpmock.NewStringResponder(http.StatusOK, `{"clusterId":1}`))
		_, err := c.CreateCluster(ctx, clusterHost, &model.CreateClusterRequest{})
		assert.Equal(t, http.StatusOK, StatusCode(err))
	})

	t.Run("fractional sizes are accepted", func(t *testing.T) {
		mock.RegisterResponder(http.MethodPost, clusterHost+"/rda-cluster.cluster",
			httpmock.NewStringResponder(http.StatusCreated, `{"clusterId":17,"requiredMemory":2048.5,"recordCount":1000.0}`))
		record, err := c.CreateCluster(ctx, clusterHost, &model.CreateClusterRequest{})
		require.NoError(t, err)
		assert.Equal(t, model.ClusterID("17"), record.ClusterID)
		assert.Equal(t, json.Number("2048.5"), record.RequiredMemory)
	})

	t.Run("missing id", func(t *testing.T) {
		mock.RegisterResponder(http.MethodPost, clusterHost+"/rda-cluster.cluster",
			httpmock.NewStringResponder(http.StatusCreated, `{"shards":[]}`))
		_, err := c.CreateCluster(ctx, clusterHost, &model.CreateClusterRequest{})
		require.Error(t, err)

		var malformed *MalformedResponseError
		require.True(t, errors.As(err, &malformed))
		assert.Equal(t, http.StatusCreated, StatusCode(err))
		assert.Empty(t, malformed.ClusterID)
	})

	t.Run("undecodable body", func(t *testing.T) {
		mock.RegisterResponder(http.MethodPost, clusterHost+"/rda-cluster.cluster",
			httpmock.NewStringResponder(http.StatusCreated, `{"clusterId":17,"shards":"oops"}`))
		_, err := c.CreateCluster(ctx, clusterHost, &model.CreateClusterRequest{})
		require.Error(t, err)

		var malformed *MalformedResponseError
		require.True(t, errors.As(err, &malformed))
		assert.Equal(t, http.StatusCreated, malformed.StatusCode)
		assert.Equal(t, model.ClusterID("17"), malformed.ClusterID)
	})
}

func TestInitializeCluster(t *testing.T) {
	c, mock := newTestClient(t)
	ctx := context.Background()

	mock.RegisterResponder(http.MethodPatch, clusterHost+"/rda-cluster.cluster/42",
		httpmock.NewStringResponder(http.StatusOK, ``))
	mock.RegisterResponder(http.MethodPatch, clusterHost+"/rda-cluster.cluster/43",
		httpmock.NewStringResponder(http.StatusConflict, ``))

	require.NoError(t, c.InitializeCluster(ctx, clusterHost, "42"))
	assert.Equal(t, http.StatusConflict, StatusCode(c.InitializeCluster(ctx, clusterHost, "43")))
}

func TestDatasetInfo(t *testing.T) {
	c, mock := newTestClient(t)
	ctx := context.Background()

	mock.RegisterResponder(http.MethodGet, storageHost+"/ds1.dataset-info/set1",
		httpmock.NewStringResponder(http.StatusOK, `{"totalMemory":2048,"recordCount":1000}`))
	mock.RegisterResponder(http.MethodGet, storageHost+"/ds1.dataset-info/unknown",
		httpmock.NewStringResponder(http.StatusNotFound, ``))

	info, err := c.GetDatasetInfo(ctx, storageHost, "ds1", "set1")
	require.NoError(t, err)
	assert.Equal(t, json.Number("2048"), info.TotalMemory)
	assert.Equal(t, json.Number("1000"), info.RecordCount)

	_, err = c.GetDatasetInfo(ctx, storageHost, "ds1", "unknown")
	assert.Equal(t, http.StatusNotFound, StatusCode(err))
}

func TestCreateShards(t *testing.T) {
	c, mock := newTestClient(t)
	ctx := context.Background()

	var sent map[string]json.RawMessage
	mock.RegisterResponder(http.MethodPost, storageHost+"/ds1.shard",
		func(req *http.Request) (*http.Response, error) {
			require.NoError(t, json.NewDecoder(req.Body).Decode(&sent))
			return httpmock.NewStringResponse(http.StatusCreated, ``), nil
		})

	err := c.CreateShards(ctx, storageHost, "ds1", &model.CreateShardsRequest{
		Shards:  []json.RawMessage{json.RawMessage(`{"id":"a","host":"h1"}`)},
		DataSet: "set1",
	})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"a","host":"h1"}]`, string(sent["shards"]))
	assert.JSONEq(t, `"set1"`, string(sent["dataSet"]))

	mock.RegisterResponder(http.MethodPost, storageHost+"/ds1.shard",
		httpmock.NewStringResponder(http.StatusOK, ``))
	err = c.CreateShards(ctx, storageHost, "ds1", &model.CreateShardsRequest{})
	assert.Equal(t, http.StatusOK, StatusCode(err))
}

func TestTransportError(t *testing.T) {
	c, mock := newTestClient(t)
	mock.RegisterResponder(http.MethodGet, clusterHost+"/rda-cluster.cluster/1",
		httpmock.NewErrorResponder(errors.New("connection refused")))

	_, err := c.GetCluster(context.Background(), clusterHost, "1")
	require.Error(t, err)
	assert.Equal(t, 0, StatusCode(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestRateLimitTransport(t *testing.T) {
	mock := httpmock.NewMockTransport()
	mock.RegisterResponder(http.MethodGet, clusterHost+"/rda-cluster.cluster/1",
		httpmock.NewStringResponder(http.StatusOK, `{"clusterId":1,"status":"active"}`))

	c := New(Options{Transport: mock, RateLimit: 1, Burst: 1})
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := c.GetCluster(ctx, clusterHost, "1")
	require.NoError(t, err)

	// The single token is spent, the next request cannot get one in time.
	_, err = c.GetCluster(ctx, clusterHost, "1")
	require.Error(t, err)
	assert.Equal(t, 1, mock.GetTotalCallCount())
}

func TestEscapePath(t *testing.T) {
	assert.Equal(t, "ds1/set%201", escapePath("ds1/set 1"))
	assert.Equal(t, "a/b/c", escapePath("a/b/c"))
}
