// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattermost/rda-coordinator/model"
)

const serverURL = "http://coordinator.test"

func newTestClient() (*Client, *httpmock.MockTransport) {
	mock := httpmock.NewMockTransport()
	c := NewClient(serverURL + "/")
	c.HTTPClient.Transport = mock
	return c, mock
}

func TestCreateCluster(t *testing.T) {
	c, mock := newTestClient()
	ctx := context.Background()

	mock.RegisterResponder(http.MethodPost, serverURL+"/cluster", func(req *http.Request) (*http.Response, error) {
		b, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"dataSource":"ds1","dataSet":"set1"}`, string(b))
		return httpmock.NewStringResponse(http.StatusCreated, `{"clusterId":17,"clusterIdentifier":"ds1/set1","recordCount":1000,"requiredMemory":2048,"shards":[1,2]}`), nil
	})

	result, err := c.CreateCluster(ctx, &model.ClusterCreationRequest{DataSource: "ds1", DataSet: "set1"})
	require.NoError(t, err)
	assert.Equal(t, model.ClusterID("17"), result.ClusterID)
	assert.Equal(t, json.Number("1000"), result.RecordCount)
	assert.Len(t, result.Shards, 2)
}

func TestCreateClusterConflict(t *testing.T) {
	c, mock := newTestClient()
	mock.RegisterResponder(http.MethodPost, serverURL+"/cluster",
		httpmock.NewStringResponder(http.StatusConflict, `{"id":"api.cluster.exists","message":"Conflict","detailed_error":"exists","status_code":409}`))

	_, err := c.CreateCluster(context.Background(), &model.ClusterCreationRequest{DataSource: "ds1", DataSet: "set1"})
	var appErr *model.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "api.cluster.exists", appErr.ID)
	assert.Equal(t, http.StatusConflict, appErr.StatusCode)
}

func TestErrorWithoutBody(t *testing.T) {
	c, mock := newTestClient()
	mock.RegisterResponder(http.MethodGet, serverURL+"/cluster/ds1/set1",
		httpmock.NewStringResponder(http.StatusBadGateway, `upstream down`))

	_, err := c.GetCluster(context.Background(), "ds1/set1")
	var appErr *model.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusBadGateway, appErr.StatusCode)
	assert.Contains(t, appErr.DetailedError, "upstream down")
}

func TestGetCluster(t *testing.T) {
	c, mock := newTestClient()
	mock.RegisterResponder(http.MethodGet, serverURL+"/cluster/ds1/set1",
		httpmock.NewStringResponder(http.StatusOK, `{"clusterId":"17","status":"active"}`))

	record, err := c.GetCluster(context.Background(), "ds1/set1")
	require.NoError(t, err)
	assert.Equal(t, model.ClusterStatusActive, record.Status)
}

func TestListProvisionings(t *testing.T) {
	c, mock := newTestClient()
	mock.RegisterResponder(http.MethodGet, serverURL+"/provisionings",
		httpmock.NewStringResponder(http.StatusOK, `[{"id":"p1"},{"id":"p2"}]`))
	mock.RegisterResponder(http.MethodGet, serverURL+"/provisionings?page=1&per_page=5&state=orphaned",
		httpmock.NewStringResponder(http.StatusOK, `[{"id":"p3","state":"orphaned"}]`))

	all, err := c.ListProvisionings(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	orphans, err := c.ListProvisionings(context.Background(), &model.GetProvisioningsRequest{State: "orphaned", Page: 1, PerPage: 5})
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Equal(t, "p3", orphans[0].ID)
}

func TestPing(t *testing.T) {
	c, mock := newTestClient()
	mock.RegisterResponder(http.MethodGet, serverURL+"/ping",
		httpmock.NewStringResponder(http.StatusOK, `{"version":{"version":"v1"},"activeTrackers":2}`))

	ping, err := c.Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v1", ping.Version.Version)
	assert.Equal(t, 2, ping.ActiveTrackers)
}
