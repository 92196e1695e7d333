// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

// Package client is a Go client for the coordinator HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/mattermost/rda-coordinator/model"
)

// Client talks to one coordinator. Failed calls return a *model.AppError
// whenever the coordinator answered.
type Client struct {
	URL        string
	HTTPClient *http.Client
}

func NewClient(serverURL string) *Client {
	return &Client{
		URL:        strings.TrimRight(serverURL, "/"),
		HTTPClient: &http.Client{},
	}
}

// CreateCluster asks the coordinator to provision the cluster of a data set.
func (c *Client) CreateCluster(ctx context.Context, req *model.ClusterCreationRequest) (*model.ClusterProvisioningResult, error) {
	b, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "unable to encode request")
	}

	var result model.ClusterProvisioningResult
	if err = c.do(ctx, http.MethodPost, "/cluster", b, http.StatusCreated, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetCluster returns the cluster with the given id or identifier.
func (c *Client) GetCluster(ctx context.Context, clusterID string) (*model.ClusterRecord, error) {
	var record model.ClusterRecord
	if err := c.do(ctx, http.MethodGet, "/cluster/"+clusterID, nil, http.StatusOK, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (c *Client) ListProvisionings(ctx context.Context, req *model.GetProvisioningsRequest) ([]*model.Provisioning, error) {
	query := url.Values{}
	if req != nil {
		if req.State != "" {
			query.Set("state", req.State)
		}
		if req.Page > 0 {
			query.Set("page", strconv.Itoa(req.Page))
		}
		if req.PerPage > 0 {
			query.Set("per_page", strconv.Itoa(req.PerPage))
		}
	}

	path := "/provisionings"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var provisionings []*model.Provisioning
	if err := c.do(ctx, http.MethodGet, path, nil, http.StatusOK, &provisionings); err != nil {
		return nil, err
	}
	return provisionings, nil
}

func (c *Client) Ping(ctx context.Context) (*model.PingResponse, error) {
	var ping model.PingResponse
	if err := c.do(ctx, http.MethodGet, "/ping", nil, http.StatusOK, &ping); err != nil {
		return nil, err
	}
	return &ping, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, expected int, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL+path, reader)
	if err != nil {
		return errors.Wrap(err, "unable to build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s failed", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode != expected {
		appErr := model.AppErrorFromJSON(resp.Body)
		appErr.StatusCode = resp.StatusCode
		return appErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "unable to decode response")
	}
	return nil
}
