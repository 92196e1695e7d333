// Copyright (c) 2017-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

// Package gateway talks to the cluster-management service and the data
// source services on behalf of the coordinator.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mattermost/mattermost-server/v6/shared/mlog"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/mattermost/rda-coordinator/metrics"
	"github.com/mattermost/rda-coordinator/model"
)

// ClusterServiceName is the registry name of the cluster-management service.
const ClusterServiceName = "rda-cluster"

const (
	defaultRequestTimeout = 30 * time.Second
	maxErrorBodyBytes     = 512
)

// Operation names used to label upstream requests in metrics and errors.
const (
	OpClusterExists     = "cluster-exists"
	OpGetCluster        = "get-cluster"
	OpAllocateCluster   = "allocate-cluster"
	OpInitializeCluster = "initialize-cluster"
	OpDatasetInfo       = "dataset-info"
	OpCreateShards      = "create-shards"
)

// ErrNotFound is returned when the remote service answered 404 where that
// is a meaningful answer.
var ErrNotFound = errors.New("not found")

// StatusError reports an upstream response with an unexpected status code.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s returned status %d", e.Method, e.URL, e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// MalformedResponseError reports a successful response whose body could not
// be used. The remote side effect did happen.
type MalformedResponseError struct {
	Method     string
	URL        string
	StatusCode int
	// ClusterID is set when the id could be read despite the error.
	ClusterID model.ClusterID
	Err       error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s %s returned status %d with an unusable body: %s", e.Method, e.URL, e.StatusCode, e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// Options configure a Client.
type Options struct {
	// Timeout bounds every single request.
	Timeout time.Duration
	// RateLimit caps the number of outgoing requests per second. Zero disables it.
	RateLimit rate.Limit
	Burst     int
	// Transport is the base round tripper, http.DefaultTransport when nil.
	Transport http.RoundTripper
	Metrics   metrics.Provider
}

// Client is the HTTP gateway to the remote services. Base URLs are passed
// on every call since they are resolved through the registry.
type Client struct {
	httpClient *http.Client
}

// New builds a gateway client. Requests go through the metrics transport
// and, when configured, a rate limiter.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultRequestTimeout
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNopProvider()
	}

	var transport http.RoundTripper = metrics.NewTransport(opts.Transport, opts.Metrics)
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		transport = NewRateLimitTransport(opts.RateLimit, burst, transport)
	}

	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
	}
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// ClusterExists reports whether the cluster service knows the cluster with
// the given id or identifier. Only 200 and 404 are accepted.
func (c *Client) ClusterExists(ctx context.Context, clusterURL, clusterID string) (bool, error) {
	u := clusterResourceURL(clusterURL, clusterID)
	resp, err := c.do(ctx, OpClusterExists, http.MethodGet, u, nil)
	if err != nil {
		return false, err
	}
	defer drain(resp)

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, statusError(http.MethodGet, u, resp)
	}
}

// GetCluster fetches a cluster record. A 404 yields ErrNotFound.
func (c *Client) GetCluster(ctx context.Context, clusterURL, clusterID string) (*model.ClusterRecord, error) {
	u := clusterResourceURL(clusterURL, clusterID)
	resp, err := c.do(ctx, OpGetCluster, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	if resp.StatusCode == http.StatusNotFound {
		return nil, errors.Wrapf(ErrNotFound, "cluster %s", clusterID)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(http.MethodGet, u, resp)
	}

	var record model.ClusterRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, errors.Wrap(err, "error decoding cluster record")
	}
	return &record, nil
}

// CreateCluster allocates a cluster sized for the data set.
func (c *Client) CreateCluster(ctx context.Context, clusterURL string, req *model.CreateClusterRequest) (*model.ClusterRecord, error) {
	u := joinURL(clusterURL, "rda-cluster.cluster")
	resp, err := c.do(ctx, OpAllocateCluster, http.MethodPost, u, req)
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusCreated {
		return nil, statusError(http.MethodPost, u, resp)
	}

	var record model.ClusterRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, &MalformedResponseError{
			Method:     http.MethodPost,
			URL:        u,
			StatusCode: resp.StatusCode,
			ClusterID:  record.ClusterID,
			Err:        errors.Wrap(err, "error decoding created cluster"),
		}
	}
	if record.ClusterID == "" {
		return nil, &MalformedResponseError{
			Method:     http.MethodPost,
			URL:        u,
			StatusCode: resp.StatusCode,
			Err:        errors.New("cluster service returned a cluster without id"),
		}
	}
	return &record, nil
}

// InitializeCluster tells the cluster service to start the cluster.
func (c *Client) InitializeCluster(ctx context.Context, clusterURL string, clusterID model.ClusterID) error {
	u := clusterResourceURL(clusterURL, clusterID.String())
	resp, err := c.do(ctx, OpInitializeCluster, http.MethodPatch, u, nil)
	if err != nil {
		return err
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return statusError(http.MethodPatch, u, resp)
	}
	return nil
}

// GetDatasetInfo asks a data source how large a data set is.
func (c *Client) GetDatasetInfo(ctx context.Context, dataSourceURL, dataSource, dataSet string) (*model.DatasetInfo, error) {
	u := joinURL(dataSourceURL, dataSource+".dataset-info", escapePath(dataSet))
	resp, err := c.do(ctx, OpDatasetInfo, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(http.MethodGet, u, resp)
	}

	var info model.DatasetInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, errors.Wrap(err, "error decoding dataset info")
	}
	return &info, nil
}

// CreateShards hands the shard layout of a new cluster to the data source.
func (c *Client) CreateShards(ctx context.Context, dataSourceURL, dataSource string, req *model.CreateShardsRequest) error {
	u := joinURL(dataSourceURL, dataSource+".shard")
	resp, err := c.do(ctx, OpCreateShards, http.MethodPost, u, req)
	if err != nil {
		return err
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusCreated {
		return statusError(http.MethodPost, u, resp)
	}
	return nil
}

func (c *Client) do(ctx context.Context, operation, method, u string, payload interface{}) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.Wrap(err, "error encoding request body")
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(metrics.ContextWithOperation(ctx, operation), method, u, body)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to build %s request", operation)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	mlog.Debug("Sending upstream request", mlog.String("operation", operation), mlog.String("method", method), mlog.String("url", u))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s failed", method, u)
	}
	return resp, nil
}

func statusError(method, u string, resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	return &StatusError{
		Method:     method,
		URL:        u,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(b)),
	}
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

func clusterResourceURL(clusterURL, clusterID string) string {
	return joinURL(clusterURL, "rda-cluster.cluster", escapePath(clusterID))
}

func joinURL(base string, parts ...string) string {
	return strings.TrimRight(base, "/") + "/" + strings.Join(parts, "/")
}

// escapePath escapes every segment of p and keeps the slashes, cluster
// identifiers are "<dataSource>/<dataSet>".
func escapePath(p string) string {
	segments := strings.Split(p, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

// StatusCode extracts the upstream status code from err, 0 when there was no
// response.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	var me *MalformedResponseError
	if errors.As(err, &me) {
		return me.StatusCode
	}
	return 0
}
