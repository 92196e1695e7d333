// Copyright (c) 2017-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"
)

type operationKey struct{}

// ContextWithOperation labels every request made with ctx by the
// Transport under the given operation name.
func ContextWithOperation(ctx context.Context, operation string) context.Context {
	return context.WithValue(ctx, operationKey{}, operation)
}

// OperationFromContext returns the operation stored in ctx, or "unknown".
func OperationFromContext(ctx context.Context) string {
	if op, ok := ctx.Value(operationKey{}).(string); ok && op != "" {
		return op
	}
	return "unknown"
}

type Transport struct {
	Base    http.RoundTripper
	metrics Provider
}

func NewTransport(base http.RoundTripper, metrics Provider) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{base, metrics}
}

func (t *Transport) RoundTrip(req *http.Request) (resp *http.Response, err error) {
	operation := OperationFromContext(req.Context())

	start := time.Now()
	resp, err = t.Base.RoundTrip(req)
	elapsed := float64(time.Since(start)) / float64(time.Second)
	if resp == nil && err != nil {
		t.metrics.IncreaseUpstreamRequestErrors(operation, req.Method)
		return resp, err
	}
	t.metrics.ObserveUpstreamRequestDuration(operation, req.Method, strconv.Itoa(resp.StatusCode), elapsed)

	return resp, err
}

// Client returns an http.Client sending through t.
func (t *Transport) Client() *http.Client {
	return &http.Client{Transport: t}
}
