// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package gateway

import (
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimitTransport is an http.RoundTripper that waits for the limiter
// before every request it forwards to base.
type RateLimitTransport struct {
	limiter *rate.Limiter
	base    http.RoundTripper
}

func (t *RateLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.base.RoundTrip(req)
}

// NewRateLimitTransport returns a transport allowing limit requests per
// second with the given burst.
func NewRateLimitTransport(limit rate.Limit, burst int, base http.RoundTripper) *RateLimitTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &RateLimitTransport{rate.NewLimiter(limit, burst), base}
}
