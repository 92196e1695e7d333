// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package model

import (
	"github.com/mattermost/rda-coordinator/version"
)

// PingResponse is the body of the ping endpoint.
type PingResponse struct {
	Version        *version.Info `json:"version"`
	ActiveTrackers int           `json:"activeTrackers"`
	Uptime         string        `json:"uptime"`
}
