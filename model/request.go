// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package model

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/pkg/errors"
)

// ErrInvalidRequest is returned for missing or malformed request bodies and
// fields.
var ErrInvalidRequest = errors.New("invalid request")

// Field limits, bounded by the provisioning columns and the lock key.
const (
	MaxDataSourceLength = 64
	MaxDataSetLength    = 128
)

// ClusterCreationRequest asks for a cluster over DataSet served by DataSource.
type ClusterCreationRequest struct {
	DataSource string `json:"dataSource"`
	DataSet    string `json:"dataSet"`
}

// ClusterIdentifier returns the identifier of the requested cluster.
func (r *ClusterCreationRequest) ClusterIdentifier() string {
	return ClusterIdentifier(r.DataSource, r.DataSet)
}

// Validate checks that both fields are set and fit their limits.
func (r *ClusterCreationRequest) Validate() error {
	if r == nil {
		return errors.Wrap(ErrInvalidRequest, "missing request body")
	}
	if r.DataSource == "" {
		return errors.Wrap(ErrInvalidRequest, "missing parameter 'dataSource' in request body")
	}
	if r.DataSet == "" {
		return errors.Wrap(ErrInvalidRequest, "missing parameter 'dataSet' in request body")
	}
	if len(r.DataSource) > MaxDataSourceLength {
		return errors.Wrapf(ErrInvalidRequest, "parameter 'dataSource' is longer than %d bytes", MaxDataSourceLength)
	}
	if len(r.DataSet) > MaxDataSetLength {
		return errors.Wrapf(ErrInvalidRequest, "parameter 'dataSet' is longer than %d bytes", MaxDataSetLength)
	}
	return nil
}

// ClusterCreationRequestFromJSON decodes a creation request. The checks run
// in order and the first failing one is reported: the body must be present,
// it must be a JSON object and both fields must be non-empty strings.
func ClusterCreationRequestFromJSON(data []byte) (*ClusterCreationRequest, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, errors.Wrap(ErrInvalidRequest, "missing request body")
	}

	var body map[string]interface{}
	if data[0] != '{' || json.Unmarshal(data, &body) != nil {
		return nil, errors.Wrap(ErrInvalidRequest, "request body must be a json object")
	}

	dataSource, ok := body["dataSource"].(string)
	if !ok || dataSource == "" {
		return nil, errors.Wrap(ErrInvalidRequest, "missing parameter 'dataSource' in request body")
	}
	dataSet, ok := body["dataSet"].(string)
	if !ok || dataSet == "" {
		return nil, errors.Wrap(ErrInvalidRequest, "missing parameter 'dataSet' in request body")
	}

	return &ClusterCreationRequest{
		DataSource: dataSource,
		DataSet:    dataSet,
	}, nil
}

// DataSources is the set of data sources clusters can be built from. It is
// loaded once at startup and never modified afterwards.
type DataSources struct {
	names map[string]struct{}
}

// NewDataSources builds the set, ignoring empty names.
func NewDataSources(names ...string) DataSources {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		if name != "" {
			set[name] = struct{}{}
		}
	}
	return DataSources{names: set}
}

// Has reports whether name is a known data source.
func (d DataSources) Has(name string) bool {
	_, ok := d.names[name]
	return ok
}

// Names returns the known data sources in lexical order.
func (d DataSources) Names() []string {
	names := make([]string, 0, len(d.names))
	for name := range d.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (d DataSources) Len() int {
	return len(d.names)
}
