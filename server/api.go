// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/mattermost/mattermost-server/v6/shared/mlog"
	"github.com/pkg/errors"

	"github.com/mattermost/rda-coordinator/coordinator"
	"github.com/mattermost/rda-coordinator/model"
	"github.com/mattermost/rda-coordinator/version"
)

const (
	maxRequestBodySize = 1 << 20
	maxPerPage         = 1000
)

func (s *Server) initializeRouter() {
	r := mux.NewRouter()
	r.Use(s.withMetrics)
	r.HandleFunc("/cluster", s.createCluster).Methods(http.MethodPost)
	r.HandleFunc("/cluster/{id:.+}", s.getCluster).Methods(http.MethodGet)
	r.HandleFunc("/provisionings", s.listProvisionings).Methods(http.MethodGet)
	r.HandleFunc("/ping", s.ping).Methods(http.MethodGet)
	s.Router = r
}

func (s *Server) createCluster(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodySize))
	if err != nil {
		s.writeError(w, r, "createCluster", errors.Wrap(model.ErrInvalidRequest, err.Error()))
		return
	}

	req, err := model.ClusterCreationRequestFromJSON(body)
	if err != nil {
		s.writeError(w, r, "createCluster", err)
		return
	}

	result, err := s.controller.Create(r.Context(), req)
	if err != nil {
		s.writeError(w, r, "createCluster", err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) getCluster(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	record, err := s.controller.ListOne(r.Context(), id)
	if err != nil {
		s.writeError(w, r, "getCluster", err)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

func (s *Server) listProvisionings(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		s.writeAppError(w, r, model.NewAppError("listProvisionings", "api.provisionings.store_disabled", "the provisioning store is not configured", http.StatusNotImplemented))
		return
	}

	req, appErr := parseProvisioningsRequest(r)
	if appErr != nil {
		s.writeAppError(w, r, appErr)
		return
	}

	provisionings, err := s.Store.Provisioning().List(req)
	if err != nil {
		s.writeAppError(w, r, model.NewAppError("listProvisionings", "api.provisionings.list", err.Error(), http.StatusInternalServerError))
		return
	}

	writeJSON(w, http.StatusOK, provisionings)
}

func parseProvisioningsRequest(r *http.Request) (*model.GetProvisioningsRequest, *model.AppError) {
	query := r.URL.Query()
	req := &model.GetProvisioningsRequest{State: query.Get("state")}

	if req.State != "" && !model.IsValidProvisioningState(req.State) {
		return nil, model.NewAppError("listProvisionings", "api.provisionings.invalid_state", "unknown state "+req.State, http.StatusBadRequest)
	}

	var err error
	if v := query.Get("page"); v != "" {
		if req.Page, err = strconv.Atoi(v); err != nil || req.Page < 0 {
			return nil, model.NewAppError("listProvisionings", "api.provisionings.invalid_page", "page must be a non-negative integer", http.StatusBadRequest)
		}
	}
	if v := query.Get("per_page"); v != "" {
		if req.PerPage, err = strconv.Atoi(v); err != nil || req.PerPage <= 0 || req.PerPage > maxPerPage {
			return nil, model.NewAppError("listProvisionings", "api.provisionings.invalid_per_page", "per_page must be between 1 and 1000", http.StatusBadRequest)
		}
	}

	return req, nil
}

func (s *Server) ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, &model.PingResponse{
		Version:        version.Full(),
		ActiveTrackers: s.controller.Tracker().Active(),
		Uptime:         time.Since(s.StartTime).Round(time.Second).String(),
	})
}

// appError maps controller errors to API errors.
func appError(where string, err error) *model.AppError {
	var status int
	var id string
	switch {
	case errors.Is(err, coordinator.ErrInvalidRequest):
		status, id = http.StatusBadRequest, "api.cluster.invalid_request"
	case errors.Is(err, coordinator.ErrUnknownDataSource):
		status, id = http.StatusNotFound, "api.cluster.unknown_data_source"
	case errors.Is(err, coordinator.ErrClusterNotFound):
		status, id = http.StatusNotFound, "api.cluster.not_found"
	case errors.Is(err, coordinator.ErrClusterExists):
		status, id = http.StatusConflict, "api.cluster.exists"
	case errors.Is(err, coordinator.ErrLockAcquisition):
		status, id = http.StatusConflict, "api.cluster.in_progress"
	case errors.Is(err, coordinator.ErrLockUnavailable):
		status, id = http.StatusInternalServerError, "api.cluster.lock_unavailable"
	case errors.Is(err, coordinator.ErrUpstream):
		status, id = http.StatusBadGateway, "api.cluster.upstream"
	default:
		status, id = http.StatusInternalServerError, "api.cluster.internal"
	}
	return model.NewAppError(where, id, err.Error(), status)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, where string, err error) {
	s.writeAppError(w, r, appError(where, err))
}

func (s *Server) writeAppError(w http.ResponseWriter, r *http.Request, appErr *model.AppError) {
	if appErr.StatusCode >= http.StatusInternalServerError {
		mlog.Error("Request failed", mlog.String("path", r.URL.Path), mlog.String("method", r.Method), mlog.Err(appErr))
	} else {
		mlog.Debug("Request rejected", mlog.String("path", r.URL.Path), mlog.String("method", r.Method), mlog.Err(appErr))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)
	if _, err := w.Write([]byte(appErr.ToJSON())); err != nil {
		mlog.Warn("Failed to write error response", mlog.Err(err))
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		mlog.Error("Failed to encode response", mlog.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err = w.Write(b); err != nil {
		mlog.Warn("Failed to write response", mlog.Err(err))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withMetrics records the duration of every request, labelled with the
// route template so cluster ids do not explode the label set.
func (s *Server) withMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		handler := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				handler = tpl
			}
		}
		elapsed := float64(time.Since(start)) / float64(time.Second)
		s.Metrics.ObserveHTTPRequestDuration(handler, r.Method, strconv.Itoa(rec.status), elapsed)
	})
}
