package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"mercator-hq/banker/pkg/banker"
	"mercator-hq/banker/pkg/banker/evaluate"
	"mercator-hq/banker/pkg/banker/safety"
	"mercator-hq/banker/pkg/banker/state"
	"mercator-hq/banker/pkg/telemetry/logging"
)

type handlers struct {
	bank    *banker.Bank
	logger  *logging.Logger
	maxBody int64
}

// ReleaseRequest is the body of POST /v1/releases.
type ReleaseRequest struct {
	Process int          `json:"process"`
	Units   state.Vector `json:"release"`
}

// ReleaseResponse is the answer to a release.
type ReleaseResponse struct {
	Process   int          `json:"process"`
	Released  state.Vector `json:"released"`
	Available state.Vector `json:"available"`
}

// StateResponse is the answer to GET /v1/state.
type StateResponse struct {
	Policy    evaluate.Policy `json:"policy"`
	Resources []string        `json:"resource_labels"`
	State     state.Snapshot  `json:"state"`
}

func (h *handlers) evaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluate.Request
	if err := h.decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Vector == nil {
		writeError(w, errBadRequest("request vector is required"))
		return
	}

	d, err := h.bank.Evaluate(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *handlers) release(w http.ResponseWriter, r *http.Request) {
	var req ReleaseRequest
	if err := h.decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Units == nil {
		writeError(w, errBadRequest("release vector is required"))
		return
	}

	available, err := h.bank.Release(r.Context(), req.Process, req.Units)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ReleaseResponse{Process: req.Process, Released: req.Units, Available: available})
}

func (h *handlers) state(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StateResponse{
		Policy:    h.bank.Policy(),
		Resources: h.bank.Labels(),
		State:     h.bank.Snapshot(),
	})
}

func (h *handlers) safety(w http.ResponseWriter, r *http.Request) {
	var opts []safety.Option
	if raw := r.URL.Query().Get("order"); raw != "" {
		order, err := parseOrder(raw)
		if err != nil {
			writeError(w, err)
			return
		}
		opts = append(opts, safety.WithScanOrder(order))
	}

	res, err := h.bank.CheckSafety(r.Context(), opts...)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	body := io.Reader(r.Body)
	if h.maxBody > 0 {
		body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return &apiError{status: http.StatusRequestEntityTooLarge, code: "body_too_large", message: err.Error()}
		}
		return errBadRequest(fmt.Sprintf("invalid JSON body: %v", err))
	}
	return nil
}

func parseOrder(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	order := make([]int, len(parts))
	for k, p := range parts {
		i, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, errBadRequest(fmt.Sprintf("invalid order entry %q", p))
		}
		order[k] = i
	}
	return order, nil
}
