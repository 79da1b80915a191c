package onboarding

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rockethooks/rockethooks-app-sub001/pkg/draft"
	"github.com/rockethooks/rockethooks-app-sub001/pkg/logger"
	ob "github.com/rockethooks/rockethooks-app-sub001/pkg/onboarding"
	"github.com/rockethooks/rockethooks-app-sub001/pkg/requestid"
	"github.com/rockethooks/rockethooks-app-sub001/pkg/statemachine"
	"github.com/rockethooks/rockethooks-app-sub001/pkg/validator"
)

const maxBodyBytes = 1 << 20

// Handler exposes the flows of a Registry over HTTP:
//
//	GET    /                 flow view
//	POST   /events/{event}   send an event, the body is its payload
//	GET    /drafts/{step}    stored draft
//	PUT    /drafts/{step}    debounced draft update, ?force=true saves now
//	DELETE /drafts/{step}    remove the draft
type Handler struct {
	registry *Registry
	resolver UserResolver
	logger   *slog.Logger
}

func NewHandler(registry *Registry, resolver UserResolver, log *slog.Logger) *Handler {
	if resolver == nil {
		resolver = NewHeaderResolver("")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Handler{registry: registry, resolver: resolver, logger: log.With(logger.Component("onboarding_http"))}
}

// Routes returns a router meant to be mounted under /onboarding.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestid.Middleware, h.requireUser)
	r.Get("/", h.getFlow)
	r.Post("/events/{event}", h.postEvent)
	r.Route("/drafts/{step}", func(r chi.Router) {
		r.Get("/", h.getDraft)
		r.Put("/", h.putDraft)
		r.Delete("/", h.deleteDraft)
	})
	return r
}

func (h *Handler) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := h.resolver(r)
		if err != nil {
			h.writeError(w, r, http.StatusBadRequest, err)
			return
		}
		if id == "" {
			h.writeError(w, r, http.StatusUnauthorized, ErrMissingUserID)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), id)))
	})
}

func (h *Handler) flow(w http.ResponseWriter, r *http.Request) (*Flow, bool) {
	id, _ := UserIDFromContext(r.Context())
	f, err := h.registry.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, http.StatusInternalServerError, err)
		return nil, false
	}
	return f, true
}

func (h *Handler) getFlow(w http.ResponseWriter, r *http.Request) {
	f, ok := h.flow(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, r, http.StatusOK, f.View(r.Context()))
}

type eventResponse struct {
	Accepted bool `json:"accepted"`
	Flow     View `json:"flow"`
}

func (h *Handler) postEvent(w http.ResponseWriter, r *http.Request) {
	event, known := ob.ParseEvent(chi.URLParam(r, "event"))
	if !known {
		h.writeError(w, r, http.StatusNotFound, ErrUnknownEvent)
		return
	}
	payload, err := readPayload(r)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	f, ok := h.flow(w, r)
	if !ok {
		return
	}

	accepted, err := f.Dispatch(r.Context(), event, payload)
	switch {
	case errors.Is(err, ErrNoActiveStep):
		h.writeError(w, r, http.StatusConflict, err)
		return
	case errors.Is(err, statemachine.ErrActionFailed):
		h.writeError(w, r, http.StatusUnprocessableEntity, err)
		return
	case err != nil:
		h.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, eventResponse{Accepted: accepted, Flow: f.View(r.Context())})
}

type draftResponse struct {
	Step    string          `json:"step"`
	Data    json.RawMessage `json:"data"`
	SavedAt *time.Time      `json:"savedAt,omitempty"`
}

func (h *Handler) getDraft(w http.ResponseWriter, r *http.Request) {
	step := chi.URLParam(r, "step")
	f, ok := h.flow(w, r)
	if !ok {
		return
	}
	if _, known := ob.StateForStep(step); !known {
		h.writeError(w, r, http.StatusNotFound, ErrUnknownStep)
		return
	}
	data, found := f.DraftRaw(r.Context(), step)
	if !found {
		h.writeError(w, r, http.StatusNotFound, errors.New("no draft stored"))
		return
	}
	resp := draftResponse{Step: step, Data: data}
	if at, ok := f.DraftSavedAt(r.Context(), step); ok {
		resp.SavedAt = &at
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}

type autoSaveResponse struct {
	Step  string              `json:"step"`
	Saved bool                `json:"saved"`
	State draft.AutoSaveState `json:"state"`
}

func (h *Handler) putDraft(w http.ResponseWriter, r *http.Request) {
	step := chi.URLParam(r, "step")
	payload, err := readPayload(r)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if payload == nil {
		h.writeError(w, r, http.StatusBadRequest, draft.ErrNilData)
		return
	}
	f, ok := h.flow(w, r)
	if !ok {
		return
	}

	if err := f.CheckDraft(step, payload); err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, ErrUnknownStep) {
			status = http.StatusNotFound
		}
		h.writeError(w, r, status, err)
		return
	}

	saver, err := f.AutoSaver(step)
	if err != nil {
		h.writeError(w, r, http.StatusServiceUnavailable, err)
		return
	}
	saver.Update(payload)

	resp := autoSaveResponse{Step: step}
	status := http.StatusAccepted
	if r.URL.Query().Get("force") == "true" {
		resp.Saved = saver.ForceSave(r.Context())
		status = http.StatusOK
	}
	resp.State = saver.State()
	h.writeJSON(w, r, status, resp)
}

func (h *Handler) deleteDraft(w http.ResponseWriter, r *http.Request) {
	f, ok := h.flow(w, r)
	if !ok {
		return
	}
	err := f.ClearDraft(r.Context(), chi.URLParam(r, "step"))
	switch {
	case errors.Is(err, ErrUnknownStep):
		h.writeError(w, r, http.StatusNotFound, err)
	case err != nil:
		h.writeError(w, r, http.StatusInternalServerError, err)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// readPayload returns nil for an empty body.
func readPayload(r *http.Request) (json.RawMessage, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxBodyBytes {
		return nil, errors.New("request body too large")
	}
	if len(body) == 0 {
		return nil, nil
	}
	if !json.Valid(body) {
		return nil, errors.New("request body is not valid JSON")
	}
	return json.RawMessage(body), nil
}

type errorResponse struct {
	Error     string              `json:"error"`
	Fields    map[string][]string `json:"fields,omitempty"`
	RequestID string              `json:"requestId,omitempty"`
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	resp := errorResponse{Error: err.Error(), RequestID: requestid.FromContext(r.Context())}
	if verrs := validator.ExtractValidationErrors(err); verrs != nil {
		resp.Fields = make(map[string][]string)
		for _, field := range verrs.Fields() {
			resp.Fields[field] = verrs.Get(field)
		}
	}
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "onboarding request failed", logger.Error(err))
	}
	h.writeJSON(w, r, status, resp)
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.WarnContext(r.Context(), "failed to write response", logger.Error(err))
	}
}
