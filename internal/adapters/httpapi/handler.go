package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/atvirokodosprendimai/saveclarify/internal/core/domain"
	"github.com/atvirokodosprendimai/saveclarify/internal/core/usecase"
)

type ctxKey string

const (
	timeFormat             = "2006-01-02T15:04:05.999999999Z07:00"
	apiActorCtxKey  ctxKey = "api_actor"
	maxJSONBodySize        = 1 << 20
)

type Handler struct {
	shipments *usecase.ShipmentService
	payloads  *usecase.PayloadValidator
	auth      *usecase.AuthService
	logger    *zap.Logger
}

func NewHandler(shipments *usecase.ShipmentService, payloads *usecase.PayloadValidator, auth *usecase.AuthService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{shipments: shipments, payloads: payloads, auth: auth, logger: logger.With(zap.String("component", "httpapi"))}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", h.healthz)
	r.Get("/openapi.json", h.openapi)

	r.Group(func(pr chi.Router) {
		pr.Use(h.requireAPIKey)
		pr.Get("/v1/shipments", h.listShipments)
		pr.Post("/v1/shipments:batch", h.batchUpsertShipments)
		pr.Put("/v1/shipments/{id}", h.upsertShipment)
		pr.Get("/v1/shipments/{id}", h.getShipment)
		pr.Delete("/v1/shipments/{id}", h.deleteShipment)
	})

	return r
}

type shipmentResponse struct {
	ID                string   `json:"id"`
	ShippedReference  string   `json:"shipped_reference"`
	ExpectedReference string   `json:"expected_reference"`
	CubicMeasurement  *float64 `json:"cubic_measurement"`
	CartonCount       *int     `json:"carton_count"`
	UpdatedBy         string   `json:"updated_by"`
	CreatedAt         string   `json:"created_at"`
	UpdatedAt         string   `json:"updated_at"`
}

type batchRequest struct {
	Items []json.RawMessage `json:"items"`
}

func (h *Handler) upsertShipment(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}
	in, ok := h.decodeShipment(w, body)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if in.ID != "" && in.ID != id {
		h.writeError(w, http.StatusBadRequest, "id in body does not match path")
		return
	}
	in.ID = id

	shipment, err := h.shipments.Upsert(r.Context(), in, actorFromContext(r.Context()))
	if err != nil {
		h.handleDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toShipmentResponse(shipment))
}

func (h *Handler) batchUpsertShipments(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}

	var req batchRequest
	decoder := json.NewDecoder(strings.NewReader(string(body)))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if len(req.Items) == 0 {
		h.writeError(w, http.StatusBadRequest, "items must not be empty")
		return
	}

	inputs := make([]usecase.ShipmentInput, 0, len(req.Items))
	for _, raw := range req.Items {
		in, ok := h.decodeShipment(w, raw)
		if !ok {
			return
		}
		inputs = append(inputs, in)
	}

	shipments, err := h.shipments.UpsertBatch(r.Context(), inputs, actorFromContext(r.Context()))
	if err != nil {
		h.handleDomainError(w, err)
		return
	}
	out := make([]shipmentResponse, 0, len(shipments))
	for _, s := range shipments {
		out = append(out, toShipmentResponse(s))
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

func (h *Handler) getShipment(w http.ResponseWriter, r *http.Request) {
	shipment, err := h.shipments.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toShipmentResponse(shipment))
}

func (h *Handler) deleteShipment(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.shipments.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

func (h *Handler) listShipments(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.parseLimit(w, r)
	if !ok {
		return
	}

	shipments, err := h.shipments.List(r.Context(), domain.ShipmentFilter{
		AfterID: r.URL.Query().Get("after"),
		Limit:   limit,
	})
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	out := make([]shipmentResponse, 0, len(shipments))
	for _, s := range shipments {
		out = append(out, toShipmentResponse(s))
	}
	resp := map[string]any{"items": out}
	if len(shipments) > 0 && len(shipments) == limit {
		resp["next_after"] = shipments[len(shipments)-1].ID
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) openapi(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, openapiSpec())
}

func (h *Handler) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(r.Header.Get("X-API-Key"))
		if token == "" {
			auth := strings.TrimSpace(r.Header.Get("Authorization"))
			if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
				token = strings.TrimSpace(auth[7:])
			}
		}

		apiKey, err := h.auth.Authenticate(r.Context(), token)
		if err != nil {
			if errors.Is(err, usecase.ErrUnauthorized) {
				h.writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			h.logger.Error("authenticate", zap.Error(err))
			h.writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		ctx := context.WithValue(r.Context(), apiActorCtxKey, apiKey.Actor())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// readBody reads a bounded request body.
func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBodySize))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid json body")
		return nil, false
	}
	return body, true
}

// decodeShipment checks a shipment document against the payload schema and
// decodes it.
func (h *Handler) decodeShipment(w http.ResponseWriter, raw []byte) (usecase.ShipmentInput, bool) {
	if err := h.payloads.Validate(raw); err != nil {
		h.handleDomainError(w, err)
		return usecase.ShipmentInput{}, false
	}

	var in usecase.ShipmentInput
	decoder := json.NewDecoder(strings.NewReader(string(raw)))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&in); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid json body")
		return usecase.ShipmentInput{}, false
	}
	if err := ensureEOF(decoder); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid json body")
		return usecase.ShipmentInput{}, false
	}
	return in, true
}

func toShipmentResponse(s domain.Shipment) shipmentResponse {
	return shipmentResponse{
		ID:                s.ID,
		ShippedReference:  s.ShippedReference,
		ExpectedReference: s.ExpectedReference,
		CubicMeasurement:  s.CubicMeasurement,
		CartonCount:       s.CartonCount,
		UpdatedBy:         s.UpdatedBy,
		CreatedAt:         s.CreatedAt.UTC().Format(timeFormat),
		UpdatedAt:         s.UpdatedAt.UTC().Format(timeFormat),
	}
}

func (h *Handler) parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "limit must be integer")
			return 0, false
		}
		limit = parsed
	}
	return limit, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		h.logger.Error("encode json response", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(data, '\n')); err != nil {
		h.logger.Warn("write response", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]any{"error": message})
}

func (h *Handler) handleDomainError(w http.ResponseWriter, err error) {
	var saveErr *domain.SaveError
	var schemaErr *domain.ErrSchemaViolation
	switch {
	case errors.As(err, &saveErr):
		h.writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":      saveErr.Message,
			"error_code": saveErr.ErrorCode,
			"failure":    saveErr.Kind.String(),
		})
	case errors.As(err, &schemaErr):
		h.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid shipment document", "details": schemaErr.Errors})
	case errors.Is(err, domain.ErrInvalidID), errors.Is(err, domain.ErrDuplicateID):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error("request failed", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func ensureEOF(decoder *json.Decoder) error {
	var extra json.RawMessage
	if err := decoder.Decode(&extra); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}
	return errors.New("extra json tokens")
}

func actorFromContext(ctx context.Context) string {
	actor, _ := ctx.Value(apiActorCtxKey).(string)
	if actor == "" {
		return "api"
	}
	return actor
}

func openapiSpec() map[string]any {
	return map[string]any{
		"openapi": "3.0.3",
		"info": map[string]any{
			"title":   "saveclarify",
			"version": "1.0.0",
		},
		"paths": map[string]any{
			"/v1/shipments": map[string]any{
				"get": map[string]any{"summary": "List shipments"},
			},
			"/v1/shipments/{id}": map[string]any{
				"put":    map[string]any{"summary": "Upsert shipment"},
				"get":    map[string]any{"summary": "Get shipment"},
				"delete": map[string]any{"summary": "Delete shipment"},
			},
			"/v1/shipments:batch": map[string]any{
				"post": map[string]any{"summary": "Upsert shipments in one commit"},
			},
		},
	}
}
