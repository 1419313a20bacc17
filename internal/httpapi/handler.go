// Package httpapi exposes the share operations as JSON resolver endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/tuannvm/jira-issue-share/internal/agents"
	"github.com/tuannvm/jira-issue-share/internal/common"
	log "github.com/tuannvm/jira-issue-share/internal/logging"
	"github.com/tuannvm/jira-issue-share/internal/models"
	"trpc.group/trpc-go/trpc-a2a-go/auth"
)

const (
	requestIDHeader = "X-Request-ID"
	maxBodyBytes    = 10 << 20
)

// Handler serves the resolver endpoints.
type Handler struct {
	ops agents.Operations
}

// NewHandler creates a Handler over ops
func NewHandler(ops agents.Operations) *Handler {
	return &Handler{ops: ops}
}

// SetupEndpoints registers the routes. Operation routes require authProvider
// when it is non-nil; /health never does.
func (h *Handler) SetupEndpoints(router *mux.Router, authProvider auth.Provider) {
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		common.ReturnJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	if authProvider != nil {
		api.Use(func(next http.Handler) http.Handler {
			return common.AuthMiddleware(authProvider, next)
		})
	}
	api.HandleFunc("/ask", h.handleAsk).Methods(http.MethodPost)
	api.HandleFunc("/send", h.handleSend).Methods(http.MethodPost)
	api.HandleFunc("/whoami", h.handleWhoAmI).Methods(http.MethodGet)
}

// NewRouter builds the full HTTP handler with request ids and CORS.
func NewRouter(ops agents.Operations, authProvider auth.Provider, allowedOrigins []string) http.Handler {
	router := mux.NewRouter()
	router.Use(requestIDMiddleware)
	NewHandler(ops).SetupEndpoints(router, authProvider)

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", common.APIKeyHeader, requestIDHeader},
	})
	return c.Handler(router)
}

func (h *Handler) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req models.PromptRequest
	if !decodeBody(w, r, &req) {
		return
	}
	common.ReturnJSON(w, http.StatusOK, h.ops.Ask(r.Context(), req))
}

func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	var req models.SendRequest
	if !decodeBody(w, r, &req) {
		return
	}
	common.ReturnJSON(w, http.StatusOK, h.ops.Send(r.Context(), req))
}

func (h *Handler) handleWhoAmI(w http.ResponseWriter, r *http.Request) {
	common.ReturnJSON(w, http.StatusOK, h.ops.WhoAmI(r.Context()))
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		log.Warnf("request %s: invalid body: %v", RequestID(r.Context()), err)
		common.ReturnJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

type requestIDKey struct{}

// RequestID returns the id assigned to the request carried by ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		start := time.Now()
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
		log.Infof("http %s %s request_id=%s duration=%s", r.Method, r.URL.Path, id, time.Since(start))
	})
}
