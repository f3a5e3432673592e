// Package api exposes the thin HTTP surface: the SSE chat relay plus CRUD
// routes for conversations and widget interaction state.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ziyara-stream/internal/common/config"
	cmerrors "ziyara-stream/internal/common/errors"
	"ziyara-stream/internal/common/logger"
	"ziyara-stream/internal/common/metrics"
	"ziyara-stream/internal/common/observability"
	"ziyara-stream/internal/search"
	"ziyara-stream/internal/store"
	"ziyara-stream/internal/stream"
	"ziyara-stream/internal/widgets"
)

type Handlers struct {
	cfg           *config.Config
	logger        logger.Logger
	consumer      *stream.Consumer
	conversations *store.ConversationStore
	widgetState   *store.WidgetStateStore
	indexer       *search.Indexer // nil when search is disabled
	obs           *observability.Observability
	httpClient    *http.Client
}

func New(
	cfg *config.Config,
	log logger.Logger,
	consumer *stream.Consumer,
	conversations *store.ConversationStore,
	widgetState *store.WidgetStateStore,
	indexer *search.Indexer,
	obs *observability.Observability,
) *Handlers {
	return &Handlers{
		cfg:           cfg,
		logger:        log.WithFields(map[string]interface{}{"component": "api"}),
		consumer:      consumer,
		conversations: conversations,
		widgetState:   widgetState,
		indexer:       indexer,
		obs:           obs,
		httpClient:    &http.Client{}, // per-stream deadlines come from the upstream budget, not a client timeout
	}
}

// Register mounts every route on the mux.
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/chat/stream", h.handleChatStream)
	mux.HandleFunc("GET /api/conversations", h.handleListConversations)
	mux.HandleFunc("GET /api/conversations/{contextAction}", h.handleGetConversation)
	mux.HandleFunc("DELETE /api/conversations/{contextAction}", h.handleClearConversation)
	mux.HandleFunc("GET /api/widget-state", h.handleGetWidgetState)
	mux.HandleFunc("PUT /api/widget-state", h.handlePutWidgetState)
}

// ==========================
// Chat Streaming
// ==========================

// ChatRequest starts one assistant turn for a context key.
type ChatRequest struct {
	ContextAction string `json:"contextAction"`
	Message       string `json:"message"`
}

// SegmentView is a render-ready segment: prose passes through, widgets are
// normalized and validated so the client never has to touch raw payloads.
// WidgetID is derived server-side from the normalized title and is the id
// the widget-state routes expect back.
type SegmentView struct {
	Kind       widgets.SegmentKind    `json:"kind"`
	Content    string                 `json:"content,omitempty"`
	WidgetType widgets.WidgetType     `json:"widgetType,omitempty"`
	WidgetID   string                 `json:"widgetId,omitempty"`
	Valid      bool                   `json:"valid,omitempty"`
	Data       widgets.NormalizedData `json:"data,omitempty"`
}

// StreamEvent is one SSE payload. Pending names the widget type still in
// flight, used by the client to pick a contextual loading placeholder.
type StreamEvent struct {
	Segments   []SegmentView      `json:"segments"`
	Pending    widgets.WidgetType `json:"pending,omitempty"`
	IsComplete bool               `json:"isComplete"`
	Error      string             `json:"error,omitempty"`
}

func (h *Handlers) handleChatStream(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ContextAction == "" || req.Message == "" {
		http.Error(w, "contextAction and message are required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	log := h.logger.WithFields(map[string]interface{}{"contextAction": req.ContextAction})

	// Persistence is an enhancement: a failed history write must not block
	// the stream itself.
	if _, err := h.conversations.AddMessage(ctx, req.ContextAction, store.RoleUser, req.Message); err != nil {
		log.WithError(err).Warn("failed to persist user message", nil)
	}
	if _, err := h.conversations.AddMessage(ctx, req.ContextAction, store.RoleAssistant, ""); err != nil {
		log.WithError(err).Warn("failed to persist assistant placeholder", nil)
	}

	// The whole stream, dial included, runs under the configured upstream
	// budget; the request context still wins when the client disconnects.
	streamCtx := ctx
	if h.cfg.Upstream.Timeout > 0 {
		var cancel context.CancelFunc
		streamCtx, cancel = context.WithTimeout(ctx, time.Duration(h.cfg.Upstream.Timeout)*time.Millisecond)
		defer cancel()
	}

	source, err := stream.OpenHTTPSource(streamCtx, h.httpClient, h.cfg.Upstream.BaseURL, h.cfg.Upstream.APIKey, stream.CompletionRequest{
		ContextAction: req.ContextAction,
		Message:       req.Message,
	})
	if err != nil {
		log.WithError(err).Error("failed to open upstream stream", nil)
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
		return
	}
	defer source.Close()

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	started := time.Now()
	sink := stream.SinkFunc(func(buffer string, parsed widgets.StreamingParseResult) {
		if err := h.conversations.UpdateLastAssistantMessage(ctx, req.ContextAction, buffer); err != nil {
			log.WithError(err).Warn("failed to update streaming assistant message", nil)
		}
		h.writeEvent(w, flusher, h.buildEvent(parsed, false, ""))
	})

	result, runErr := h.consumer.Run(streamCtx, source, sink)

	outcome := "completed"
	if runErr != nil {
		outcome = "transport_error"
		if ctx.Err() != nil {
			outcome = "aborted"
		}
	}
	h.obs.RecordMessageStreamed(ctx, outcome)
	h.obs.RecordStreamDuration(ctx, time.Since(started), outcome)

	if runErr != nil {
		log.WithError(runErr).Warn("stream did not complete", nil)
		// Partial text stays persisted and visible; the final event marks
		// the failure explicitly so the client can distinguish it from a
		// normal end.
		if ctx.Err() == nil {
			h.writeEvent(w, flusher, h.buildEvent(result.Parsed, true, "stream interrupted"))
		}
		return
	}

	h.finalize(ctx, req.ContextAction, result)
	h.writeEvent(w, flusher, h.buildEvent(result.Parsed, true, ""))
}

// buildEvent projects a parse result into render-ready views. Validation
// failures are only counted on the final event so per-chunk reparses do not
// inflate the counters.
func (h *Handlers) buildEvent(parsed widgets.StreamingParseResult, final bool, errMsg string) StreamEvent {
	event := StreamEvent{
		Segments:   make([]SegmentView, 0, len(parsed.CompleteSegments)),
		IsComplete: final && errMsg == "",
		Error:      errMsg,
	}

	for _, seg := range parsed.CompleteSegments {
		if seg.Kind == widgets.SegmentText {
			event.Segments = append(event.Segments, SegmentView{
				Kind:    widgets.SegmentText,
				Content: seg.Content,
			})
			continue
		}

		data := widgets.Normalize(seg.WidgetType, seg.Data)
		valid := widgets.Validate(seg.WidgetType, data)
		if !valid && final {
			metrics.WidgetValidationFailures.WithLabelValues(string(seg.WidgetType)).Inc()
			if _, known := widgets.ParseWidgetType(string(seg.WidgetType)); !known {
				h.logger.WithError(cmerrors.NewWidgetTypeUnknownError(string(seg.WidgetType))).
					Warn("widget rejected", nil)
			} else {
				h.logger.WithError(cmerrors.NewWidgetInsufficientError(string(seg.WidgetType))).
					Warn("widget rejected", nil)
			}
		}

		view := SegmentView{
			Kind:       widgets.SegmentWidget,
			WidgetType: seg.WidgetType,
			Valid:      valid,
		}
		if valid {
			view.Data = data
			view.WidgetID = store.WidgetID(string(seg.WidgetType), data.WidgetTitle())
		} else {
			// Never render insufficient data; the client shows a generic
			// failed-to-load state for this type.
			view.Content = fmt.Sprintf("Failed to load %s widget", seg.WidgetType)
		}
		event.Segments = append(event.Segments, view)
	}

	if !parsed.IsComplete {
		if pending, ok := widgets.PendingWidgetType(parsed.IncompleteText); ok {
			event.Pending = pending
		}
	}
	return event
}

func (h *Handlers) writeEvent(w http.ResponseWriter, flusher http.Flusher, event StreamEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", payload)
	flusher.Flush()
}

// finalizeTimeout bounds the post-stream persist and index writes.
const finalizeTimeout = 10 * time.Second

// finalize persists the completed assistant message and feeds the search
// index. It detaches from request cancellation so a client disconnect right
// after the last chunk cannot truncate durable state.
func (h *Handlers) finalize(reqCtx context.Context, contextAction string, result *stream.Result) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(reqCtx), finalizeTimeout)
	defer cancel()

	log := h.logger.WithFields(map[string]interface{}{"contextAction": contextAction})

	if err := h.conversations.UpdateLastAssistantMessage(ctx, contextAction, result.Buffer); err != nil {
		log.WithError(err).Warn("failed to persist final assistant message", nil)
	}

	if h.indexer == nil {
		return
	}
	conv, err := h.conversations.Load(ctx, contextAction)
	if err != nil || conv == nil {
		return
	}
	full := widgets.Parse(result.Buffer)
	if err := h.indexer.Index(ctx, search.Document{
		ContextAction: contextAction,
		TextOnly:      full.TextOnly,
		MessageCount:  len(conv.Messages),
		UpdatedAt:     conv.UpdatedAt,
	}); err != nil {
		log.WithError(err).Warn("failed to index conversation", nil)
	}
}

// ==========================
// Conversation Routes
// ==========================

func (h *Handlers) handleListConversations(w http.ResponseWriter, r *http.Request) {
	conversations, err := h.conversations.ListAll(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("failed to list conversations", nil)
		http.Error(w, "failed to list conversations", http.StatusInternalServerError)
		return
	}
	writeJSON(w, conversations)
}

func (h *Handlers) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	contextAction := r.PathValue("contextAction")

	conv, err := h.conversations.Load(r.Context(), contextAction)
	if err != nil {
		h.logger.WithError(err).Error("failed to load conversation", nil)
		http.Error(w, "failed to load conversation", http.StatusInternalServerError)
		return
	}
	if conv == nil {
		http.Error(w, "conversation not found", http.StatusNotFound)
		return
	}
	writeJSON(w, conv)
}

func (h *Handlers) handleClearConversation(w http.ResponseWriter, r *http.Request) {
	contextAction := r.PathValue("contextAction")

	if err := h.conversations.Clear(r.Context(), contextAction); err != nil {
		h.logger.WithError(err).Error("failed to clear conversation", nil)
		http.Error(w, "failed to clear conversation", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ==========================
// Widget State Routes
// ==========================

// WidgetStateRequest carries one widget's full interaction state; saving is
// a whole-state replace (last write wins), not a merge.
type WidgetStateRequest struct {
	ContextAction string          `json:"contextAction"`
	WidgetID      string          `json:"widgetId"`
	State         map[string]bool `json:"state"`
}

func (h *Handlers) handleGetWidgetState(w http.ResponseWriter, r *http.Request) {
	contextAction := r.URL.Query().Get("contextAction")
	widgetID := r.URL.Query().Get("widgetId")
	if contextAction == "" || widgetID == "" {
		http.Error(w, "contextAction and widgetId are required", http.StatusBadRequest)
		return
	}

	writeJSON(w, h.widgetState.Load(r.Context(), contextAction, widgetID))
}

func (h *Handlers) handlePutWidgetState(w http.ResponseWriter, r *http.Request) {
	var req WidgetStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ContextAction == "" || req.WidgetID == "" {
		http.Error(w, "contextAction and widgetId are required", http.StatusBadRequest)
		return
	}
	if req.State == nil {
		req.State = map[string]bool{}
	}

	if err := h.widgetState.Save(r.Context(), req.ContextAction, req.WidgetID, req.State); err != nil {
		// State is an enhancement: report the failure but do not fail the
		// client hard enough to break the surrounding chat.
		http.Error(w, "state not persisted", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
