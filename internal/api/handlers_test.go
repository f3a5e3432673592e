package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ziyara-stream/internal/common/config"
	"ziyara-stream/internal/common/database"
	"ziyara-stream/internal/common/logger"
	"ziyara-stream/internal/common/observability"
	"ziyara-stream/internal/store"
	"ziyara-stream/internal/stream"
	"ziyara-stream/internal/widgets"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

const assistantReply = "Here is your packing list.\n" +
	"<<<WIDGET:checklist>>>" +
	`{"title":"Ihram Essentials","items":[{"text":"Ihram garments"},{"text":"Unscented soap"}]}` +
	"<<<END_WIDGET>>>\n" +
	"Let me know if anything is missing."

type fixture struct {
	handlers *Handlers
	mux      *http.ServeMux
	store    *store.ConversationStore
}

// setupHandlers wires the full surface against miniredis and a scripted
// upstream that streams reply in small chunks.
func setupHandlers(t *testing.T, reply string) *fixture {
	return setupHandlersUpstream(t, chunkedReplyHandler(t, reply), 0)
}

func chunkedReplyHandler(t *testing.T, reply string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat/completions", r.URL.Path)
		flusher := w.(http.Flusher)
		for i := 0; i < len(reply); i += 16 {
			end := i + 16
			if end > len(reply) {
				end = len(reply)
			}
			_, _ = w.Write([]byte(reply[i:end]))
			flusher.Flush()
		}
	})
}

func setupHandlersUpstream(t *testing.T, upstreamHandler http.Handler, timeoutMs int) *fixture {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	redisClient := &database.RedisClient{Client: redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})}

	upstream := httptest.NewServer(upstreamHandler)
	t.Cleanup(upstream.Close)

	log := logger.NewTestLogger(t)
	cfg := &config.Config{}
	cfg.Upstream.BaseURL = upstream.URL
	cfg.Upstream.APIKey = "test-key"
	cfg.Upstream.Timeout = timeoutMs
	cfg.Stream.MaxBufferBytes = 1 << 16

	conversations := store.NewConversationStore(redisClient, log)
	h := New(
		cfg,
		log,
		stream.NewConsumer(cfg.Stream.MaxBufferBytes, log),
		conversations,
		store.NewWidgetStateStore(redisClient, log),
		nil,
		&observability.Observability{},
	)

	mux := http.NewServeMux()
	h.Register(mux)
	return &fixture{handlers: h, mux: mux, store: conversations}
}

// recvSegment and recvEvent mirror the wire shape of SegmentView and
// StreamEvent on the receiving side, where widget data is just JSON.
type recvSegment struct {
	Kind       widgets.SegmentKind `json:"kind"`
	Content    string              `json:"content"`
	WidgetType widgets.WidgetType  `json:"widgetType"`
	WidgetID   string              `json:"widgetId"`
	Valid      bool                `json:"valid"`
	Data       json.RawMessage     `json:"data"`
}

type recvEvent struct {
	Segments   []recvSegment      `json:"segments"`
	Pending    widgets.WidgetType `json:"pending"`
	IsComplete bool               `json:"isComplete"`
	Error      string             `json:"error"`
}

// sseEvents decodes every "data:" line from a recorded SSE body.
func sseEvents(t *testing.T, body string) []recvEvent {
	var events []recvEvent
	for _, line := range strings.Split(body, "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var event recvEvent
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event))
		events = append(events, event)
	}
	return events
}

func postJSON(t *testing.T, mux *http.ServeMux, path string, payload interface{}, method string) *httptest.ResponseRecorder {
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(method, path, strings.NewReader(string(body)))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

// ==========================
// Chat Stream Tests
// ==========================

func TestChatStreamCompletes(t *testing.T) {
	f := setupHandlers(t, assistantReply)

	rec := postJSON(t, f.mux, "/api/chat/stream", ChatRequest{
		ContextAction: "umrah-packing",
		Message:       "What should I pack?",
	}, http.MethodPost)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	events := sseEvents(t, rec.Body.String())
	require.NotEmpty(t, events)

	final := events[len(events)-1]
	assert.True(t, final.IsComplete)
	assert.Empty(t, final.Error)

	var widgetViews []recvSegment
	for _, seg := range final.Segments {
		if seg.Kind == widgets.SegmentWidget {
			widgetViews = append(widgetViews, seg)
		}
	}
	require.Len(t, widgetViews, 1)
	assert.Equal(t, widgets.TypeChecklist, widgetViews[0].WidgetType)
	assert.True(t, widgetViews[0].Valid)
	assert.Equal(t, "checklist-ihram-essentials", widgetViews[0].WidgetID)
	assert.NotEmpty(t, widgetViews[0].Data)

	// No intermediate event may leak a widget whose close marker had not
	// arrived yet.
	for _, event := range events[:len(events)-1] {
		assert.False(t, event.IsComplete)
		for _, seg := range event.Segments {
			if seg.Kind == widgets.SegmentWidget {
				assert.True(t, seg.Valid || seg.Content != "")
			}
		}
	}
}

func TestChatStreamPersistsConversation(t *testing.T) {
	f := setupHandlers(t, assistantReply)

	rec := postJSON(t, f.mux, "/api/chat/stream", ChatRequest{
		ContextAction: "umrah-packing",
		Message:       "What should I pack?",
	}, http.MethodPost)
	require.Equal(t, http.StatusOK, rec.Code)

	conv, err := f.store.Load(context.Background(), "umrah-packing")
	require.NoError(t, err)
	require.NotNil(t, conv)
	require.Len(t, conv.Messages, 2)

	assert.Equal(t, store.RoleUser, conv.Messages[0].Role)
	assert.Equal(t, "What should I pack?", conv.Messages[0].Content)

	assert.Equal(t, store.RoleAssistant, conv.Messages[1].Role)
	assert.Equal(t, assistantReply, conv.Messages[1].Content)
}

func TestChatStreamRejectsMissingFields(t *testing.T) {
	f := setupHandlers(t, assistantReply)

	rec := postJSON(t, f.mux, "/api/chat/stream", ChatRequest{Message: "hello"}, http.MethodPost)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, f.mux, "/api/chat/stream", ChatRequest{ContextAction: "umrah-packing"}, http.MethodPost)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatStreamMalformedWidgetFailsSoft(t *testing.T) {
	reply := "Before.\n<<<WIDGET:budget>>>{not json<<<END_WIDGET>>>\nAfter."
	f := setupHandlers(t, reply)

	rec := postJSON(t, f.mux, "/api/chat/stream", ChatRequest{
		ContextAction: "umrah-budget",
		Message:       "How much will it cost?",
	}, http.MethodPost)
	require.Equal(t, http.StatusOK, rec.Code)

	events := sseEvents(t, rec.Body.String())
	final := events[len(events)-1]
	assert.True(t, final.IsComplete)

	// The malformed block degrades to inline text; the prose around it
	// survives untouched.
	var joined []string
	for _, seg := range final.Segments {
		assert.Equal(t, widgets.SegmentText, seg.Kind)
		joined = append(joined, seg.Content)
	}
	text := strings.Join(joined, "\n")
	assert.Contains(t, text, "Before.")
	assert.Contains(t, text, "After.")
	assert.Contains(t, text, "Failed to load budget widget")
}

func TestChatStreamUpstreamStallTimesOut(t *testing.T) {
	stalled := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		_, _ = w.Write([]byte("Gathering guidance"))
		flusher.Flush()
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	})
	f := setupHandlersUpstream(t, stalled, 80)

	rec := postJSON(t, f.mux, "/api/chat/stream", ChatRequest{
		ContextAction: "umrah-packing",
		Message:       "What should I pack?",
	}, http.MethodPost)
	require.Equal(t, http.StatusOK, rec.Code)

	events := sseEvents(t, rec.Body.String())
	require.NotEmpty(t, events)

	final := events[len(events)-1]
	assert.False(t, final.IsComplete)
	assert.NotEmpty(t, final.Error)
}

func TestFinalizePersistsAfterClientDisconnect(t *testing.T) {
	f := setupHandlers(t, assistantReply)
	ctx := context.Background()

	_, err := f.store.AddMessage(ctx, "umrah-packing", store.RoleUser, "What should I pack?")
	require.NoError(t, err)
	_, err = f.store.AddMessage(ctx, "umrah-packing", store.RoleAssistant, "")
	require.NoError(t, err)

	// The client is gone by the time the last chunk lands; the final
	// persist must not be dropped with it.
	canceled, cancel := context.WithCancel(ctx)
	cancel()
	f.handlers.finalize(canceled, "umrah-packing", &stream.Result{
		Buffer:    assistantReply,
		Completed: true,
	})

	conv, err := f.store.Load(ctx, "umrah-packing")
	require.NoError(t, err)
	require.NotNil(t, conv)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, assistantReply, conv.Messages[1].Content)
}

// ==========================
// Widget State Route Tests
// ==========================

func TestWidgetStateRoundTrip(t *testing.T) {
	f := setupHandlers(t, assistantReply)

	rec := postJSON(t, f.mux, "/api/widget-state", WidgetStateRequest{
		ContextAction: "umrah-packing",
		WidgetID:      "checklist-ihram-essentials",
		State:         map[string]bool{"item-0-1": true},
	}, http.MethodPut)
	require.Equal(t, http.StatusNoContent, rec.Code)

	req := httptest.NewRequest(http.MethodGet,
		"/api/widget-state?contextAction=umrah-packing&widgetId=checklist-ihram-essentials", nil)
	get := httptest.NewRecorder()
	f.mux.ServeHTTP(get, req)
	require.Equal(t, http.StatusOK, get.Code)

	var state map[string]bool
	require.NoError(t, json.Unmarshal(get.Body.Bytes(), &state))
	assert.Equal(t, map[string]bool{"item-0-1": true}, state)
}

func TestWidgetStateMissingKeyReturnsEmpty(t *testing.T) {
	f := setupHandlers(t, assistantReply)

	req := httptest.NewRequest(http.MethodGet,
		"/api/widget-state?contextAction=umrah-packing&widgetId=never-saved", nil)
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var state map[string]bool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Empty(t, state)
}

func TestWidgetStateRequiresIdentifiers(t *testing.T) {
	f := setupHandlers(t, assistantReply)

	req := httptest.NewRequest(http.MethodGet, "/api/widget-state?widgetId=x", nil)
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	put := postJSON(t, f.mux, "/api/widget-state", WidgetStateRequest{WidgetID: "x"}, http.MethodPut)
	assert.Equal(t, http.StatusBadRequest, put.Code)
}

// ==========================
// Conversation Route Tests
// ==========================

func TestConversationRoutes(t *testing.T) {
	f := setupHandlers(t, assistantReply)
	ctx := context.Background()

	_, err := f.store.AddMessage(ctx, "umrah-packing", store.RoleUser, "hello")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/conversations/umrah-packing", nil)
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var conv store.StoredConversation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &conv))
	assert.Equal(t, "umrah-packing", conv.ContextAction)
	assert.Len(t, conv.Messages, 1)

	list := httptest.NewRecorder()
	f.mux.ServeHTTP(list, httptest.NewRequest(http.MethodGet, "/api/conversations", nil))
	require.Equal(t, http.StatusOK, list.Code)
	var all []*store.StoredConversation
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &all))
	assert.Len(t, all, 1)

	del := httptest.NewRecorder()
	f.mux.ServeHTTP(del, httptest.NewRequest(http.MethodDelete, "/api/conversations/umrah-packing", nil))
	assert.Equal(t, http.StatusNoContent, del.Code)

	missing := httptest.NewRecorder()
	f.mux.ServeHTTP(missing, httptest.NewRequest(http.MethodGet, "/api/conversations/umrah-packing", nil))
	assert.Equal(t, http.StatusNotFound, missing.Code)
}
