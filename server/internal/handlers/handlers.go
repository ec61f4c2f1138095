package handlers

import (
	"context"
	"encoding/json"
	"html/template"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
	"github.com/yijiawu/genstudio/internal/analytics"
	"github.com/yijiawu/genstudio/internal/logstore"
	"github.com/yijiawu/genstudio/internal/model"
	"github.com/yijiawu/genstudio/internal/points"
	"github.com/yijiawu/genstudio/internal/recorder"
	"github.com/yijiawu/genstudio/server/internal/genai"
	"github.com/yijiawu/genstudio/server/internal/store"
)

// aspect ratios offered for image and video generation
var ratios = []string{"1:1", "16:9", "9:16", "4:3", "3:4", "21:9"}

const historyLimit = 50

// Generator runs one generation request to completion.
type Generator interface {
	Generate(ctx context.Context, req genai.Request) (*genai.Result, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	db         *store.DB
	sessionMgr *scs.SessionManager
	templates  *template.Template
	logs       *logstore.Store
	gen        Generator
	costs      points.Costs

	// recordMu serializes the recorder's load-mutate-save cycle; the log
	// document has a single owning process but many request goroutines.
	recordMu sync.Mutex
}

// New creates a new Handler
func New(db *store.DB, sessionMgr *scs.SessionManager, templates *template.Template, logs *logstore.Store, gen Generator, costs points.Costs) *Handler {
	return &Handler{
		db:         db,
		sessionMgr: sessionMgr,
		templates:  templates,
		logs:       logs,
		gen:        gen,
		costs:      costs,
	}
}

// visitorID returns the stable identifier for this browsing context, minting
// one into the session store on first contact.
func (h *Handler) visitorID(r *http.Request) string {
	id := h.sessionMgr.GetString(r.Context(), "visitorID")
	if id == "" {
		id = "v_" + uuid.NewString()[:8]
		h.sessionMgr.Put(r.Context(), "visitorID", id)
	}
	return id
}

func (h *Handler) recordPageView(r *http.Request, feature model.FeatureKind) error {
	h.recordMu.Lock()
	defer h.recordMu.Unlock()
	return recorder.New(h.logs, h.visitorID(r)).RecordPageView(feature)
}

func (h *Handler) recordPoints(r *http.Request, feature model.FeatureKind, cost int64) error {
	h.recordMu.Lock()
	defer h.recordMu.Unlock()
	return recorder.New(h.logs, h.visitorID(r)).RecordPoints(feature, cost)
}

type chatData struct {
	Mode     string
	Session  *store.Session
	Messages []store.Message
	Ratios   []string
}

// Index handles the main page
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	mode := r.URL.Query().Get("mode")
	if mode == "" {
		mode = model.FeatureText.String()
	}
	feature, err := model.ParseFeature(mode)
	if err != nil {
		http.Error(w, "unknown mode", http.StatusBadRequest)
		return
	}

	if err := h.recordPageView(r, feature); err != nil {
		log.Printf("handlers: record page view: %v", err)
		http.Error(w, "usage log unavailable", http.StatusInternalServerError)
		return
	}

	h.templates.ExecuteTemplate(w, "index.html", chatData{Mode: mode, Ratios: ratios})
}

// PartialChat returns a mode's chat fragment and records the page view.
func (h *Handler) PartialChat(w http.ResponseWriter, r *http.Request) {
	feature, err := model.ParseFeature(r.URL.Query().Get("mode"))
	if err != nil {
		h.renderError(w, "Unknown mode")
		return
	}

	if err := h.recordPageView(r, feature); err != nil {
		log.Printf("handlers: record page view: %v", err)
		h.renderError(w, "Could not record usage")
		return
	}

	h.templates.ExecuteTemplate(w, "chat.html", chatData{Mode: feature.String(), Ratios: ratios})
}

// PartialHistory returns the session list fragment.
func (h *Handler) PartialHistory(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.db.ListSessions(r.URL.Query().Get("mode"), historyLimit)
	if err != nil {
		h.renderError(w, "Could not load history")
		return
	}
	h.templates.ExecuteTemplate(w, "history.html", map[string]interface{}{
		"Sessions": sessions,
	})
}

// PartialSession returns one session's transcript and records a page view for
// its mode (opening a transcript activates the feature).
func (h *Handler) PartialSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.db.GetSession(r.URL.Query().Get("id"))
	if err != nil || session == nil {
		h.renderError(w, "Session not found")
		return
	}

	feature, err := model.ParseFeature(session.Mode)
	if err == nil {
		if err := h.recordPageView(r, feature); err != nil {
			log.Printf("handlers: record page view: %v", err)
			h.renderError(w, "Could not record usage")
			return
		}
	}

	messages, err := h.db.ListMessages(session.ID)
	if err != nil {
		h.renderError(w, "Could not load transcript")
		return
	}

	h.templates.ExecuteTemplate(w, "session.html", map[string]interface{}{
		"Mode":     session.Mode,
		"Session":  session,
		"Messages": messages,
	})
}

// NewSession creates an empty session for a mode.
func (h *Handler) NewSession(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, "Invalid form data")
		return
	}

	feature, err := model.ParseFeature(r.FormValue("mode"))
	if err != nil {
		h.renderError(w, "Unknown mode")
		return
	}

	session, err := h.db.CreateSession(feature.String(), "New session", "{}")
	if err != nil {
		h.renderError(w, "Could not create session")
		return
	}

	w.Header().Set("HX-Trigger", "sessions-changed")
	h.templates.ExecuteTemplate(w, "chat.html", chatData{Mode: feature.String(), Session: session, Ratios: ratios})
}

// Generate runs one generation request, appends both sides of the exchange to
// the transcript, and charges the feature's point cost on success.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, "Invalid form data")
		return
	}

	feature, err := model.ParseFeature(r.FormValue("mode"))
	if err != nil {
		h.renderError(w, "Unknown mode")
		return
	}

	prompt := strings.TrimSpace(r.FormValue("prompt"))
	if prompt == "" {
		h.renderError(w, "Prompt is required")
		return
	}

	session, err := h.sessionFor(r.FormValue("session_id"), feature, prompt)
	if err != nil {
		h.renderError(w, "Could not open session")
		return
	}

	if err := h.db.AppendMessage(&store.Message{
		SessionID: session.ID,
		Role:      "user",
		Content:   prompt,
	}); err != nil {
		h.renderError(w, "Could not save message")
		return
	}

	result, err := h.gen.Generate(r.Context(), genai.Request{
		Feature:      feature,
		Prompt:       prompt,
		Ratio:        r.FormValue("ratio"),
		PrevImageURL: h.lastImageURL(session.ID, feature),
	})
	if err != nil {
		log.Printf("handlers: generation failed: %v", err)
		h.renderError(w, "Generation failed")
		return
	}

	assistant := &store.Message{
		SessionID:  session.ID,
		Role:       "assistant",
		Content:    result.Text,
		ResultURL:  result.ResultURL,
		ResultType: feature.String(),
	}
	if feature == model.FeatureText {
		assistant.ResultType = ""
	}
	if err := h.db.AppendMessage(assistant); err != nil {
		h.renderError(w, "Could not save result")
		return
	}

	// The generation completed; charge its point cost.
	if err := h.recordPoints(r, feature, h.costs.For(feature)); err != nil {
		log.Printf("handlers: record points: %v", err)
		h.renderError(w, "Could not record usage")
		return
	}

	messages, err := h.db.ListMessages(session.ID)
	if err != nil {
		h.renderError(w, "Could not load transcript")
		return
	}

	w.Header().Set("HX-Trigger", "sessions-changed")
	h.templates.ExecuteTemplate(w, "chat.html", chatData{
		Mode:     feature.String(),
		Session:  session,
		Messages: messages,
		Ratios:   ratios,
	})
}

// sessionFor loads the posted session or starts a new one titled after the
// prompt.
func (h *Handler) sessionFor(sessionID string, feature model.FeatureKind, prompt string) (*store.Session, error) {
	if sessionID != "" {
		session, err := h.db.GetSession(sessionID)
		if err != nil {
			return nil, err
		}
		if session != nil {
			return session, nil
		}
	}

	title := prompt
	if len(title) > 40 {
		title = title[:40] + "…"
	}
	return h.db.CreateSession(feature.String(), title, "{}")
}

// lastImageURL returns the most recent image result in a session so image
// prompts can refine it.
func (h *Handler) lastImageURL(sessionID string, feature model.FeatureKind) string {
	if feature != model.FeatureImage {
		return ""
	}
	messages, err := h.db.ListMessages(sessionID)
	if err != nil {
		return ""
	}
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].ResultType == model.FeatureImage.String() && messages[i].ResultURL != "" {
			return messages[i].ResultURL
		}
	}
	return ""
}

// Feedback stores a like/dislike on a message.
func (h *Handler) Feedback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.jsonError(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	messageID := r.FormValue("message_id")
	if messageID == "" {
		h.jsonError(w, "message_id is required", http.StatusBadRequest)
		return
	}

	if err := h.db.SetMessageFeedback(messageID, r.FormValue("feedback")); err != nil {
		h.jsonError(w, "Could not save feedback", http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type dashboardDay struct {
	Date     string
	Features []model.DailyFeatureRollup
	Users    []model.UserDayRollup
}

// PartialDashboard renders the monthly overview and audit tables.
func (h *Handler) PartialDashboard(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if month == "" {
		month = time.Now().Format("2006-01")
	}

	logs, err := h.logs.LoadAll()
	if err != nil {
		log.Printf("handlers: load usage log: %v", err)
		h.renderError(w, "Usage log unavailable")
		return
	}

	summary, err := analytics.Summarize(logs, month, analytics.Options{})
	if err != nil {
		h.renderError(w, "Invalid month")
		return
	}

	usersByDate := make(map[string][]model.UserDayRollup)
	for _, u := range summary.UserRollups {
		usersByDate[u.Date] = append(usersByDate[u.Date], u)
	}

	var days []dashboardDay
	for _, rollup := range summary.DailyRollups {
		if len(days) == 0 || days[len(days)-1].Date != rollup.Date {
			days = append(days, dashboardDay{Date: rollup.Date, Users: usersByDate[rollup.Date]})
		}
		day := &days[len(days)-1]
		day.Features = append(day.Features, rollup)
	}

	h.templates.ExecuteTemplate(w, "dashboard.html", map[string]interface{}{
		"Summary": summary,
		"Days":    days,
	})
}

// Health handles the health check endpoint
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy", "error": "database unavailable"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

func (h *Handler) renderError(w http.ResponseWriter, message string) {
	h.templates.ExecuteTemplate(w, "error.html", map[string]interface{}{
		"Error": message,
	})
}

func (h *Handler) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
