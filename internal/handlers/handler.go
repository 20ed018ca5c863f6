package handlers

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/chetan5734v/freelancer/internal/auth"
	"github.com/chetan5734v/freelancer/internal/eligibility"
	"github.com/chetan5734v/freelancer/internal/jobs"
	"github.com/chetan5734v/freelancer/internal/notify"
	"github.com/chetan5734v/freelancer/internal/relay"
	"github.com/chetan5734v/freelancer/internal/store"
	"github.com/chetan5734v/freelancer/internal/token"
	"github.com/chetan5734v/freelancer/internal/ws"
)

// usernameRegex limits usernames to url-safe handles. Underscores are
// fine; room ids keep the handle as their final segment, so it parses
// back unambiguously.
var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,30}$`)

// maxMessageLength caps chat message text.
const maxMessageLength = 2000

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	pg          store.DataStore
	redis       *store.RedisStore
	tokens      *token.Service
	jobs        *jobs.Service
	eligibility *eligibility.Engine
	notifier    *notify.Notifier
	auth        *auth.Manager
	hub         *ws.Hub
	relay       *relay.Relay
	logger      zerolog.Logger
}

// NewHandler creates a new Handler with the given services.
func NewHandler(pg store.DataStore, redis *store.RedisStore, tokens *token.Service, jobSvc *jobs.Service, elig *eligibility.Engine, notifier *notify.Notifier, authMgr *auth.Manager, hub *ws.Hub, rel *relay.Relay, logger zerolog.Logger) *Handler {
	return &Handler{
		pg:          pg,
		redis:       redis,
		tokens:      tokens,
		jobs:        jobSvc,
		eligibility: elig,
		notifier:    notifier,
		auth:        authMgr,
		hub:         hub,
		relay:       rel,
		logger:      logger,
	}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

// sanitizeText trims and limits text to max characters, removing
// control characters other than newlines.
func sanitizeText(text string, max int) string {
	text = strings.TrimSpace(text)

	text = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' {
			return -1
		}
		return r
	}, text)

	if len(text) > max {
		// Back off to a rune boundary; a byte cut could split a
		// multi-byte character and persist invalid UTF-8.
		cut := max
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}

	return text
}

// isValidUsername validates username handles.
func isValidUsername(username string) bool {
	return usernameRegex.MatchString(username)
}
