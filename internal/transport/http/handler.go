package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/naingseiha/Stunity-Enterprise-sub013/internal/app"
	"github.com/naingseiha/Stunity-Enterprise-sub013/internal/domain"
	"github.com/naingseiha/Stunity-Enterprise-sub013/internal/logger"
)

// Handler exposes the live quiz engine over polling REST. Identity is
// resolved upstream (gateway auth) and trusted from the X-User-ID header;
// host authorization is enforced by the engine, never by the client.
type Handler struct {
	service *app.LiveQuizService
	log     *logger.Logger
}

func NewHandler(service *app.LiveQuizService, log *logger.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// Register mounts the live quiz routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /live/sessions", h.createSession)
	mux.HandleFunc("POST /live/{code}/join", h.join)
	mux.HandleFunc("GET /live/{code}/lobby", h.lobby)
	mux.HandleFunc("POST /live/{code}/start", h.start)
	mux.HandleFunc("GET /live/{code}/question", h.currentQuestion)
	mux.HandleFunc("POST /live/{code}/submit", h.submit)
	mux.HandleFunc("POST /live/{code}/advance", h.advance)
	mux.HandleFunc("GET /live/{code}/leaderboard", h.leaderboard)
	mux.HandleFunc("GET /live/{code}/results", h.results)
}

type createSessionRequest struct {
	QuizID   string                 `json:"quizId"`
	Settings domain.SessionSettings `json:"settings"`
}

type submitRequest struct {
	QuestionIndex int    `json:"questionIndex"`
	Answer        string `json:"answer"`
}

type advanceRequest struct {
	FromIndex *int `json:"fromIndex,omitempty"`
}

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.QuizID == "" {
		h.writeError(w, http.StatusBadRequest, "missing or malformed quizId")
		return
	}

	info, err := h.service.CreateSession(r.Context(), userID, req.QuizID, req.Settings)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.log.WithSession(info.Code).Infof("session created for quiz %s", req.QuizID)
	h.writeData(w, http.StatusCreated, info)
}

func (h *Handler) join(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	lobby, err := h.service.Join(r.Context(), r.PathValue("code"), userID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, lobby)
}

func (h *Handler) lobby(w http.ResponseWriter, r *http.Request) {
	lobby, err := h.service.Lobby(r.Context(), r.PathValue("code"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, lobby)
}

func (h *Handler) start(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	code := r.PathValue("code")
	view, err := h.service.Start(r.Context(), code, userID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.log.WithSession(code).Info("session started")
	h.writeData(w, http.StatusOK, view)
}

func (h *Handler) currentQuestion(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Current(r.Context(), r.PathValue("code"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, view)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "malformed submit payload")
		return
	}

	result, err := h.service.Submit(r.Context(), r.PathValue("code"), userID, req.QuestionIndex, req.Answer)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, result)
}

func (h *Handler) advance(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	fromIndex := -1
	if r.Body != nil {
		var req advanceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.FromIndex != nil {
			fromIndex = *req.FromIndex
		}
	}

	code := r.PathValue("code")
	result, err := h.service.Advance(r.Context(), code, userID, fromIndex)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if result.Status == domain.StatusCompleted {
		h.log.WithSession(code).Info("session completed")
	}
	h.writeData(w, http.StatusOK, result)
}

func (h *Handler) leaderboard(w http.ResponseWriter, r *http.Request) {
	lb, err := h.service.Leaderboard(r.Context(), r.PathValue("code"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, lb)
}

func (h *Handler) results(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Results(r.Context(), r.PathValue("code"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, res)
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		h.writeError(w, http.StatusUnauthorized, "missing X-User-ID")
		return "", false
	}
	return userID, true
}

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (h *Handler) writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Success: true, Data: data}); err != nil {
		h.log.Warnf("write response: %v", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: false, Error: msg})
}

// writeDomainError maps engine errors onto HTTP statuses.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrQuizNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrNotHost), errors.Is(err, domain.ErrNotParticipant):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrSessionNotState), errors.Is(err, domain.ErrStaleQuestion):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrAnswerWindowClosed):
		status = http.StatusGone
	case errors.Is(err, domain.ErrNoQuestions):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		h.log.Errorf("internal error: %v", err)
	}
	h.writeError(w, status, err.Error())
}
