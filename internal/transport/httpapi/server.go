package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/peerloop/peerloop/internal/domain"
	friendsuc "github.com/peerloop/peerloop/internal/usecase/friends"
	groupsuc "github.com/peerloop/peerloop/internal/usecase/groups"
	healthuc "github.com/peerloop/peerloop/internal/usecase/health"
	matchuc "github.com/peerloop/peerloop/internal/usecase/match"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the ranking services behind the HTTP API.
type Server struct {
	matches       *matchuc.Service
	groups        *groupsuc.Service
	friends       *friendsuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	matches *matchuc.Service,
	groups *groupsuc.Service,
	friends *friendsuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		matches: matches,
		groups:  groups,
		friends: friends,
		health:  health,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		capacityHandler,
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrDuplicateMember, http.StatusConflict, CodeDuplicateMember),
		sentinelHandler(domain.ErrAlreadyExists, http.StatusConflict, CodeAlreadyExists),
		sentinelHandler(domain.ErrPrivateGroupForbidden, http.StatusForbidden, CodePrivateGroup),
		sentinelHandler(domain.ErrInvalidTransition, http.StatusConflict, CodeInvalidTransition),
		sentinelHandler(domain.ErrModelLoad, http.StatusServiceUnavailable, CodeModelUnavailable),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProviderErr),
	}
	return s
}

// Register mounts all API routes on the router.
func (s *Server) Register(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/matches", s.FindMatches)
			r.Get("/friend-requests", s.ListFriendRequests)
			r.Route("/groups", func(r chi.Router) {
				r.Get("/recommended", s.RecommendedGroups)
				r.Get("/trending", s.TrendingGroups)
				r.Get("/for-you", s.ForYouGroups)
				r.Get("/with-friends", s.GroupsWithFriends)
			})
		})

		r.Get("/groups/search", s.SearchGroups)
		r.Post("/groups/{groupID}/join", s.JoinGroup)

		r.Route("/friend-requests", func(r chi.Router) {
			r.Post("/", s.SendFriendRequest)
			r.Post("/{requestID}/accept", s.AcceptFriendRequest)
			r.Post("/{requestID}/reject", s.RejectFriendRequest)
		})
	})
}

// FindMatches handles GET /v1/users/{userID}/matches.
func (s *Server) FindMatches(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	results, err := s.matches.FindMatches(r.Context(), userID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newListResponse(results))
}

// RecommendedGroups handles GET /v1/users/{userID}/groups/recommended.
func (s *Server) RecommendedGroups(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	results, err := s.groups.Recommended(r.Context(), userID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newListResponse(results))
}

// TrendingGroups handles GET /v1/users/{userID}/groups/trending.
func (s *Server) TrendingGroups(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	results, err := s.groups.Trending(r.Context(), userID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newListResponse(results))
}

// ForYouGroups handles GET /v1/users/{userID}/groups/for-you.
func (s *Server) ForYouGroups(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	results, err := s.groups.ForYou(r.Context(), userID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newListResponse(results))
}

// GroupsWithFriends handles GET /v1/users/{userID}/groups/with-friends.
func (s *Server) GroupsWithFriends(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	results, err := s.groups.WithFriends(r.Context(), userID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newListResponse(results))
}

// SearchGroups handles GET /v1/groups/search.
func (s *Server) SearchGroups(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	results, err := s.groups.Search(r.Context(), query)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newListResponse(results))
}

// JoinGroup handles POST /v1/groups/{groupID}/join.
func (s *Server) JoinGroup(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")

	var req struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	card, err := s.groups.Join(r.Context(), groupID, req.UserID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, card)
}

// SendFriendRequest handles POST /v1/friend-requests.
func (s *Server) SendFriendRequest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From string `json:"from"`
		To   string `json:"to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	fr, err := s.friends.Send(r.Context(), req.From, req.To)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, friendRequestToDTO(fr))
}

// AcceptFriendRequest handles POST /v1/friend-requests/{requestID}/accept.
func (s *Server) AcceptFriendRequest(w http.ResponseWriter, r *http.Request) {
	s.resolveFriendRequest(w, r, s.friends.Accept)
}

// RejectFriendRequest handles POST /v1/friend-requests/{requestID}/reject.
func (s *Server) RejectFriendRequest(w http.ResponseWriter, r *http.Request) {
	s.resolveFriendRequest(w, r, s.friends.Reject)
}

func (s *Server) resolveFriendRequest(
	w http.ResponseWriter,
	r *http.Request,
	resolve func(ctx context.Context, requestID, userID string) (domain.FriendRequest, error),
) {
	requestID := chi.URLParam(r, "requestID")

	var req struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	fr, err := resolve(r.Context(), requestID, req.UserID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, friendRequestToDTO(fr))
}

// ListFriendRequests handles GET /v1/users/{userID}/friend-requests.
func (s *Server) ListFriendRequests(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	requests, err := s.friends.ListForUser(r.Context(), userID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]friendRequestDTO, len(requests))
	for i, fr := range requests {
		items[i] = friendRequestToDTO(fr)
	}
	writeJSON(w, http.StatusOK, newListResponse(items))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// friendRequestDTO is the wire shape of a friend request.
type friendRequestDTO struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func friendRequestToDTO(fr domain.FriendRequest) friendRequestDTO {
	return friendRequestDTO{
		ID:        fr.ID,
		From:      fr.From,
		To:        fr.To,
		Status:    string(fr.State),
		CreatedAt: fr.CreatedAt,
		UpdatedAt: fr.UpdatedAt,
	}
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidInput,
		domain.ErrNotFound,
		domain.ErrDuplicateMember,
		domain.ErrAlreadyExists,
		domain.ErrPrivateGroupForbidden,
		domain.ErrCapacityExceeded,
		domain.ErrInvalidTransition,
		domain.ErrModelLoad,
		domain.ErrEmbeddingProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// capacityHandler handles ErrCapacityExceeded with the group limit in the body.
func capacityHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrCapacityExceeded) {
		return false
	}
	var ce *domain.CapacityError
	if errors.As(err, &ce) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"code":        CodeCapacityExceeded,
			"message":     msg,
			"max_members": ce.MaxMembers,
		})
		return true
	}
	writeError(w, http.StatusConflict, CodeCapacityExceeded, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
