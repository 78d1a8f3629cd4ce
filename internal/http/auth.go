package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"

	"campus/lms/internal/auth"
	"campus/lms/internal/crypto"
	"campus/lms/internal/model"
	"campus/lms/internal/repository"
)

type signupRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.FullName == "" || req.Email == "" || req.Password == "" || req.Role == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}

	role, err := model.ParseRole(req.Role)
	if err != nil || role == model.RoleRoot {
		// Root principals are provisioned at boot, never via signup.
		writeError(w, http.StatusBadRequest, "invalid_role")
		return
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		s.internalError(w, "hash password", err)
		return
	}

	status := model.StatusActive
	if role == model.RoleProfessor {
		status = model.StatusPending
	}

	user, err := s.store.CreateUser(r.Context(), model.User{
		FullName:     req.FullName,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
		Status:       status,
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			writeError(w, http.StatusConflict, "email_taken")
			return
		}
		s.internalError(w, "create user", err)
		return
	}

	token, err := s.issueToken(user)
	if err != nil {
		s.internalError(w, "issue token", err)
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{Token: token, User: mapUser(user)})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing_credentials")
		return
	}

	user, err := s.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Same generic denial as a wrong password: nothing about the
			// account leaks to the caller.
			writeError(w, http.StatusUnauthorized, "invalid_credentials")
			return
		}
		s.internalError(w, "login lookup", err)
		return
	}

	if err := crypto.CheckPassword(user.PasswordHash, req.Password); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid_credentials")
		return
	}

	token, err := s.issueToken(user)
	if err != nil {
		s.internalError(w, "issue token", err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{Token: token, User: mapUser(user)})
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())
	if identity == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}

	user, err := s.store.GetUserByID(r.Context(), identity.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusUnauthorized, "account_not_found")
			return
		}
		s.internalError(w, "load profile", err)
		return
	}

	writeJSON(w, http.StatusOK, mapUser(user))
}

func (s *Server) issueToken(user model.User) (string, error) {
	return auth.NewAccessToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, s.cfg.AccessTokenTTL, auth.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(user.Role),
	})
}
