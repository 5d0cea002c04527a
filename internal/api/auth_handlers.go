package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/MimoJanra/SitePulse/internal/auth"
	"github.com/MimoJanra/SitePulse/internal/models"
)

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.Users.GetByUsername(body.Username)
	if err != nil || !auth.CheckPassword(user.PasswordHash, body.Password) {
		// Same answer for unknown user and wrong password.
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := auth.GenerateToken([]byte(s.Auth.JWTSecret), user, s.Auth.TokenTTL)
	if err != nil {
		s.Log.Error("token generation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  user,
	})
}

func (s *Server) Me(w http.ResponseWriter, r *http.Request) {
	claims := auth.FromContext(r.Context())
	user, err := s.Users.GetByID(claims.Subject)
	if err != nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(body.NewPassword) < 6 {
		writeError(w, http.StatusBadRequest, "new password must be at least 6 characters")
		return
	}

	claims := auth.FromContext(r.Context())
	user, err := s.Users.GetByID(claims.Subject)
	if err != nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if !auth.CheckPassword(user.PasswordHash, body.CurrentPassword) {
		writeError(w, http.StatusUnauthorized, "current password is incorrect")
		return
	}

	hash, err := auth.HashPassword(body.NewPassword)
	if err != nil {
		s.Log.Error("password hash failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to change password")
		return
	}

	user.PasswordHash = hash
	if _, err := s.Users.Update(user); err != nil {
		s.Log.Error("password update failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to change password")
		return
	}

	s.recordAudit(r, "user.change_password", user.Username, "")
	writeJSON(w, http.StatusOK, map[string]string{"status": "password changed"})
}

func (s *Server) ListUsers(w http.ResponseWriter, _ *http.Request) {
	users, err := s.Users.GetAll()
	if err != nil {
		s.Log.Error("list users failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	if users == nil {
		users = []models.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) CreateUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username         string   `json:"username"`
		Password         string   `json:"password"`
		Role             string   `json:"role"`
		AssignedGroupIDs []string `json:"assigned_group_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Username == "" || len(body.Password) < 6 {
		writeError(w, http.StatusBadRequest, "username and a password of at least 6 characters are required")
		return
	}
	if body.Role != "" && !models.ValidRole(body.Role) {
		writeError(w, http.StatusBadRequest, "unknown role")
		return
	}

	hash, err := auth.HashPassword(body.Password)
	if err != nil {
		s.Log.Error("password hash failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	user, err := s.Users.Create(models.User{
		Username:         body.Username,
		PasswordHash:     hash,
		Role:             body.Role,
		AssignedGroupIDs: body.AssignedGroupIDs,
	})
	if err != nil {
		s.Log.Error("create user failed", zap.Error(err))
		writeError(w, http.StatusConflict, "failed to create user")
		return
	}

	s.recordAudit(r, "user.create", user.Username, user.Role)
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	user, err := s.Users.GetByID(id)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		s.Log.Error("load user failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}

	var body struct {
		Password         string   `json:"password"`
		Role             string   `json:"role"`
		AssignedGroupIDs []string `json:"assigned_group_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if body.Password != "" {
		if len(body.Password) < 6 {
			writeError(w, http.StatusBadRequest, "password must be at least 6 characters")
			return
		}
		hash, err := auth.HashPassword(body.Password)
		if err != nil {
			s.Log.Error("password hash failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to update user")
			return
		}
		user.PasswordHash = hash
	}
	if body.Role != "" {
		if !models.ValidRole(body.Role) {
			writeError(w, http.StatusBadRequest, "unknown role")
			return
		}
		user.Role = body.Role
	}
	if body.AssignedGroupIDs != nil {
		user.AssignedGroupIDs = body.AssignedGroupIDs
	}

	updated, err := s.Users.Update(user)
	if err != nil {
		s.Log.Error("update user failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to update user")
		return
	}

	s.recordAudit(r, "user.update", updated.Username, updated.Role)
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	claims := auth.FromContext(r.Context())
	if claims != nil && claims.Subject == id {
		writeError(w, http.StatusBadRequest, "cannot delete your own account")
		return
	}

	user, err := s.Users.GetByID(id)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		s.Log.Error("load user failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}

	if err := s.Users.Delete(id); err != nil {
		s.Log.Error("delete user failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}

	s.recordAudit(r, "user.delete", user.Username, "")
	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}
