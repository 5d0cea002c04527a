package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/MimoJanra/SitePulse/internal/auth"
	"github.com/MimoJanra/SitePulse/internal/models"
)

func (s *Server) ListGroups(w http.ResponseWriter, _ *http.Request) {
	groups, err := s.Groups.GetAll()
	if err != nil {
		s.Log.Error("list groups failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list groups")
		return
	}
	if groups == nil {
		groups = []models.Group{}
	}
	writeJSON(w, http.StatusOK, groups)
}

func (s *Server) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Name == "" {
		writeError(w, http.StatusBadRequest, "group name required")
		return
	}

	group, err := s.Groups.Create(models.Group{Name: body.Name, Description: body.Description})
	if err != nil {
		s.Log.Error("create group failed", zap.Error(err))
		writeError(w, http.StatusConflict, "failed to create group")
		return
	}

	s.recordAudit(r, "group.create", group.Name, "")
	writeJSON(w, http.StatusCreated, group)
}

func (s *Server) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	group, err := s.Groups.GetByID(id)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "group not found")
		return
	}
	if err != nil {
		s.Log.Error("load group failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load group")
		return
	}

	var body struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Name != "" {
		group.Name = body.Name
	}
	group.Description = body.Description

	updated, err := s.Groups.Update(group)
	if err != nil {
		s.Log.Error("update group failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to update group")
		return
	}

	s.recordAudit(r, "group.update", updated.Name, "")
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	group, err := s.Groups.GetByID(id)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "group not found")
		return
	}
	if err != nil {
		s.Log.Error("load group failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load group")
		return
	}

	if err := s.Groups.Delete(id); err != nil {
		s.Log.Error("delete group failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to delete group")
		return
	}

	s.recordAudit(r, "group.delete", group.Name, "")
	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

func (s *Server) ListAuditEntries(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := s.Audit.List(limit)
	if err != nil {
		s.Log.Error("list audit entries failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list audit entries")
		return
	}
	if entries == nil {
		entries = []models.AuditEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) MyAuditEntries(w http.ResponseWriter, r *http.Request) {
	claims := auth.FromContext(r.Context())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := s.Audit.ListByUser(claims.Subject, limit)
	if err != nil {
		s.Log.Error("list audit entries failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list audit entries")
		return
	}
	if entries == nil {
		entries = []models.AuditEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
