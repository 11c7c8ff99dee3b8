// pattern: Imperative Shell

package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strings"

	"plantree/internal/project"
	"plantree/internal/sidebar"
	"plantree/internal/tree"
)

// TreeResponse is the JSON representation of the sidebar.
type TreeResponse struct {
	Projects         []tree.ProjectDetails `json:"projects"`
	Selected         string                `json:"selected"`
	ShowDeleted      bool                  `json:"show_deleted"`
	ShowNonPlanFiles bool                  `json:"show_non_plan_files"`
	Loading          bool                  `json:"loading"`
	Generation       uint64                `json:"generation"`
	Error            string                `json:"error,omitempty"`
}

// SelectionResponse is the JSON representation of the selection cursor.
type SelectionResponse struct {
	Selected string `json:"selected"`
}

type selectRequest struct {
	ID string `json:"id"`
}

type attachRequest struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

// buildTreeResponse sorts the snapshot for presentation.
func buildTreeResponse(s sidebar.State) TreeResponse {
	resp := TreeResponse{
		Projects:         tree.Sorted(s.Snapshot),
		Selected:         s.Selected,
		ShowDeleted:      s.ShowDeleted,
		ShowNonPlanFiles: s.ShowNonPlanFiles,
		Loading:          s.Loading,
		Generation:       s.Generation,
	}
	if s.Err != nil {
		resp.Error = s.Err.Error()
	}
	return resp
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// handleGetTree handles GET /api/tree.
func (s *Server) handleGetTree(w http.ResponseWriter, r *http.Request) {
	if s.coordinator == nil {
		writeError(w, http.StatusServiceUnavailable, "sidebar not available")
		return
	}
	writeJSON(w, http.StatusOK, buildTreeResponse(s.coordinator.State()))
}

// handleGetSelection handles GET /api/selection.
func (s *Server) handleGetSelection(w http.ResponseWriter, r *http.Request) {
	if s.coordinator == nil {
		writeError(w, http.StatusServiceUnavailable, "sidebar not available")
		return
	}
	writeJSON(w, http.StatusOK, SelectionResponse{Selected: s.coordinator.State().Selected})
}

// handleSetSelection handles POST /api/selection. An empty id clears the
// cursor; ids are not checked against the tree.
func (s *Server) handleSetSelection(w http.ResponseWriter, r *http.Request) {
	if s.coordinator == nil {
		writeError(w, http.StatusServiceUnavailable, "sidebar not available")
		return
	}

	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.coordinator.Select(req.ID)
	s.logger.Debug("selection set via API", "id", req.ID)
	writeJSON(w, http.StatusOK, SelectionResponse{Selected: s.coordinator.State().Selected})
}

// handleAttachProject handles POST /api/projects.
func (s *Server) handleAttachProject(w http.ResponseWriter, r *http.Request) {
	if s.projects == nil {
		writeError(w, http.StatusServiceUnavailable, "project store not available")
		return
	}

	var req attachRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Path) == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}

	ap, err := s.projects.Attach(r.Context(), req.Path, req.Name)
	if err != nil {
		s.logger.Warn("attach failed", "path", req.Path, "error", err)
		writeError(w, statusFor(err), err.Error())
		return
	}

	s.logger.Info("project attached via API", "root", ap.Root)
	writeJSON(w, http.StatusCreated, ap)
}

// handleDetachProject handles DELETE /api/projects?root=...
func (s *Server) handleDetachProject(w http.ResponseWriter, r *http.Request) {
	if s.projects == nil {
		writeError(w, http.StatusServiceUnavailable, "project store not available")
		return
	}

	root := r.URL.Query().Get("root")
	if root == "" {
		writeError(w, http.StatusBadRequest, "root is required")
		return
	}

	if err := s.projects.Detach(r.Context(), root); err != nil {
		s.logger.Warn("detach failed", "root", root, "error", err)
		writeError(w, statusFor(err), err.Error())
		return
	}

	s.logger.Info("project detached via API", "root", root)
	w.WriteHeader(http.StatusNoContent)
}

// statusFor maps project errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, project.ErrAlreadyAttached):
		return http.StatusConflict
	case errors.Is(err, project.ErrNotAttached), errors.Is(err, os.ErrNotExist):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
