package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/anttttti/DuneBlend/pkg/blend"
	"github.com/anttttti/DuneBlend/pkg/catalog"
	"github.com/anttttti/DuneBlend/pkg/core"
)

// result is the envelope of the mutating endpoints.
type result struct {
	Success  bool          `json:"success"`
	Filename string        `json:"filename,omitempty"`
	Location core.Location `json:"location,omitempty"`
	Path     string        `json:"filepath,omitempty"`
	Message  string        `json:"message,omitempty"`
	Error    string        `json:"error,omitempty"`
}

type loadResult struct {
	Success    bool            `json:"success"`
	Resources  *blend.Document `json:"resources,omitempty"`
	Unresolved []string        `json:"unresolved,omitempty"`
	Error      string          `json:"error,omitempty"`
}

type uploadRequest struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

type saveRequest struct {
	Name      string          `json:"name"`
	Resources *blend.Document `json:"resources"`
}

type deleteRequest struct {
	Filename string `json:"filename"`
}

type indexEntry struct {
	Filename string `json:"filename"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusOf maps service errors to HTTP statuses.
func statusOf(err error) int {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidFilename):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrProtected):
		return http.StatusForbidden
	case errors.Is(err, core.ErrReadOnly):
		return http.StatusConflict
	case errors.Is(err, core.ErrUnavailable):
		return http.StatusNotImplemented
	case errors.Is(err, catalog.ErrInvalid):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, result{Error: err.Error()})
}

// decodeBody reads a JSON request body. Only application/json is accepted.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		writeJSON(w, http.StatusUnsupportedMediaType, result{Error: "Only application/json content type is supported"})
		return errors.New("unsupported content type")
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes)).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, result{Error: fmt.Sprintf("invalid request body: %v", err)})
		return err
	}
	return nil
}

func (s *Server) handleFeatures(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Features(r.Context()))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.ListBlends(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// handleIndex serves the static listing, whatever the store keeps on disk.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.ListBlends(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	entries := make([]indexEntry, len(list))
	for i, b := range list {
		entries[i] = indexEntry{Filename: b.Filename}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleRaw(w http.ResponseWriter, r *http.Request) {
	data, err := s.svc.ReadBlend(r.Context(), r.PathValue("file"))
	if err != nil {
		http.Error(w, err.Error(), statusOf(err))
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = w.Write(data)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("file")
	data, err := s.svc.ReadBlend(r.Context(), filename)
	switch {
	case errors.Is(err, core.ErrInvalidFilename):
		http.Error(w, "Invalid filename", http.StatusForbidden)
		return
	case errors.Is(err, core.ErrNotFound):
		http.Error(w, "Blend not found", http.StatusNotFound)
		return
	case err != nil:
		http.Error(w, err.Error(), statusOf(err))
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	_, _ = w.Write(data)
}

// handleLoad parses a blend. With a catalog available the items are resolved
// to full resources and counts are expanded into repeated entries.
func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	doc, err := s.svc.LoadBlend(r.Context(), r.PathValue("file"))
	if errors.Is(err, core.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, loadResult{Error: "Blend file not found"})
		return
	}
	if err != nil {
		writeJSON(w, statusOf(err), loadResult{Error: err.Error()})
		return
	}

	res := loadResult{Success: true, Resources: doc}
	if c, err := s.loadCatalog(r.Context()); err == nil {
		res.Unresolved = c.Enrich(doc)
	} else {
		s.logger.Debug("loading blend without catalog", "error", err)
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if err := decodeBody(w, r, &req); err != nil {
		return
	}
	if req.Filename == "" {
		req.Filename = "blend.md"
	}

	name, err := s.svc.Upload(r.Context(), req.Filename, []byte(req.Content))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result{
		Success:  true,
		Filename: name,
		Message:  "Blend saved to server: " + name,
	})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := decodeBody(w, r, &req); err != nil {
		return
	}
	if req.Resources == nil {
		req.Resources = blend.NewDocument()
	}

	res, err := s.svc.SaveBlend(r.Context(), strings.TrimSpace(req.Name), req.Resources)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result{
		Success:  true,
		Filename: res.Filename,
		Location: res.Location,
		Path:     res.Path,
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := decodeBody(w, r, &req); err != nil {
		return
	}
	if err := s.svc.DeleteBlend(r.Context(), req.Filename); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result{Success: true, Message: "Blend deleted: " + req.Filename})
}

func (s *Server) handleResources(w http.ResponseWriter, r *http.Request) {
	c, err := s.loadCatalog(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c.All())
}

func (s *Server) handleResourcesByType(w http.ResponseWriter, r *http.Request) {
	c, err := s.loadCatalog(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	resources := c.Resources(r.PathValue("type"))
	if resources == nil {
		resources = []catalog.Resource{}
	}
	writeJSON(w, http.StatusOK, resources)
}
