package api

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/promptree/pkg/errors"
	"github.com/matzehuels/promptree/pkg/graph"
	pkgio "github.com/matzehuels/promptree/pkg/io"
	"github.com/matzehuels/promptree/pkg/pipeline"
)

// SubmitPromptRequest is the body of POST /api/prompts.
type SubmitPromptRequest struct {
	ParentID string `json:"parentId"`
	Text     string `json:"text"`
}

// SubmitPromptResponse describes the batch started for a prompt.
type SubmitPromptResponse struct {
	PromptID      string   `json:"promptId"`
	CompletionIDs []string `json:"completionIds"`
}

// AddSystemNodeRequest is the body of POST /api/system-nodes.
type AddSystemNodeRequest struct {
	Content string `json:"content,omitempty"`
}

// PatchNodeRequest is the body of PATCH /api/nodes/{id}.
// At least one field must be set.
type PatchNodeRequest struct {
	Content  *string               `json:"content,omitempty"`
	Position *pkgio.PositionRecord `json:"position,omitempty"`
}

// DeleteNodesRequest is the body of POST /api/nodes/delete.
type DeleteNodesRequest struct {
	IDs []string `json:"ids"`
}

// DeleteNodesResponse lists every removed node, descendants included.
type DeleteNodesResponse struct {
	Removed []string `json:"removed"`
}

// CreateEdgeRequest is the body of POST /api/edges.
type CreateEdgeRequest struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Settings is the body of GET and PUT /api/settings.
type Settings struct {
	ResponseCount int `json:"responseCount"`
}

// ImportResponse lists the ids of merged nodes.
type ImportResponse struct {
	Imported []string `json:"imported"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getGraph(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.runner.Document())
}

// submitPrompt returns as soon as the placeholders exist. The batch keeps
// running after the request ends.
func (s *Server) submitPrompt(w http.ResponseWriter, r *http.Request) {
	var req SubmitPromptRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := errors.ValidateNodeID(req.ParentID); err != nil {
		s.respondError(w, r, err)
		return
	}

	batch, err := s.runner.SubmitPrompt(context.WithoutCancel(r.Context()), req.ParentID, req.Text)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusAccepted, SubmitPromptResponse{
		PromptID:      batch.PromptID,
		CompletionIDs: batch.CompletionIDs,
	})
}

func (s *Server) addSystemNode(w http.ResponseWriter, r *http.Request) {
	var req AddSystemNodeRequest
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			s.respondError(w, r, err)
			return
		}
	}

	n, err := s.runner.AddSystemNode(r.Context(), req.Content)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, pkgio.NewNodeRecord(n))
}

func (s *Server) patchNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "nodeID")
	var req PatchNodeRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.Content == nil && req.Position == nil {
		s.respondError(w, r, errors.New(errors.ErrCodeInvalidInput, "nothing to update"))
		return
	}

	if req.Content != nil {
		if err := s.runner.UpdateContent(r.Context(), id, *req.Content); err != nil {
			s.respondError(w, r, err)
			return
		}
	}
	if req.Position != nil {
		pos := graph.Position{X: req.Position.X, Y: req.Position.Y}
		if err := s.runner.Move(r.Context(), id, pos); err != nil {
			s.respondError(w, r, err)
			return
		}
	}

	n, ok := s.runner.Graph.Node(id)
	if !ok {
		s.respondError(w, r, errors.New(errors.ErrCodeNotFound, "node %s not found", id))
		return
	}
	s.respondJSON(w, http.StatusOK, pkgio.NewNodeRecord(n))
}

func (s *Server) deleteNodes(w http.ResponseWriter, r *http.Request) {
	var req DeleteNodesRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	removed := s.runner.Delete(r.Context(), graph.Select(req.IDs...))
	if removed == nil {
		removed = []string{}
	}
	s.respondJSON(w, http.StatusOK, DeleteNodesResponse{Removed: removed})
}

func (s *Server) createEdge(w http.ResponseWriter, r *http.Request) {
	var req CreateEdgeRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	for _, id := range []string{req.Source, req.Target} {
		if err := errors.ValidateNodeID(id); err != nil {
			s.respondError(w, r, err)
			return
		}
	}

	e, err := s.runner.Connect(r.Context(), req.Source, req.Target)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, pkgio.NewEdgeRecord(e))
}

func (s *Server) deleteEdge(w http.ResponseWriter, r *http.Request) {
	if err := s.runner.Disconnect(r.Context(), chi.URLParam(r, "edgeID")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getSettings(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, Settings{ResponseCount: s.runner.ResponseCount()})
}

func (s *Server) putSettings(w http.ResponseWriter, r *http.Request) {
	var req Settings
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.runner.SetResponseCount(req.ResponseCount); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, req)
}

func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	data, err := s.runner.Export(format)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	name := pipeline.FileName(format, s.opts.Now())
	w.Header().Set("Content-Type", pipeline.ContentTypes[format])
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.Warn("write export", "format", format, "err", err)
	}
}

func (s *Server) importGraph(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, s.opts.MaxImportBytes)
	ids, err := s.runner.Import(r.Context(), body)
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		err = errors.Wrap(errors.ErrCodeTooLarge, err, "import larger than %d bytes", tooLarge.Limit)
	}
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, ImportResponse{Imported: ids})
}
