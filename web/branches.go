package web

import (
	"net/http"

	"github.com/robinvdvleuten/financetree/branch"
	"github.com/robinvdvleuten/financetree/tree"
)

// BranchJSON is a branch and, for tree responses, its descendants.
type BranchJSON struct {
	Name     string       `json:"name"`
	Path     string       `json:"path"`
	Children []BranchJSON `json:"children,omitempty"`
}

// InfoResponse is the body of /api/info.
type InfoResponse struct {
	Version   string `json:"version"`
	CommitSHA string `json:"commitSHA"`
	ReadOnly  bool   `json:"readOnly"`
	Watching  bool   `json:"watching"`
	TreeFile  string `json:"treeFile"`
}

// ChildJSON is a direct child with its 1-based display index.
type ChildJSON struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Path  string `json:"path"`
}

// RenameResponse is the body of a successful PUT /api/branches.
type RenameResponse struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Branches int    `json:"branches"`
	Rows     int64  `json:"rows"`
}

// DeleteResponse is the body of a successful DELETE /api/branches.
type DeleteResponse struct {
	Path     string `json:"path"`
	Branches int    `json:"branches"`
	Rows     int64  `json:"rows"`
}

func (s *Server) handleGetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, InfoResponse{
		Version:   s.Version,
		CommitSHA: s.CommitSHA,
		ReadOnly:  s.ReadOnly,
		Watching:  s.WatchEnabled,
		TreeFile:  s.book.TreeFile(),
	})
}

// handleGetBranches returns the subtree at ?path= as nested JSON.
func (s *Server) handleGetBranches(w http.ResponseWriter, r *http.Request) {
	path, err := pathParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	b, err := s.book.Lookup(path)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSONResponse(w, nested(s.book.Tree(), b.ID))
}

func nested(t *tree.Tree, id tree.NodeID) BranchJSON {
	b, _ := t.Branch(id)
	out := BranchJSON{Name: b.Name, Path: b.Path.String()}
	for _, child := range t.Children(id) {
		out.Children = append(out.Children, nested(t, child))
	}
	return out
}

// handleGetChildren lists the direct children at ?path= with their display
// index.
func (s *Server) handleGetChildren(w http.ResponseWriter, r *http.Request) {
	path, err := pathParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	children, err := s.book.ListChildren(path)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]ChildJSON, 0, len(children))
	for i, c := range children {
		out = append(out, ChildJSON{Index: i + 1, Name: c.Name, Path: c.Path.String()})
	}
	writeJSONResponse(w, out)
}

type createBranchRequest struct {
	Parent string `json:"parent"`
	Name   string `json:"name"`
}

func (s *Server) handlePostBranch(w http.ResponseWriter, r *http.Request) {
	var req createBranchRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	parent, err := parsePath(req.Parent)
	if err != nil {
		writeError(w, err)
		return
	}

	s.mu.Lock()
	created, err := s.book.CreateBranch(r.Context(), parent, req.Name)
	s.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}

	s.broadcast("change")
	writeJSONStatus(w, http.StatusCreated, BranchJSON{Name: created.Name, Path: created.Path.String()})
}

type renameBranchRequest struct {
	Parent string `json:"parent"`
	From   string `json:"from"`
	To     string `json:"to"`
}

func (s *Server) handlePutBranch(w http.ResponseWriter, r *http.Request) {
	var req renameBranchRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	parent, err := parsePath(req.Parent)
	if err != nil {
		writeError(w, err)
		return
	}

	s.mu.Lock()
	renamed, err := s.book.RenameBranch(r.Context(), parent, req.From, req.To)
	s.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}

	s.broadcast("change")
	writeJSONResponse(w, RenameResponse{
		From:     renamed.From.String(),
		To:       renamed.To.String(),
		Branches: renamed.Branches,
		Rows:     renamed.Rows,
	})
}

// handleDeleteBranch removes the subtree at ?path= and its rows.
func (s *Server) handleDeleteBranch(w http.ResponseWriter, r *http.Request) {
	path, err := pathParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if path.IsRoot() {
		writeError(w, errBadRequest("the root branch cannot be deleted"))
		return
	}

	s.mu.Lock()
	deleted, err := s.book.DeleteBranch(r.Context(), path.Parent(), path.Name())
	s.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}

	s.broadcast("change")
	writeJSONResponse(w, DeleteResponse{
		Path:     deleted.Path.String(),
		Branches: deleted.Branches,
		Rows:     deleted.Rows,
	})
}

// parsePath parses a path from a request body, defaulting to the root.
func parsePath(raw string) (branch.Path, error) {
	if raw == "" {
		return branch.RootPath(), nil
	}
	p, err := branch.Parse(raw)
	if err != nil {
		return branch.Path{}, errBadRequest(err.Error())
	}
	return p, nil
}
