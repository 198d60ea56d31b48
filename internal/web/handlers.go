package web

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"cueview/internal/errors"
	"cueview/internal/ops"
)

// currentUser resolves the session cookie to the signed-in annotator name.
func (s *Server) currentUser(r *http.Request) (string, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return "", false
	}
	return s.sessions.Lookup(c.Value)
}

// modelParam validates a requested model key against the dataset, falling
// back to the default model for unknown or empty keys. The web UI forgives
// stale model links; the ops layer underneath stays strict.
func (s *Server) modelParam(requested string) string {
	if requested != "" && s.src.HasModel(requested) {
		return requested
	}
	return ""
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.currentUser(r); ok {
		http.Redirect(w, r, "/index", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	flash := ""
	if r.URL.Query().Get("out") == "1" {
		flash = "Signed out."
	}
	s.renderer.renderPage(w, "login", LoginPageData{
		PageData: PageData{Title: "Sign in", Version: s.version, Flash: flash},
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderer.renderError(w, r, errors.NewInvalidRequest("malformed form"))
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		s.renderer.renderPageStatus(w, http.StatusBadRequest, "login", LoginPageData{
			PageData: PageData{Title: "Sign in", Version: s.version},
			Error:    "Please enter a name.",
		})
		return
	}

	if _, err := s.store.EnsureUserDirs(name, s.src.Models()); err != nil {
		s.renderer.renderError(w, r, err)
		return
	}

	token, err := s.sessions.Start(name)
	if err != nil {
		s.renderer.renderError(w, r, errors.NewInternal(err))
		return
	}
	setSessionCookie(w, token)
	http.Redirect(w, r, "/index", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		s.sessions.End(c.Value)
	}
	clearSessionCookie(w)
	http.Redirect(w, r, "/login?out=1", http.StatusSeeOther)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	out, err := ops.Overview(s.src, s.store, s.cfg, ops.OverviewInput{
		Username: user,
		Model:    s.modelParam(r.URL.Query().Get("model")),
	})
	if err != nil {
		s.renderer.renderError(w, r, err)
		return
	}

	s.renderer.renderPage(w, "index", IndexPageData{
		PageData: PageData{Title: "Transcripts", Version: s.version, Nav: "index", Username: out.Annotator},
		Model:    out.Model,
		Models:   out.Models,
		Rows:     out.Rows,
	})
}

func (s *Server) handleAnnotate(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	idx, err := strconv.Atoi(r.PathValue("idx"))
	if err != nil {
		s.renderer.renderError(w, r, errors.NewInvalidRequest("row index must be a number"))
		return
	}

	out, opErr := ops.Review(s.src, s.store, s.cfg, ops.ReviewInput{
		Username: user,
		Model:    s.modelParam(r.URL.Query().Get("model")),
		RowIndex: idx,
	})
	if opErr != nil {
		s.renderer.renderError(w, r, opErr)
		return
	}

	choices := make(map[int]string, len(out.Choices))
	for tagIdx, d := range out.Choices {
		choices[tagIdx] = string(d)
	}

	s.renderer.renderPage(w, "annotate", AnnotatePageData{
		PageData: PageData{
			Title:    fmt.Sprintf("Transcript %d", out.DisplayNo),
			Version:  s.version,
			Nav:      "annotate",
			Username: out.Annotator,
		},
		Review:  out,
		Choices: choices,
		Notes:   out.Notes,
		Saved:   r.URL.Query().Get("saved") == "1",
	})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	idx, err := strconv.Atoi(r.PathValue("idx"))
	if err != nil {
		s.renderer.renderError(w, r, errors.NewInvalidRequest("row index must be a number"))
		return
	}
	if err := r.ParseForm(); err != nil {
		s.renderer.renderError(w, r, errors.NewInvalidRequest("malformed form"))
		return
	}

	model := s.modelParam(r.FormValue("model"))
	decisions, err := formDecisions(r.PostForm)
	if err != nil {
		s.renderer.renderError(w, r, err)
		return
	}
	notes := r.FormValue("notes")

	out, saveErr := ops.Save(s.src, s.store, s.cfg, ops.SaveInput{
		Username:  user,
		Model:     model,
		RowIndex:  idx,
		Decisions: decisions,
		Notes:     notes,
	})
	if saveErr != nil {
		// A failed save must keep the reviewer on the page with their
		// work intact instead of navigating forward.
		s.renderSaveFailure(w, r, user, model, idx, decisions, notes, saveErr)
		return
	}

	http.Redirect(w, r, s.afterSaveURL(r, out, idx), http.StatusSeeOther)
}

// afterSaveURL picks the post-save destination from the form's intent
// field: stay on the row, step to a neighbour, jump to the index or switch
// the model in place.
func (s *Server) afterSaveURL(r *http.Request, out *ops.SaveOutput, idx int) string {
	model := url.QueryEscape(out.Model)
	switch r.FormValue("intent") {
	case "prev":
		if idx > 0 {
			return fmt.Sprintf("/annotate/%d?model=%s", idx-1, model)
		}
	case "next":
		if idx < s.src.Len()-1 {
			return fmt.Sprintf("/annotate/%d?model=%s", idx+1, model)
		}
	case "index":
		return "/index?model=" + model
	case "switch_model":
		if next := s.modelParam(r.FormValue("switch_to")); next != "" {
			return fmt.Sprintf("/annotate/%d?model=%s", idx, url.QueryEscape(next))
		}
	}
	return fmt.Sprintf("/annotate/%d?model=%s&saved=1", idx, model)
}

// renderSaveFailure re-renders the annotate page with the submitted form
// state overlaid and the save error shown.
func (s *Server) renderSaveFailure(w http.ResponseWriter, r *http.Request, user, model string, idx int, decisions map[int]string, notes string, saveErr error) {
	out, err := ops.Review(s.src, s.store, s.cfg, ops.ReviewInput{
		Username: user,
		Model:    model,
		RowIndex: idx,
	})
	if err != nil {
		s.renderer.renderError(w, r, saveErr)
		return
	}

	var cErr *errors.CueviewError
	status := http.StatusInternalServerError
	message := "save failed"
	if stderrors.As(saveErr, &cErr) {
		status = cErr.Status
		message = cErr.Message
	}

	s.renderer.renderPageStatus(w, status, "annotate", AnnotatePageData{
		PageData: PageData{
			Title:    fmt.Sprintf("Transcript %d", out.DisplayNo),
			Version:  s.version,
			Nav:      "annotate",
			Username: out.Annotator,
		},
		Review:  out,
		Choices: decisions,
		Notes:   notes,
		Error:   message,
	})
}

// formDecisions collects "tag_<n>" fields from the annotate form into a
// tag-index keyed decision map. Values are passed through raw; the ops
// layer validates them.
func formDecisions(form url.Values) (map[int]string, error) {
	decisions := make(map[int]string)
	for key, vals := range form {
		if !strings.HasPrefix(key, "tag_") || len(vals) == 0 {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(key, "tag_"))
		if err != nil {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("bad decision field %q", key))
		}
		decisions[n] = vals[0]
	}
	return decisions, nil
}

func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	idx, err := strconv.Atoi(r.PathValue("idx"))
	if err != nil {
		s.renderer.renderError(w, r, errors.NewInvalidRequest("row index must be a number"))
		return
	}

	out, opErr := ops.FetchRecord(s.src, s.store, ops.RecordInput{
		Username: user,
		Model:    s.modelParam(r.URL.Query().Get("model")),
		RowIndex: idx,
	})
	if opErr != nil {
		s.renderer.renderError(w, r, opErr)
		return
	}

	data := RecordPageData{
		PageData: PageData{
			Title:    fmt.Sprintf("Record for row %d", idx),
			Version:  s.version,
			Nav:      "record",
			Username: user,
		},
		Model:    s.modelParam(r.URL.Query().Get("model")),
		RowIndex: idx,
		Found:    out.Found,
		Storage:  out.Storage,
	}
	if out.Found {
		data.Record = out.Record
		data.NotesHTML = renderMarkdown(out.Record.Notes)
	}
	s.renderer.renderPage(w, "record", data)
}
