package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ibeckermayer/leadscout/internal/app"
	"github.com/ibeckermayer/leadscout/internal/promote"
)

type handler struct {
	app *app.App
}

type keywordsRequest struct {
	ProductDescription string `json:"product_description"`
}

type searchRequest struct {
	Keywords []string `json:"keywords"`
	Limit    int      `json:"limit"`
}

type urlRequest struct {
	URL string `json:"url"`
}

type postCommentRequest struct {
	URL          string `json:"url"`
	CommentType  string `json:"comment_type"`
	OverrideText string `json:"override_text"`
}

type replyRequest struct {
	URL    string `json:"url"`
	Target string `json:"target"`
	Reply  string `json:"reply"`
}

type textRequest struct {
	Text string `json:"text"`
}

// decode reads a JSON body. An empty body leaves dst untouched.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return false
	}
	return true
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"message":  "ok",
		"platform": h.app.PlatformName(),
	})
}

func (h *handler) browserStatus(w http.ResponseWriter, r *http.Request) {
	res := h.app.BrowserStatus()
	writeResult(w, res, res.Result)
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	res := h.app.Login(r.Context())
	writeResult(w, res, res.Result)
}

func (h *handler) generateKeywords(w http.ResponseWriter, r *http.Request) {
	var req keywordsRequest
	if !decode(w, r, &req) {
		return
	}
	res := h.app.GenerateKeywords(r.Context(), req.ProductDescription)
	writeResult(w, res, res.Result)
}

func (h *handler) searchNotes(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decode(w, r, &req) {
		return
	}
	res := h.app.SearchNotes(r.Context(), req.Keywords, req.Limit)
	writeResult(w, res, res.Result)
}

func (h *handler) noteContent(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if !decode(w, r, &req) {
		return
	}
	res := h.app.NoteContent(r.Context(), req.URL)
	writeResult(w, res, res.Result)
}

func (h *handler) noteComments(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if !decode(w, r, &req) {
		return
	}
	res := h.app.NoteComments(r.Context(), req.URL)
	writeResult(w, res, res.Result)
}

func (h *handler) postComment(w http.ResponseWriter, r *http.Request) {
	var req postCommentRequest
	if !decode(w, r, &req) {
		return
	}
	res := h.app.PostComment(r.Context(), req.URL, req.CommentType, req.OverrideText)
	writeResult(w, res, res.Result)
}

func (h *handler) generateComment(w http.ResponseWriter, r *http.Request) {
	var req postCommentRequest
	if !decode(w, r, &req) {
		return
	}
	res := h.app.PreviewComment(r.Context(), req.URL, req.CommentType)
	writeResult(w, res, res.Result)
}

func (h *handler) replyComment(w http.ResponseWriter, r *http.Request) {
	var req replyRequest
	if !decode(w, r, &req) {
		return
	}
	res := h.app.ReplyToComment(r.Context(), req.URL, req.Target, req.Reply)
	writeResult(w, res, res.Result)
}

func (h *handler) autoPromote(w http.ResponseWriter, r *http.Request) {
	var req promote.Request
	if !decode(w, r, &req) {
		return
	}
	res := h.app.AutoPromote(r.Context(), req)
	writeResult(w, res, res.Result)
}

func (h *handler) analyzeProduct(w http.ResponseWriter, r *http.Request) {
	var req promote.Request
	if !decode(w, r, &req) {
		return
	}
	res := h.app.AnalyzeProduct(r.Context(), req)
	writeResult(w, res, res.Result)
}

func (h *handler) leads(w http.ResponseWriter, r *http.Request) {
	res := h.app.Leads(r.URL.Query().Get("filter"))
	writeResult(w, res, res.Result)
}

func (h *handler) resetLeads(w http.ResponseWriter, r *http.Request) {
	res := h.app.ResetLeads()
	writeResult(w, res, res)
}

func (h *handler) runs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, app.CodeValidation, "limit must be a number")
			return
		}
		limit = n
	}
	res := h.app.Runs(r.Context(), limit)
	writeResult(w, res, res.Result)
}

func (h *handler) generateDraft(w http.ResponseWriter, r *http.Request) {
	var opts app.DraftOptions
	if !decode(w, r, &opts) {
		return
	}
	res := h.app.GenerateDraft(r.Context(), chi.URLParam(r, "leadID"), opts)
	writeResult(w, res, res.Result)
}

func (h *handler) regenerateDraft(w http.ResponseWriter, r *http.Request) {
	var opts app.DraftOptions
	if !decode(w, r, &opts) {
		return
	}
	res := h.app.RegenerateDraft(r.Context(), chi.URLParam(r, "leadID"), opts)
	writeResult(w, res, res.Result)
}

func (h *handler) editDraft(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !decode(w, r, &req) {
		return
	}
	res := h.app.EditDraft(chi.URLParam(r, "leadID"), req.Text)
	writeResult(w, res, res.Result)
}

func (h *handler) sendDraft(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !decode(w, r, &req) {
		return
	}
	res := h.app.SendDraft(r.Context(), chi.URLParam(r, "leadID"), req.Text)
	writeResult(w, res, res.Result)
}
