// Package web exposes the city's HTTP surface: the JSON API, the OAuth
// endpoints, and health checks.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"time"

	apperrors "github.com/valusophy/city/internal/platform/errors"
	"github.com/valusophy/city/internal/platform/requestctx"
	"github.com/valusophy/city/internal/platform/timeouts"
	"github.com/valusophy/city/internal/services/applications"
	"github.com/valusophy/city/internal/services/auth"
	"github.com/valusophy/city/internal/services/auth/provider"
	"github.com/valusophy/city/internal/services/auth/session"
	"github.com/valusophy/city/internal/services/penthouse"
	"github.com/valusophy/city/internal/services/posts"
	"github.com/valusophy/city/internal/services/projects"
	"github.com/valusophy/city/internal/services/residents"
	residentstorage "github.com/valusophy/city/internal/services/residents/storage"
)

// maxUploadBytes bounds multipart post bodies.
const maxUploadBytes = 10 << 20

// Deps carries the services the HTTP surface is built from.
type Deps struct {
	Posts        *posts.Service
	Penthouse    *penthouse.Service
	Projects     *projects.Service
	Applications *applications.Service
	Residents    *residents.Provisioner
	Auth         *provider.Handler
	Sessions     session.Config

	// MediaDir, when set, is served read-only under /media/.
	MediaDir string
}

type handler struct {
	deps Deps
}

// NewHandler builds the full route set with session enforcement on
// resident-scoped routes and panic recovery around everything.
func NewHandler(deps Deps) http.Handler {
	h := &handler{deps: deps}
	mux := http.NewServeMux()

	protected := func(hf http.HandlerFunc) http.Handler {
		return auth.RequireSession(deps.Sessions, hf)
	}

	mux.Handle("POST /api/posts/create", withTimeout(timeouts.Upload, protected(h.createPost)))
	mux.Handle("GET /api/posts", withTimeout(timeouts.Request, http.HandlerFunc(h.listPosts)))
	mux.Handle("POST /api/posts/{id}/delete", withTimeout(timeouts.Request, protected(h.deletePost)))
	mux.Handle("POST /api/posts/{id}/like", withTimeout(timeouts.Request, protected(h.toggleLike)))
	mux.Handle("POST /api/posts/{id}/comments", withTimeout(timeouts.Request, protected(h.addComment)))
	mux.Handle("GET /api/posts/{id}/comments", withTimeout(timeouts.Request, http.HandlerFunc(h.listComments)))
	mux.Handle("POST /api/posts/{id}/view", withTimeout(timeouts.Request, http.HandlerFunc(h.recordView)))

	mux.Handle("GET /api/penthouse", withTimeout(timeouts.Request, protected(h.listBlocks)))
	mux.Handle("PUT /api/penthouse", withTimeout(timeouts.Request, protected(h.replaceBlocks)))
	mux.Handle("GET /api/penthouse/{residentId}", withTimeout(timeouts.Request, http.HandlerFunc(h.listBlocksFor)))

	mux.Handle("GET /api/projects", withTimeout(timeouts.Request, http.HandlerFunc(h.listProjects)))
	mux.Handle("POST /api/projects/create", withTimeout(timeouts.Request, protected(h.createProject)))
	mux.Handle("POST /api/projects/{id}/apply", withTimeout(timeouts.Request, protected(h.applyToProject)))

	mux.Handle("GET /api/profile", withTimeout(timeouts.Request, protected(h.getProfile)))
	mux.Handle("POST /api/profile", withTimeout(timeouts.Request, protected(h.updateProfile)))
	mux.Handle("GET /api/residents", withTimeout(timeouts.Request, http.HandlerFunc(h.listResidents)))

	mux.Handle("POST /api/contact", withTimeout(timeouts.Request, http.HandlerFunc(h.submitContact)))

	if deps.Auth != nil {
		mux.HandleFunc("GET /auth/login", deps.Auth.HandleLogin)
		mux.HandleFunc("GET /auth/callback", deps.Auth.HandleCallback)
		mux.HandleFunc("POST /auth/logout", deps.Auth.HandleLogout)
	}

	mux.HandleFunc("GET /healthz", h.healthz)

	if deps.MediaDir != "" {
		mux.Handle("GET /media/", http.StripPrefix("/media/", http.FileServer(http.Dir(deps.MediaDir))))
	}

	return recoverPanics(mux)
}

// withTimeout bounds request handling; handlers observe it through the
// request context.
func withTimeout(d time.Duration, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), d)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("web: panic serving %s %s: %v", r.Method, r.URL.Path, rec)
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("web: encode response: %v", err)
	}
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, map[string]any{"data": data})
}

// writeError logs the backend error and maps it to the JSON error
// envelope. Internal failures are not echoed to clients.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatusOf(err)
	log.Printf("web: %s %s: %v", r.Method, r.URL.Path, err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal server error"
	}
	writeJSON(w, status, map[string]string{"error": message})
}

func decodeBody(r *http.Request, target any) error {
	defer func() { _, _ = io.Copy(io.Discard, r.Body) }()
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return apperrors.Wrap(apperrors.CodeBadRequest, "invalid request body", err)
	}
	return nil
}

func principal(r *http.Request) requestctx.Principal {
	p, _ := requestctx.PrincipalFromContext(r.Context())
	return p
}

func (h *handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) createPost(w http.ResponseWriter, r *http.Request) {
	caller := principal(r)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, r, apperrors.Wrap(apperrors.CodeBadRequest, "invalid multipart form", err))
		return
	}

	input := posts.CreatePostInput{
		Title:   r.FormValue("title"),
		Kind:    r.FormValue("type"),
		Content: r.FormValue("content"),
	}
	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		upload, readErr := readUpload(file, header)
		if readErr != nil {
			writeError(w, r, readErr)
			return
		}
		input.Upload = upload
	case errors.Is(err, http.ErrMissingFile):
		// text posts carry no file
	default:
		writeError(w, r, apperrors.Wrap(apperrors.CodeMediaUploadFailed, "read upload", err))
		return
	}

	post, err := h.deps.Posts.CreatePost(r.Context(), caller.ID, caller.Email, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, toCreatedPostView(post))
}

func readUpload(file multipart.File, header *multipart.FileHeader) (*posts.Upload, error) {
	defer func() { _ = file.Close() }()
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeMediaUploadFailed, "read upload body", err)
	}
	return &posts.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func (h *handler) listPosts(w http.ResponseWriter, r *http.Request) {
	views, err := h.deps.Posts.ListPosts(r.Context(), r.URL.Query().Get("residentId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]postView, 0, len(views))
	for _, view := range views {
		out = append(out, toPostView(view))
	}
	writeData(w, http.StatusOK, out)
}

func (h *handler) deletePost(w http.ResponseWriter, r *http.Request) {
	caller := principal(r)
	if err := h.deps.Posts.DeletePost(r.Context(), caller.ID, caller.Email, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (h *handler) toggleLike(w http.ResponseWriter, r *http.Request) {
	caller := principal(r)
	liked, err := h.deps.Posts.ToggleLike(r.Context(), caller.ID, caller.Email, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]bool{"liked": liked})
}

func (h *handler) addComment(w http.ResponseWriter, r *http.Request) {
	caller := principal(r)
	var body struct {
		Content string `json:"content"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	comment, err := h.deps.Posts.AddComment(r.Context(), caller.ID, caller.Email, r.PathValue("id"), body.Content)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, commentView{
		ID:         comment.ID,
		PostID:     comment.PostID,
		ResidentID: comment.ResidentID,
		Content:    comment.Content,
		CreatedAt:  comment.CreatedAt,
	})
}

func (h *handler) listComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.deps.Posts.ListComments(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]commentView, 0, len(comments))
	for _, comment := range comments {
		out = append(out, toCommentView(comment))
	}
	writeData(w, http.StatusOK, out)
}

func (h *handler) recordView(w http.ResponseWriter, r *http.Request) {
	h.deps.Posts.RecordView(r.Context(), r.PathValue("id"))
	writeData(w, http.StatusOK, map[string]bool{"recorded": true})
}

func (h *handler) listBlocks(w http.ResponseWriter, r *http.Request) {
	caller := principal(r)
	blocks, err := h.deps.Penthouse.List(r.Context(), caller.ID, caller.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, blocks)
}

func (h *handler) replaceBlocks(w http.ResponseWriter, r *http.Request) {
	caller := principal(r)
	var inputs []penthouse.BlockInput
	if err := decodeBody(r, &inputs); err != nil {
		writeError(w, r, err)
		return
	}
	blocks, err := h.deps.Penthouse.Replace(r.Context(), caller.ID, caller.Email, inputs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, blocks)
}

func (h *handler) listBlocksFor(w http.ResponseWriter, r *http.Request) {
	blocks, err := h.deps.Penthouse.ListFor(r.Context(), r.PathValue("residentId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, blocks)
}

func (h *handler) listProjects(w http.ResponseWriter, r *http.Request) {
	projectRows, err := h.deps.Projects.ListProjects(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]projectView, 0, len(projectRows))
	for _, project := range projectRows {
		out = append(out, toProjectView(project))
	}
	writeData(w, http.StatusOK, out)
}

func (h *handler) createProject(w http.ResponseWriter, r *http.Request) {
	caller := principal(r)
	var body struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		StartDate   string `json:"start_date"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	result, err := h.deps.Projects.CreateProject(r.Context(), caller.ID, caller.Email, projects.CreateProjectInput{
		Title:       body.Title,
		Description: body.Description,
		StartDate:   body.StartDate,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, map[string]any{
		"project":         toCreatedProjectView(result.Project),
		"leader_enrolled": result.LeaderEnrolled,
	})
}

func (h *handler) applyToProject(w http.ResponseWriter, r *http.Request) {
	caller := principal(r)
	var body struct {
		Message string `json:"message"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	application, err := h.deps.Projects.Apply(r.Context(), caller.ID, caller.Email, r.PathValue("id"), body.Message)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, map[string]string{
		"id":     application.ID,
		"status": application.Status,
	})
}

func (h *handler) getProfile(w http.ResponseWriter, r *http.Request) {
	caller := principal(r)
	resident, err := h.deps.Residents.EnsureResident(r.Context(), caller.ID, caller.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toResidentView(resident))
}

func (h *handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	caller := principal(r)
	var body struct {
		Name      string `json:"name"`
		Bio       string `json:"bio"`
		AvatarURL string `json:"avatar_url"`
		Status    string `json:"status"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	resident, err := h.deps.Residents.UpdateProfile(r.Context(), caller.ID, caller.Email, residentstorage.ProfileUpdate{
		Name:      body.Name,
		Bio:       body.Bio,
		AvatarURL: body.AvatarURL,
		Status:    body.Status,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toResidentView(resident))
}

func (h *handler) listResidents(w http.ResponseWriter, r *http.Request) {
	residentRows, err := h.deps.Residents.ListResidents(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]residentView, 0, len(residentRows))
	for _, resident := range residentRows {
		out = append(out, toResidentView(resident))
	}
	writeData(w, http.StatusOK, out)
}

func (h *handler) submitContact(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Message string `json:"message"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	application, err := h.deps.Applications.Submit(r.Context(), applications.SubmitInput{
		Name:    body.Name,
		Email:   body.Email,
		Message: body.Message,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, applicationView{
		ID:        application.ID,
		Name:      application.Name,
		Email:     application.Email,
		Status:    application.Status,
		CreatedAt: application.CreatedAt,
	})
}
