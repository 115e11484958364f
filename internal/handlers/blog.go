package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"bimberek/internal/middleware"
	"bimberek/internal/models"
	"bimberek/internal/render"
	"bimberek/internal/sanitize"
	"bimberek/internal/session"
	"bimberek/internal/slug"
	"bimberek/internal/store"
)

// postsPerPage is the page size for the blog listing.
const postsPerPage = 10

// Blog groups the public blog handlers. Any signed-in user may submit
// a post; non-staff submissions wait for moderation.
type Blog struct {
	renderer     *render.Renderer
	postStore    *store.PostStore
	commentStore *store.CommentStore
	themeStore   *store.ThemeStore
}

// NewBlog creates the Blog handler group.
func NewBlog(renderer *render.Renderer, posts *store.PostStore, comments *store.CommentStore, themes *store.ThemeStore) *Blog {
	return &Blog{
		renderer:     renderer,
		postStore:    posts,
		commentStore: comments,
		themeStore:   themes,
	}
}

// List renders the paginated blog index of approved posts.
func (b *Blog) List(w http.ResponseWriter, r *http.Request) {
	page := queryPage(r)
	posts, total, err := b.postStore.ListApproved(page, postsPerPage)
	if err != nil {
		slog.Error("blog list failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	totalPages := (total + postsPerPage - 1) / postsPerPage
	b.renderer.Page(w, r, "blog", &render.PageData{
		Title:   "Blog",
		Section: "blog",
		Data: map[string]any{
			"Posts":      posts,
			"Page":       page,
			"PrevPage":   page - 1,
			"NextPage":   page + 1,
			"TotalPages": totalPages,
			"Theme":      themeFor(r, b.themeStore),
		},
	})
}

// Detail renders one post with the comments its viewer may see.
// Pending and rejected posts are visible only to their author and to
// staff.
func (b *Blog) Detail(w http.ResponseWriter, r *http.Request) {
	post, err := b.postStore.FindBySlug(chi.URLParam(r, "slug"))
	if err != nil {
		slog.Error("post lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if post == nil {
		http.NotFound(w, r)
		return
	}

	sess := middleware.SessionFromCtx(r.Context())

	if post.Status != models.ModerationApproved {
		isAuthor := sess != nil && post.AuthorID != nil && *post.AuthorID == sess.UserID
		if !isAuthor && (sess == nil || !sess.IsStaff()) {
			http.NotFound(w, r)
			return
		}
	}

	// Signed-in viewers also see their own comments awaiting moderation.
	var viewerID *uuid.UUID
	if sess != nil {
		viewerID = &sess.UserID
	}
	comments, err := b.commentStore.ListVisibleForPost(post.ID, viewerID)
	if err != nil {
		slog.Error("post comments failed", "error", err)
	}

	b.renderer.Page(w, r, "post", &render.PageData{
		Title:   post.Title,
		Section: "blog",
		Data: map[string]any{
			"Post":     post,
			"Comments": comments,
			"Theme":    themeFor(r, b.themeStore),
		},
	})
}

// NewPage renders the post submission form.
func (b *Blog) NewPage(w http.ResponseWriter, r *http.Request) {
	b.renderer.Page(w, r, "post_new", &render.PageData{
		Title:   "Nowy wpis",
		Section: "blog",
		Data: map[string]any{
			"Title": "",
			"Body":  "",
			"Theme": themeFor(r, b.themeStore),
		},
	})
}

// NewSubmit creates a blog post. Staff posts publish immediately; user
// posts enter the moderation queue.
func (b *Blog) NewSubmit(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	title := strings.TrimSpace(r.FormValue("title"))
	body := sanitize.RichText(r.FormValue("body"))

	if title == "" || len(title) > 200 || strings.TrimSpace(body) == "" {
		session.AddFlash(w, r, "error", "Wpis musi mieć tytuł i treść.")
		b.renderer.Page(w, r, "post_new", &render.PageData{
			Title:   "Nowy wpis",
			Section: "blog",
			Data: map[string]any{
				"Title": title,
				"Body":  r.FormValue("body"),
				"Theme": themeFor(r, b.themeStore),
			},
		})
		return
	}

	status := models.ModerationPending
	if sess.IsStaff() {
		status = models.ModerationApproved
	}

	postSlug, err := b.freeSlug(title)
	if err != nil {
		slog.Error("post slug failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	post, err := b.postStore.Create(&models.Post{
		Title:    title,
		Slug:     postSlug,
		BodyHTML: body,
		Status:   status,
		AuthorID: &sess.UserID,
	})
	if err != nil {
		slog.Error("post create failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if status == models.ModerationApproved {
		session.AddFlash(w, r, "success", "Wpis opublikowany.")
		http.Redirect(w, r, "/blog/"+post.Slug, http.StatusSeeOther)
		return
	}

	session.AddFlash(w, r, "success", "Wpis czeka na zatwierdzenie przez moderatora.")
	http.Redirect(w, r, "/blog", http.StatusSeeOther)
}

// CommentSubmit adds a pending comment to a post.
func (b *Blog) CommentSubmit(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	postID, err := urlUUID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	post, err := b.postStore.FindByID(postID)
	if err != nil {
		slog.Error("post lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if post == nil || post.Status != models.ModerationApproved {
		http.NotFound(w, r)
		return
	}

	content := strings.TrimSpace(sanitize.Comment(r.FormValue("content")))
	if content == "" || len(content) > 2000 {
		session.AddFlash(w, r, "error", "Komentarz nie może być pusty.")
		http.Redirect(w, r, "/blog/"+post.Slug, http.StatusSeeOther)
		return
	}

	if _, err := b.commentStore.Create(&models.Comment{
		Content: content,
		UserID:  sess.UserID,
		PostID:  &post.ID,
	}); err != nil {
		slog.Error("comment create failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	session.AddFlash(w, r, "success", "Komentarz pojawi się po zatwierdzeniu.")
	http.Redirect(w, r, "/blog/"+post.Slug, http.StatusSeeOther)
}

// freeSlug derives an unused slug from the post title.
func (b *Blog) freeSlug(title string) (string, error) {
	base := slug.Generate(title)
	candidate := base
	for i := 2; ; i++ {
		existing, err := b.postStore.FindBySlug(candidate)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}
