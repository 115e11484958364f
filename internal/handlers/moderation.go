package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"bimberek/internal/middleware"
	"bimberek/internal/models"
	"bimberek/internal/render"
	"bimberek/internal/session"
	"bimberek/internal/store"
)

// Moderation groups the staff moderation handlers: comment and post
// queues plus the report ticket workflow.
type Moderation struct {
	renderer     *render.Renderer
	commentStore *store.CommentStore
	postStore    *store.PostStore
	reportStore  *store.ReportStore
	themeStore   *store.ThemeStore
}

// NewModeration creates the Moderation handler group.
func NewModeration(renderer *render.Renderer, comments *store.CommentStore, posts *store.PostStore, reports *store.ReportStore, themes *store.ThemeStore) *Moderation {
	return &Moderation{
		renderer:     renderer,
		commentStore: comments,
		postStore:    posts,
		reportStore:  reports,
		themeStore:   themes,
	}
}

// CommentQueue renders pending comments, oldest first.
func (m *Moderation) CommentQueue(w http.ResponseWriter, r *http.Request) {
	comments, err := m.commentStore.ListByStatus(models.ModerationPending)
	if err != nil {
		slog.Error("comment queue failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	m.renderer.Page(w, r, "moderation", &render.PageData{
		Title:   "Moderacja",
		Section: "admin",
		Data: map[string]any{
			"Tab":      "comments",
			"Comments": comments,
			"Theme":    themeFor(r, m.themeStore),
		},
	})
}

// PostQueue renders pending blog posts, oldest first.
func (m *Moderation) PostQueue(w http.ResponseWriter, r *http.Request) {
	posts, err := m.postStore.ListByStatus(models.ModerationPending)
	if err != nil {
		slog.Error("post queue failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	m.renderer.Page(w, r, "moderation", &render.PageData{
		Title:   "Moderacja",
		Section: "admin",
		Data: map[string]any{
			"Tab":   "posts",
			"Posts": posts,
			"Theme": themeFor(r, m.themeStore),
		},
	})
}

// ApproveComment publishes a pending comment.
func (m *Moderation) ApproveComment(w http.ResponseWriter, r *http.Request) {
	m.setCommentStatus(w, r, models.ModerationApproved)
}

// RejectComment hides a pending comment.
func (m *Moderation) RejectComment(w http.ResponseWriter, r *http.Request) {
	m.setCommentStatus(w, r, models.ModerationRejected)
}

func (m *Moderation) setCommentStatus(w http.ResponseWriter, r *http.Request, status models.ModerationStatus) {
	id, err := urlUUID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	transitioned, err := m.commentStore.SetStatus(id, status)
	if err != nil {
		slog.Error("comment status failed", "error", err, "comment_id", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if !transitioned {
		session.AddFlash(w, r, "info", "Ten komentarz został już rozpatrzony.")
	}
	http.Redirect(w, r, "/moderation", http.StatusSeeOther)
}

// ApprovePost publishes a pending post.
func (m *Moderation) ApprovePost(w http.ResponseWriter, r *http.Request) {
	m.setPostStatus(w, r, models.ModerationApproved)
}

// RejectPost hides a pending post.
func (m *Moderation) RejectPost(w http.ResponseWriter, r *http.Request) {
	m.setPostStatus(w, r, models.ModerationRejected)
}

func (m *Moderation) setPostStatus(w http.ResponseWriter, r *http.Request, status models.ModerationStatus) {
	id, err := urlUUID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	transitioned, err := m.postStore.SetStatus(id, status)
	if err != nil {
		slog.Error("post status failed", "error", err, "post_id", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if !transitioned {
		session.AddFlash(w, r, "info", "Ten wpis został już rozpatrzony.")
	}
	http.Redirect(w, r, "/moderation/posts", http.StatusSeeOther)
}

// Reports lists moderation tickets, open ones by default.
func (m *Moderation) Reports(w http.ResponseWriter, r *http.Request) {
	status := models.ReportOpen
	if r.URL.Query().Get("status") == "closed" {
		status = models.ReportClosed
	}

	reports, err := m.reportStore.ListByStatus(status)
	if err != nil {
		slog.Error("report list failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	m.renderer.Page(w, r, "reports", &render.PageData{
		Title:   "Zgłoszenia",
		Section: "admin",
		Data: map[string]any{
			"Status":  string(status),
			"Reports": reports,
			"Theme":   themeFor(r, m.themeStore),
		},
	})
}

// ReportDetail renders one ticket with the reported content and the
// moderator discussion thread.
func (m *Moderation) ReportDetail(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	report, err := m.reportStore.FindByID(id)
	if err != nil {
		slog.Error("report lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if report == nil {
		http.NotFound(w, r)
		return
	}

	messages, err := m.reportStore.Messages(report.ID)
	if err != nil {
		slog.Error("report messages failed", "error", err)
	}

	m.renderer.Page(w, r, "report_detail", &render.PageData{
		Title:   "Zgłoszenie",
		Section: "admin",
		Data: map[string]any{
			"Report":   report,
			"Messages": messages,
			"Target":   m.reportedContent(report),
			"Theme":    themeFor(r, m.themeStore),
		},
	})
}

// ReportMessage appends a message to the ticket thread.
func (m *Moderation) ReportMessage(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	id, err := urlUUID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	content := strings.TrimSpace(r.FormValue("content"))
	if content == "" {
		http.Redirect(w, r, "/moderation/reports/"+id.String(), http.StatusSeeOther)
		return
	}

	if _, err := m.reportStore.AddMessage(id, sess.UserID, content); err != nil {
		slog.Error("report message failed", "error", err, "report_id", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/moderation/reports/"+id.String(), http.StatusSeeOther)
}

// ReportClose closes a ticket.
func (m *Moderation) ReportClose(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := m.reportStore.Close(id); err != nil {
		slog.Error("report close failed", "error", err, "report_id", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	session.AddFlash(w, r, "success", "Zgłoszenie zamknięte.")
	http.Redirect(w, r, "/moderation/reports", http.StatusSeeOther)
}

// reportedContent fetches the text of the reported comment or post for
// display on the ticket page.
func (m *Moderation) reportedContent(report *models.Report) string {
	if report.CommentID != nil {
		comment, err := m.commentStore.FindByID(*report.CommentID)
		if err == nil && comment != nil {
			return comment.Content
		}
	}
	if report.PostID != nil {
		post, err := m.postStore.FindByID(*report.PostID)
		if err == nil && post != nil {
			return post.Title
		}
	}
	return ""
}
