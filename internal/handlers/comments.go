package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"bimberek/internal/middleware"
	"bimberek/internal/models"
	"bimberek/internal/sanitize"
	"bimberek/internal/session"
	"bimberek/internal/store"
)

// Comments groups product comment creation, comment voting and the
// report endpoints shared between comments and posts.
type Comments struct {
	commentStore *store.CommentStore
	postStore    *store.PostStore
	productStore *store.ProductStore
	reportStore  *store.ReportStore
}

// NewComments creates the Comments handler group.
func NewComments(comments *store.CommentStore, posts *store.PostStore, products *store.ProductStore, reports *store.ReportStore) *Comments {
	return &Comments{
		commentStore: comments,
		postStore:    posts,
		productStore: products,
		reportStore:  reports,
	}
}

// CreateForProduct adds a pending comment to a product page.
func (h *Comments) CreateForProduct(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	productID, err := urlUUID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	product, err := h.productStore.FindByID(productID)
	if err != nil {
		slog.Error("product lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if product == nil {
		http.NotFound(w, r)
		return
	}

	content := strings.TrimSpace(sanitize.Comment(r.FormValue("content")))
	if content == "" || len(content) > 2000 {
		session.AddFlash(w, r, "error", "Komentarz nie może być pusty.")
		http.Redirect(w, r, "/products/"+product.Slug, http.StatusSeeOther)
		return
	}

	if _, err := h.commentStore.Create(&models.Comment{
		Content:   content,
		UserID:    sess.UserID,
		ProductID: &product.ID,
	}); err != nil {
		slog.Error("comment create failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	session.AddFlash(w, r, "success", "Komentarz pojawi się po zatwierdzeniu.")
	http.Redirect(w, r, "/products/"+product.Slug, http.StatusSeeOther)
}

// Vote records a +1/-1 vote on a comment. Re-voting replaces the
// previous value.
func (h *Comments) Vote(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	commentID, err := urlUUID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	value, err := strconv.Atoi(r.FormValue("value"))
	if err != nil || (value != 1 && value != -1) {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	comment, err := h.commentStore.FindByID(commentID)
	if err != nil {
		slog.Error("comment lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if comment == nil || comment.Status != models.ModerationApproved {
		http.NotFound(w, r)
		return
	}

	if err := h.commentStore.Vote(comment.ID, sess.UserID, value); err != nil {
		slog.Error("comment vote failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, h.commentPage(comment), http.StatusSeeOther)
}

// ReportComment opens a moderation ticket against a comment.
func (h *Comments) ReportComment(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	commentID, err := urlUUID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	comment, err := h.commentStore.FindByID(commentID)
	if err != nil {
		slog.Error("comment lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if comment == nil {
		http.NotFound(w, r)
		return
	}

	if _, err := h.reportStore.Create(&models.Report{
		CommentID:  &comment.ID,
		ReporterID: sess.UserID,
		Reason:     reportReason(r),
	}); err != nil {
		slog.Error("report create failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	session.AddFlash(w, r, "success", "Dziękujemy za zgłoszenie.")
	http.Redirect(w, r, h.commentPage(comment), http.StatusSeeOther)
}

// ReportPost opens a moderation ticket against a blog post.
func (h *Comments) ReportPost(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	postID, err := urlUUID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	post, err := h.postStore.FindByID(postID)
	if err != nil {
		slog.Error("post lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if post == nil {
		http.NotFound(w, r)
		return
	}

	if _, err := h.reportStore.Create(&models.Report{
		PostID:     &post.ID,
		ReporterID: sess.UserID,
		Reason:     reportReason(r),
	}); err != nil {
		slog.Error("report create failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	session.AddFlash(w, r, "success", "Dziękujemy za zgłoszenie.")
	http.Redirect(w, r, "/blog/"+post.Slug, http.StatusSeeOther)
}

// commentPage returns the page a comment lives on, for post-action
// redirects.
func (h *Comments) commentPage(comment *models.Comment) string {
	if comment.ProductID != nil {
		product, err := h.productStore.FindByID(*comment.ProductID)
		if err == nil && product != nil {
			return "/products/" + product.Slug
		}
	}
	if comment.PostID != nil {
		post, err := h.postStore.FindByID(*comment.PostID)
		if err == nil && post != nil {
			return "/blog/" + post.Slug
		}
	}
	return "/"
}

// reportReason reads the optional reason field, with a fallback for the
// one-click report buttons.
func reportReason(r *http.Request) string {
	reason := strings.TrimSpace(r.FormValue("reason"))
	if reason == "" {
		reason = "Zgłoszenie użytkownika"
	}
	if len(reason) > 500 {
		reason = reason[:500]
	}
	return reason
}
