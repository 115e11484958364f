package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"bimberek/internal/models"
)

const commentColumns = `c.id, c.content, c.status, c.user_id, c.product_id, c.post_id,
       c.created_at, u.handle,
       COALESCE((SELECT SUM(v.value) FROM comment_votes v WHERE v.comment_id = c.id), 0)`

// CommentStore handles comment and vote database operations.
type CommentStore struct {
	db *sql.DB
}

// NewCommentStore creates a new CommentStore with the given database connection.
func NewCommentStore(db *sql.DB) *CommentStore {
	return &CommentStore{db: db}
}

func scanComment(row interface{ Scan(...any) error }) (*models.Comment, error) {
	c := &models.Comment{}
	err := row.Scan(
		&c.ID, &c.Content, &c.Status, &c.UserID, &c.ProductID, &c.PostID,
		&c.CreatedAt, &c.UserHandle, &c.Score,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListApprovedForProduct returns the approved comments on a product,
// oldest first, with handles and vote scores.
func (s *CommentStore) ListApprovedForProduct(productID uuid.UUID) ([]models.Comment, error) {
	return s.listApproved("c.product_id", productID)
}

// ListApprovedForPost returns the approved comments on a post,
// oldest first, with handles and vote scores.
func (s *CommentStore) ListApprovedForPost(postID uuid.UUID) ([]models.Comment, error) {
	return s.listApproved("c.post_id", postID)
}

// ListVisibleForProduct returns the comments a viewer sees on a product
// page: everyone's approved comments plus the viewer's own pending
// ones. A nil viewer sees only approved comments.
func (s *CommentStore) ListVisibleForProduct(productID uuid.UUID, viewerID *uuid.UUID) ([]models.Comment, error) {
	return s.listVisible("c.product_id", productID, viewerID)
}

// ListVisibleForPost is ListVisibleForProduct for blog posts.
func (s *CommentStore) ListVisibleForPost(postID uuid.UUID, viewerID *uuid.UUID) ([]models.Comment, error) {
	return s.listVisible("c.post_id", postID, viewerID)
}

func (s *CommentStore) listVisible(column string, target uuid.UUID, viewerID *uuid.UUID) ([]models.Comment, error) {
	if viewerID == nil {
		return s.listApproved(column, target)
	}

	rows, err := s.db.Query(`
		SELECT `+commentColumns+`
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE `+column+` = $1
		  AND (c.status = $2 OR (c.user_id = $3 AND c.status = $4))
		ORDER BY c.created_at ASC
	`, target, models.ModerationApproved, *viewerID, models.ModerationPending)
	if err != nil {
		return nil, fmt.Errorf("list visible comments: %w", err)
	}
	defer rows.Close()
	return collectComments(rows)
}

func (s *CommentStore) listApproved(column string, target uuid.UUID) ([]models.Comment, error) {
	rows, err := s.db.Query(`
		SELECT `+commentColumns+`
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE `+column+` = $1 AND c.status = $2
		ORDER BY c.created_at ASC
	`, target, models.ModerationApproved)
	if err != nil {
		return nil, fmt.Errorf("list approved comments: %w", err)
	}
	defer rows.Close()
	return collectComments(rows)
}

// ListByStatus returns all comments with the given status, oldest
// first, for the moderation queue.
func (s *CommentStore) ListByStatus(status models.ModerationStatus) ([]models.Comment, error) {
	rows, err := s.db.Query(`
		SELECT `+commentColumns+`
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.status = $1
		ORDER BY c.created_at ASC
	`, status)
	if err != nil {
		return nil, fmt.Errorf("list comments by status: %w", err)
	}
	defer rows.Close()
	return collectComments(rows)
}

// FindByID retrieves a comment by its UUID. Returns nil if not found.
func (s *CommentStore) FindByID(id uuid.UUID) (*models.Comment, error) {
	c, err := scanComment(s.db.QueryRow(`
		SELECT `+commentColumns+`
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.id = $1
	`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find comment by id: %w", err)
	}
	return c, nil
}

// Create inserts a comment. Exactly one of ProductID and PostID must be
// set; the database CHECK rejects the rest. New comments start pending.
func (s *CommentStore) Create(c *models.Comment) (*models.Comment, error) {
	result := &models.Comment{UserHandle: c.UserHandle}
	err := s.db.QueryRow(`
		INSERT INTO comments (content, status, user_id, product_id, post_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, content, status, user_id, product_id, post_id, created_at
	`, c.Content, models.ModerationPending, c.UserID, c.ProductID, c.PostID).Scan(
		&result.ID, &result.Content, &result.Status, &result.UserID,
		&result.ProductID, &result.PostID, &result.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return result, nil
}

// SetStatus moves a pending comment to approved or rejected and reports
// whether the transition happened. Approved and rejected are terminal;
// re-moderating a decided comment is a no-op returning false.
func (s *CommentStore) SetStatus(id uuid.UUID, status models.ModerationStatus) (bool, error) {
	result, err := s.db.Exec(`
		UPDATE comments SET status = $1
		WHERE id = $2 AND status = $3
	`, status, id, models.ModerationPending)
	if err != nil {
		return false, fmt.Errorf("set comment status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set comment status: %w", err)
	}
	return n > 0, nil
}

// Delete removes a comment and, via cascade, its votes and reports.
func (s *CommentStore) Delete(id uuid.UUID) error {
	if _, err := s.db.Exec(`DELETE FROM comments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}

// Vote records a +1/-1 vote on a comment. A user voting again replaces
// their previous vote rather than stacking.
func (s *CommentStore) Vote(commentID, userID uuid.UUID, value int) error {
	if value != 1 && value != -1 {
		return fmt.Errorf("vote comment: value must be 1 or -1, got %d", value)
	}
	_, err := s.db.Exec(`
		INSERT INTO comment_votes (comment_id, user_id, value)
		VALUES ($1, $2, $3)
		ON CONFLICT ON CONSTRAINT uq_comment_vote
		DO UPDATE SET value = EXCLUDED.value
	`, commentID, userID, value)
	if err != nil {
		return fmt.Errorf("vote comment: %w", err)
	}
	return nil
}

// Unvote removes a user's vote from a comment, if any.
func (s *CommentStore) Unvote(commentID, userID uuid.UUID) error {
	_, err := s.db.Exec(`
		DELETE FROM comment_votes WHERE comment_id = $1 AND user_id = $2
	`, commentID, userID)
	if err != nil {
		return fmt.Errorf("unvote comment: %w", err)
	}
	return nil
}

func collectComments(rows *sql.Rows) ([]models.Comment, error) {
	var comments []models.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, *c)
	}
	return comments, rows.Err()
}
