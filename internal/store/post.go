package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"bimberek/internal/models"
)

const postColumns = `p.id, p.title, p.slug, p.body_html, p.status, p.author_id,
       p.created_at, p.updated_at, COALESCE(u.handle, '')`

// PostStore handles blog post database operations.
type PostStore struct {
	db *sql.DB
}

// NewPostStore creates a new PostStore with the given database connection.
func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{db: db}
}

func scanPost(row interface{ Scan(...any) error }) (*models.Post, error) {
	p := &models.Post{}
	err := row.Scan(
		&p.ID, &p.Title, &p.Slug, &p.BodyHTML, &p.Status, &p.AuthorID,
		&p.CreatedAt, &p.UpdatedAt, &p.AuthorHandle,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListApproved returns a page of approved posts, newest first. Page
// numbers start at 1. This is the public blog listing.
func (s *PostStore) ListApproved(page, perPage int) ([]models.Post, int, error) {
	if page < 1 {
		page = 1
	}

	var total int
	if err := s.db.QueryRow(
		`SELECT COUNT(*) FROM posts WHERE status = $1`, models.ModerationApproved,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count approved posts: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT `+postColumns+`
		FROM posts p
		LEFT JOIN users u ON u.id = p.author_id
		WHERE p.status = $1
		ORDER BY p.created_at DESC
		LIMIT $2 OFFSET $3
	`, models.ModerationApproved, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list approved posts: %w", err)
	}
	defer rows.Close()

	posts, err := collectPosts(rows)
	return posts, total, err
}

// ListByStatus returns all posts with the given status, oldest first,
// for the moderation queue.
func (s *PostStore) ListByStatus(status models.ModerationStatus) ([]models.Post, error) {
	rows, err := s.db.Query(`
		SELECT `+postColumns+`
		FROM posts p
		LEFT JOIN users u ON u.id = p.author_id
		WHERE p.status = $1
		ORDER BY p.created_at ASC
	`, status)
	if err != nil {
		return nil, fmt.Errorf("list posts by status: %w", err)
	}
	defer rows.Close()
	return collectPosts(rows)
}

// ListByAuthor returns all posts by a user, newest first, regardless of
// status. Authors see their own pending and rejected posts.
func (s *PostStore) ListByAuthor(authorID uuid.UUID) ([]models.Post, error) {
	rows, err := s.db.Query(`
		SELECT `+postColumns+`
		FROM posts p
		LEFT JOIN users u ON u.id = p.author_id
		WHERE p.author_id = $1
		ORDER BY p.created_at DESC
	`, authorID)
	if err != nil {
		return nil, fmt.Errorf("list posts by author: %w", err)
	}
	defer rows.Close()
	return collectPosts(rows)
}

// FindByID retrieves a post by its UUID. Returns nil if not found.
func (s *PostStore) FindByID(id uuid.UUID) (*models.Post, error) {
	p, err := scanPost(s.db.QueryRow(`
		SELECT `+postColumns+`
		FROM posts p
		LEFT JOIN users u ON u.id = p.author_id
		WHERE p.id = $1
	`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post by id: %w", err)
	}
	return p, nil
}

// FindApprovedBySlug retrieves an approved post by slug, for the public
// post page. Returns nil if not found or not approved.
func (s *PostStore) FindApprovedBySlug(slug string) (*models.Post, error) {
	p, err := scanPost(s.db.QueryRow(`
		SELECT `+postColumns+`
		FROM posts p
		LEFT JOIN users u ON u.id = p.author_id
		WHERE p.slug = $1 AND p.status = $2
	`, slug, models.ModerationApproved))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post by slug: %w", err)
	}
	return p, nil
}

// FindBySlug retrieves a post by slug regardless of status, so authors
// and moderators can preview pending posts. Returns nil if not found.
func (s *PostStore) FindBySlug(slug string) (*models.Post, error) {
	p, err := scanPost(s.db.QueryRow(`
		SELECT `+postColumns+`
		FROM posts p
		LEFT JOIN users u ON u.id = p.author_id
		WHERE p.slug = $1
	`, slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post by slug: %w", err)
	}
	return p, nil
}

// Create inserts a new post and returns it with the generated ID.
// Status is set by the caller: staff posts go straight to approved,
// user submissions start pending.
func (s *PostStore) Create(p *models.Post) (*models.Post, error) {
	result := &models.Post{AuthorHandle: p.AuthorHandle}
	err := s.db.QueryRow(`
		INSERT INTO posts (title, slug, body_html, status, author_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, title, slug, body_html, status, author_id, created_at, updated_at
	`, p.Title, p.Slug, p.BodyHTML, p.Status, p.AuthorID).Scan(
		&result.ID, &result.Title, &result.Slug, &result.BodyHTML,
		&result.Status, &result.AuthorID, &result.CreatedAt, &result.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return result, nil
}

// Update modifies a post's content.
func (s *PostStore) Update(p *models.Post) error {
	_, err := s.db.Exec(`
		UPDATE posts SET title = $1, slug = $2, body_html = $3, updated_at = NOW()
		WHERE id = $4
	`, p.Title, p.Slug, p.BodyHTML, p.ID)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	return nil
}

// SetStatus moves a pending post to approved or rejected and reports
// whether the transition happened. Approved and rejected are terminal;
// re-moderating a decided post is a no-op returning false.
func (s *PostStore) SetStatus(id uuid.UUID, status models.ModerationStatus) (bool, error) {
	result, err := s.db.Exec(`
		UPDATE posts SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`, status, id, models.ModerationPending)
	if err != nil {
		return false, fmt.Errorf("set post status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set post status: %w", err)
	}
	return n > 0, nil
}

// Delete removes a post and, via cascade, its comments and reports.
func (s *PostStore) Delete(id uuid.UUID) error {
	if _, err := s.db.Exec(`DELETE FROM posts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}

func collectPosts(rows *sql.Rows) ([]models.Post, error) {
	var posts []models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}
