package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"bimberek/internal/models"
)

// ReportStore handles moderation ticket and message thread operations.
type ReportStore struct {
	db *sql.DB
}

// NewReportStore creates a new ReportStore with the given database connection.
func NewReportStore(db *sql.DB) *ReportStore {
	return &ReportStore{db: db}
}

// Create opens a report against a comment or a post. Exactly one of
// CommentID and PostID must be set; the database CHECK rejects the rest.
func (s *ReportStore) Create(r *models.Report) (*models.Report, error) {
	result := &models.Report{ReporterHandle: r.ReporterHandle}
	err := s.db.QueryRow(`
		INSERT INTO reports (comment_id, post_id, reporter_id, reason)
		VALUES ($1, $2, $3, $4)
		RETURNING id, comment_id, post_id, reporter_id, reason, status, created_at
	`, r.CommentID, r.PostID, r.ReporterID, r.Reason).Scan(
		&result.ID, &result.CommentID, &result.PostID,
		&result.ReporterID, &result.Reason, &result.Status, &result.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}
	return result, nil
}

// ListByStatus returns reports in the given state, oldest first, with
// the reporter's handle for display.
func (s *ReportStore) ListByStatus(status models.ReportStatus) ([]models.Report, error) {
	rows, err := s.db.Query(`
		SELECT r.id, r.comment_id, r.post_id, r.reporter_id, r.reason, r.status,
		       r.created_at, u.handle
		FROM reports r
		JOIN users u ON u.id = r.reporter_id
		WHERE r.status = $1
		ORDER BY r.created_at ASC
	`, status)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var reports []models.Report
	for rows.Next() {
		var r models.Report
		if err := rows.Scan(
			&r.ID, &r.CommentID, &r.PostID, &r.ReporterID,
			&r.Reason, &r.Status, &r.CreatedAt, &r.ReporterHandle,
		); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// FindByID retrieves a report by its UUID. Returns nil if not found.
func (s *ReportStore) FindByID(id uuid.UUID) (*models.Report, error) {
	r := &models.Report{}
	err := s.db.QueryRow(`
		SELECT r.id, r.comment_id, r.post_id, r.reporter_id, r.reason, r.status,
		       r.created_at, u.handle
		FROM reports r
		JOIN users u ON u.id = r.reporter_id
		WHERE r.id = $1
	`, id).Scan(
		&r.ID, &r.CommentID, &r.PostID, &r.ReporterID,
		&r.Reason, &r.Status, &r.CreatedAt, &r.ReporterHandle,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find report by id: %w", err)
	}
	return r, nil
}

// Close marks a report closed.
func (s *ReportStore) Close(id uuid.UUID) error {
	_, err := s.db.Exec(`
		UPDATE reports SET status = $1 WHERE id = $2
	`, models.ReportClosed, id)
	if err != nil {
		return fmt.Errorf("close report: %w", err)
	}
	return nil
}

// AddMessage appends a message to the report's discussion thread.
func (s *ReportStore) AddMessage(reportID, senderID uuid.UUID, content string) (*models.ModeratorMessage, error) {
	m := &models.ModeratorMessage{}
	err := s.db.QueryRow(`
		INSERT INTO moderator_messages (report_id, sender_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, report_id, sender_id, content, created_at
	`, reportID, senderID, content).Scan(
		&m.ID, &m.ReportID, &m.SenderID, &m.Content, &m.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("add report message: %w", err)
	}
	return m, nil
}

// Messages returns a report's discussion thread, oldest first.
func (s *ReportStore) Messages(reportID uuid.UUID) ([]models.ModeratorMessage, error) {
	rows, err := s.db.Query(`
		SELECT m.id, m.report_id, m.sender_id, m.content, m.created_at, u.handle
		FROM moderator_messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.report_id = $1
		ORDER BY m.created_at ASC
	`, reportID)
	if err != nil {
		return nil, fmt.Errorf("list report messages: %w", err)
	}
	defer rows.Close()

	var messages []models.ModeratorMessage
	for rows.Next() {
		var m models.ModeratorMessage
		if err := rows.Scan(
			&m.ID, &m.ReportID, &m.SenderID, &m.Content, &m.CreatedAt, &m.SenderHandle,
		); err != nil {
			return nil, fmt.Errorf("scan report message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
