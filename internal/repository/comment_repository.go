package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/condortrails/tour-booking-api/internal/model"
)

// ErrCommentNotFound indicates that a comment was not located in the DB.
var ErrCommentNotFound = errors.New("comment not found")

// CommentRepo manages persistence for tour comments and their
// moderation lifecycle.
type CommentRepo struct {
	db *sql.DB
}

// NewCommentRepo constructs a CommentRepo with the given DB handle.
func NewCommentRepo(db *sql.DB) *CommentRepo {
	return &CommentRepo{db: db}
}

// Create inserts a new comment in the pending moderation state and
// populates the generated ID and timestamps on the given record.
func (r *CommentRepo) Create(ctx context.Context, c *model.Comment) error {
	const q = `INSERT INTO comments (user_id, tour_id, rating, body) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, c.UserID, c.TourID, c.Rating, c.Body)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	const sel = `SELECT status, created_at, updated_at FROM comments WHERE id = ?`
	var status string
	if err := r.db.QueryRowContext(ctx, sel, c.ID).Scan(&status, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return err
	}
	c.Status = model.CommentStatus(status)
	return nil
}

// PublicComment is the sanitized shape returned for approved comments
// on public tour pages.
type PublicComment struct {
	ID        uint64 `json:"id"`
	UserName  string `json:"user_name"`
	Rating    *int   `json:"rating,omitempty"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
}

// ListApprovedByTour returns the approved comments of a tour newest
// first, with the author's display name resolved.
func (r *CommentRepo) ListApprovedByTour(ctx context.Context, tourID uint64) ([]PublicComment, error) {
	const q = `SELECT c.id, u.name, c.rating, c.body, c.created_at
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.tour_id = ? AND c.status = 'approved'
		ORDER BY c.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, tourID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make([]PublicComment, 0)
	for rows.Next() {
		var (
			pc        PublicComment
			rating    sql.NullInt64
			createdAt sql.NullTime
		)
		if err := rows.Scan(&pc.ID, &pc.UserName, &rating, &pc.Body, &createdAt); err != nil {
			return nil, err
		}
		if rating.Valid {
			v := int(rating.Int64)
			pc.Rating = &v
		}
		if createdAt.Valid {
			pc.CreatedAt = createdAt.Time.UTC().Format(time.RFC3339)
		}
		result = append(result, pc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListByStatus returns all comments, optionally narrowed to one
// moderation status, newest first.  Used by the moderation queue.
func (r *CommentRepo) ListByStatus(ctx context.Context, status *model.CommentStatus) ([]model.Comment, error) {
	q := `SELECT id, user_id, tour_id, rating, body, status, admin_reply, created_at, updated_at
		FROM comments`
	args := make([]interface{}, 0, 1)
	if status != nil {
		q += " WHERE status = ?"
		args = append(args, string(*status))
	}
	q += " ORDER BY created_at DESC"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make([]model.Comment, 0)
	for rows.Next() {
		var (
			c      model.Comment
			st     string
			rating sql.NullInt64
			reply  sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.UserID, &c.TourID, &rating, &c.Body, &st, &reply, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		c.Status = model.CommentStatus(st)
		if rating.Valid {
			v := int(rating.Int64)
			c.Rating = &v
		}
		if reply.Valid {
			v := reply.String
			c.AdminReply = &v
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// SetStatus moves a comment to the given moderation status, recording
// an optional admin reply.  Returns ErrCommentNotFound when the
// comment does not exist.
func (r *CommentRepo) SetStatus(ctx context.Context, id uint64, status model.CommentStatus, reply *string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE comments SET status = ?, admin_reply = ? WHERE id = ?",
		string(status), reply, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists bool
		if err := r.db.QueryRowContext(ctx, "SELECT TRUE FROM comments WHERE id = ?", id).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrCommentNotFound
			}
			return err
		}
	}
	return nil
}

// Delete permanently removes a comment.  Returns ErrCommentNotFound
// when the comment does not exist.
func (r *CommentRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM comments WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCommentNotFound
	}
	return nil
}
