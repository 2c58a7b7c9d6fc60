package model

import "time"

// Comment is a customer review on a tour.  Comments start in the
// pending moderation state and only approved ones are publicly
// visible.  AdminReply is the operator's optional response recorded
// when a comment is rejected or answered.
type Comment struct {
    ID         uint64        // comments.id
    UserID     uint64        // comments.user_id
    TourID     uint64        // comments.tour_id
    Rating     *int          // comments.rating (nullable, 1..5)
    Body       string        // comments.body
    Status     CommentStatus // comments.status
    AdminReply *string       // comments.admin_reply (nullable)
    CreatedAt  time.Time     // comments.created_at
    UpdatedAt  time.Time     // comments.updated_at
}
