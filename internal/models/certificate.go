package models

import "time"

// Certificate records a completed course for a user. Issuance is idempotent
// per (user, course) so event redelivery cannot double-issue.
type Certificate struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	CourseID    string    `db:"course_id" json:"course_id"`
	CourseTitle string    `db:"course_title" json:"course_title"`
	Score       float64   `db:"score" json:"score"`
	IssuedAt    time.Time `db:"issued_at" json:"issued_at"`
}
