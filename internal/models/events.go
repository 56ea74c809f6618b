package models

// CourseProgressEvent is the msgpack payload published by course runtimes
// on lms.progress.<course_id>. Completed events drive certificate issuance.
type CourseProgressEvent struct {
	V           int     `msgpack:"v"`
	TS          int64   `msgpack:"ts"`
	UserID      string  `msgpack:"user_id"`
	CourseID    string  `msgpack:"course_id"`
	CourseTitle string  `msgpack:"course_title"`
	Completed   bool    `msgpack:"completed"`
	Score       float64 `msgpack:"score"`
}

// NotificationEvent is the msgpack payload published on
// lms.notify.user.<user_id> for live delivery to subscribed clients.
type NotificationEvent struct {
	V              int    `msgpack:"v"`
	TS             int64  `msgpack:"ts"`
	NotificationID string `msgpack:"notification_id"`
	UserID         string `msgpack:"user_id"`
	Kind           string `msgpack:"kind"`
	Title          string `msgpack:"title"`
}
