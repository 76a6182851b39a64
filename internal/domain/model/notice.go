package model

// NoticeKind classifies a message shown to the person at the kiosk.
type NoticeKind string

// Notice kinds.
const (
	KindAccepted NoticeKind = "accepted"
	KindRejected NoticeKind = "rejected"
	KindEnrolled NoticeKind = "enrolled"
	KindError    NoticeKind = "error"
	KindInfo     NoticeKind = "info"
)
