package domain

import "time"

// BookingMessage is an append-only message in a booking thread
type BookingMessage struct {
	ID        int64
	BookingID int64
	SenderID  int64
	Content   string
	CreatedAt time.Time
}

// ReadMarker is the moment a participant last read a booking thread
type ReadMarker struct {
	BookingID  int64
	UserID     int64
	LastReadAt time.Time
}

// UnreadBookingMessage is the newest unseen message of a thread for a viewer
type UnreadBookingMessage struct {
	BookingID       int64
	SenderID        int64
	SenderName      string
	LatestMessage   string
	LatestMessageAt time.Time
}
