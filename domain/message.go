package domain

import "time"

// Message represents an immutable stored voice message. The payload is opaque
// bytes; Codec is a best-effort sniff of its container format.
type Message struct {
	ID         MessageID
	SenderID   UserID
	RoomID     RoomID
	Sequence   int // 1-based, gap-free per room
	Payload    []byte
	PayloadLen int
	SlotIndex  int
	Codec      string
	CreatedAt  time.Time
}
