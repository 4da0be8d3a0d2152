package domain

import "time"

// RoomSnapshot is an immutable read model of a room with participant names
// resolved. Snapshots are detached copies; mutating one has no effect on the
// registry's state.
type RoomSnapshot struct {
	ID               RoomID
	Name             string
	HostName         string
	ParticipantNames []string // join order
	ParticipantCount int
	Active           bool
	CreatedAt        time.Time
	LastActivity     time.Time
	MessageCount     int
}
