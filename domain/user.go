// Package domain contains core concepts of the voice chat system.
// No runtime, network, or UI logic should be added here.
package domain

// User is a registered participant identity. Users are never deleted;
// their lifetime is the lifetime of the process.
type User struct {
	ID           UserID
	Name         string
	Rooms        []RoomID // membership in join order
	MessagesSent int
}

// InRoom reports whether the user currently lists the room.
func (u *User) InRoom(id RoomID) bool {
	for _, r := range u.Rooms {
		if r == id {
			return true
		}
	}
	return false
}

// AddRoom appends the room to the user's membership list, preserving order.
func (u *User) AddRoom(id RoomID) {
	if !u.InRoom(id) {
		u.Rooms = append(u.Rooms, id)
	}
}

// RemoveRoom drops the room from the user's membership list.
func (u *User) RemoveRoom(id RoomID) {
	for i, r := range u.Rooms {
		if r == id {
			u.Rooms = append(u.Rooms[:i], u.Rooms[i+1:]...)
			return
		}
	}
}
