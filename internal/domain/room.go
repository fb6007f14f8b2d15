package domain

// DefaultRoom is used when a join does not name a room.
const DefaultRoom RoomName = "__default"

type RoomName string

// RoomOrDefault maps the empty name to DefaultRoom.
func RoomOrDefault(name string) RoomName {
	if name == "" {
		return DefaultRoom
	}
	return RoomName(name)
}
