package booking

// Snapshot is a point-in-time view of rooms and requests handed to the engine.
type Snapshot struct {
	Rooms    []Room
	Requests []Request
}

// FindRoom returns the room with the given id.
func (s Snapshot) FindRoom(id string) (Room, error) {
	for _, room := range s.Rooms {
		if room.ID == id {
			return room, nil
		}
	}
	return Room{}, &NotFoundError{Kind: "room", ID: id}
}

// FindRequest returns a copy of the request with the given id.
func (s Snapshot) FindRequest(id string) (Request, error) {
	for _, req := range s.Requests {
		if req.ID == id {
			return req.Clone(), nil
		}
	}
	return Request{}, &NotFoundError{Kind: "request", ID: id}
}

// RoomOccurrences returns every occurrence of roomID across live requests.
// Occurrences of cancelled requests are treated as if they never existed.
func (s Snapshot) RoomOccurrences(roomID string) []Occurrence {
	var out []Occurrence
	for _, req := range s.Requests {
		if req.Status == StatusCancelled {
			continue
		}
		for _, occ := range req.Occurrences {
			if occ.RoomID == roomID {
				out = append(out, occ)
			}
		}
	}
	return out
}

// Replace returns a new snapshot with the request of the same id swapped for req, or req
// appended when it is new.
func (s Snapshot) Replace(req Request) Snapshot {
	requests := make([]Request, 0, len(s.Requests)+1)
	replaced := false
	for _, existing := range s.Requests {
		if existing.ID == req.ID {
			requests = append(requests, req.Clone())
			replaced = true
			continue
		}
		requests = append(requests, existing)
	}
	if !replaced {
		requests = append(requests, req.Clone())
	}
	return Snapshot{Rooms: s.Rooms, Requests: requests}
}
