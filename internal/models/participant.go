package models

import "time"

// Participant is one connected member of a session. Its ID is the
// connection identity: a fresh connection is always a fresh participant,
// even for the same person rejoining with the same name.
type Participant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Connected bool      `json:"connected"`
	JoinedAt  time.Time `json:"joinedAt"`
}

func NewParticipant(id, name string) *Participant {
	return &Participant{
		ID:        id,
		Name:      name,
		Connected: true,
		JoinedAt:  time.Now(),
	}
}
