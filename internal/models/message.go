package models

type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// Client → Server message types
const (
	MsgTypeJoinSession = "join-session"
	MsgTypeCastVote    = "cast-vote"
	MsgTypeRevealVotes = "reveal-votes"
	MsgTypeResetVotes  = "reset-votes"
)

// Server → Client message types
const (
	MsgTypeSessionState      = "session-state" // Initial state sync on join
	MsgTypeParticipantJoined = "participant-joined"
	MsgTypeParticipantLeft   = "participant-left"
	MsgTypeVoteCast          = "vote-cast"
	MsgTypeVotesRevealed     = "votes-revealed"
	MsgTypeVotesReset        = "votes-reset"
	MsgTypeError             = "error"
)

// ErrorPayload carries a user-facing message on the error event.
type ErrorPayload struct {
	Message string `json:"message"`
}

// SessionStatePayload is unicast to a participant right after a
// successful join.
type SessionStatePayload struct {
	Session *SessionSnapshot `json:"session"`
}

// ParticipantJoinedPayload announces a new participant to the rest of
// the session.
type ParticipantJoinedPayload struct {
	Participant *Participant `json:"participant"`
}

// ParticipantLeftPayload announces a departure to the remaining
// participants.
type ParticipantLeftPayload struct {
	ParticipantID string `json:"participantId"`
}

// VoteCastPayload signals that a participant has voted. The vote value
// itself is never part of this payload.
type VoteCastPayload struct {
	ParticipantID string `json:"participantId"`
	HasVoted      bool   `json:"hasVoted"`
}

// VotesRevealedPayload discloses every vote of the round, with round
// statistics precomputed server-side.
type VotesRevealedPayload struct {
	Votes []RevealedVote `json:"votes"`
	Stats *VoteStats     `json:"stats,omitempty"`
}

// VoteStats summarizes a revealed round. Average and median cover the
// numeric votes only; mode and total cover every vote.
type VoteStats struct {
	Average float64 `json:"average"`
	Median  float64 `json:"median"`
	Mode    string  `json:"mode"`
	Total   int     `json:"total"`
}
