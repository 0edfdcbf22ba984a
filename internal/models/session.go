package models

import (
	"errors"
	"sort"
	"time"
)

type SessionState string

const (
	StateVoting   SessionState = "voting"
	StateRevealed SessionState = "revealed"
)

var (
	// ErrNotMember is returned when a vote references a participant who
	// is not (or no longer) part of the session.
	ErrNotMember = errors.New("participant is not a member of the session")

	// ErrRoundRevealed is returned when a vote arrives after the round
	// has been revealed. Callers are expected to drop it silently: it is
	// an ordinary race with a client whose UI has not caught up yet.
	ErrRoundRevealed = errors.New("votes are locked after reveal")
)

// Vote is one participant's current vote. Casting again overwrites the
// value but keeps the vote's position in the round.
type Vote struct {
	ParticipantID string    `json:"participantId"`
	Value         string    `json:"vote"`
	CastAt        time.Time `json:"timestamp"`
}

// RevealedVote is the disclosed form of a vote used in the
// votes-revealed broadcast.
type RevealedVote struct {
	ParticipantID   string `json:"participantId"`
	ParticipantName string `json:"participantName"`
	Vote            string `json:"vote"`
}

// Session is the state machine for one planning round: who is in the
// room, who voted what, and whether votes are disclosed.
//
// Session carries no internal locking. All mutations must be applied
// from a single owner goroutine (the hub's run loop); see services.Hub.
type Session struct {
	ID        string
	Name      string
	CreatedAt time.Time

	participants map[string]*Participant
	votes        map[string]*Vote
	voteOrder    []string // participant ids in first-cast order
	revealed     bool
}

func NewSession(id, name string) *Session {
	return &Session{
		ID:           id,
		Name:         name,
		CreatedAt:    time.Now(),
		participants: make(map[string]*Participant),
		votes:        make(map[string]*Vote),
	}
}

// State derives the round state from the reveal flag.
func (s *Session) State() SessionState {
	if s.revealed {
		return StateRevealed
	}
	return StateVoting
}

func (s *Session) IsRevealed() bool {
	return s.revealed
}

func (s *Session) IsEmpty() bool {
	return len(s.participants) == 0
}

func (s *Session) ParticipantCount() int {
	return len(s.participants)
}

// Join admits a participant. Joining does not touch the round state:
// a participant can arrive mid-round, before or after a reveal.
func (s *Session) Join(p *Participant) {
	s.participants[p.ID] = p
}

// Participant looks up a member by id.
func (s *Session) Participant(id string) (*Participant, bool) {
	p, ok := s.participants[id]
	return p, ok
}

// CastVote records or overwrites a participant's vote. It fails with
// ErrNotMember for unknown participants and ErrRoundRevealed once the
// round is revealed; revealed rounds never change until reset.
func (s *Session) CastVote(participantID, value string) error {
	if _, ok := s.participants[participantID]; !ok {
		return ErrNotMember
	}
	if s.revealed {
		return ErrRoundRevealed
	}

	if existing, ok := s.votes[participantID]; ok {
		existing.Value = value
		existing.CastAt = time.Now()
		return nil
	}

	s.votes[participantID] = &Vote{
		ParticipantID: participantID,
		Value:         value,
		CastAt:        time.Now(),
	}
	s.voteOrder = append(s.voteOrder, participantID)
	return nil
}

// Reveal discloses the round. Idempotent: revealing twice leaves the
// vote set untouched.
func (s *Session) Reveal() {
	s.revealed = true
}

// Reset clears every vote and returns the round to hidden voting.
// Participants stay in the session.
func (s *Session) Reset() {
	s.votes = make(map[string]*Vote)
	s.voteOrder = nil
	s.revealed = false
}

// Leave removes a participant together with their vote, preserving the
// invariant that votes never outlive their owner. Returns false when
// the participant was not a member.
func (s *Session) Leave(participantID string) bool {
	if _, ok := s.participants[participantID]; !ok {
		return false
	}
	delete(s.participants, participantID)
	delete(s.votes, participantID)
	for i, id := range s.voteOrder {
		if id == participantID {
			s.voteOrder = append(s.voteOrder[:i], s.voteOrder[i+1:]...)
			break
		}
	}
	return true
}

// Participants returns the members ordered by join time, id as a
// tie-breaker, so snapshots render deterministically.
func (s *Session) Participants() []*Participant {
	out := make([]*Participant, 0, len(s.participants))
	for _, p := range s.participants {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].JoinedAt.Before(out[j].JoinedAt)
	})
	return out
}

// RevealedVotes returns every vote with its value and owner name, in
// first-cast order. Safe to call regardless of the reveal flag; the
// caller decides when disclosure is allowed.
func (s *Session) RevealedVotes() []RevealedVote {
	out := make([]RevealedVote, 0, len(s.voteOrder))
	for _, id := range s.voteOrder {
		vote, ok := s.votes[id]
		if !ok {
			continue
		}
		name := "Unknown"
		if p, ok := s.participants[id]; ok {
			name = p.Name
		}
		out = append(out, RevealedVote{
			ParticipantID:   id,
			ParticipantName: name,
			Vote:            vote.Value,
		})
	}
	return out
}

// SessionSnapshot is the full state unicast to a joining participant.
type SessionSnapshot struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Participants []*Participant `json:"participants"`
	Votes        []VoteStatus   `json:"votes"`
	IsRevealed   bool           `json:"isRevealed"`
}

// VoteStatus is a vote as seen from outside: while the round is hidden
// it only says that the participant voted, never what.
type VoteStatus struct {
	ParticipantID string `json:"participantId"`
	HasVoted      bool   `json:"hasVoted"`
	Vote          string `json:"vote,omitempty"`
}

// Snapshot builds the session-state payload, applying the visibility
// rule: vote values appear only once the round is revealed.
func (s *Session) Snapshot() *SessionSnapshot {
	votes := make([]VoteStatus, 0, len(s.voteOrder))
	for _, id := range s.voteOrder {
		vote, ok := s.votes[id]
		if !ok {
			continue
		}
		vs := VoteStatus{ParticipantID: id, HasVoted: true}
		if s.revealed {
			vs.Vote = vote.Value
		}
		votes = append(votes, vs)
	}

	return &SessionSnapshot{
		ID:           s.ID,
		Name:         s.Name,
		Participants: s.Participants(),
		Votes:        votes,
		IsRevealed:   s.revealed,
	}
}
