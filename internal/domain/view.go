package domain

import "time"

// VoteView is the broadcast form of a Vote. Until the room is revealed only
// the fact that a participant has voted is exposed, never the raw estimate.
type VoteView struct {
	UserID   string   `json:"userId"`
	Value    *float64 `json:"value,omitempty"`
	HasVoted bool     `json:"hasVoted"`
}

// RoomView is the shape subscribers receive on every roomUpdated event.
type RoomView struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Users        []Participant `json:"users"`
	Votes        []VoteView    `json:"votes"`
	IsRevealed   bool          `json:"isRevealed"`
	CurrentStory string        `json:"currentStory"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// View redacts the room for broadcast. Vote values are included only when
// the room is revealed.
func (r *Room) View() RoomView {
	v := RoomView{
		ID:           r.ID,
		Name:         r.Name,
		Users:        make([]Participant, len(r.Users)),
		Votes:        make([]VoteView, len(r.Votes)),
		IsRevealed:   r.IsRevealed,
		CurrentStory: r.CurrentStory,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	copy(v.Users, r.Users)
	for i, vote := range r.Votes {
		vv := VoteView{UserID: vote.UserID, HasVoted: true}
		if r.IsRevealed && vote.Value != nil {
			val := *vote.Value
			vv.Value = &val
		}
		v.Votes[i] = vv
	}
	return v
}
