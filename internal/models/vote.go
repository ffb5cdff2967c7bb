package models

import (
	"encoding/json"
	"slices"

	"nest-hub/internal/utils"
)

// VoteType represents the direction of a vote.
type VoteType string

const (
	Upvote   VoteType = "upvote"
	Downvote VoteType = "downvote"
)

// ParseVoteType accepts only the two literal vote values.
func ParseVoteType(raw string) (VoteType, error) {
	switch VoteType(raw) {
	case Upvote, Downvote:
		return VoteType(raw), nil
	default:
		return "", utils.NewAppError(utils.ErrInvalidArgument, "Invalid vote type: "+raw, nil)
	}
}

// LockoutLedger records one irrevocable vote per voter. Used by users and posts.
type LockoutLedger struct {
	Upvotes   int      `json:"upvotes" bson:"upvotes"`
	Downvotes int      `json:"downvotes" bson:"downvotes"`
	Voters    []string `json:"voters" bson:"voters"`
}

func NewLockoutLedger() LockoutLedger {
	return LockoutLedger{Voters: []string{}}
}

func (l *LockoutLedger) HasVoted(voterID string) bool {
	return slices.Contains(l.Voters, voterID)
}

// Cast applies a vote in place. A voter already in the ledger gets ALREADY_VOTED
// and the ledger is left untouched.
func (l *LockoutLedger) Cast(voterID string, voteType VoteType) error {
	if voterID == "" {
		return utils.NewValidationError("Voter ID is required")
	}
	if l.HasVoted(voterID) {
		return utils.NewAppError(utils.ErrAlreadyVoted, "You have already voted", nil)
	}

	switch voteType {
	case Upvote:
		l.Upvotes++
	case Downvote:
		l.Downvotes++
	default:
		return utils.NewAppError(utils.ErrInvalidArgument, "Invalid vote type: "+string(voteType), nil)
	}
	l.Voters = append(l.Voters, voterID)
	return nil
}

// SwitchableLedger partitions voters into two sets; counts are derived from
// the set sizes. Used by comments and replies.
type SwitchableLedger struct {
	Upvoters   []string `json:"upvoters" bson:"upvoters"`
	Downvoters []string `json:"downvoters" bson:"downvoters"`
}

func NewSwitchableLedger() SwitchableLedger {
	return SwitchableLedger{Upvoters: []string{}, Downvoters: []string{}}
}

func (l SwitchableLedger) Upvotes() int   { return len(l.Upvoters) }
func (l SwitchableLedger) Downvotes() int { return len(l.Downvoters) }

// Cast moves the voter into the set matching voteType. Recasting is always allowed.
func (l *SwitchableLedger) Cast(voterID string, voteType VoteType) error {
	if voterID == "" {
		return utils.NewValidationError("Voter ID is required")
	}
	if voteType != Upvote && voteType != Downvote {
		return utils.NewAppError(utils.ErrInvalidArgument, "Invalid vote type: "+string(voteType), nil)
	}

	l.Upvoters = removeVoter(l.Upvoters, voterID)
	l.Downvoters = removeVoter(l.Downvoters, voterID)
	if voteType == Upvote {
		l.Upvoters = append(l.Upvoters, voterID)
	} else {
		l.Downvoters = append(l.Downvoters, voterID)
	}
	return nil
}

func (l SwitchableLedger) MarshalJSON() ([]byte, error) {
	upvoters, downvoters := l.Upvoters, l.Downvoters
	if upvoters == nil {
		upvoters = []string{}
	}
	if downvoters == nil {
		downvoters = []string{}
	}
	return json.Marshal(struct {
		Upvotes    int      `json:"upvotes"`
		Downvotes  int      `json:"downvotes"`
		Upvoters   []string `json:"upvoters"`
		Downvoters []string `json:"downvoters"`
	}{len(upvoters), len(downvoters), upvoters, downvoters})
}

func removeVoter(voters []string, voterID string) []string {
	return slices.DeleteFunc(voters, func(v string) bool { return v == voterID })
}
