package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nest-hub/internal/utils"
)

func TestParseVoteType(t *testing.T) {
	vt, err := ParseVoteType("upvote")
	require.NoError(t, err)
	assert.Equal(t, Upvote, vt)

	vt, err = ParseVoteType("downvote")
	require.NoError(t, err)
	assert.Equal(t, Downvote, vt)

	for _, raw := range []string{"", "up", "UPVOTE", "none"} {
		_, err := ParseVoteType(raw)
		assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidArgument), raw)
	}
}

func TestLockoutLedgerCastIncrementsMatchingCounter(t *testing.T) {
	for _, vt := range []VoteType{Upvote, Downvote} {
		l := NewLockoutLedger()
		require.NoError(t, l.Cast("u1", vt))

		if vt == Upvote {
			assert.Equal(t, 1, l.Upvotes)
			assert.Equal(t, 0, l.Downvotes)
		} else {
			assert.Equal(t, 0, l.Upvotes)
			assert.Equal(t, 1, l.Downvotes)
		}
		assert.Equal(t, []string{"u1"}, l.Voters)
	}
}

func TestLockoutLedgerRejectsSecondVote(t *testing.T) {
	l := NewLockoutLedger()
	require.NoError(t, l.Cast("u1", Upvote))

	err := l.Cast("u1", Downvote)
	assert.True(t, utils.IsErrorCode(err, utils.ErrAlreadyVoted))
	assert.Equal(t, 1, l.Upvotes)
	assert.Equal(t, 0, l.Downvotes)
	assert.Equal(t, []string{"u1"}, l.Voters)

	err = l.Cast("u1", Upvote)
	assert.True(t, utils.IsErrorCode(err, utils.ErrAlreadyVoted))
	assert.Equal(t, 1, l.Upvotes)
}

func TestLockoutLedgerCountsMatchVoters(t *testing.T) {
	l := NewLockoutLedger()
	require.NoError(t, l.Cast("a", Upvote))
	require.NoError(t, l.Cast("b", Downvote))
	require.NoError(t, l.Cast("c", Upvote))
	_ = l.Cast("a", Downvote)

	assert.Equal(t, len(l.Voters), l.Upvotes+l.Downvotes)
}

func TestLockoutLedgerRequiresVoter(t *testing.T) {
	l := NewLockoutLedger()
	err := l.Cast("", Upvote)
	assert.True(t, utils.IsErrorCode(err, utils.ErrValidationFailed))
	assert.Zero(t, l.Upvotes)
}

func TestSwitchableLedgerMovesVoter(t *testing.T) {
	l := NewSwitchableLedger()
	require.NoError(t, l.Cast("u1", Upvote))
	assert.Equal(t, 1, l.Upvotes())
	assert.Equal(t, 0, l.Downvotes())

	require.NoError(t, l.Cast("u1", Downvote))
	assert.Equal(t, 0, l.Upvotes())
	assert.Equal(t, 1, l.Downvotes())
	assert.Empty(t, l.Upvoters)
	assert.Equal(t, []string{"u1"}, l.Downvoters)
}

func TestSwitchableLedgerRepeatIsNoop(t *testing.T) {
	l := NewSwitchableLedger()
	require.NoError(t, l.Cast("u1", Upvote))
	require.NoError(t, l.Cast("u1", Upvote))
	require.NoError(t, l.Cast("u2", Upvote))

	assert.Equal(t, []string{"u1", "u2"}, l.Upvoters)
	assert.Equal(t, 2, l.Upvotes())
}

func TestSwitchableLedgerJSONIncludesCounts(t *testing.T) {
	l := NewSwitchableLedger()
	require.NoError(t, l.Cast("u1", Upvote))

	raw, err := json.Marshal(l)
	require.NoError(t, err)
	assert.JSONEq(t, `{"upvotes":1,"downvotes":0,"upvoters":["u1"],"downvoters":[]}`, string(raw))

	var zero SwitchableLedger
	raw, err = json.Marshal(zero)
	require.NoError(t, err)
	assert.JSONEq(t, `{"upvotes":0,"downvotes":0,"upvoters":[],"downvoters":[]}`, string(raw))
}
