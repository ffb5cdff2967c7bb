package engine

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nest-hub/internal/database"
	"nest-hub/internal/integrations"
	"nest-hub/internal/listing"
	"nest-hub/internal/models"
	"nest-hub/internal/utils"
)

type stubSummarizer struct {
	enabled bool
	summary integrations.Summary
	err     error
	calls   int
}

func (s *stubSummarizer) Enabled() bool { return s.enabled }

func (s *stubSummarizer) Summarize(context.Context, string) (integrations.Summary, error) {
	s.calls++
	return s.summary, s.err
}

type stubProfiles struct {
	update models.ProfileUpdate
	seen   []string
}

func (p *stubProfiles) Fetch(_ context.Context, github, leetcode string) models.ProfileUpdate {
	p.seen = append(p.seen, github+"/"+leetcode)
	return p.update
}

type stubTokens struct{}

func (stubTokens) GenerateToken(userID string) (string, error) { return "token-" + userID, nil }

type fixture struct {
	engine     *Engine
	clock      *clockwork.FakeClock
	summarizer *stubSummarizer
	profiles   *stubProfiles
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC))
	summarizer := &stubSummarizer{}
	profiles := &stubProfiles{}

	e, err := New(Config{
		Store:      database.NewMemoryStore(clock),
		Summarizer: summarizer,
		Profiles:   profiles,
		Tokens:     stubTokens{},
		Clock:      clock,
	})
	require.NoError(t, err)
	t.Cleanup(func() { e.Close(context.Background()) })

	return &fixture{engine: e, clock: clock, summarizer: summarizer, profiles: profiles}
}

func (f *fixture) user(t *testing.T, name string) *models.User {
	t.Helper()
	u, err := f.engine.CreateUser(context.Background(), UserInput{Name: name})
	require.NoError(t, err)
	return u
}

func (f *fixture) post(t *testing.T, author string) *models.Post {
	t.Helper()
	p, err := f.engine.CreatePost(context.Background(), CreatePostInput{Content: "Looking for a hackathon team", UserID: author})
	require.NoError(t, err)
	return p
}

func TestNewRequiresStore(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.engine.Register(ctx, RegisterInput{
		UserInput: UserInput{Name: "Alice", Email: "Alice@Example.com"},
		Password:  "hunter22",
	})
	require.NoError(t, err)
	assert.Equal(t, "token-"+res.User.ID, res.Token)
	assert.Equal(t, "alice@example.com", res.User.Email)
	assert.NotEqual(t, "hunter22", res.User.HashedPassword)

	_, err = f.engine.Register(ctx, RegisterInput{
		UserInput: UserInput{Name: "Alice 2", Email: "alice@example.com"},
		Password:  "other",
	})
	assert.True(t, utils.IsErrorCode(err, utils.ErrDuplicate))

	login, err := f.engine.Login(ctx, "alice@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, login.User.ID)

	_, err = f.engine.Login(ctx, "alice@example.com", "wrong")
	assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidCredentials))

	_, err = f.engine.Login(ctx, "nobody@example.com", "hunter22")
	assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidCredentials))

	_, err = f.engine.Register(ctx, RegisterInput{UserInput: UserInput{Name: "NoPass", Email: "x@example.com"}})
	assert.True(t, utils.IsErrorCode(err, utils.ErrValidationFailed))
}

func TestCreatePostLinksAuthorAndRendersHTML(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "Alice")

	post, err := f.engine.CreatePost(ctx, CreatePostInput{Content: "Need **Go** reviewers", UserID: author.ID})
	require.NoError(t, err)
	assert.Equal(t, models.AIStatusDisabled, post.AIStatus)
	assert.Contains(t, post.ContentHTML, "<strong>Go</strong>")
	assert.Equal(t, f.clock.Now(), post.CreatedAt)
	assert.Equal(t, 0, f.summarizer.calls)

	detail, err := f.engine.GetUser(ctx, author.ID)
	require.NoError(t, err)
	require.Len(t, detail.Posts, 1)
	assert.Equal(t, post.ID, detail.Posts[0].ID)

	_, err = f.engine.CreatePost(ctx, CreatePostInput{Content: "hello there", UserID: "ghost"})
	assert.True(t, utils.IsErrorCode(err, utils.ErrValidationFailed))

	_, err = f.engine.CreatePost(ctx, CreatePostInput{Content: "   ", UserID: author.ID})
	assert.True(t, utils.IsErrorCode(err, utils.ErrValidationFailed))
}

func TestCreatePostAIStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "Alice")
	f.summarizer.enabled = true
	f.summarizer.summary = integrations.Summary{Summary: "Team search", Tags: []string{"hackathon"}}

	post, err := f.engine.CreatePost(ctx, CreatePostInput{Content: "Looking for a hackathon team", UserID: author.ID})
	require.NoError(t, err)
	assert.Equal(t, models.AIStatusSuccess, post.AIStatus)
	assert.Equal(t, "Team search", post.Summary)
	assert.Equal(t, []string{"hackathon"}, post.Tags)

	short, err := f.engine.CreatePost(ctx, CreatePostInput{Content: "hi all", UserID: author.ID})
	require.NoError(t, err)
	assert.Equal(t, models.AIStatusDisabled, short.AIStatus)

	f.summarizer.err = utils.NewAppError(utils.ErrUnavailable, "AI summary failed", errors.New("503"))
	failed, err := f.engine.CreatePost(ctx, CreatePostInput{Content: "Looking for a hackathon team", UserID: author.ID})
	require.NoError(t, err)
	assert.Equal(t, models.AIStatusFailed, failed.AIStatus)
	assert.Empty(t, failed.Tags)
	assert.Empty(t, failed.Summary)
}

func TestUpdatePostReanalyses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "Alice")
	post := f.post(t, author.ID)

	f.summarizer.enabled = true
	f.summarizer.summary = integrations.Summary{Summary: "Updated", Tags: []string{"go"}}
	f.clock.Advance(time.Minute)

	updated, err := f.engine.UpdatePost(ctx, post.ID, "Now looking for Go mentors")
	require.NoError(t, err)
	assert.Equal(t, models.AIStatusUpdated, updated.AIStatus)
	assert.Equal(t, []string{"go"}, updated.Tags)
	assert.Equal(t, "Now looking for Go mentors", updated.Content)
	assert.True(t, updated.UpdatedAt.After(post.UpdatedAt))

	f.summarizer.err = errors.New("down")
	failed, err := f.engine.UpdatePost(ctx, post.ID, "Third revision")
	require.NoError(t, err)
	assert.Equal(t, models.AIStatusUpdateFailed, failed.AIStatus)
	assert.Equal(t, []string{"go"}, failed.Tags)

	_, err = f.engine.UpdatePost(ctx, post.ID, "")
	assert.True(t, utils.IsErrorCode(err, utils.ErrValidationFailed))

	_, err = f.engine.UpdatePost(ctx, "missing", "content")
	assert.True(t, utils.IsErrorCode(err, utils.ErrPostNotFound))
}

func TestDeletePostUnlinksAuthor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "Alice")
	post := f.post(t, author.ID)

	require.NoError(t, f.engine.DeletePost(ctx, post.ID))

	stored, err := f.engine.Store().GetUser(ctx, author.ID)
	require.NoError(t, err)
	assert.NotContains(t, stored.Posts, post.ID)

	err = f.engine.DeletePost(ctx, post.ID)
	assert.True(t, utils.IsErrorCode(err, utils.ErrPostNotFound))
}

func TestDeleteUserKeepsPosts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "Alice")
	post := f.post(t, author.ID)

	require.NoError(t, f.engine.DeleteUser(ctx, author.ID))

	kept, err := f.engine.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, author.ID, kept.PostedBy)
	assert.Nil(t, kept.Author)

	_, err = f.engine.GetUser(ctx, author.ID)
	assert.True(t, utils.IsNotFound(err))
}

func TestUpdateUserPartial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u, err := f.engine.CreateUser(ctx, UserInput{Name: "Alice", Bio: "old", Skills: []string{"go"}})
	require.NoError(t, err)

	bio := "new bio"
	updated, err := f.engine.UpdateUser(ctx, u.ID, models.UserUpdate{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, "new bio", updated.Bio)
	assert.Equal(t, "Alice", updated.Name)
	assert.Equal(t, []string{"go"}, updated.Skills)

	same, err := f.engine.UpdateUser(ctx, u.ID, models.UserUpdate{})
	require.NoError(t, err)
	assert.Equal(t, "new bio", same.Bio)

	blank := " "
	_, err = f.engine.UpdateUser(ctx, u.ID, models.UserUpdate{Name: &blank})
	assert.True(t, utils.IsErrorCode(err, utils.ErrValidationFailed))
}

func TestVotePostLockout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	post := f.post(t, f.user(t, "Alice").ID)

	voted, err := f.engine.VotePost(ctx, post.ID, "u1", "upvote")
	require.NoError(t, err)
	assert.Equal(t, 1, voted.Votes.Upvotes)
	assert.Equal(t, []string{"u1"}, voted.Votes.Voters)

	_, err = f.engine.VotePost(ctx, post.ID, "u1", "downvote")
	assert.True(t, utils.IsErrorCode(err, utils.ErrAlreadyVoted))

	after, err := f.engine.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, after.Votes.Upvotes)
	assert.Equal(t, 0, after.Votes.Downvotes)

	_, err = f.engine.VotePost(ctx, post.ID, "u2", "sideways")
	assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidArgument))

	_, err = f.engine.VotePost(ctx, post.ID, "", "upvote")
	assert.True(t, utils.IsErrorCode(err, utils.ErrValidationFailed))

	_, err = f.engine.VotePost(ctx, "missing", "u2", "upvote")
	assert.True(t, utils.IsErrorCode(err, utils.ErrPostNotFound))
}

func TestVoteUserLockout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	target := f.user(t, "Bob")

	voted, err := f.engine.VoteUser(ctx, target.ID, "u1", "downvote")
	require.NoError(t, err)
	assert.Equal(t, 1, voted.Votes.Downvotes)

	_, err = f.engine.VoteUser(ctx, target.ID, "u1", "downvote")
	assert.True(t, utils.IsErrorCode(err, utils.ErrAlreadyVoted))
}

func TestCommentTree(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "Alice")
	post := f.post(t, author.ID)

	withComment, err := f.engine.AppendComment(ctx, post.ID, CommentInput{Text: "  count me in  ", CommentedBy: author.ID})
	require.NoError(t, err)
	require.Len(t, withComment.Comments, 1)
	comment := withComment.Comments[0]
	assert.Equal(t, "count me in", comment.Text)
	assert.NotEmpty(t, comment.ID)
	assert.Empty(t, comment.Replies)
	assert.Equal(t, f.clock.Now(), comment.CreatedAt)

	withReply, err := f.engine.AppendReply(ctx, post.ID, comment.ID, CommentInput{Text: "great", CommentedBy: author.ID})
	require.NoError(t, err)
	require.Len(t, withReply.Comments[0].Replies, 1)

	_, err = f.engine.AppendReply(ctx, post.ID, "nope", CommentInput{Text: "x", CommentedBy: author.ID})
	assert.True(t, utils.IsErrorCode(err, utils.ErrCommentNotFound))

	_, err = f.engine.AppendReply(ctx, "nope", comment.ID, CommentInput{Text: "x", CommentedBy: author.ID})
	assert.True(t, utils.IsErrorCode(err, utils.ErrPostNotFound))

	_, err = f.engine.AppendComment(ctx, "nope", CommentInput{Text: "x", CommentedBy: author.ID})
	assert.True(t, utils.IsErrorCode(err, utils.ErrPostNotFound))

	_, err = f.engine.AppendComment(ctx, post.ID, CommentInput{Text: "   ", CommentedBy: author.ID})
	assert.True(t, utils.IsErrorCode(err, utils.ErrValidationFailed))

	_, err = f.engine.AppendComment(ctx, post.ID, CommentInput{Text: "hi", CommentedBy: "ghost"})
	assert.True(t, utils.IsErrorCode(err, utils.ErrValidationFailed))
}

func TestCommentAndReplyVotesSwitch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "Alice")
	post := f.post(t, author.ID)

	p, err := f.engine.AppendComment(ctx, post.ID, CommentInput{Text: "c", CommentedBy: author.ID})
	require.NoError(t, err)
	commentID := p.Comments[0].ID
	p, err = f.engine.AppendReply(ctx, post.ID, commentID, CommentInput{Text: "r", CommentedBy: author.ID})
	require.NoError(t, err)
	replyID := p.Comments[0].Replies[0].ID

	p, err = f.engine.VoteComment(ctx, post.ID, commentID, "u1", "upvote")
	require.NoError(t, err)
	assert.Equal(t, 1, p.Comments[0].Votes.Upvotes())

	p, err = f.engine.VoteComment(ctx, post.ID, commentID, "u1", "downvote")
	require.NoError(t, err)
	assert.Equal(t, 0, p.Comments[0].Votes.Upvotes())
	assert.Equal(t, []string{"u1"}, p.Comments[0].Votes.Downvoters)

	p, err = f.engine.VoteReply(ctx, post.ID, commentID, replyID, "u2", "upvote")
	require.NoError(t, err)
	assert.Equal(t, []string{"u2"}, p.Comments[0].Replies[0].Votes.Upvoters)

	_, err = f.engine.VoteReply(ctx, post.ID, commentID, "nope", "u2", "upvote")
	assert.True(t, utils.IsErrorCode(err, utils.ErrReplyNotFound))

	_, err = f.engine.VoteComment(ctx, post.ID, "nope", "u2", "upvote")
	assert.True(t, utils.IsErrorCode(err, utils.ErrCommentNotFound))
}

func TestPostsCarryAuthorSummaries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author, err := f.engine.CreateUser(ctx, UserInput{Name: "Alice", Username: "alice", Email: "alice@example.com"})
	require.NoError(t, err)
	commenter := f.user(t, "Bob")
	post := f.post(t, author.ID)

	withComment, err := f.engine.AppendComment(ctx, post.ID, CommentInput{Text: "in", CommentedBy: commenter.ID})
	require.NoError(t, err)
	_, err = f.engine.AppendReply(ctx, post.ID, withComment.Comments[0].ID, CommentInput{Text: "thanks", CommentedBy: author.ID})
	require.NoError(t, err)

	got, err := f.engine.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, &models.AuthorSummary{ID: author.ID, Name: "Alice", Username: "alice"}, got.Author)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, &models.AuthorSummary{ID: commenter.ID, Name: "Bob"}, got.Comments[0].Author)
	require.Len(t, got.Comments[0].Replies, 1)
	assert.Equal(t, author.ID, got.Comments[0].Replies[0].Author.ID)

	q, err := listing.ParseParams(url.Values{}, listing.PostSchema)
	require.NoError(t, err)
	res, err := f.engine.ListPosts(ctx, q)
	require.NoError(t, err)
	require.Len(t, res.Data, 1)
	require.NotNil(t, res.Data[0].Author)
	assert.Equal(t, "Alice", res.Data[0].Author.Name)
	assert.Equal(t, "Bob", res.Data[0].Comments[0].Author.Name)

	require.NoError(t, f.engine.DeleteUser(ctx, commenter.ID))
	got, err = f.engine.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Comments[0].Author)
	assert.Equal(t, commenter.ID, got.Comments[0].CommentedBy)
}

func TestListPostsPagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "Alice")
	for i := 0; i < 12; i++ {
		f.post(t, author.ID)
		f.clock.Advance(time.Second)
	}

	q, err := listing.ParseParams(url.Values{"page": {"2"}, "limit": {"5"}}, listing.PostSchema)
	require.NoError(t, err)
	res, err := f.engine.ListPosts(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, int64(12), res.Total)
	assert.Equal(t, 3, res.Pages)
	assert.Len(t, res.Data, 5)
	assert.True(t, res.Data[0].CreatedAt.After(res.Data[4].CreatedAt))
}

func TestOpportunities(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, created, err := f.engine.UpsertOpportunity(ctx, &models.Opportunity{Title: "HackNight", Type: "hackathon", Skills: []string{"go"}})
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := f.engine.UpsertOpportunity(ctx, &models.Opportunity{Title: "HackNight", Type: "hackathon", Registered: 40})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	got, err := f.engine.GetOpportunity(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, got.Registered)

	q, err := listing.ParseParams(url.Values{"type": {"hackathon"}}, listing.OpportunitySchema)
	require.NoError(t, err)
	res, err := f.engine.ListOpportunities(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Total)

	_, err = f.engine.GetOpportunity(ctx, "missing")
	assert.True(t, utils.IsNotFound(err))
}

func TestRefreshProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	linked, err := f.engine.CreateUser(ctx, UserInput{Name: "Alice", Github: "alice", Leetcode: "alice_lc"})
	require.NoError(t, err)
	unlinked := f.user(t, "Bob")

	_, err = f.engine.RefreshProfile(ctx, linked.ID)
	assert.True(t, utils.IsErrorCode(err, utils.ErrNotFound))

	profileURL := "https://github.com/alice"
	f.profiles.update = models.ProfileUpdate{ProfileURL: &profileURL, Activity: []int{1, 2, 3}}

	updated, err := f.engine.RefreshProfile(ctx, linked.ID)
	require.NoError(t, err)
	assert.Equal(t, profileURL, updated.ProfileURL)
	require.NotNil(t, updated.Activity)
	assert.Equal(t, []int{1, 2, 3}, updated.Activity.Last30Days)
	assert.Contains(t, f.profiles.seen, "alice/alice_lc")

	_, err = f.engine.RefreshProfile(ctx, unlinked.ID)
	assert.True(t, utils.IsErrorCode(err, utils.ErrNotFound))

	_, err = f.engine.RefreshProfile(ctx, "missing")
	assert.True(t, utils.IsErrorCode(err, utils.ErrUserNotFound))

	n, err := f.engine.RefreshAllProfiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRefreshAllProfilesWithoutUsers(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.RefreshAllProfiles(context.Background())
	assert.True(t, utils.IsErrorCode(err, utils.ErrNotFound))
}

func TestChat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.engine.ChatConnected("c1", "u1", "")
	msg, err := f.engine.PostChatMessage(ctx, "c1", "alice", " hello ")
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Message)
	assert.Equal(t, f.clock.Now(), msg.Timestamp)

	f.clock.Advance(time.Second)
	_, err = f.engine.PostChatMessage(ctx, "c1", "", "second")
	require.NoError(t, err)

	_, err = f.engine.PostChatMessage(ctx, "c1", "alice", "   ")
	assert.True(t, utils.IsErrorCode(err, utils.ErrValidationFailed))

	history, err := f.engine.ChatHistory(ctx, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "hello", history[0].Message)
	assert.Equal(t, "Anonymous", history[1].Username)

	online, err := f.engine.OnlineUsers()
	require.NoError(t, err)
	require.Len(t, online, 1)
	assert.Equal(t, "Anonymous", online[0].Username)

	f.engine.ChatDisconnected("c1")
	online, err = f.engine.OnlineUsers()
	require.NoError(t, err)
	assert.Empty(t, online)
}
