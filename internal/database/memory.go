// internal/database/memory.go
package database

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"nest-hub/internal/listing"
	"nest-hub/internal/models"
	"nest-hub/internal/utils"
)

// MemoryStore keeps every collection in process. Each mutation runs under one
// lock and applies the same ledger rules as the document store.
type MemoryStore struct {
	mu    sync.RWMutex
	clock clockwork.Clock

	users         map[string]*models.User
	userOrder     []string
	posts         map[string]*models.Post
	postOrder     []string
	opportunities []*models.Opportunity
	messages      []*models.ChatMessage
}

// NewMemoryStore creates an empty store. A nil clock uses wall time.
func NewMemoryStore(clock clockwork.Clock) *MemoryStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryStore{
		clock: clock,
		users: make(map[string]*models.User),
		posts: make(map[string]*models.Post),
	}
}

func (s *MemoryStore) Close(context.Context) error { return nil }

func (s *MemoryStore) now() time.Time { return s.clock.Now().UTC() }

// User methods

func (s *MemoryStore) CreateUser(_ context.Context, user *models.User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	normalizeUser(user)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.ID]; exists {
		return utils.NewAppError(utils.ErrDuplicate, "User already exists", nil)
	}
	if user.Email != "" {
		for _, u := range s.users {
			if strings.EqualFold(u.Email, user.Email) {
				return utils.NewAppError(utils.ErrDuplicate, "User already exists", nil)
			}
		}
	}
	stored := user.Clone()
	s.users[user.ID] = &stored
	s.userOrder = append(s.userOrder, user.ID)
	return nil
}

func (s *MemoryStore) GetUser(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, utils.NewUserNotFoundError(id)
	}
	out := u.Clone()
	return &out, nil
}

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email != "" && strings.EqualFold(u.Email, email) {
			out := u.Clone()
			return &out, nil
		}
	}
	return nil, utils.NewUserNotFoundError(email)
}

func (s *MemoryStore) ListUsers(context.Context) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*models.User, 0, len(s.userOrder))
	for _, id := range s.userOrder {
		u := s.users[id].Clone()
		users = append(users, &u)
	}
	return users, nil
}

func (s *MemoryStore) UpdateUser(_ context.Context, id string, update models.UserUpdate) (*models.User, error) {
	return s.mutateUser(id, func(u *models.User) error {
		if !update.IsEmpty() {
			update.Apply(u)
			u.UpdatedAt = s.now()
		}
		return nil
	})
}

func (s *MemoryStore) UpdateUserProfile(_ context.Context, id string, update models.ProfileUpdate) (*models.User, error) {
	return s.mutateUser(id, func(u *models.User) error {
		if !update.IsEmpty() {
			update.Apply(u)
			u.UpdatedAt = s.now()
		}
		return nil
	})
}

func (s *MemoryStore) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return utils.NewUserNotFoundError(id)
	}
	delete(s.users, id)
	s.userOrder = slices.DeleteFunc(s.userOrder, func(v string) bool { return v == id })
	return nil
}

func (s *MemoryStore) AddUserPost(_ context.Context, userID, postID string) error {
	_, err := s.mutateUser(userID, func(u *models.User) error {
		if !slices.Contains(u.Posts, postID) {
			u.Posts = append(u.Posts, postID)
		}
		return nil
	})
	return err
}

func (s *MemoryStore) RemoveUserPost(_ context.Context, userID, postID string) error {
	_, err := s.mutateUser(userID, func(u *models.User) error {
		u.Posts = slices.DeleteFunc(u.Posts, func(v string) bool { return v == postID })
		return nil
	})
	return err
}

func (s *MemoryStore) VoteUser(_ context.Context, userID, voterID string, voteType models.VoteType) (*models.User, error) {
	return s.mutateUser(userID, func(u *models.User) error {
		return u.Votes.Cast(voterID, voteType)
	})
}

// mutateUser applies fn to a working copy and commits it only when fn succeeds.
func (s *MemoryStore) mutateUser(id string, fn func(*models.User) error) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.users[id]
	if !ok {
		return nil, utils.NewUserNotFoundError(id)
	}
	working := stored.Clone()
	if err := fn(&working); err != nil {
		return nil, err
	}
	s.users[id] = &working
	out := working.Clone()
	return &out, nil
}

// Post methods

func (s *MemoryStore) CreatePost(_ context.Context, post *models.Post) error {
	if err := post.Validate(); err != nil {
		return err
	}
	normalizePost(post)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.posts[post.ID]; exists {
		return utils.NewAppError(utils.ErrDuplicate, "Post already exists", nil)
	}
	stored := post.Clone()
	s.posts[post.ID] = &stored
	s.postOrder = append(s.postOrder, post.ID)
	return nil
}

func (s *MemoryStore) GetPost(_ context.Context, id string) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, utils.NewPostNotFoundError(id)
	}
	out := p.Clone()
	return &out, nil
}

func (s *MemoryStore) UpdatePost(_ context.Context, id string, update models.PostUpdate) (*models.Post, error) {
	return s.mutatePost(id, func(p *models.Post) error {
		if !update.IsEmpty() {
			update.Apply(p)
			p.UpdatedAt = s.now()
		}
		return nil
	})
}

func (s *MemoryStore) DeletePost(_ context.Context, id string) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, utils.NewPostNotFoundError(id)
	}
	delete(s.posts, id)
	s.postOrder = slices.DeleteFunc(s.postOrder, func(v string) bool { return v == id })
	return p, nil
}

func (s *MemoryStore) ListPosts(_ context.Context, q listing.Query) (listing.Result[models.Post], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	posts := make([]models.Post, 0, len(s.postOrder))
	for _, id := range s.postOrder {
		posts = append(posts, s.posts[id].Clone())
	}
	return listing.Apply(posts, q), nil
}

func (s *MemoryStore) VotePost(_ context.Context, postID, voterID string, voteType models.VoteType) (*models.Post, error) {
	return s.mutatePost(postID, func(p *models.Post) error {
		return p.Votes.Cast(voterID, voteType)
	})
}

func (s *MemoryStore) AppendComment(_ context.Context, postID string, comment models.Comment) (*models.Post, error) {
	normalizeComment(&comment)
	return s.mutatePost(postID, func(p *models.Post) error {
		p.Comments = append(p.Comments, comment.Clone())
		p.UpdatedAt = s.now()
		return nil
	})
}

func (s *MemoryStore) AppendReply(_ context.Context, postID, commentID string, reply models.Reply) (*models.Post, error) {
	normalizeLedger(&reply.Votes)
	return s.mutatePost(postID, func(p *models.Post) error {
		c, err := p.FindComment(commentID)
		if err != nil {
			return err
		}
		c.Replies = append(c.Replies, reply)
		p.UpdatedAt = s.now()
		return nil
	})
}

func (s *MemoryStore) VoteComment(_ context.Context, postID, commentID, voterID string, voteType models.VoteType) (*models.Post, error) {
	return s.mutatePost(postID, func(p *models.Post) error {
		c, err := p.FindComment(commentID)
		if err != nil {
			return err
		}
		return c.Votes.Cast(voterID, voteType)
	})
}

func (s *MemoryStore) VoteReply(_ context.Context, postID, commentID, replyID, voterID string, voteType models.VoteType) (*models.Post, error) {
	return s.mutatePost(postID, func(p *models.Post) error {
		c, err := p.FindComment(commentID)
		if err != nil {
			return err
		}
		r, err := c.FindReply(replyID)
		if err != nil {
			return err
		}
		return r.Votes.Cast(voterID, voteType)
	})
}

func (s *MemoryStore) mutatePost(id string, fn func(*models.Post) error) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.posts[id]
	if !ok {
		return nil, utils.NewPostNotFoundError(id)
	}
	working := stored.Clone()
	if err := fn(&working); err != nil {
		return nil, err
	}
	s.posts[id] = &working
	out := working.Clone()
	return &out, nil
}

// Opportunity methods

func (s *MemoryStore) GetOpportunity(_ context.Context, id string) (*models.Opportunity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, o := range s.opportunities {
		if o.ID == id {
			out := o.Clone()
			return &out, nil
		}
	}
	return nil, utils.NewAppError(utils.ErrOpportunityNotFound, "Opportunity not found: "+id, nil)
}

func (s *MemoryStore) ListOpportunities(_ context.Context, q listing.Query) (listing.Result[models.Opportunity], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	opps := make([]models.Opportunity, 0, len(s.opportunities))
	for _, o := range s.opportunities {
		opps = append(opps, o.Clone())
	}
	return listing.Apply(opps, q), nil
}

func (s *MemoryStore) UpsertOpportunity(_ context.Context, opp *models.Opportunity) (*models.Opportunity, bool, error) {
	if err := opp.Validate(); err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for _, o := range s.opportunities {
		if o.Title != opp.Title {
			continue
		}
		o.Organizer = opp.Organizer
		o.Type = opp.Type
		o.Registered = opp.Registered
		o.DaysLeft = opp.DaysLeft
		o.Skills = slices.Clone(opp.Skills)
		o.Image = opp.Image
		o.UpdatedAt = now
		out := o.Clone()
		return &out, false, nil
	}

	stored := opp.Clone()
	stored.ID = uuid.NewString()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	if stored.Skills == nil {
		stored.Skills = []string{}
	}
	s.opportunities = append(s.opportunities, &stored)
	out := stored.Clone()
	return &out, true, nil
}

// Chat methods

func (s *MemoryStore) SaveChatMessage(_ context.Context, msg *models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *msg
	s.messages = append(s.messages, &stored)
	return nil
}

func (s *MemoryStore) RecentChatMessages(_ context.Context, limit int) ([]*models.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := max(len(s.messages)-limit, 0)
	out := make([]*models.ChatMessage, 0, len(s.messages)-start)
	for _, m := range s.messages[start:] {
		msg := *m
		out = append(out, &msg)
	}
	return out, nil
}
