package simulator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

var (
	topics = []string{
		"Looking for teammates for the **weekend hackathon**",
		"Anyone up for a LeetCode grind session tonight?",
		"Sharing my notes on distributed systems, feedback welcome",
		"Our robotics club is recruiting for the fall build season",
		"Mock interview swap: I do system design, you do graphs",
		"Just shipped a side project in Go, would love code review",
	}
	remarks = []string{
		"Count me in!",
		"This is really helpful, thanks.",
		"Which timezone are you in?",
		"I can help with the frontend part.",
		"Bookmarking this for later.",
	}
	skills = []string{"go", "react", "python", "ml", "design", "rust"}
)

func randomSkill(n int) string { return skills[n%len(skills)] }

// SimulateActivities runs the post, comment and vote loops until ctx ends.
// Comments and votes idle until a post exists.
func (s *EnhancedSimulator) SimulateActivities(ctx context.Context) {
	var wg sync.WaitGroup
	loops := []struct {
		name string
		freq float64
		act  func(context.Context)
	}{
		{"post", s.config.PostFrequency, s.simulatePost},
		{"comment", s.config.CommentFrequency, s.simulateComment},
		{"vote", s.config.VoteFrequency, s.simulateVote},
	}
	for _, loop := range loops {
		interval := s.interval(loop.freq)
		if interval == 0 {
			slog.Info("activity disabled", "activity", loop.name)
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					loop.act(ctx)
				}
			}
		}()
	}
	wg.Wait()
}

// interval spreads freq actions per user per hour across the whole population.
func (s *EnhancedSimulator) interval(freq float64) time.Duration {
	if freq <= 0 || s.config.NumUsers <= 0 {
		return 0
	}
	d := time.Duration(float64(time.Hour) / (freq * float64(s.config.NumUsers)))
	return max(d, time.Millisecond)
}

func (s *EnhancedSimulator) simulatePost(ctx context.Context) {
	user := s.pickUser()
	if user == nil {
		return
	}
	body := map[string]string{
		"content": fmt.Sprintf("%s (%s)", topics[s.intn(len(topics))], time.Now().Format(time.Kitchen)),
		"userId":  user.ID,
	}
	var out struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if _, err := s.makeRequest(ctx, http.MethodPost, "/api/posts", user.Token, body, &out); err != nil {
		return
	}

	s.mu.Lock()
	s.posts = append(s.posts, &simPost{ID: out.Data.ID})
	user.Posts = append(user.Posts, out.Data.ID)
	s.mu.Unlock()

	s.stats.mu.Lock()
	s.stats.TotalPosts++
	s.stats.mu.Unlock()
}

func (s *EnhancedSimulator) simulateComment(ctx context.Context) {
	user, post := s.pickUser(), s.pickPost()
	if user == nil || post == nil {
		return
	}
	body := map[string]string{
		"text":        remarks[s.intn(len(remarks))],
		"commentedBy": user.ID,
	}

	if len(post.Comments) > 0 && s.chance(s.config.ReplyPercentage) {
		commentID := post.Comments[s.intn(len(post.Comments))]
		endpoint := fmt.Sprintf("/api/posts/%s/comment/%s/reply", post.ID, commentID)
		if _, err := s.makeRequest(ctx, http.MethodPost, endpoint, user.Token, body, nil); err != nil {
			return
		}
		s.stats.mu.Lock()
		s.stats.TotalReplies++
		s.stats.mu.Unlock()
		return
	}

	var out struct {
		Data struct {
			Comments []struct {
				ID string `json:"id"`
			} `json:"comments"`
		} `json:"data"`
	}
	endpoint := fmt.Sprintf("/api/posts/%s/comment", post.ID)
	if _, err := s.makeRequest(ctx, http.MethodPost, endpoint, user.Token, body, &out); err != nil {
		return
	}
	if n := len(out.Data.Comments); n > 0 {
		s.recordComment(post.ID, out.Data.Comments[n-1].ID)
	}
	s.mu.Lock()
	user.Comments++
	s.mu.Unlock()

	s.stats.mu.Lock()
	s.stats.TotalComments++
	s.stats.mu.Unlock()
}

func (s *EnhancedSimulator) recordComment(postID, commentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.posts {
		if p.ID == postID {
			p.Comments = append(p.Comments, commentID)
			return
		}
	}
}

// simulateVote votes on a post or, when it has comments, sometimes on a comment.
// Upvotes outnumber downvotes three to one.
func (s *EnhancedSimulator) simulateVote(ctx context.Context) {
	user, post := s.pickUser(), s.pickPost()
	if user == nil || post == nil {
		return
	}
	voteType := "upvote"
	if s.chance(0.25) {
		voteType = "downvote"
	}
	body := map[string]string{"voteType": voteType, "userId": user.ID}

	endpoint := fmt.Sprintf("/api/posts/%s/vote", post.ID)
	if len(post.Comments) > 0 && s.chance(0.5) {
		endpoint = fmt.Sprintf("/api/posts/%s/comment/%s/vote", post.ID, post.Comments[s.intn(len(post.Comments))])
	}

	_, err := s.makeRequest(ctx, http.MethodPost, endpoint, user.Token, body, nil)
	var httpErr *HTTPError
	switch {
	case err == nil:
		s.stats.mu.Lock()
		s.stats.TotalVotes++
		s.stats.mu.Unlock()
	case errors.As(err, &httpErr) && httpErr.Status == http.StatusConflict:
		s.stats.mu.Lock()
		s.stats.RepeatVotes++
		s.stats.mu.Unlock()
	}
}
