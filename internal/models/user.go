package models

import (
	"slices"
	"strings"
	"time"

	"nest-hub/internal/utils"
)

// Activity holds the cached last-30-days counts pulled from GitHub or LeetCode.
type Activity struct {
	Last30Days []int `json:"last_30_days_activity" bson:"last_30_days_activity"`
}

type User struct {
	ID             string        `json:"id" bson:"_id"`
	Name           string        `json:"name" bson:"name"`
	Username       string        `json:"username,omitempty" bson:"username,omitempty"`
	Email          string        `json:"email,omitempty" bson:"email,omitempty"`
	HashedPassword string        `json:"-" bson:"password,omitempty"`
	Github         string        `json:"github,omitempty" bson:"github,omitempty"`
	Leetcode       string        `json:"leetcode,omitempty" bson:"leetcode,omitempty"`
	Linkedin       string        `json:"linkedin,omitempty" bson:"linkedin,omitempty"`
	Bio            string        `json:"bio,omitempty" bson:"bio,omitempty"`
	Skills         []string      `json:"skills" bson:"skills"`
	ProfileURL     string        `json:"profileurl,omitempty" bson:"profileurl,omitempty"`
	ProfilePicture string        `json:"profilePicture,omitempty" bson:"profilePicture,omitempty"`
	Readme         string        `json:"readme,omitempty" bson:"readme,omitempty"`
	Activity       *Activity     `json:"activity,omitempty" bson:"activity,omitempty"`
	Posts          []string      `json:"posts" bson:"posts"`
	Votes          LockoutLedger `json:"votes" bson:"votes"`
	CreatedAt      time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt" bson:"updatedAt"`
}

// AuthorSummary is the public part of a user attached to the content they wrote.
type AuthorSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username,omitempty"`
}

func (u *User) AuthorSummary() *AuthorSummary {
	return &AuthorSummary{ID: u.ID, Name: u.Name, Username: u.Username}
}

func (u *User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return utils.NewValidationError("name is required")
	}
	return nil
}

func (u User) Clone() User {
	out := u
	out.Skills = slices.Clone(u.Skills)
	out.Posts = slices.Clone(u.Posts)
	out.Votes.Voters = slices.Clone(u.Votes.Voters)
	if u.Activity != nil {
		a := Activity{Last30Days: slices.Clone(u.Activity.Last30Days)}
		out.Activity = &a
	}
	return out
}

// UserUpdate is the partial update accepted from clients; nil fields are left unchanged.
type UserUpdate struct {
	Name     *string
	Bio      *string
	Github   *string
	Leetcode *string
	Linkedin *string
	Skills   *[]string
}

func (up UserUpdate) IsEmpty() bool {
	return up.Name == nil && up.Bio == nil && up.Github == nil &&
		up.Leetcode == nil && up.Linkedin == nil && up.Skills == nil
}

func (up UserUpdate) Apply(u *User) {
	if up.Name != nil {
		u.Name = *up.Name
	}
	if up.Bio != nil {
		u.Bio = *up.Bio
	}
	if up.Github != nil {
		u.Github = *up.Github
	}
	if up.Leetcode != nil {
		u.Leetcode = *up.Leetcode
	}
	if up.Linkedin != nil {
		u.Linkedin = *up.Linkedin
	}
	if up.Skills != nil {
		u.Skills = slices.Clone(*up.Skills)
	}
}

// ProfileUpdate is written by the profile refresh job.
type ProfileUpdate struct {
	ProfileURL     *string
	ProfilePicture *string
	Readme         *string
	Activity       []int // nil leaves the cached activity untouched
}

func (up ProfileUpdate) IsEmpty() bool {
	return up.ProfileURL == nil && up.ProfilePicture == nil && up.Readme == nil && up.Activity == nil
}

func (up ProfileUpdate) Apply(u *User) {
	if up.ProfileURL != nil {
		u.ProfileURL = *up.ProfileURL
	}
	if up.ProfilePicture != nil {
		u.ProfilePicture = *up.ProfilePicture
	}
	if up.Readme != nil {
		u.Readme = *up.Readme
	}
	if up.Activity != nil {
		u.Activity = &Activity{Last30Days: slices.Clone(up.Activity)}
	}
}
