package models

import "time"

// User is an account together with its social edges. Password holds the
// bcrypt hash and is never serialized.
type User struct {
	ID             string    `json:"_id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	Password       string    `json:"-"`
	ProfilePicture string    `json:"profilePicture"`
	Bio            string    `json:"bio"`
	Gender         string    `json:"gender,omitempty"`
	Followers      []string  `json:"followers"`
	Following      []string  `json:"following"`
	Posts          []string  `json:"posts"`
	Bookmarks      []string  `json:"bookmarks"`
	CreatedAt      time.Time `json:"createdAt"`
}

// UserSummary is the author projection embedded in posts and comments
type UserSummary struct {
	ID             string `json:"_id"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profilePicture"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, ProfilePicture: u.ProfilePicture}
}

// FollowEdge is one row of a user's following set
type FollowEdge struct {
	UserID   string `json:"userId"`
	TargetID string `json:"targetId"`
}
