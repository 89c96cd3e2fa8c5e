package models

import "time"

// Post is a short text post owned by a single user. Content is mutable only
// by the owner within the edit window; everything else is immutable.
type Post struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	OwnerID   int64     `json:"owner_id"`
	Timestamp time.Time `json:"timestamp"`
}

// PostWithCounts is a Post joined with its engagement aggregates and the
// owner's username. Posts with zero engagement carry explicit zero counts.
type PostWithCounts struct {
	Post
	OwnerUsername string `json:"owner_username"`
	LikesCount    int64  `json:"likes_count"`
	RetweetsCount int64  `json:"retweets_count"`
}

// Like marks that a user liked a post. The (UserID, PostID) pair is unique.
type Like struct {
	UserID int64 `json:"user_id"`
	PostID int64 `json:"post_id"`
}

// Retweet marks that a user retweeted a post. Unlike a Like it records when
// the retweet happened. The (UserID, PostID) pair is unique.
type Retweet struct {
	UserID    int64     `json:"user_id"`
	PostID    int64     `json:"post_id"`
	Timestamp time.Time `json:"timestamp"`
}
