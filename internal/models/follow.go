package models

// Follow is a directed edge meaning the follower watches the followee's
// posts. An edge either exists or it does not; there is no other state.
type Follow struct {
	FollowerID int64 `json:"follower_id"`
	FolloweeID int64 `json:"followee_id"`
}

// UserSummary is the neighbor view returned by follower/following queries.
type UserSummary struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}
