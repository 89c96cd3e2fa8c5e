package posts

// CreatePostRequest represents the data needed to create a post.
type CreatePostRequest struct {
	Content string `json:"content"`
}

// UpdatePostRequest represents a content edit for an existing post.
type UpdatePostRequest struct {
	Content string `json:"content"`
}
