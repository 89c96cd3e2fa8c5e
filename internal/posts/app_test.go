package posts_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/chirpd/microblog/internal/apperrors"
	"github.com/chirpd/microblog/internal/models"
	"github.com/chirpd/microblog/internal/posts"
)

type pair struct{ userID, postID int64 }

// fakePostsRepo implements posts.PostsRepository in memory, honoring the
// same contract as the SQL repository: composite-key uniqueness, cascades
// on delete, and zero-coalesced aggregation.
type fakePostsRepo struct {
	posts     map[int64]models.Post
	likes     map[pair]bool
	retweets  map[pair]time.Time
	usernames map[int64]string
	nextID    int64
}

func newFakePostsRepo(usernames map[int64]string) *fakePostsRepo {
	return &fakePostsRepo{
		posts:     make(map[int64]models.Post),
		likes:     make(map[pair]bool),
		retweets:  make(map[pair]time.Time),
		usernames: usernames,
		nextID:    1,
	}
}

func (f *fakePostsRepo) Tx(_ context.Context, fn func(posts.PostsRepository) error) error {
	return fn(f)
}

func (f *fakePostsRepo) CreatePost(_ context.Context, ownerID int64, content string, createdAt time.Time) (*models.Post, error) {
	post := models.Post{ID: f.nextID, Content: content, OwnerID: ownerID, Timestamp: createdAt}
	f.nextID++
	f.posts[post.ID] = post
	return &post, nil
}

func (f *fakePostsRepo) GetPost(_ context.Context, id int64) (*models.Post, error) {
	post, ok := f.posts[id]
	if !ok {
		return nil, apperrors.NotFound("post not found")
	}
	return &post, nil
}

func (f *fakePostsRepo) UpdateContent(_ context.Context, id int64, content string) (*models.Post, error) {
	post, ok := f.posts[id]
	if !ok {
		return nil, apperrors.NotFound("post not found")
	}
	post.Content = content
	f.posts[id] = post
	return &post, nil
}

func (f *fakePostsRepo) DeletePost(_ context.Context, id int64) error {
	if _, ok := f.posts[id]; !ok {
		return apperrors.NotFound("post not found")
	}
	delete(f.posts, id)
	for p := range f.likes {
		if p.postID == id {
			delete(f.likes, p)
		}
	}
	for p := range f.retweets {
		if p.postID == id {
			delete(f.retweets, p)
		}
	}
	return nil
}

func (f *fakePostsRepo) sortedPosts() []models.Post {
	list := make([]models.Post, 0, len(f.posts))
	for _, post := range f.posts {
		list = append(list, post)
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].Timestamp.Equal(list[j].Timestamp) {
			return list[i].Timestamp.After(list[j].Timestamp)
		}
		return list[i].ID > list[j].ID
	})
	return list
}

func page[T any](list []T, skip, limit int) []T {
	if skip >= len(list) {
		return []T{}
	}
	list = list[skip:]
	if limit < len(list) {
		list = list[:limit]
	}
	return list
}

func (f *fakePostsRepo) ListPosts(_ context.Context, skip, limit int) ([]models.Post, error) {
	return page(f.sortedPosts(), skip, limit), nil
}

func (f *fakePostsRepo) ListWithCounts(_ context.Context, skip, limit int) ([]models.PostWithCounts, error) {
	list := make([]models.PostWithCounts, 0, len(f.posts))
	for _, post := range f.sortedPosts() {
		withCounts := models.PostWithCounts{Post: post, OwnerUsername: f.usernames[post.OwnerID]}
		for p := range f.likes {
			if p.postID == post.ID {
				withCounts.LikesCount++
			}
		}
		for p := range f.retweets {
			if p.postID == post.ID {
				withCounts.RetweetsCount++
			}
		}
		list = append(list, withCounts)
	}
	return page(list, skip, limit), nil
}

func (f *fakePostsRepo) CreateLike(_ context.Context, userID, postID int64) error {
	p := pair{userID, postID}
	if f.likes[p] {
		return apperrors.BadRequest("already liked")
	}
	f.likes[p] = true
	return nil
}

func (f *fakePostsRepo) DeleteLike(_ context.Context, userID, postID int64) error {
	p := pair{userID, postID}
	if !f.likes[p] {
		return apperrors.BadRequest("not liked yet")
	}
	delete(f.likes, p)
	return nil
}

func (f *fakePostsRepo) CreateRetweet(_ context.Context, userID, postID int64, createdAt time.Time) error {
	p := pair{userID, postID}
	if _, ok := f.retweets[p]; ok {
		return apperrors.BadRequest("already retweeted")
	}
	f.retweets[p] = createdAt
	return nil
}

func (f *fakePostsRepo) DeleteRetweet(_ context.Context, userID, postID int64) error {
	p := pair{userID, postID}
	if _, ok := f.retweets[p]; !ok {
		return apperrors.BadRequest("not retweeted yet")
	}
	delete(f.retweets, p)
	return nil
}

const (
	aliceID int64 = 1
	bobID   int64 = 2
)

func setupApp(t *testing.T) (*posts.App, *fakePostsRepo, *clockwork.FakeClock) {
	t.Helper()

	repo := newFakePostsRepo(map[int64]string{aliceID: "alice", bobID: "bob"})
	clock := clockwork.NewFakeClock()
	return posts.NewApp(repo, clock), repo, clock
}

func mustCreate(t *testing.T, app *posts.App, ownerID int64, content string) *models.Post {
	t.Helper()

	post, err := app.Create(context.Background(), ownerID, posts.CreatePostRequest{Content: content})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	return post
}

func TestApp_CreateValidation(t *testing.T) {
	ctx := context.Background()
	app, _, _ := setupApp(t)

	tests := []struct {
		name    string
		content string
	}{
		{"empty content", ""},
		{"content too long", strings.Repeat("x", 281)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := app.Create(ctx, aliceID, posts.CreatePostRequest{Content: tt.content})
			if !errors.Is(err, apperrors.ErrBadRequest) {
				t.Errorf("err = %v, want bad request", err)
			}
		})
	}

	// 280 characters is still acceptable.
	if _, err := app.Create(ctx, aliceID, posts.CreatePostRequest{Content: strings.Repeat("x", 280)}); err != nil {
		t.Errorf("280-char content rejected: %v", err)
	}
}

func TestApp_UpdateWithinEditWindow(t *testing.T) {
	ctx := context.Background()
	app, _, clock := setupApp(t)
	post := mustCreate(t, app, aliceID, "hello")

	clock.Advance(9*time.Minute + 59*time.Second)

	updated, err := app.Update(ctx, aliceID, post.ID, posts.UpdatePostRequest{Content: "hello, edited"})
	if err != nil {
		t.Fatalf("update at 9m59s: %v", err)
	}
	if updated.Content != "hello, edited" {
		t.Errorf("content = %q, want edited content", updated.Content)
	}
}

func TestApp_UpdateAfterEditWindow(t *testing.T) {
	ctx := context.Background()
	app, _, clock := setupApp(t)

	tests := []struct {
		name    string
		elapsed time.Duration
	}{
		{"exactly ten minutes", 10 * time.Minute},
		{"past ten minutes", 10*time.Minute + time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			post := mustCreate(t, app, aliceID, "hello")
			clock.Advance(tt.elapsed)

			_, err := app.Update(ctx, aliceID, post.ID, posts.UpdatePostRequest{Content: "too late"})
			if !errors.Is(err, apperrors.ErrForbidden) {
				t.Fatalf("err = %v, want forbidden", err)
			}
			if apperrors.Detail(err) != "edit window expired" {
				t.Errorf("detail = %q, want edit window expired", apperrors.Detail(err))
			}
		})
	}
}

func TestApp_UpdateAuthorization(t *testing.T) {
	ctx := context.Background()
	app, _, _ := setupApp(t)
	post := mustCreate(t, app, aliceID, "hello")

	_, err := app.Update(ctx, bobID, post.ID, posts.UpdatePostRequest{Content: "hijacked"})
	if !errors.Is(err, apperrors.ErrForbidden) {
		t.Errorf("non-owner update: err = %v, want forbidden", err)
	}

	_, err = app.Update(ctx, aliceID, 404, posts.UpdatePostRequest{Content: "ghost"})
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("absent post update: err = %v, want not found", err)
	}
}

// Deleting someone else's post and deleting a missing post must be
// indistinguishable so ownership is not disclosed.
func TestApp_DeleteDoesNotDiscloseOwnership(t *testing.T) {
	ctx := context.Background()
	app, _, _ := setupApp(t)
	post := mustCreate(t, app, aliceID, "hello")

	notOwned := app.Delete(ctx, bobID, post.ID)
	absent := app.Delete(ctx, bobID, 404)

	if !errors.Is(notOwned, apperrors.ErrNotFound) {
		t.Errorf("non-owned delete: err = %v, want not found", notOwned)
	}
	if !errors.Is(absent, apperrors.ErrNotFound) {
		t.Errorf("absent delete: err = %v, want not found", absent)
	}
	if notOwned.Error() != absent.Error() {
		t.Errorf("messages differ: %q vs %q", notOwned.Error(), absent.Error())
	}
}

func TestApp_DeleteCascadesEngagement(t *testing.T) {
	ctx := context.Background()
	app, repo, _ := setupApp(t)
	post := mustCreate(t, app, aliceID, "hello")

	if err := app.Like(ctx, bobID, post.ID); err != nil {
		t.Fatalf("like: %v", err)
	}
	if err := app.Retweet(ctx, bobID, post.ID); err != nil {
		t.Fatalf("retweet: %v", err)
	}

	if err := app.Delete(ctx, aliceID, post.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(repo.likes) != 0 || len(repo.retweets) != 0 {
		t.Errorf("engagement rows survived the delete: %d likes, %d retweets",
			len(repo.likes), len(repo.retweets))
	}
}

func TestApp_LikeRules(t *testing.T) {
	ctx := context.Background()
	app, _, _ := setupApp(t)
	post := mustCreate(t, app, aliceID, "hello")

	if err := app.Like(ctx, bobID, 404); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("like absent post: err = %v, want not found", err)
	}
	if err := app.Unlike(ctx, bobID, 404); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("unlike absent post: err = %v, want not found", err)
	}

	if err := app.Like(ctx, bobID, post.ID); err != nil {
		t.Fatalf("like: %v", err)
	}
	if err := app.Like(ctx, bobID, post.ID); !errors.Is(err, apperrors.ErrBadRequest) {
		t.Errorf("duplicate like: err = %v, want bad request", err)
	}

	if err := app.Unlike(ctx, bobID, post.ID); err != nil {
		t.Fatalf("unlike: %v", err)
	}
	if err := app.Unlike(ctx, bobID, post.ID); !errors.Is(err, apperrors.ErrBadRequest) {
		t.Errorf("unlike without like: err = %v, want bad request", err)
	}
}

func TestApp_RetweetRules(t *testing.T) {
	ctx := context.Background()
	app, _, _ := setupApp(t)
	post := mustCreate(t, app, aliceID, "hello")

	if err := app.Retweet(ctx, bobID, post.ID); err != nil {
		t.Fatalf("retweet: %v", err)
	}
	if err := app.Retweet(ctx, bobID, post.ID); !errors.Is(err, apperrors.ErrBadRequest) {
		t.Errorf("duplicate retweet: err = %v, want bad request", err)
	}
	if err := app.Unretweet(ctx, bobID, post.ID); err != nil {
		t.Fatalf("unretweet: %v", err)
	}
	if err := app.Unretweet(ctx, bobID, post.ID); !errors.Is(err, apperrors.ErrBadRequest) {
		t.Errorf("repeat unretweet: err = %v, want bad request", err)
	}
}

func TestApp_ListOrderingAndPagination(t *testing.T) {
	ctx := context.Background()
	app, _, clock := setupApp(t)

	for i := 0; i < 12; i++ {
		mustCreate(t, app, aliceID, "post")
		clock.Advance(time.Minute)
	}

	// Zero limit falls back to the default page size.
	list, err := app.List(ctx, 0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 10 {
		t.Fatalf("len = %d, want default page of 10", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i].Timestamp.After(list[i-1].Timestamp) {
			t.Fatal("posts not ordered newest first")
		}
	}
	if list[0].ID != 12 {
		t.Errorf("first post id = %d, want newest (12)", list[0].ID)
	}

	tail, err := app.List(ctx, 10, 10)
	if err != nil {
		t.Fatalf("list with skip: %v", err)
	}
	if len(tail) != 2 {
		t.Errorf("len = %d, want remaining 2", len(tail))
	}
}

// A post with no engagement must appear in the aggregated feed with explicit
// zero counts, not be dropped.
func TestApp_ListWithCountsZeroEngagement(t *testing.T) {
	ctx := context.Background()
	app, _, _ := setupApp(t)
	post := mustCreate(t, app, aliceID, "lonely")

	list, err := app.ListWithCounts(ctx, 0, 10)
	if err != nil {
		t.Fatalf("list with counts: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("len = %d, want 1", len(list))
	}
	got := list[0]
	if got.ID != post.ID || got.LikesCount != 0 || got.RetweetsCount != 0 {
		t.Errorf("got %+v, want post %d with zero counts", got, post.ID)
	}
	if got.OwnerUsername != "alice" {
		t.Errorf("owner_username = %q, want alice", got.OwnerUsername)
	}
}

// Mirrors the end-to-end acceptance walk: alice posts, bob engages and
// disengages, alice deletes.
func TestApp_EngagementLifecycle(t *testing.T) {
	ctx := context.Background()
	app, _, _ := setupApp(t)

	post := mustCreate(t, app, aliceID, "hello")
	if post.ID != 1 {
		t.Fatalf("post id = %d, want 1", post.ID)
	}

	if err := app.Like(ctx, bobID, post.ID); err != nil {
		t.Fatalf("like: %v", err)
	}
	list, err := app.ListWithCounts(ctx, 0, 10)
	if err != nil {
		t.Fatalf("list with counts: %v", err)
	}
	if list[0].LikesCount != 1 {
		t.Errorf("likes_count = %d, want 1", list[0].LikesCount)
	}

	if err := app.Unlike(ctx, bobID, post.ID); err != nil {
		t.Fatalf("unlike: %v", err)
	}
	list, err = app.ListWithCounts(ctx, 0, 10)
	if err != nil {
		t.Fatalf("list with counts: %v", err)
	}
	if list[0].LikesCount != 0 {
		t.Errorf("likes_count = %d, want 0", list[0].LikesCount)
	}

	if err := app.Delete(ctx, aliceID, post.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := app.Get(ctx, post.ID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("get deleted post: err = %v, want not found", err)
	}
}
