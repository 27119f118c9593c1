package timeline

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"loom/models"
)

func TestBuildComments_ThreadOrderAndLevels(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	postID := primitive.NewObjectID()
	authorID := primitive.NewObjectID()
	commentA := primitive.NewObjectID()
	commentB := primitive.NewObjectID()

	// B replies to A but is listed first to exercise the defensive re-sort.
	comments := []models.Comment{
		{
			ID:        commentB,
			PostID:    postID,
			UserID:    authorID,
			ParentID:  &commentA,
			Content:   "reply",
			CreatedAt: now.Add(-5 * time.Minute).Unix(),
		},
		{
			ID:        commentA,
			PostID:    postID,
			UserID:    authorID,
			Content:   "top level",
			CreatedAt: now.Add(-10 * time.Minute).Unix(),
		},
	}

	authors := map[primitive.ObjectID]models.User{
		authorID: {ID: authorID, Username: "alice", Avatar: "https://img.example/alice.png"},
	}
	likeCounts := map[primitive.ObjectID]int64{commentA: 2}
	liked := map[primitive.ObjectID]bool{commentA: true}

	views := BuildComments(comments, authors, likeCounts, liked, now)

	if len(views) != 2 {
		t.Fatalf("want 2 comment views, got %d", len(views))
	}

	if views[0].ID != commentA.Hex() || views[1].ID != commentB.Hex() {
		t.Errorf("want creation order [%s %s], got [%s %s]",
			commentA.Hex(), commentB.Hex(), views[0].ID, views[1].ID)
	}
	if views[0].Level != 0 {
		t.Errorf("want level 0 for top-level comment, got %d", views[0].Level)
	}
	if views[1].Level != 1 {
		t.Errorf("want level 1 for reply, got %d", views[1].Level)
	}

	if views[0].Author.Username != "alice" {
		t.Errorf("want author username %q, got %q", "alice", views[0].Author.Username)
	}
	if !views[0].IsLiked || views[0].LikeCount != 2 {
		t.Errorf("want liked comment with 2 likes, got isLiked=%v likeCount=%d",
			views[0].IsLiked, views[0].LikeCount)
	}
	if views[1].IsLiked {
		t.Error("want isLiked=false for comment the viewer never liked")
	}
	if views[0].Age != "10m" {
		t.Errorf("want age %q, got %q", "10m", views[0].Age)
	}
}

func TestBuildComments_MissingAuthorFallback(t *testing.T) {
	now := time.Now()
	comments := []models.Comment{
		{
			ID:        primitive.NewObjectID(),
			PostID:    primitive.NewObjectID(),
			UserID:    primitive.NewObjectID(),
			Content:   "orphaned",
			CreatedAt: now.Unix(),
		},
	}

	views := BuildComments(comments, nil, nil, nil, now)

	if views[0].Author.Username != FallbackUsername {
		t.Errorf("want fallback username %q, got %q", FallbackUsername, views[0].Author.Username)
	}
	if views[0].Author.Avatar != FallbackAvatar {
		t.Errorf("want fallback avatar %q, got %q", FallbackAvatar, views[0].Author.Avatar)
	}
}

func TestNewAuthorView_EmptyFieldsFallBack(t *testing.T) {
	id := primitive.NewObjectID()
	user := &models.User{ID: id, Name: "Bob"}

	a := NewAuthorView(id, user)

	if a.Username != FallbackUsername {
		t.Errorf("want fallback username %q, got %q", FallbackUsername, a.Username)
	}
	if a.Avatar != FallbackAvatar {
		t.Errorf("want fallback avatar %q, got %q", FallbackAvatar, a.Avatar)
	}
	if a.Name != "Bob" {
		t.Errorf("want name %q, got %q", "Bob", a.Name)
	}
}

func TestBuildPost(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	authorID := primitive.NewObjectID()

	post := models.Post{
		ID:        primitive.NewObjectID(),
		UserID:    authorID,
		Content:   "hello threads",
		CreatedAt: now.Add(-90 * time.Minute).Unix(),
	}
	author := &models.User{ID: authorID, Username: "carol", Avatar: "https://img.example/carol.png"}
	counts := PostCounts{Comments: 3, Likes: 7, Reposts: 1, IsLiked: true}

	view := BuildPost(post, author, counts, now)

	if view.Author.Username != "carol" {
		t.Errorf("want author %q, got %q", "carol", view.Author.Username)
	}
	if view.CommentCount != 3 || view.LikeCount != 7 || view.RepostCount != 1 {
		t.Errorf("want counts 3/7/1, got %d/%d/%d",
			view.CommentCount, view.LikeCount, view.RepostCount)
	}
	if !view.IsLiked || view.IsReposted {
		t.Errorf("want isLiked=true isReposted=false, got %v/%v", view.IsLiked, view.IsReposted)
	}
	if view.Age != "1h" {
		t.Errorf("want age %q, got %q", "1h", view.Age)
	}
}
