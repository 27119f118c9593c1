package timeline

import (
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"loom/models"
)

// Fallbacks applied when an author row is missing or has empty fields, so a
// view model never carries an empty name or avatar.
const (
	FallbackUsername = "Unknown"
	FallbackAvatar   = "https://upload.wikimedia.org/wikipedia/commons/8/89/Portrait_Placeholder.png"
)

type AuthorView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar"`
}

type PostView struct {
	ID           string     `json:"id"`
	Author       AuthorView `json:"author"`
	Content      string     `json:"content"`
	Image        string     `json:"image,omitempty"`
	CreatedAt    int64      `json:"createdAt"`
	Age          string     `json:"age"`
	CommentCount int64      `json:"commentCount"`
	LikeCount    int64      `json:"likeCount"`
	RepostCount  int64      `json:"repostCount"`
	IsLiked      bool       `json:"isLiked"`
	IsReposted   bool       `json:"isReposted"`
}

type CommentView struct {
	ID        string     `json:"id"`
	PostID    string     `json:"postId"`
	ParentID  string     `json:"parentId,omitempty"`
	Author    AuthorView `json:"author"`
	Content   string     `json:"content"`
	CreatedAt int64      `json:"createdAt"`
	Age       string     `json:"age"`
	LikeCount int64      `json:"likeCount"`
	IsLiked   bool       `json:"isLiked"`
	Level     int        `json:"level"`
}

// ThreadView is the assembled result for a post screen: the annotated post
// plus its leveled comment list in creation order.
type ThreadView struct {
	Post     PostView      `json:"post"`
	Comments []CommentView `json:"comments"`
}

// NewAuthorView builds the author fragment for a view model. A nil user or
// empty fields fall back to fixed defaults, never to empty strings.
func NewAuthorView(id primitive.ObjectID, user *models.User) AuthorView {
	a := AuthorView{
		ID:       id.Hex(),
		Username: FallbackUsername,
		Avatar:   FallbackAvatar,
	}
	if user == nil {
		return a
	}
	if user.Username != "" {
		a.Username = user.Username
	}
	if user.Avatar != "" {
		a.Avatar = user.Avatar
	}
	a.Name = user.Name
	return a
}

// PostCounts carries the aggregate counts and viewer flags merged into a
// PostView.
type PostCounts struct {
	Comments   int64
	Likes      int64
	Reposts    int64
	IsLiked    bool
	IsReposted bool
}

func BuildPost(post models.Post, author *models.User, counts PostCounts, now time.Time) PostView {
	return PostView{
		ID:           post.ID.Hex(),
		Author:       NewAuthorView(post.UserID, author),
		Content:      post.Content,
		Image:        post.Image,
		CreatedAt:    post.CreatedAt,
		Age:          RelativeTimeUnix(post.CreatedAt, now),
		CommentCount: counts.Comments,
		LikeCount:    counts.Likes,
		RepostCount:  counts.Reposts,
		IsLiked:      counts.IsLiked,
		IsReposted:   counts.IsReposted,
	}
}

// BuildComments joins raw comment rows with their author profiles, like
// counts and the viewer's like state, assigns nesting levels and returns the
// annotated list sorted by creation time ascending. The sort is re-applied
// here even when the rows arrive ordered, so callers get a stable contract.
func BuildComments(
	comments []models.Comment,
	authors map[primitive.ObjectID]models.User,
	likeCounts map[primitive.ObjectID]int64,
	likedByViewer map[primitive.ObjectID]bool,
	now time.Time,
) []CommentView {
	views := make([]CommentView, len(comments))
	for i, c := range comments {
		var author *models.User
		if u, ok := authors[c.UserID]; ok {
			author = &u
		}

		v := CommentView{
			ID:        c.ID.Hex(),
			PostID:    c.PostID.Hex(),
			Author:    NewAuthorView(c.UserID, author),
			Content:   c.Content,
			CreatedAt: c.CreatedAt,
			Age:       RelativeTimeUnix(c.CreatedAt, now),
			LikeCount: likeCounts[c.ID],
			IsLiked:   likedByViewer[c.ID],
		}
		if c.ParentID != nil {
			v.ParentID = c.ParentID.Hex()
		}
		views[i] = v
	}

	AssignLevels(views)

	sort.SliceStable(views, func(i, j int) bool {
		return views[i].CreatedAt < views[j].CreatedAt
	})

	return views
}
