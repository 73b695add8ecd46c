package feedclient

// The reducers below never modify their input; each returns a new slice.

func clone(posts []PostView) []PostView {
	out := make([]PostView, len(posts))
	copy(out, posts)
	return out
}

// ApplyLike sets the viewer's like state on post id and moves its like
// count with it. Setting the state it already has changes nothing.
func ApplyLike(posts []PostView, id string, liked bool) []PostView {
	out := clone(posts)
	for i := range out {
		if out[i].ID != id || out[i].Liked == liked {
			continue
		}
		out[i].Liked = liked
		if liked {
			out[i].LikesCount++
		} else if out[i].LikesCount > 0 {
			out[i].LikesCount--
		}
	}
	return out
}

// ApplyCommentAdded bumps the comment count of post id.
func ApplyCommentAdded(posts []PostView, id string) []PostView {
	out := clone(posts)
	for i := range out {
		if out[i].ID == id {
			out[i].CommentsCount++
		}
	}
	return out
}

// ApplyCommentDeleted lowers the comment count of post id, never below zero.
func ApplyCommentDeleted(posts []PostView, id string) []PostView {
	out := clone(posts)
	for i := range out {
		if out[i].ID == id && out[i].CommentsCount > 0 {
			out[i].CommentsCount--
		}
	}
	return out
}

// RemovePost drops post id.
func RemovePost(posts []PostView, id string) []PostView {
	out := make([]PostView, 0, len(posts))
	for _, p := range posts {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}

// ReplacePost swaps in the counts and like state of p for the post with the
// same id.
func ReplacePost(posts []PostView, p PostView) []PostView {
	out := clone(posts)
	for i := range out {
		if out[i].ID == p.ID {
			out[i].Liked = p.Liked
			out[i].LikesCount = p.LikesCount
			out[i].CommentsCount = p.CommentsCount
		}
	}
	return out
}

// AppendPage appends page to posts, skipping ids already present. Offset
// pagination can repeat a row when posts are created between fetches.
func AppendPage(posts []PostView, page []PostView) []PostView {
	seen := make(map[string]struct{}, len(posts)+len(page))
	out := make([]PostView, 0, len(posts)+len(page))
	for _, p := range posts {
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	for _, p := range page {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out
}

func findPost(posts []PostView, id string) (PostView, bool) {
	for _, p := range posts {
		if p.ID == id {
			return p, true
		}
	}
	return PostView{}, false
}
