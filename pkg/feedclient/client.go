package feedclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// APIError is a non-2xx answer from the feed API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("feed api: %d %s", e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Client is a typed client for the feed HTTP API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a Client for the API rooted at baseURL, e.g.
// "http://localhost:8080/api/v1".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListPosts fetches one page of the feed.
func (c *Client) ListPosts(ctx context.Context, p ListPostsParams) (*PostPage, error) {
	q := url.Values{}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		q.Set("offset", strconv.Itoa(p.Offset))
	}
	if p.UserID != "" {
		q.Set("userId", p.UserID)
	}

	var page PostPage
	if err := c.do(ctx, http.MethodGet, "/posts", q, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// CreatePost uploads an image with an optional caption.
func (c *Client) CreatePost(ctx context.Context, filename string, image []byte, caption string) (*PostView, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("image", filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(image); err != nil {
		return nil, err
	}
	if caption != "" {
		if err := w.WriteField("caption", caption); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/posts", nil, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var out struct {
		Post PostView `json:"post"`
	}
	if err := c.send(req, &out); err != nil {
		return nil, err
	}
	return &out.Post, nil
}

// GetPost fetches a single post.
func (c *Client) GetPost(ctx context.Context, postID string) (*PostView, error) {
	var out struct {
		Data *PostView `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/posts/"+url.PathEscape(postID), nil, nil, &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		return nil, &APIError{Status: http.StatusNotFound, Message: "Post not found"}
	}
	return out.Data, nil
}

// DeletePost deletes one of the caller's posts.
func (c *Client) DeletePost(ctx context.Context, postID string) error {
	return c.do(ctx, http.MethodDelete, "/posts/"+url.PathEscape(postID), nil, nil, nil)
}

// Like likes a post.
func (c *Client) Like(ctx context.Context, postID string) (*LikeView, error) {
	var out struct {
		Like LikeView `json:"like"`
	}
	if err := c.do(ctx, http.MethodPost, "/likes", nil, map[string]string{"post_id": postID}, &out); err != nil {
		return nil, err
	}
	return &out.Like, nil
}

// Unlike removes the caller's like from a post.
func (c *Client) Unlike(ctx context.Context, postID string) error {
	return c.do(ctx, http.MethodDelete, "/likes", nil, map[string]string{"post_id": postID}, nil)
}

// ListComments fetches a page of a post's comments, oldest first.
func (c *Client) ListComments(ctx context.Context, postID string, limit, offset int) (*CommentPage, error) {
	q := url.Values{"post_id": {postID}}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}

	var page CommentPage
	if err := c.do(ctx, http.MethodGet, "/comments", q, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// AddComment comments on a post.
func (c *Client) AddComment(ctx context.Context, postID, content string) (*CommentView, error) {
	var out struct {
		Comment CommentView `json:"comment"`
	}
	body := map[string]string{"post_id": postID, "content": content}
	if err := c.do(ctx, http.MethodPost, "/comments", nil, body, &out); err != nil {
		return nil, err
	}
	return &out.Comment, nil
}

// DeleteComment deletes one of the caller's comments.
func (c *Client) DeleteComment(ctx context.Context, commentID string) error {
	return c.do(ctx, http.MethodDelete, "/comments", nil, map[string]string{"comment_id": commentID}, nil)
}

// Follow follows a user.
func (c *Client) Follow(ctx context.Context, userID string) (*FollowView, error) {
	var out struct {
		Follow FollowView `json:"follow"`
	}
	if err := c.do(ctx, http.MethodPost, "/follows", nil, map[string]string{"following_id": userID}, &out); err != nil {
		return nil, err
	}
	return &out.Follow, nil
}

// Unfollow unfollows a user.
func (c *Client) Unfollow(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodDelete, "/follows", nil, map[string]string{"following_id": userID}, nil)
}

// GetProfile fetches a profile by id, or the caller's own with "me".
func (c *Client) GetProfile(ctx context.Context, userID string) (*ProfileView, error) {
	var out struct {
		Data *ProfileView `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(userID), nil, nil, &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		return nil, &APIError{Status: http.StatusNotFound, Message: "User not found"}
	}
	return out.Data, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(raw)
	}

	req, err := c.newRequest(ctx, method, path, query, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) send(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body struct {
			Error *string `json:"error"`
		}
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != nil {
			apiErr.Message = *body.Error
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
