package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Story API paths.
const (
	CreatePath = "/api/Story/Create"
	EditPath   = "/api/Story/Edit/"
	ListPath   = "/api/Story/All"
	DeletePath = "/api/Story/Delete/"
)

// Story is a story spoiler as listed by the API.
type Story struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// StoryInput is the body of create and edit requests. URL is always sent,
// empty when unset.
type StoryInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// CreateResult is the body of a successful create.
type CreateResult struct {
	StoryID string `json:"storyId"`
	Msg     string `json:"msg"`
}

// CreateStory posts a new story and expects 201 Created.
func (c *Client) CreateStory(ctx context.Context, in StoryInput) (*CreateResult, error) {
	resp, err := c.expect(ctx, http.MethodPost, CreatePath, in, http.StatusCreated)
	if err != nil {
		return nil, err
	}
	var out CreateResult
	if err := resp.JSON(&out); err != nil {
		return nil, fmt.Errorf("create story: %w", err)
	}
	if out.StoryID == "" {
		return nil, fmt.Errorf("create story: response has no storyId")
	}
	return &out, nil
}

// EditStory replaces the story with the given id and returns the API message.
func (c *Client) EditStory(ctx context.Context, id string, in StoryInput) (string, error) {
	resp, err := c.expect(ctx, http.MethodPut, EditPath+url.PathEscape(id), in, http.StatusOK)
	if err != nil {
		return "", err
	}
	return resp.Message(), nil
}

// ListStories returns every story visible to the caller.
func (c *Client) ListStories(ctx context.Context) ([]Story, error) {
	resp, err := c.expect(ctx, http.MethodGet, ListPath, nil, http.StatusOK)
	if err != nil {
		return nil, err
	}
	var out []Story
	if err := resp.JSON(&out); err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}
	return out, nil
}

// DeleteStory removes the story with the given id and returns the API message.
func (c *Client) DeleteStory(ctx context.Context, id string) (string, error) {
	resp, err := c.expect(ctx, http.MethodDelete, DeletePath+url.PathEscape(id), nil, http.StatusOK)
	if err != nil {
		return "", err
	}
	return resp.Message(), nil
}

func (c *Client) expect(ctx context.Context, method, path string, body any, status int) (*Response, error) {
	resp, err := c.Do(ctx, method, path, body, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != status {
		return nil, resp.apiError(method, path)
	}
	return resp, nil
}
