// Package apiclient talks to a fingergame server over HTTP. It backs the
// terminal client when a server URL is configured.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/playperu/fingergame/internal/catalog"
	"github.com/playperu/fingergame/internal/fingergame"
	"github.com/playperu/fingergame/internal/leaderboard"
	"github.com/playperu/fingergame/internal/wizard"
)

var (
	_ wizard.Games       = (*Client)(nil)
	_ leaderboard.Client = (*Client)(nil)
)

type Client struct {
	base string
	http *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

// Unwrap maps the server's status and message back onto the domain errors.
func (e *apiError) Unwrap() error {
	switch {
	case e.Status == http.StatusNotFound && e.Message == fingergame.ErrPlayerNotFound.Error():
		return fingergame.ErrPlayerNotFound
	case e.Status == http.StatusNotFound && e.Message == fingergame.ErrEmptyPool.Error():
		return fingergame.ErrEmptyPool
	case e.Status == http.StatusNotFound:
		return fingergame.ErrNotFound
	case e.Status == http.StatusBadRequest && e.Message == fingergame.ErrDuplicate.Error():
		return fingergame.ErrDuplicate
	case e.Status == http.StatusBadRequest:
		return fingergame.ErrInvalidInput
	default:
		return nil
	}
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(raw, &e) != nil || e.Error == "" {
			e.Error = strings.TrimSpace(string(raw))
		}
		return &apiError{Status: resp.StatusCode, Message: e.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

func gamePath(id, suffix string) string {
	return "/api/games/" + url.PathEscape(id) + suffix
}

func (c *Client) CreateGame(ctx context.Context) (string, error) {
	var out struct {
		GameID string `json:"gameId"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/games", nil, &out); err != nil {
		return "", err
	}
	return out.GameID, nil
}

type playerRequest struct {
	PlayerName string `json:"playerName"`
}

func (c *Client) AddPlayer(ctx context.Context, gameID, name string) ([]string, error) {
	var out struct {
		Players []string `json:"players"`
	}
	if err := c.do(ctx, http.MethodPost, gamePath(gameID, "/players"), playerRequest{name}, &out); err != nil {
		return nil, err
	}
	return out.Players, nil
}

func (c *Client) Eliminate(ctx context.Context, gameID, name string) (fingergame.Elimination, error) {
	var out fingergame.Elimination
	err := c.do(ctx, http.MethodPost, gamePath(gameID, "/eliminate"), playerRequest{name}, &out)
	return out, err
}

func (c *Client) Status(ctx context.Context, gameID string) (fingergame.Status, error) {
	var out fingergame.Status
	err := c.do(ctx, http.MethodGet, gamePath(gameID, "/status"), nil, &out)
	return out, err
}

func (c *Client) RandomTask(ctx context.Context, gameID string, d fingergame.Difficulty) (fingergame.Task, error) {
	path := gamePath(gameID, "/random-task")
	if d != "" {
		path += "?difficulty=" + url.QueryEscape(string(d))
	}
	var out fingergame.Task
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// Catalog fetches the three datasets and assembles a catalog from them.
func (c *Client) Catalog(ctx context.Context) (*catalog.Catalog, error) {
	var (
		tasks    []fingergame.Task
		media    []string
		badWords []string
	)
	if err := c.do(ctx, http.MethodGet, "/api/tasks", nil, &tasks); err != nil {
		return nil, fmt.Errorf("fetching tasks: %w", err)
	}
	if err := c.do(ctx, http.MethodGet, "/api/memes", nil, &media); err != nil {
		return nil, fmt.Errorf("fetching memes: %w", err)
	}
	if err := c.do(ctx, http.MethodGet, "/api/bad-words", nil, &badWords); err != nil {
		return nil, fmt.Errorf("fetching bad words: %w", err)
	}
	return catalog.New(tasks, media, badWords), nil
}

// ReportResult posts one result record to the leaderboard.
func (c *Client) ReportResult(ctx context.Context, r fingergame.Result) (string, error) {
	var out struct {
		Success bool   `json:"success"`
		ID      string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/game-result", r, &out); err != nil {
		return "", external(err)
	}
	if !out.Success {
		return "", fmt.Errorf("%w: result not stored", fingergame.ErrExternalStore)
	}
	return out.ID, nil
}

func (c *Client) FetchWinCounts(ctx context.Context) (map[string]int, error) {
	var out map[string]int
	if err := c.do(ctx, http.MethodGet, "/api/leaderboard", nil, &out); err != nil {
		return nil, external(err)
	}
	if out == nil {
		out = map[string]int{}
	}
	return out, nil
}

func external(err error) error {
	if errors.Is(err, fingergame.ErrExternalStore) {
		return err
	}
	return fmt.Errorf("%w: %w", fingergame.ErrExternalStore, err)
}
