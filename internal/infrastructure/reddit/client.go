// Package reddit implements the forum side of the bridge on top of reddit's
// OAuth REST API.
package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/qj0r9j0vc2/modlog-bridge/internal/domain/entity"
	domainerrors "github.com/qj0r9j0vc2/modlog-bridge/internal/domain/errors"
)

const (
	// DefaultAPIURL is the OAuth API host.
	DefaultAPIURL = "https://oauth.reddit.com"

	webURL   = "https://www.reddit.com"
	pageSize = 100
)

// Logger interface for structured logging.
type Logger interface {
	Info(msg string, fields ...any)
	Error(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Debug(msg string, fields ...any)
}

// TokenProvider supplies the bearer token and learns about rejections.
type TokenProvider interface {
	AccessToken() (string, bool)
	Invalidate()
}

// RequestMetrics records forum API calls.
type RequestMetrics interface {
	RecordForumRequest(ctx context.Context, endpoint string, status int, duration time.Duration)
}

// ClientConfig configures a Client.
type ClientConfig struct {
	APIURL    string
	Community string
	UserAgent string
	Timeout   time.Duration
}

// Client reads and writes one community through the OAuth API.
type Client struct {
	apiURL    string
	community string
	http      *http.Client
	tokens    TokenProvider
	metrics   RequestMetrics
	logger    Logger
}

// NewClient creates a reddit client. metrics may be nil.
func NewClient(cfg ClientConfig, tokens TokenProvider, metrics RequestMetrics, logger Logger) (*Client, error) {
	if cfg.Community == "" {
		return nil, fmt.Errorf("community is required")
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		apiURL:    strings.TrimRight(cfg.APIURL, "/"),
		community: cfg.Community,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: NewUserAgentTransport(cfg.UserAgent, nil),
		},
		tokens:  tokens,
		metrics: metrics,
		logger:  logger,
	}, nil
}

// Community returns the community the client is bound to.
func (c *Client) Community() string {
	return c.community
}

// thing is the envelope of every listing child.
type thing[T any] struct {
	Kind string `json:"kind"`
	Data T      `json:"data"`
}

type listing[T any] struct {
	Kind string `json:"kind"`
	Data struct {
		After    string     `json:"after"`
		Children []thing[T] `json:"children"`
	} `json:"data"`
}

type modAction struct {
	Mod            string  `json:"mod"`
	Action         string  `json:"action"`
	TargetFullname string  `json:"target_fullname"`
	CreatedUTC     float64 `json:"created_utc"`
}

type queuedThing struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type link struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Permalink string `json:"permalink"`
	Stickied  bool   `json:"stickied"`
}

type message struct {
	ID   string `json:"id"`
	Body string `json:"body"`
}

// ModLog streams the community moderation log, newest first. Pages are fetched
// only as the consumer pulls.
func (c *Client) ModLog(ctx context.Context) iter.Seq2[entity.ModLogEntry, error] {
	return mapStream(paginate[modAction](ctx, c, c.subPath("about/log")), func(t thing[modAction]) entity.ModLogEntry {
		return entity.ModLogEntry{
			Moderator: t.Data.Mod,
			Action:    t.Data.Action,
			TargetID:  t.Data.TargetFullname,
			CreatedAt: fromUnix(t.Data.CreatedUTC),
		}
	})
}

// ModQueue streams every item in the modqueue.
func (c *Client) ModQueue(ctx context.Context) iter.Seq2[entity.QueueItem, error] {
	return mapStream(paginate[queuedThing](ctx, c, c.subPath("about/modqueue")), toQueueItem)
}

// Unmoderated streams every item in the unmoderated queue.
func (c *Client) Unmoderated(ctx context.Context) iter.Seq2[entity.QueueItem, error] {
	return mapStream(paginate[queuedThing](ctx, c, c.subPath("about/unmoderated")), toQueueItem)
}

// Hot returns the first limit submissions of the hot listing.
func (c *Client) Hot(ctx context.Context, limit int) ([]entity.Submission, error) {
	q := url.Values{"limit": {strconv.Itoa(limit)}}
	var page listing[link]
	if err := c.get(ctx, c.subPath("hot"), q, &page); err != nil {
		return nil, err
	}

	subs := make([]entity.Submission, 0, len(page.Data.Children))
	for _, child := range page.Data.Children {
		if len(subs) == limit {
			break
		}
		subs = append(subs, entity.Submission{
			ID:        child.Data.ID,
			Title:     child.Data.Title,
			Permalink: absolute(child.Data.Permalink),
			Stickied:  child.Data.Stickied,
		})
	}
	return subs, nil
}

// Moderators lists the moderator names of a community.
func (c *Client) Moderators(ctx context.Context, community string) ([]string, error) {
	var resp struct {
		Data struct {
			Children []struct {
				Name string `json:"name"`
			} `json:"children"`
		} `json:"data"`
	}
	if err := c.get(ctx, "/r/"+url.PathEscape(community)+"/about/moderators", nil, &resp); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(resp.Data.Children))
	for _, m := range resp.Data.Children {
		names = append(names, m.Name)
	}
	return names, nil
}

// SendModmail sends a private message to the community's moderators.
func (c *Client) SendModmail(ctx context.Context, subject, body string) error {
	form := url.Values{
		"api_type": {"json"},
		"to":       {"/r/" + c.community},
		"subject":  {subject},
		"text":     {body},
	}

	var resp struct {
		JSON struct {
			Errors [][]any `json:"errors"`
		} `json:"json"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/compose", nil, strings.NewReader(form.Encode()), &resp); err != nil {
		return err
	}
	if len(resp.JSON.Errors) > 0 {
		return domainerrors.NewPermanentError(
			fmt.Sprintf("compose rejected: %v", resp.JSON.Errors[0]),
			nil,
		)
	}
	return nil
}

// RecentModmail returns the newest limit messages of the moderator mailbox.
func (c *Client) RecentModmail(ctx context.Context, limit int) ([]entity.MailMessage, error) {
	q := url.Values{"limit": {strconv.Itoa(limit)}}
	var page listing[message]
	if err := c.get(ctx, c.subPath("message/moderator"), q, &page); err != nil {
		return nil, err
	}

	msgs := make([]entity.MailMessage, 0, len(page.Data.Children))
	for _, child := range page.Data.Children {
		if len(msgs) == limit {
			break
		}
		msgs = append(msgs, entity.MailMessage{ID: child.Data.ID, Body: child.Data.Body})
	}
	return msgs, nil
}

// paginate walks a listing page by page, following the "after" cursor.
func paginate[T any](ctx context.Context, c *Client, path string) iter.Seq2[thing[T], error] {
	return func(yield func(thing[T], error) bool) {
		after := ""
		for {
			q := url.Values{"limit": {strconv.Itoa(pageSize)}}
			if after != "" {
				q.Set("after", after)
			}

			var page listing[T]
			if err := c.get(ctx, path, q, &page); err != nil {
				yield(thing[T]{}, err)
				return
			}

			for _, child := range page.Data.Children {
				if !yield(child, nil) {
					return
				}
			}

			if page.Data.After == "" || len(page.Data.Children) == 0 {
				return
			}
			after = page.Data.After
		}
	}
}

func mapStream[T, U any](stream iter.Seq2[T, error], fn func(T) U) iter.Seq2[U, error] {
	return func(yield func(U, error) bool) {
		for v, err := range stream {
			var zero U
			if err != nil {
				yield(zero, err)
				return
			}
			if !yield(fn(v), nil) {
				return
			}
		}
	}
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, out any) error {
	operation := method + " " + path

	token, ok := c.tokens.AccessToken()
	if !ok {
		return fmt.Errorf("%s: %w", operation, domainerrors.ErrCredentialRejected)
	}

	if query == nil {
		query = url.Values{}
	}
	query.Set("raw_json", "1")

	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path+"?"+query.Encode(), body)
	if err != nil {
		return fmt.Errorf("%s: building request: %w", operation, err)
	}
	req.Header.Set("Authorization", "bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.record(ctx, path, 0, start)
		return categorizeTransportError(err, operation)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("Failed to close response body", "error", err)
		}
	}()
	c.record(ctx, path, resp.StatusCode, start)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusUnauthorized {
			c.tokens.Invalidate()
		}
		return categorizeStatus(resp.StatusCode, operation)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domainerrors.NewPermanentError(operation+": decoding response", err)
	}
	return nil
}

func (c *Client) record(ctx context.Context, path string, status int, start time.Time) {
	if c.metrics != nil {
		c.metrics.RecordForumRequest(ctx, endpointLabel(path, c.community), status, time.Since(start))
	}
}

func (c *Client) subPath(suffix string) string {
	return "/r/" + url.PathEscape(c.community) + "/" + suffix
}

// endpointLabel removes the community name so metric labels stay bounded.
func endpointLabel(path, community string) string {
	return strings.Replace(path, "/r/"+url.PathEscape(community)+"/", "/r/{community}/", 1)
}

func toQueueItem(t thing[queuedThing]) entity.QueueItem {
	return entity.QueueItem{Kind: t.Kind, ID: t.Data.ID}
}

func fromUnix(sec float64) time.Time {
	whole, frac := math.Modf(sec)
	return time.Unix(int64(whole), int64(frac*1e9)).UTC()
}

func absolute(permalink string) string {
	if permalink == "" || strings.HasPrefix(permalink, "http") {
		return permalink
	}
	return webURL + permalink
}
