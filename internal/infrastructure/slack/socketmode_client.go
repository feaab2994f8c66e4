package slack

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/qj0r9j0vc2/modlog-bridge/internal/domain/entity"
	"github.com/qj0r9j0vc2/modlog-bridge/internal/infrastructure/resilience"
)

// Logger interface for structured logging.
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Debug(msg string, fields ...interface{})
}

// SocketModeConfig configures the Socket Mode event source.
type SocketModeConfig struct {
	BotToken  string
	AppToken  string
	ChannelID string
	Debug     bool
	// ReadTimeout bounds a single ReadNextEvent call.
	ReadTimeout time.Duration
	BufferSize  int
	APIURL      string
}

// SocketModeClient receives channel messages over Socket Mode and hands them out
// one at a time through ReadNextEvent.
type SocketModeClient struct {
	client       *socketmode.Client
	slackAPI     *slack.Client
	cfg          SocketModeConfig
	logger       Logger
	reconnectCfg ReconnectionConfig
	breaker      *resilience.CircuitBreaker
	events       chan *entity.ChatEvent

	connected     atomic.Bool
	mu            sync.RWMutex
	connectionID  string
	botUserID     string
	lastReconnect time.Time
}

// NewSocketModeClient creates a new Socket Mode client.
func NewSocketModeClient(cfg SocketModeConfig, logger Logger) (*SocketModeClient, error) {
	if cfg.AppToken == "" {
		return nil, fmt.Errorf("socket mode app token is required")
	}
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("bot token is required")
	}
	if cfg.ChannelID == "" {
		return nil, fmt.Errorf("channel id is required")
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 5 * time.Second
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 64
	}

	opts := []slack.Option{
		slack.OptionDebug(cfg.Debug),
		slack.OptionAppLevelToken(cfg.AppToken),
	}
	if cfg.APIURL != "" {
		opts = append(opts, slack.OptionAPIURL(cfg.APIURL))
	}
	slackAPI := slack.New(cfg.BotToken, opts...)

	socketClient := socketmode.New(
		slackAPI,
		socketmode.OptionDebug(cfg.Debug),
	)

	reconnectCfg := DefaultReconnectionConfig()
	breaker := resilience.NewCircuitBreaker("slack-socketmode", reconnectCfg.MaxRetries, reconnectCfg.MaxBackoff)
	breaker.OnStateChange(func(name string, from, to resilience.State) {
		logger.Warn("Circuit breaker state changed",
			"breaker", name,
			"from", from.String(),
			"to", to.String())
	})

	return &SocketModeClient{
		client:       socketClient,
		slackAPI:     slackAPI,
		cfg:          cfg,
		logger:       logger,
		reconnectCfg: reconnectCfg,
		breaker:      breaker,
		events:       make(chan *entity.ChatEvent, cfg.BufferSize),
	}, nil
}

// API returns a Web API client sharing this connection's credentials.
func (c *SocketModeClient) API() *Client {
	return newClientFromAPI(c.slackAPI)
}

// Connect verifies the bot credentials, retrying with backoff until the circuit
// breaker opens.
func (c *SocketModeClient) Connect(ctx context.Context) error {
	for attempt := 0; ; attempt++ {
		err := c.breaker.Execute(ctx, func() error {
			return c.attemptConnection(ctx)
		})
		if err == nil {
			c.mu.Lock()
			c.lastReconnect = time.Now()
			c.mu.Unlock()
			c.logger.Info("Successfully authenticated to Slack",
				"connection_id", c.ConnectionID(),
				"attempt", attempt+1)
			return nil
		}

		if errors.Is(err, resilience.ErrCircuitOpen) || c.breaker.State() == resilience.StateOpen {
			c.logger.Error("Circuit breaker is open, stopping connection attempts",
				"failures", c.breaker.Failures())
			return fmt.Errorf("circuit breaker open after %d consecutive failures: %w", c.breaker.Failures(), err)
		}

		backoff := CalculateBackoff(c.reconnectCfg, attempt)
		c.logger.Warn("Failed to authenticate to Slack, retrying",
			"error", err.Error(),
			"attempt", attempt+1,
			"backoff", backoff.String())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
}

func (c *SocketModeClient) attemptConnection(ctx context.Context) error {
	authTest, err := c.slackAPI.AuthTestContext(ctx)
	if err != nil {
		return fmt.Errorf("auth test failed: %w", err)
	}

	c.mu.Lock()
	c.connectionID = authTest.TeamID
	c.botUserID = authTest.UserID
	c.mu.Unlock()

	c.logger.Debug("Auth test passed",
		"team_id", authTest.TeamID,
		"user_id", authTest.UserID)
	return nil
}

// Run connects and serves Socket Mode until ctx is cancelled.
func (c *SocketModeClient) Run(ctx context.Context) error {
	c.logger.Info("Starting Socket Mode client", "channel_id", c.cfg.ChannelID)

	if err := c.Connect(ctx); err != nil {
		return err
	}

	go c.runEventLoop(ctx)

	err := c.client.RunContext(ctx)
	c.connected.Store(false)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// ReadNextEvent waits for the next message. It returns (nil, nil) when nothing
// arrives within the read timeout.
func (c *SocketModeClient) ReadNextEvent(ctx context.Context) (*entity.ChatEvent, error) {
	timer := time.NewTimer(c.cfg.ReadTimeout)
	defer timer.Stop()

	select {
	case evt := <-c.events:
		return evt, nil
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *SocketModeClient) runEventLoop(ctx context.Context) {
	c.logger.Info("Starting Socket Mode event loop")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Context cancelled, stopping Socket Mode event loop")
			return

		case evt, ok := <-c.client.Events:
			if !ok {
				return
			}
			c.handleSocketModeEvent(ctx, evt)
		}
	}
}

func (c *SocketModeClient) handleSocketModeEvent(ctx context.Context, evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeConnecting:
		c.logger.Info("Connecting to Slack...")

	case socketmode.EventTypeConnectionError:
		c.connected.Store(false)
		c.logger.Error("Connection error", "error", evt.Data)

	case socketmode.EventTypeConnected:
		c.connected.Store(true)
		c.logger.Info("Connected to Slack via Socket Mode")

	case socketmode.EventTypeDisconnect:
		c.connected.Store(false)
		c.logger.Warn("Disconnected from Slack, socket mode will reconnect")

	case socketmode.EventTypeEventsAPI:
		eventsAPI, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok {
			c.logger.Error("Failed to cast events API event")
			return
		}
		if evt.Request != nil {
			c.client.Ack(*evt.Request)
		}

		if eventsAPI.Type != slackevents.CallbackEvent {
			return
		}
		msg, ok := eventsAPI.InnerEvent.Data.(*slackevents.MessageEvent)
		if !ok {
			return
		}
		if event := c.toChatEvent(msg); event != nil {
			c.enqueue(ctx, event)
		}

	default:
		c.logger.Debug("Unhandled event type", "type", evt.Type)
	}
}

// toChatEvent converts a message from the bound channel. Messages from other
// channels and from this bot are dropped.
func (c *SocketModeClient) toChatEvent(msg *slackevents.MessageEvent) *entity.ChatEvent {
	if msg.Channel != c.cfg.ChannelID {
		return nil
	}

	c.mu.RLock()
	self := c.botUserID
	c.mu.RUnlock()
	if self != "" && msg.User == self {
		return nil
	}

	subType := msg.SubType
	if subType == "" && msg.BotID != "" {
		subType = "bot_message"
	}

	return &entity.ChatEvent{
		Type:      entity.EventTypeMessage,
		SubType:   subType,
		ChannelID: msg.Channel,
		SenderID:  msg.User,
		Text:      strings.TrimSpace(msg.Text),
		Timestamp: parseTimestamp(msg.TimeStamp),
	}
}

func (c *SocketModeClient) enqueue(ctx context.Context, event *entity.ChatEvent) {
	select {
	case c.events <- event:
	case <-ctx.Done():
	}
}

// Ping reports whether the Socket Mode connection is up.
func (c *SocketModeClient) Ping(_ context.Context) error {
	if !c.connected.Load() {
		return errors.New("slack socket mode not connected")
	}
	return nil
}

// IsConnected returns true if the client is currently connected.
func (c *SocketModeClient) IsConnected() bool {
	return c.connected.Load()
}

// ConnectionID returns the team ID of the current connection.
func (c *SocketModeClient) ConnectionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connectionID
}

// LastReconnect returns the time of the last successful authentication.
func (c *SocketModeClient) LastReconnect() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastReconnect
}

// parseTimestamp converts a Slack "seconds.micros" timestamp.
func parseTimestamp(ts string) time.Time {
	sec, frac, _ := strings.Cut(ts, ".")
	s, err := strconv.ParseInt(sec, 10, 64)
	if err != nil {
		return time.Time{}
	}
	var micros int64
	if frac != "" {
		micros, _ = strconv.ParseInt(frac, 10, 64)
	}
	return time.Unix(s, micros*int64(time.Microsecond)).UTC()
}
