package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"tradecal/internal/model"
	logx "tradecal/pkg/logx"
)

const credentialsFile = "credentials.json"

// Config configures the Google Calendar client.
type Config struct {
	CalendarID   string
	ClientID     string
	ClientSecret string
	TokenFile    string // default: "token.json"
}

// Client implements Source against the Google Calendar API.
type Client struct {
	service    *gcal.Service
	calendarID string
	log        logx.Logger
}

// NewClient builds an authenticated client. Credentials come from
// ClientID/ClientSecret or a local credentials.json; the OAuth token must
// already exist in the token file (obtained out-of-band).
func NewClient(ctx context.Context, cfg Config, log logx.Logger) (*Client, error) {
	oauthCfg, err := getOAuthConfig(cfg.ClientID, cfg.ClientSecret)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}

	tokenFile := cfg.TokenFile
	if tokenFile == "" {
		tokenFile = "token.json"
	}
	token, err := tokenFromFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("load token %s: %w", tokenFile, err)
	}

	httpClient := oauthCfg.Client(ctx, token)
	service, err := gcal.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("calendar service: %w", err)
	}

	return &Client{service: service, calendarID: cfg.CalendarID, log: log}, nil
}

// CandidateEvents lists events in the window, keyword-prefiltered, in
// calendar order (start time ascending as returned by the API).
func (c *Client) CandidateEvents(ctx context.Context, w model.Window) ([]model.CalendarEvent, error) {
	resp, err := c.service.Events.List(c.calendarID).
		ShowDeleted(false).
		SingleEvents(true).
		TimeMin(w.Start.UTC().Format(time.RFC3339)).
		TimeMax(w.End.UTC().Format(time.RFC3339)).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	events := make([]model.CalendarEvent, 0, len(resp.Items))
	for _, item := range resp.Items {
		// All-day events have no concrete start; they can't be "about to
		// start" and are skipped.
		if item.Start == nil || item.Start.DateTime == "" {
			continue
		}
		start, err := time.Parse(time.RFC3339, item.Start.DateTime)
		if err != nil {
			c.log.Warn("event with unparseable start skipped",
				logx.String("event_id", item.Id), logx.String("start", item.Start.DateTime))
			continue
		}
		events = append(events, model.CalendarEvent{
			ID:          item.Id,
			Title:       item.Summary,
			Description: item.Description,
			Start:       start,
		})
	}

	candidates := FilterCandidates(events, w)
	c.log.Debug("calendar scan",
		logx.String("window", w.String()),
		logx.Int("events", len(events)),
		logx.Int("candidates", len(candidates)))
	return candidates, nil
}

// WatchChannel identifies one registered push channel.
type WatchChannel struct {
	ID         string
	ResourceID string
	Expires    time.Time
}

// Watch registers a web_hook channel so calendar mutations POST to
// callbackURL. Google caps channel lifetime; the caller renews before
// Expires.
func (c *Client) Watch(ctx context.Context, callbackURL, token string, ttl time.Duration) (*WatchChannel, error) {
	req := &gcal.Channel{
		Id:      uuid.NewString(),
		Type:    "web_hook",
		Address: callbackURL,
		Token:   token,
	}
	if ttl > 0 {
		req.Expiration = time.Now().Add(ttl).UnixMilli()
	}

	ch, err := c.service.Events.Watch(c.calendarID, req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", c.calendarID, err)
	}

	out := &WatchChannel{ID: ch.Id, ResourceID: ch.ResourceId}
	if ch.Expiration > 0 {
		out.Expires = time.UnixMilli(ch.Expiration)
	}
	c.log.Info("watch channel registered",
		logx.String("channel_id", out.ID),
		logx.Time("expires", out.Expires))
	return out, nil
}

// StopWatch tears down a channel (normally on shutdown or before renewal).
func (c *Client) StopWatch(ctx context.Context, ch *WatchChannel) error {
	if ch == nil {
		return nil
	}
	err := c.service.Channels.Stop(&gcal.Channel{Id: ch.ID, ResourceId: ch.ResourceID}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("stop channel %s: %w", ch.ID, err)
	}
	return nil
}

// getOAuthConfig reads credentials, preferring explicit client id/secret
// over a local credentials.json.
func getOAuthConfig(clientID, clientSecret string) (*oauth2.Config, error) {
	if clientID != "" && clientSecret != "" {
		return &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  "urn:ietf:wg:oauth:2.0:oob",
			Scopes:       []string{gcal.CalendarReadonlyScope},
			Endpoint:     google.Endpoint,
		}, nil
	}

	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("no client_id/client_secret configured and %s unreadable: %w", credentialsFile, err)
	}
	cfg, err := google.ConfigFromJSON(b, gcal.CalendarReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", credentialsFile, err)
	}
	cfg.RedirectURL = "urn:ietf:wg:oauth:2.0:oob"
	return cfg, nil
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}
