// Package steam adapts the Steam Web API endpoints trogue uses into typed records.
// Every call is a single request: failures are classified and returned, never retried.
package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"golang.org/x/time/rate"

	"github.com/hieropold/trogue/internal/core/ctxlog"
)

const (
	DefaultBaseURL  = "https://api.steampowered.com"
	DefaultTimeout  = 15 * time.Second
	DefaultLanguage = "en"

	iconURLFormat = "https://media.steampowered.com/steamcommunity/public/images/apps/%d/%s.jpg"

	ownedGamesEndpoint         = "/IPlayerService/GetOwnedGames/v0001/"
	playerAchievementsEndpoint = "/ISteamUserStats/GetPlayerAchievements/v0001/"
	globalPercentagesEndpoint  = "/ISteamUserStats/GetGlobalAchievementPercentagesForApp/v0002/"

	maxResponseBytes = 16 << 20
)

// Client talks to the Steam Web API with a single API key.
type Client struct {
	apiKey     string
	baseURL    string
	language   string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different host, e.g. an httptest server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithHTTPClient replaces the pooled HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the underlying HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithRateLimit paces outgoing requests. A zero limit disables pacing.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithLanguage selects the language of achievement names and descriptions.
func WithLanguage(lang string) Option {
	return func(c *Client) { c.language = lang }
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// NewClient creates a Client for apiKey.
func NewClient(apiKey string, opts ...Option) *Client {
	hc := cleanhttp.DefaultPooledClient()
	hc.Timeout = DefaultTimeout
	c := &Client{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		language:   DefaultLanguage,
		userAgent:  "trogue",
		httpClient: hc,
		limiter:    rate.NewLimiter(rate.Limit(10), 5),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type ownedGamesResponse struct {
	Response *struct {
		GameCount int             `json:"game_count"`
		Games     []ownedGameJSON `json:"games"`
	} `json:"response"`
}

type ownedGameJSON struct {
	AppID           uint32 `json:"appid"`
	Name            string `json:"name"`
	PlaytimeForever int    `json:"playtime_forever"`
	ImgIconURL      string `json:"img_icon_url"`
	RTimeLastPlayed int64  `json:"rtime_last_played"`
}

type playerStatsResponse struct {
	PlayerStats *struct {
		SteamID      string            `json:"steamID"`
		GameName     string            `json:"gameName"`
		Achievements []achievementJSON `json:"achievements"`
		Success      bool              `json:"success"`
		Error        string            `json:"error"`
	} `json:"playerstats"`
}

type achievementJSON struct {
	APIName     string `json:"apiname"`
	Achieved    int    `json:"achieved"`
	UnlockTime  int64  `json:"unlocktime"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type globalPercentagesResponse struct {
	AchievementPercentages *struct {
		Achievements []struct {
			Name    string  `json:"name"`
			Percent percent `json:"percent"`
		} `json:"achievements"`
	} `json:"achievementpercentages"`
}

// percent accepts both JSON numbers and numeric strings; Steam has served both.
type percent float64

func (p *percent) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid percentage %s: %w", string(b), err)
	}
	*p = percent(f)
	return nil
}

// GetOwnedGames lists the games owned by steamID in API order.
// A private profile yields an empty list.
func (c *Client) GetOwnedGames(ctx context.Context, steamID string) ([]Game, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("steamid", steamID)
	params.Set("format", "json")
	params.Set("include_appinfo", "1")
	params.Set("include_played_free_games", "1")

	var payload ownedGamesResponse
	if err := c.getJSON(ctx, ownedGamesEndpoint, params, &payload); err != nil {
		return nil, err
	}
	if payload.Response == nil {
		return nil, &APIError{Kind: Deserialize, Endpoint: ownedGamesEndpoint, Message: "missing response object"}
	}

	games := make([]Game, 0, len(payload.Response.Games))
	for _, g := range payload.Response.Games {
		game := Game{
			ID:              g.AppID,
			Name:            g.Name,
			PlaytimeMinutes: g.PlaytimeForever,
		}
		if g.ImgIconURL != "" {
			game.IconURL = fmt.Sprintf(iconURLFormat, g.AppID, g.ImgIconURL)
		}
		game.LastPlayed = unixTime(g.RTimeLastPlayed)
		games = append(games, game)
	}
	return games, nil
}

// GetRecentlyPlayedGames returns up to limit owned games, most recently played first.
func (c *Client) GetRecentlyPlayedGames(ctx context.Context, steamID string, limit int) ([]Game, error) {
	games, err := c.GetOwnedGames(ctx, steamID)
	if err != nil {
		return nil, err
	}
	return MostRecentlyPlayed(games, limit), nil
}

// GetAchievements lists the player's achievements for appID in API order.
// Games without stats produce an empty list rather than an error.
func (c *Client) GetAchievements(ctx context.Context, appID uint32, steamID string) (AchievementList, error) {
	params := url.Values{}
	params.Set("appid", strconv.FormatUint(uint64(appID), 10))
	params.Set("key", c.apiKey)
	params.Set("steamid", steamID)
	params.Set("l", c.language)

	status, body, err := c.fetch(ctx, playerAchievementsEndpoint, params)
	if err != nil {
		return AchievementList{}, err
	}

	var payload playerStatsResponse
	decodeErr := json.Unmarshal(body, &payload)

	if status < 200 || status > 299 {
		msg := ""
		if decodeErr == nil && payload.PlayerStats != nil {
			msg = payload.PlayerStats.Error
		}
		if status == http.StatusBadRequest && isNoStats(msg) {
			return AchievementList{}, nil
		}
		return AchievementList{}, classifyStatus(playerAchievementsEndpoint, status, msg)
	}
	if decodeErr != nil {
		return AchievementList{}, &APIError{Kind: Deserialize, Endpoint: playerAchievementsEndpoint, Err: decodeErr}
	}
	if payload.PlayerStats == nil {
		return AchievementList{}, &APIError{Kind: Deserialize, Endpoint: playerAchievementsEndpoint, Message: "missing playerstats object"}
	}
	stats := payload.PlayerStats
	if !stats.Success {
		if isNoStats(stats.Error) {
			return AchievementList{GameName: stats.GameName}, nil
		}
		return AchievementList{}, &APIError{Kind: Status, Endpoint: playerAchievementsEndpoint, StatusCode: status, Message: stats.Error}
	}

	list := AchievementList{
		GameName:     stats.GameName,
		Achievements: make([]Achievement, 0, len(stats.Achievements)),
	}
	for _, a := range stats.Achievements {
		list.Achievements = append(list.Achievements, Achievement{
			APIName:     a.APIName,
			DisplayName: a.Name,
			Description: a.Description,
			Achieved:    a.Achieved > 0,
			UnlockedAt:  unixTime(a.UnlockTime),
		})
	}
	return list, nil
}

// GetGlobalAchievementPercentages maps achievement API names to the percentage
// of all players that unlocked them.
func (c *Client) GetGlobalAchievementPercentages(ctx context.Context, appID uint32) (map[string]float64, error) {
	params := url.Values{}
	params.Set("gameid", strconv.FormatUint(uint64(appID), 10))
	params.Set("format", "json")

	var payload globalPercentagesResponse
	if err := c.getJSON(ctx, globalPercentagesEndpoint, params, &payload); err != nil {
		return nil, err
	}
	if payload.AchievementPercentages == nil {
		return nil, &APIError{Kind: Deserialize, Endpoint: globalPercentagesEndpoint, Message: "missing achievementpercentages object"}
	}

	percentages := make(map[string]float64, len(payload.AchievementPercentages.Achievements))
	for _, a := range payload.AchievementPercentages.Achievements {
		percentages[a.Name] = float64(a.Percent)
	}
	return percentages, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, out any) error {
	status, body, err := c.fetch(ctx, endpoint, params)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return classifyStatus(endpoint, status, "")
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &APIError{Kind: Deserialize, Endpoint: endpoint, Err: err}
	}
	return nil
}

// fetch performs the GET request and returns the status and body. Only
// transport failures are reported as errors.
func (c *Client) fetch(ctx context.Context, endpoint string, params url.Values) (int, []byte, error) {
	logger := ctxlog.FromContext(ctx)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, nil, &APIError{Kind: Network, Endpoint: endpoint, Err: err}
		}
	}

	reqURL := c.baseURL + endpoint + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, nil, &APIError{Kind: Network, Endpoint: endpoint, Err: redact(err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Debug("steam request failed", "endpoint", endpoint, "duration", time.Since(start), "error", redact(err))
		return 0, nil, &APIError{Kind: Network, Endpoint: endpoint, Err: redact(err)}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, &APIError{Kind: Network, Endpoint: endpoint, Err: fmt.Errorf("failed to read response body: %w", err)}
	}
	logger.Debug("steam request", "endpoint", endpoint, "status", resp.StatusCode, "bytes", len(body), "duration", time.Since(start))
	return resp.StatusCode, body, nil
}

func classifyStatus(endpoint string, status int, msg string) error {
	kind := Status
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		kind = Unauthorized
	}
	return &APIError{Kind: kind, Endpoint: endpoint, StatusCode: status, Message: msg}
}

func isNoStats(msg string) bool {
	return strings.Contains(strings.ToLower(msg), "no stats")
}

func unixTime(sec int64) *time.Time {
	if sec <= 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}
