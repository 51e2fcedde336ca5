// Package discovery finds recent game IDs by crawling the public leaderboard
// and each listed player's stats page.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

type Config struct {
	// BaseURL is prefixed to relative player links.
	BaseURL string
	// Arenas are leaderboard names, e.g. "standard" or "wrapped".
	Arenas       []string
	RequestDelay time.Duration
	// MaxPlayers caps players checked per leaderboard (0 = unlimited).
	MaxPlayers int
}

func DefaultConfig() Config {
	return Config{
		BaseURL:      "https://play.battlesnake.com",
		Arenas:       []string{"standard", "standard-duels"},
		RequestDelay: 500 * time.Millisecond,
		MaxPlayers:   100,
	}
}

var (
	gameIDRe = regexp.MustCompile(`/game/([a-f0-9-]+)`)
	playerRe = regexp.MustCompile(`/leaderboard/[^/]+/([^/]+)/stats`)
)

type Crawler struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

func NewCrawler(cfg Config, logger *slog.Logger) *Crawler {
	return &Crawler{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger.With("component", "discovery"),
	}
}

// Discover sends every game ID not accepted by known to out, once each, and
// returns when all leaderboards are crawled or ctx is done. It does not
// close out.
func (c *Crawler) Discover(ctx context.Context, known func(string) bool, out chan<- string) error {
	seen := make(map[string]struct{})
	total := 0

	for _, arena := range c.cfg.Arenas {
		if err := ctx.Err(); err != nil {
			return err
		}
		players, err := c.players(ctx, arena)
		if err != nil {
			c.logger.Warn("leaderboard failed", "arena", arena, "err", err)
			continue
		}
		if c.cfg.MaxPlayers > 0 && len(players) > c.cfg.MaxPlayers {
			players = players[:c.cfg.MaxPlayers]
		}
		c.logger.Info("leaderboard crawled", "arena", arena, "players", len(players))

		found := 0
		for _, statsURL := range players {
			ids, err := c.games(ctx, statsURL)
			if err != nil {
				c.logger.Warn("player stats failed", "url", statsURL, "err", err)
			}
			for _, id := range ids {
				if _, ok := seen[id]; ok || known(id) {
					continue
				}
				seen[id] = struct{}{}
				select {
				case out <- id:
					found++
				case <-ctx.Done():
					return ctx.Err()
				}
			}

			select {
			case <-time.After(c.cfg.RequestDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		c.logger.Info("arena complete", "arena", arena, "new_games", found)
		total += found
	}

	c.logger.Info("discovery complete", "new_games", total)
	return nil
}

func (c *Crawler) fetch(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "snekguard/1.0 (replay-audit)")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}
	return goquery.NewDocumentFromReader(resp.Body)
}

// players returns absolute stats URLs listed on an arena leaderboard.
func (c *Crawler) players(ctx context.Context, arena string) ([]string, error) {
	doc, err := c.fetch(ctx, c.cfg.BaseURL+"/leaderboard/"+arena)
	if err != nil {
		return nil, err
	}

	var urls []string
	seen := make(map[string]bool)
	doc.Find("a[href*='/leaderboard/']").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		m := playerRe.FindStringSubmatch(href)
		if len(m) < 2 || seen[m[1]] {
			return
		}
		seen[m[1]] = true
		if !strings.HasPrefix(href, "http") {
			href = c.cfg.BaseURL + href
		}
		urls = append(urls, href)
	})
	return urls, nil
}

// games returns game IDs linked from a player's stats page, in page order.
func (c *Crawler) games(ctx context.Context, statsURL string) ([]string, error) {
	doc, err := c.fetch(ctx, statsURL)
	if err != nil {
		return nil, err
	}
	return GameIDs(doc), nil
}

// GameIDs extracts unique game IDs from /game/<id> links.
func GameIDs(doc *goquery.Document) []string {
	var ids []string
	seen := make(map[string]bool)
	doc.Find("a[href*='/game/']").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		m := gameIDRe.FindStringSubmatch(href)
		if len(m) >= 2 && !seen[m[1]] {
			seen[m[1]] = true
			ids = append(ids, m[1])
		}
	})
	return ids
}
