package stortinget

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"stortingsync/internal/domain/entity"
	"stortingsync/internal/metrics"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/exp/slog"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://data.stortinget.no"

	pathParties       = "/eksport/allepartier"
	pathHearings      = "/eksport/horinger"
	pathCases         = "/eksport/saker"
	pathVotes         = "/eksport/voteringer"
	pathVoteProposals = "/eksport/voteringsforslag"

	maxErrorBody    = 64 * 1024
	maxResponseBody = 256 << 20
)

// Config настройки клиента Stortinget
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	RPS       float64
	Burst     int
	UserAgent string
	Breaker   *BreakerConfig
}

// Client клиент read-only API data.stortinget.no
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker[[]byte]
	schemas   *schemaSet
	userAgent string
	log       *slog.Logger
}

// New создает клиент Stortinget
func New(cfg Config, log *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = int(cfg.RPS)
		if cfg.Burst < 1 {
			cfg.Burst = 1
		}
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "stortingsync/1.0"
	}
	breakerCfg := defaultBreakerConfig()
	if cfg.Breaker != nil {
		breakerCfg = *cfg.Breaker
	}

	schemas, err := loadSchemas()
	if err != nil {
		return nil, err
	}

	log = log.With("component", "stortinget_client")

	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter:   rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		breaker:   newBreaker("stortinget", breakerCfg, log),
		schemas:   schemas,
		userAgent: cfg.UserAgent,
		log:       log,
	}, nil
}

// FetchParties возвращает все партии
func (c *Client) FetchParties(ctx context.Context) ([]entity.Party, error) {
	var resp partiesResponse
	if err := c.fetch(ctx, pathParties, schemaParties, nil, &resp); err != nil {
		return nil, err
	}

	parties := make([]entity.Party, 0, len(resp.PartierListe))
	for _, p := range resp.PartierListe {
		parties = append(parties, p.toEntity())
	}
	return parties, nil
}

// FetchHearings возвращает все слушания
func (c *Client) FetchHearings(ctx context.Context) ([]entity.Hearing, error) {
	var resp hearingsResponse
	if err := c.fetch(ctx, pathHearings, schemaHearings, nil, &resp); err != nil {
		return nil, err
	}

	hearings := make([]entity.Hearing, 0, len(resp.HoringerListe))
	for _, h := range resp.HoringerListe {
		hearing, err := h.toEntity()
		if err != nil {
			return nil, err
		}
		hearings = append(hearings, hearing)
	}
	return hearings, nil
}

// FetchCases возвращает все дела текущей сессии
func (c *Client) FetchCases(ctx context.Context) ([]entity.Case, error) {
	var resp casesResponse
	if err := c.fetch(ctx, pathCases, schemaCases, nil, &resp); err != nil {
		return nil, err
	}

	cases := make([]entity.Case, 0, len(resp.SakerListe))
	for _, d := range resp.SakerListe {
		cs, err := d.toEntity()
		if err != nil {
			return nil, err
		}
		cases = append(cases, cs)
	}
	return cases, nil
}

// FetchVotes возвращает голосования по одному делу
func (c *Client) FetchVotes(ctx context.Context, caseID string) ([]entity.Vote, error) {
	var resp votesResponse
	params := url.Values{"sakid": []string{caseID}}
	if err := c.fetch(ctx, pathVotes, schemaVotes, params, &resp); err != nil {
		return nil, err
	}

	votes := make([]entity.Vote, 0, len(resp.SakVoteringListe))
	for _, d := range resp.SakVoteringListe {
		v, err := d.toEntity()
		if err != nil {
			return nil, err
		}
		votes = append(votes, v)
	}
	return votes, nil
}

// FetchVoteProposals возвращает предложения одного голосования.
// votering_id берется из конверта ответа.
func (c *Client) FetchVoteProposals(ctx context.Context, voteID string) ([]entity.VoteProposal, error) {
	var resp proposalsResponse
	params := url.Values{"voteringid": []string{voteID}}
	if err := c.fetch(ctx, pathVoteProposals, schemaVoteProposals, params, &resp); err != nil {
		return nil, err
	}

	proposals := make([]entity.VoteProposal, 0, len(resp.VoteringsforslagListe))
	for _, d := range resp.VoteringsforslagListe {
		proposals = append(proposals, d.toEntity(resp.VoteringID))
	}
	return proposals, nil
}

func (c *Client) fetch(ctx context.Context, endpoint, schema string, params url.Values, out any) error {
	body, err := c.get(ctx, endpoint, params)
	if err != nil {
		return err
	}
	if err := c.schemas.validate(schema, body); err != nil {
		metrics.UpstreamRequests.WithLabelValues(endpoint, "schema_violation").Inc()
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return schemaViolation("%s: decode: %v", endpoint, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	u := c.endpointURL(endpoint, params)
	start := time.Now()

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.do(ctx, endpoint, u)
	})
	metrics.UpstreamDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = fmt.Errorf("%w: %s: %w", ErrTransient, endpoint, err)
		}
		metrics.UpstreamRequests.WithLabelValues(endpoint, outcome(err)).Inc()
		c.log.Warn("upstream request failed", "endpoint", endpoint, "url", u, "error", err)
		return nil, err
	}

	metrics.UpstreamRequests.WithLabelValues(endpoint, "ok").Inc()
	return body, nil
}

func (c *Client) do(ctx context.Context, endpoint, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrTransient, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(errBody)),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: read body: %w", ErrTransient, endpoint, err)
	}
	return body, nil
}

func (c *Client) endpointURL(endpoint string, params url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + endpoint

	q := url.Values{}
	q.Set("format", "json")
	for k, v := range params {
		q[k] = v
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func outcome(err error) string {
	switch {
	case errors.Is(err, ErrTransient):
		return "transient"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
