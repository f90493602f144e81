package planprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/felixgeelhaar/stride/internal/planning/domain"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/oauth2"
)

const generatePath = "/v1/plans"

// errRejected marks 4xx answers. They mean the request was bad, not that
// the provider is down, so they do not count against the breaker.
var errRejected = errors.New("plan request rejected")

// HTTPConfig configures an HTTPProvider.
type HTTPConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration

	// FailureThreshold is the number of consecutive failures that open the
	// breaker. Default: 5.
	FailureThreshold uint32

	// OpenTimeout is how long the breaker stays open. Default: 30s.
	OpenTimeout time.Duration
}

// HTTPProvider asks a remote planning service for plans. Calls go through
// a circuit breaker; the API key is sent as a bearer token.
type HTTPProvider struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*domain.GeneratedPlan]
	logger  *slog.Logger
}

// NewHTTPProvider creates an HTTPProvider.
func NewHTTPProvider(cfg HTTPConfig, logger *slog.Logger) *HTTPProvider {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	client := &http.Client{}
	if cfg.APIKey != "" {
		client = oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: cfg.APIKey,
			TokenType:   "Bearer",
		}))
	}
	client.Timeout = cfg.Timeout

	settings := gobreaker.Settings{
		Name:    "plan-provider",
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errRejected)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &HTTPProvider{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		client:  client,
		breaker: gobreaker.NewCircuitBreaker[*domain.GeneratedPlan](settings),
		logger:  logger,
	}
}

// Generate posts the goal description and decodes the returned plan.
// Transport failures and an open breaker are reported as
// domain.ErrPlanUnavailable; a malformed plan as domain.ErrInvalidPlan.
func (p *HTTPProvider) Generate(ctx context.Context, goal domain.GoalDescription) (*domain.GeneratedPlan, error) {
	plan, err := p.breaker.Execute(func() (*domain.GeneratedPlan, error) {
		return p.call(ctx, goal)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", domain.ErrPlanUnavailable, err)
		}
		if errors.Is(err, errRejected) {
			return nil, err
		}
		p.logger.Warn("plan provider call failed", "goal", goal.Name, "error", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrPlanUnavailable, err)
	}

	if err := plan.Plan.Validate(); err != nil {
		return nil, err
	}
	for _, spec := range plan.MicroGoals {
		if spec.Criteria != nil {
			if err := spec.Criteria.Validate(); err != nil {
				return nil, err
			}
		}
	}
	return plan, nil
}

func (p *HTTPProvider) call(ctx context.Context, goal domain.GoalDescription) (*domain.GeneratedPlan, error) {
	body, err := json.Marshal(goal)
	if err != nil {
		return nil, fmt.Errorf("encode goal: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+generatePath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		if resp.StatusCode < 500 {
			return nil, fmt.Errorf("%w: status %d: %s", errRejected, resp.StatusCode, strings.TrimSpace(string(msg)))
		}
		return nil, fmt.Errorf("plan provider status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var plan domain.GeneratedPlan
	if err := json.NewDecoder(resp.Body).Decode(&plan); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	return &plan, nil
}
