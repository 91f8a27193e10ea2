package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/bryanwahyu/storelens/internal/domain/ai"
	"github.com/bryanwahyu/storelens/internal/domain/store"
	"github.com/bryanwahyu/storelens/internal/metrics"
)

const defaultTimeout = 45 * time.Second

// TierModel selects the model and token budget for one tier.
type TierModel struct {
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
}

// DefaultTiers gives the paid tiers a stronger model and a larger budget.
func DefaultTiers() map[store.Tier]TierModel {
	return map[store.Tier]TierModel{
		store.TierBasic:        {Model: "gpt-4o-mini", MaxTokens: 1500},
		store.TierProfessional: {Model: "gpt-4o", MaxTokens: 3000},
		store.TierEnterprise:   {Model: "gpt-4o", MaxTokens: 4000},
	}
}

type Config struct {
	APIKey      string
	BaseURL     string // empty uses the public endpoint
	Timeout     time.Duration
	Temperature float32
	Tiers       map[store.Tier]TierModel
	HTTPClient  *http.Client
}

// Client implements ai.Client on the chat completions API. One call per
// Complete, no retries; every failure is classified into the Outcome.
type Client struct {
	api         *openai.Client
	timeout     time.Duration
	temperature float32
	tiers       map[store.Tier]TierModel
	log         *zap.Logger
}

func NewClient(cfg Config, log *zap.Logger) *Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.HTTPClient != nil {
		oc.HTTPClient = cfg.HTTPClient
	}
	tiers := DefaultTiers()
	for t, m := range cfg.Tiers {
		if m.Model != "" {
			tiers[t] = m
		}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		api:         openai.NewClientWithConfig(oc),
		timeout:     timeout,
		temperature: cfg.Temperature,
		tiers:       tiers,
		log:         log.With(zap.String("component", "openai")),
	}
}

// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
func isReasoningModel(model string) bool {
	for _, p := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}

func (c *Client) model(tier store.Tier) TierModel {
	if m, ok := c.tiers[tier]; ok {
		return m
	}
	return c.tiers[store.TierBasic]
}

func (c *Client) Complete(ctx context.Context, req ai.CompletionRequest) ai.Outcome {
	tm := c.model(req.Tier)
	creq := openai.ChatCompletionRequest{
		Model: tm.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
	}
	if isReasoningModel(tm.Model) {
		creq.MaxCompletionTokens = tm.MaxTokens
	} else {
		creq.MaxTokens = tm.MaxTokens
		creq.Temperature = c.temperature
	}

	cctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(cctx, creq)
	elapsed := time.Since(start)
	metrics.RemoteCallDuration.WithLabelValues(req.Purpose).Observe(elapsed.Seconds())

	var out ai.Outcome
	switch {
	case err != nil:
		out = classify(ctx, err)
	case len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "":
		out = ai.Failed(ai.KindEmpty, http.StatusOK, ai.ErrEmptyCompletion)
	default:
		out = ai.Outcome{Text: resp.Choices[0].Message.Content, Model: resp.Model}
		if out.Model == "" {
			out.Model = tm.Model
		}
	}
	out.Duration = elapsed

	if out.OK() {
		metrics.RemoteCalls.WithLabelValues(req.Purpose, "ok").Inc()
		c.log.Debug("completion ok",
			zap.String("purpose", req.Purpose),
			zap.String("model", out.Model),
			zap.Duration("duration", elapsed))
		return out
	}
	metrics.RemoteCalls.WithLabelValues(req.Purpose, string(out.Kind())).Inc()
	c.log.Warn("completion failed",
		zap.String("purpose", req.Purpose),
		zap.String("model", tm.Model),
		zap.String("kind", string(out.Kind())),
		zap.Duration("duration", elapsed),
		zap.Error(out.Failure()))
	return out
}

// classify maps a transport or API error onto an error kind. parent is the
// caller's context: its cancellation wins over the per-call timeout.
func classify(parent context.Context, err error) ai.Outcome {
	if kind, ok := ai.ContextKind(parent.Err()); ok {
		return ai.Failed(kind, 0, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ai.Failed(ai.KindTimeout, 0, err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return statusOutcome(apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return statusOutcome(reqErr.HTTPStatusCode, err)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return ai.Failed(ai.KindMalformed, http.StatusOK, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ai.Failed(ai.KindTimeout, 0, err)
	}
	return ai.Failed(ai.KindNetwork, 0, err)
}

func statusOutcome(status int, err error) ai.Outcome {
	if status == http.StatusTooManyRequests {
		return ai.Failed(ai.KindQuota, status, fmt.Errorf("%w: %v", ai.ErrQuotaExceeded, err))
	}
	return ai.Failed(ai.KindStatus, status, err)
}
