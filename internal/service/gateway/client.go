// Package gateway delegates whole debates to a remote orchestration
// gateway. Only connection failures are reported as unreachable, so the
// caller can fall back to the local engine.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/zhouzirui/roundtable/backend/internal/config"
	"github.com/zhouzirui/roundtable/backend/internal/model/debate"
	debateservice "github.com/zhouzirui/roundtable/backend/internal/service/debate"
)

const invokePath = "/api/v1/invoke"

// maxErrorBody caps how much of a failed response is echoed to the client.
const maxErrorBody = 4 << 10

// Client calls the gateway invoke endpoint.
type Client struct {
	baseURL   string
	agentName string
	http      *http.Client
	logger    *zap.Logger
}

// NewClient returns nil when cfg has no URL.
func NewClient(cfg config.GatewayConfig, logger *zap.Logger) *Client {
	if cfg.URL == "" {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.URL, "/"),
		agentName: cfg.AgentName,
		http:      &http.Client{Timeout: cfg.Timeout},
		logger:    logger.With(zap.String("component", "gateway")),
	}
}

// URL returns the gateway base URL.
func (c *Client) URL() string {
	return c.baseURL
}

type invokeResponse struct {
	Status struct {
		Message struct {
			Parts []part `json:"parts"`
		} `json:"message"`
	} `json:"status"`
}

type part struct {
	Type string `json:"type"`
	Kind string `json:"kind"`
	Text string `json:"text"`
}

func (p part) isText() bool {
	return p.Type == "text" || p.Kind == "text"
}

// Invoke runs the debate remotely and emits one system entry per text part
// of the reply. A non-200 reply is emitted as a single error entry and is
// not an error of Invoke.
func (c *Client) Invoke(ctx context.Context, puzzle string, cards []debate.Participant, emit func(debate.ResultEntry)) error {
	prompt, err := BuildPrompt(puzzle, cards)
	if err != nil {
		return err
	}

	form := url.Values{}
	form.Set("agent_name", c.agentName)
	form.Set("prompt", prompt)
	form.Set("stream", "false")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+invokePath, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if isConnectionFailure(err) {
			return fmt.Errorf("%w: %v", debateservice.ErrGatewayUnreachable, err)
		}
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Info("gateway replied",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		emit(debate.NoticeEntry(debate.RoleError,
			fmt.Sprintf("Gateway error: %d - %s", resp.StatusCode, strings.TrimSpace(string(body)))))
		return nil
	}

	var decoded invokeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("failed to decode gateway response: %w", err)
	}

	for _, p := range decoded.Status.Message.Parts {
		if !p.isText() {
			continue
		}
		emit(debate.NoticeEntry(debate.RoleSystem, p.Text))
	}
	return nil
}

// BuildPrompt renders the instruction sent to the orchestrator agent.
func BuildPrompt(puzzle string, cards []debate.Participant) (string, error) {
	cardsJSON, err := json.Marshal(cards)
	if err != nil {
		return "", fmt.Errorf("failed to encode cards: %w", err)
	}
	return fmt.Sprintf(`Please run a debate with the following configuration:

Puzzle: %s

Cards (participants):
%s

Run the debate and show me the full discussion.`, puzzle, cardsJSON), nil
}

// isConnectionFailure reports dial and DNS failures, the cases where the
// gateway never saw the request.
func isConnectionFailure(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial"
	}
	return false
}
