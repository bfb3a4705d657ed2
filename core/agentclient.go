package orchestration

import (
	"context"
	"errors"

	"github.com/parleyvoice/parley-core/core/agent"
	"github.com/parleyvoice/parley-core/core/audio"
)

// ErrNoAgentClient marks turn submissions on an orchestrator with no backend
// client configured.
var ErrNoAgentClient = errors.New("no agent client configured")

// agentClient wraps the backend client so turn code has one place to handle
// the unconfigured case.
type agentClient struct {
	// base stores the configured backend client.
	base AgentClient
}

// Set replaces the configured backend client. Nil and typed-nil clients are
// treated as unconfigured.
func (a *agentClient) Set(client AgentClient) {
	if a == nil {
		return
	}

	a.base = nil
	if isNilClient(client) {
		return
	}
	a.base = client
}

func (a *agentClient) isConfigured() bool {
	return a != nil && a.base != nil
}

func (a *agentClient) ChatTurn(ctx context.Context, sessionID string, utterance audio.Utterance) (*agent.Response, error) {
	if !a.isConfigured() {
		return nil, ErrNoAgentClient
	}

	return a.base.ChatTurn(ctx, sessionID, utterance)
}

func (a *agentClient) FetchAudio(ctx context.Context, ref string) ([]byte, string, error) {
	if !a.isConfigured() {
		return nil, "", ErrNoAgentClient
	}

	return a.base.FetchAudio(ctx, ref)
}

func (a *agentClient) History(ctx context.Context, sessionID string) ([]agent.HistoryEntry, error) {
	if !a.isConfigured() {
		return nil, ErrNoAgentClient
	}

	return a.base.History(ctx, sessionID)
}
