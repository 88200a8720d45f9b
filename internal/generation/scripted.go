package generation

import (
	"context"
	"fmt"
	"sync"
)

// ScriptedClient is a deterministic Client for tests. Each call shape serves
// its own script in order; once exhausted the last entry repeats.
type ScriptedClient struct {
	ClassifyResponses []string
	GenerateResponses []string
	ExpandResponses   []string

	// Err, if set, is returned by every call. ExpandErr applies to Expand only.
	Err       error
	ExpandErr error

	mu            sync.Mutex
	classifyCalls []string
	generateCalls []string
	expandCalls   []ExpandRequest
}

// Classify implements Client.
func (c *ScriptedClient) Classify(ctx context.Context, text string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.classifyCalls = append(c.classifyCalls, text)
	if c.Err != nil {
		return "", c.Err
	}
	return next(c.ClassifyResponses, len(c.classifyCalls))
}

// GenerateFresh implements Client.
func (c *ScriptedClient) GenerateFresh(ctx context.Context, topic string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generateCalls = append(c.generateCalls, topic)
	if c.Err != nil {
		return "", c.Err
	}
	return next(c.GenerateResponses, len(c.generateCalls))
}

// Expand implements Client.
func (c *ScriptedClient) Expand(ctx context.Context, req ExpandRequest) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expandCalls = append(c.expandCalls, req)
	if c.Err != nil {
		return "", c.Err
	}
	if c.ExpandErr != nil {
		return "", c.ExpandErr
	}
	return next(c.ExpandResponses, len(c.expandCalls))
}

// ClassifyCalls returns the texts passed to Classify.
func (c *ScriptedClient) ClassifyCalls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.classifyCalls...)
}

// GenerateCalls returns the topics passed to GenerateFresh.
func (c *ScriptedClient) GenerateCalls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.generateCalls...)
}

// ExpandCalls returns the requests passed to Expand.
func (c *ScriptedClient) ExpandCalls() []ExpandRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ExpandRequest(nil), c.expandCalls...)
}

func next(script []string, n int) (string, error) {
	if len(script) == 0 {
		return "", fmt.Errorf("no scripted response for call %d", n)
	}
	if n > len(script) {
		n = len(script)
	}
	return script[n-1], nil
}

var _ Client = (*ScriptedClient)(nil)
