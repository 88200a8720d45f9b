package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackzampolin/courseforge/internal/jsonutil"
)

// Classifier gates requests to the configured domain.
type Classifier struct {
	client Client
	key    string
	logger *slog.Logger
}

// NewClassifier creates a classifier reading the boolean at key.
func NewClassifier(client Client, key string, logger *slog.Logger) *Classifier {
	if key == "" {
		key = DefaultClassifierKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{client: client, key: key, logger: logger}
}

// IsInDomain issues a single classification call. Blank text is out of domain
// without a call. A response that cannot be decoded counts as out of domain;
// a transport error is returned.
func (c *Classifier) IsInDomain(ctx context.Context, text string) (bool, error) {
	if strings.TrimSpace(text) == "" {
		return false, nil
	}

	raw, err := c.client.Classify(ctx, text)
	if err != nil {
		return false, fmt.Errorf("classification failed: %w", err)
	}

	inDomain := DecodeClassification(raw, c.key)
	c.logger.Debug("classified request", "in_domain", inDomain, "response_len", len(raw))
	return inDomain, nil
}

// DecodeClassification reads the boolean at key from a classifier response.
// Anything other than a JSON object holding a boolean at key decodes to false.
func DecodeClassification(raw, key string) bool {
	data, err := jsonutil.Extract(raw)
	if err != nil {
		return false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return false
	}

	value, ok := fields[key]
	if !ok {
		return false
	}

	var inDomain bool
	if err := json.Unmarshal(value, &inDomain); err != nil {
		return false
	}
	return inDomain
}
