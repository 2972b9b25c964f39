package metadata

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/opentensor/subtensor-go/scale"
)

// caller is the minimal RPC surface the cache needs; satisfied by
// *rpc.Client. Declared locally to avoid metadata depending on rpc's
// concrete reconnect/subscription machinery.
type caller interface {
	Call(ctx context.Context, method string, params []interface{}) (json.RawMessage, error)
}

// Cache fetches runtime metadata once per connection session and serves it
// from memory thereafter. It is read-mostly: a write lock is
// only taken while (re)populating after connect or reconnect.
type Cache struct {
	client caller
	logger *logrus.Entry

	custom *scale.Registry // static custom type registry, merged on top

	mu sync.RWMutex
	md *Metadata
}

// NewCache constructs a Cache bound to client. custom may be nil.
func NewCache(client caller, custom *scale.Registry, logger *logrus.Entry) *Cache {
	if logger == nil {
		logger = logrus.WithField("component", "metadata")
	}
	return &Cache{client: client, logger: logger, custom: custom}
}

// Get returns the cached metadata, fetching it first if this is the first
// call since construction or the last Invalidate.
func (c *Cache) Get(ctx context.Context) (*Metadata, error) {
	c.mu.RLock()
	md := c.md
	c.mu.RUnlock()
	if md != nil {
		return md, nil
	}
	return c.fetch(ctx)
}

// Invalidate drops the cached metadata; the next Get refetches it. Called
// on reconnect, since a runtime upgrade may have changed the schema.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.md = nil
	c.mu.Unlock()
}

func (c *Cache) fetch(ctx context.Context) (*Metadata, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.md != nil { // lost the race to another caller
		return c.md, nil
	}

	raw, err := c.client.Call(ctx, "state_getMetadata", nil)
	if err != nil {
		return nil, fmt.Errorf("metadata: state_getMetadata: %w", err)
	}
	var hexBlob string
	if err := json.Unmarshal(raw, &hexBlob); err != nil {
		return nil, fmt.Errorf("metadata: malformed state_getMetadata response: %w", err)
	}
	blob, err := decodeHex(hexBlob)
	if err != nil {
		return nil, fmt.Errorf("metadata: hex decode: %w", err)
	}

	md, err := Decode(blob)
	if err != nil {
		// Failure to retrieve metadata is fatal for the session.
		c.logger.WithError(err).Error("metadata decode failed, session unusable")
		return nil, err
	}
	if c.custom != nil {
		md.Registry.Merge(c.custom)
	}

	c.md = md
	c.logger.WithField("pallets", len(md.Pallets)).Info("runtime metadata cached")
	return md, nil
}

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	return hex.DecodeString(s)
}
