package window

import (
	"context"
	"strconv"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"

	"github.com/fpt/klein-window/pkg/message"
)

// DefaultCacheSize is the number of counts kept by CachedCounter
const DefaultCacheSize = 4096

// CachedCounter remembers the counts reported by an inner counter.
//
// NewCachedCounter caches whole candidate sequences: the inner counter always
// sees the full window, so tool calls stay next to their results and request
// overhead is counted once. NewPerMessageCachedCounter sums cached per-message
// counts instead, which is only correct for additive counters such as
// TiktokenCounter.
type CachedCounter struct {
	inner      Counter
	cache      *lru.Cache[string, int]
	perMessage bool
}

// NewCachedCounter wraps inner with a sequence LRU of the given size (DefaultCacheSize when <= 0)
func NewCachedCounter(inner Counter, size int) (*CachedCounter, error) {
	return newCachedCounter(inner, size, false)
}

// NewPerMessageCachedCounter wraps an additive inner counter, counting each distinct message once
func NewPerMessageCachedCounter(inner Counter, size int) (*CachedCounter, error) {
	return newCachedCounter(inner, size, true)
}

func newCachedCounter(inner Counter, size int, perMessage bool) (*CachedCounter, error) {
	if inner == nil {
		return nil, ErrNoCounter
	}
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, int](size)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create count cache")
	}
	return &CachedCounter{inner: inner, cache: cache, perMessage: perMessage}, nil
}

func (c *CachedCounter) Count(ctx context.Context, msgs []message.Message) (int, error) {
	if c.perMessage {
		return c.countEach(ctx, msgs)
	}

	key := sequenceKey(msgs)
	if n, ok := c.cache.Get(key); ok {
		return n, nil
	}
	n, err := c.inner.Count(ctx, msgs)
	if err != nil {
		return 0, err
	}
	c.cache.Add(key, n)
	return n, nil
}

func (c *CachedCounter) countEach(ctx context.Context, msgs []message.Message) (int, error) {
	total := 0
	for _, msg := range msgs {
		key := messageKey(msg)
		if n, ok := c.cache.Get(key); ok {
			total += n
			continue
		}
		n, err := c.inner.Count(ctx, []message.Message{msg})
		if err != nil {
			return 0, err
		}
		c.cache.Add(key, n)
		total += n
	}
	return total, nil
}

// Inner returns the wrapped counter
func (c *CachedCounter) Inner() Counter {
	return c.inner
}

// Len reports the number of cached counts
func (c *CachedCounter) Len() int {
	return c.cache.Len()
}

// messageKey identifies a message version; partial copies share the ID but not the content
func messageKey(msg message.Message) string {
	h := xxhash.New()
	writeMessage(h, msg)
	return msg.ID() + ":" + strconv.FormatUint(h.Sum64(), 16)
}

// sequenceKey identifies an ordered run of message versions
func sequenceKey(msgs []message.Message) string {
	h := xxhash.New()
	for _, msg := range msgs {
		_, _ = h.WriteString(msg.ID())
		_, _ = h.WriteString("\x00")
		writeMessage(h, msg)
		_, _ = h.WriteString("\x01")
	}
	return strconv.Itoa(len(msgs)) + ":" + strconv.FormatUint(h.Sum64(), 16)
}

func writeMessage(h *xxhash.Digest, msg message.Message) {
	_, _ = h.WriteString(msg.Type().String())
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(msg.Content())
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(msg.Thinking())
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(msg.ToolCallID())
}
