// regexp.Compile is not cheap, and matches()/replaceMatches() may see the
// same literal pattern on every element of a path expression, so compiled
// patterns are cached with LRU eviction - the same container/list-backed
// design the expression cache uses. A length cap and a crude quantifier/
// nesting check on the source pattern guard against a user-supplied regex
// turning into a ReDoS, since these patterns can come from FHIRPath
// expressions an external caller controls.
package funcs

import (
	"container/list"
	"context"
	"regexp"
	"sync"
	"time"

	"github.com/robertoaraneda/fhirpath/pkg/fhirpath/eval"
)

type regexEntry struct {
	pattern string
	re      *regexp.Regexp
}

// RegexCache compiles and caches patterns used by matches()/replaceMatches().
type RegexCache struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List
	limit   int
	maxLen  int
	timeout time.Duration
}

// DefaultRegexCache is shared by every matches()/replaceMatches() call in
// the process.
var DefaultRegexCache = NewRegexCache(500, 1000, 100*time.Millisecond)

// NewRegexCache builds a cache holding at most limit compiled patterns,
// rejecting any pattern longer than maxLen, and bounding match/replace work
// on long inputs to timeout.
func NewRegexCache(limit, maxLen int, timeout time.Duration) *RegexCache {
	return &RegexCache{
		entries: make(map[string]*list.Element),
		order:   list.New(),
		limit:   limit,
		maxLen:  maxLen,
		timeout: timeout,
	}
}

// Compile returns a compiled pattern, validating and caching it on first
// use. Concurrent callers compiling the same new pattern will do redundant
// work rather than block on each other; the loser's result is discarded in
// favor of whichever compiled entry already won the race when the write
// lock is acquired.
func (c *RegexCache) Compile(pattern string) (*regexp.Regexp, error) {
	if len(pattern) > c.maxLen {
		return nil, eval.NewEvalError(eval.ErrInvalidExpression,
			"regex pattern too long (max %d characters)", c.maxLen)
	}
	if err := validateRegexComplexity(pattern); err != nil {
		return nil, err
	}

	if re, ok := c.lookup(pattern); ok {
		return re, nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, eval.NewEvalError(eval.ErrInvalidExpression, "invalid regex: %s", err.Error())
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.entries[pattern]; ok {
		c.order.MoveToFront(elem)
		return elem.Value.(*regexEntry).re, nil
	}
	if c.order.Len() >= c.limit {
		c.evictOldest()
	}
	elem := c.order.PushFront(&regexEntry{pattern: pattern, re: re})
	c.entries[pattern] = elem
	return re, nil
}

func (c *RegexCache) lookup(pattern string) (*regexp.Regexp, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	elem, ok := c.entries[pattern]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*regexEntry).re, true
}

// evictOldest must be called with c.mu held.
func (c *RegexCache) evictOldest() {
	oldest := c.order.Back()
	if oldest == nil {
		return
	}
	c.order.Remove(oldest)
	delete(c.entries, oldest.Value.(*regexEntry).pattern)
}

func (c *RegexCache) MatchWithTimeout(ctx context.Context, pattern, s string) (bool, error) {
	re, err := c.Compile(pattern)
	if err != nil {
		return false, err
	}
	return c.matchWithContext(ctx, re, s)
}

func (c *RegexCache) ReplaceWithTimeout(ctx context.Context, pattern, s, replacement string) (string, error) {
	re, err := c.Compile(pattern)
	if err != nil {
		return "", err
	}
	return c.replaceWithContext(ctx, re, s, replacement)
}

// boundedTimeout caps c.timeout to whatever's left on ctx's own deadline,
// so a match never outlives the caller's cancellation budget.
func (c *RegexCache) boundedTimeout(ctx context.Context) time.Duration {
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	return timeout
}

func (c *RegexCache) matchWithContext(ctx context.Context, re *regexp.Regexp, s string) (bool, error) {
	if len(s) < 1000 {
		return re.MatchString(s), nil
	}

	done := make(chan bool, 1)
	go func() { done <- re.MatchString(s) }()

	select {
	case result := <-done:
		return result, nil
	case <-ctx.Done():
		return false, ctx.Err()
	case <-time.After(c.boundedTimeout(ctx)):
		return false, eval.NewEvalError(eval.ErrTimeout, "regex match timeout exceeded")
	}
}

func (c *RegexCache) replaceWithContext(ctx context.Context, re *regexp.Regexp, s, replacement string) (string, error) {
	if len(s) < 1000 {
		return re.ReplaceAllString(s, replacement), nil
	}

	done := make(chan string, 1)
	go func() { done <- re.ReplaceAllString(s, replacement) }()

	select {
	case result := <-done:
		return result, nil
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(c.boundedTimeout(ctx)):
		return "", eval.NewEvalError(eval.ErrTimeout, "regex replace timeout exceeded")
	}
}

// Clear empties the cache.
func (c *RegexCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.order = list.New()
}

// Size reports the number of cached patterns.
func (c *RegexCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// validateRegexComplexity rejects a few cheap-to-detect ReDoS shapes:
// consecutive quantifiers (**, *+) and excessive group nesting. This is a
// heuristic, not a guarantee - it catches the patterns naive or malicious
// input is most likely to contain, not every pathological regex.
func validateRegexComplexity(pattern string) error {
	var (
		groupDepth    int
		maxGroupDepth int
		prevWasQuant  bool
	)

	for _, ch := range pattern {
		switch ch {
		case '(':
			groupDepth++
			if groupDepth > maxGroupDepth {
				maxGroupDepth = groupDepth
			}
		case ')':
			if groupDepth > 0 {
				groupDepth--
			}
		case '*', '+', '?', '{':
			if prevWasQuant {
				return eval.NewEvalError(eval.ErrInvalidExpression,
					"potentially dangerous regex: consecutive quantifiers")
			}
			prevWasQuant = true
		default:
			prevWasQuant = false
		}
	}

	if maxGroupDepth > 5 {
		return eval.NewEvalError(eval.ErrInvalidExpression,
			"regex has too much nesting (max depth 5)")
	}
	return nil
}
