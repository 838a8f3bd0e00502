package intent

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

type compiledRule struct {
	Rule
	re *regexp.Regexp
}

// Classifier maps command text to an Intent using an ordered rule table
type Classifier struct {
	rules  []compiledRule
	cache  *resultCache
	logger zerolog.Logger
}

// Option configures a Classifier
type Option func(*classifierOptions)

type classifierOptions struct {
	rules     []Rule
	cacheSize int
	logger    zerolog.Logger
}

// WithRules replaces the default rule table
func WithRules(rules []Rule) Option {
	return func(o *classifierOptions) {
		o.rules = rules
	}
}

// WithCacheSize enables an LRU cache of classifications. Zero disables it.
func WithCacheSize(size int) Option {
	return func(o *classifierOptions) {
		o.cacheSize = size
	}
}

// WithLogger sets the classifier logger
func WithLogger(logger zerolog.Logger) Option {
	return func(o *classifierOptions) {
		o.logger = logger
	}
}

// New compiles the rule table. Every pattern must pass ValidatePattern.
func New(opts ...Option) (*Classifier, error) {
	o := classifierOptions{
		rules:  DefaultRules(),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Classifier{
		rules:  make([]compiledRule, 0, len(o.rules)),
		logger: o.logger.With().Str("component", "intent").Logger(),
	}

	for i, rule := range o.rules {
		if err := ValidatePattern(rule.Pattern); err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, rule.Category, err)
		}
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s): invalid pattern: %w", i, rule.Category, err)
		}
		c.rules = append(c.rules, compiledRule{Rule: rule, re: re})
	}

	if o.cacheSize > 0 {
		c.cache = newResultCache(o.cacheSize)
	}

	c.logger.Debug().
		Int("rules", len(c.rules)).
		Int("cache_size", o.cacheSize).
		Msg("Classifier ready")

	return c, nil
}

// MustNew is New for rule tables known to be valid
func MustNew(opts ...Option) *Classifier {
	c, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Classify returns the intent of the first rule matching the lower-cased
// command, or the general intent when nothing matches
func (c *Classifier) Classify(command string) Intent {
	if c.cache != nil {
		if cached, ok := c.cache.get(command); ok {
			return cached
		}
	}

	result := c.classify(command)

	if c.cache != nil {
		c.cache.put(command, result)
	}
	return result
}

func (c *Classifier) classify(command string) Intent {
	lower := strings.ToLower(command)

	for _, rule := range c.rules {
		match := rule.re.FindStringSubmatch(lower)
		if match == nil {
			continue
		}

		result := Intent{
			Category:   rule.Category,
			Action:     rule.Action,
			RawCommand: command,
		}

		if len(match) > 1 {
			switch {
			case rule.Category == CategoryApplication, rule.Category == CategoryHardware:
				result.Target = match[1]
			case rule.Category == CategoryEmail && strings.Contains(lower, "work"):
				result.Filter = "work"
			case rule.Category == CategoryEmail && strings.Contains(lower, "personal"):
				result.Filter = "personal"
			}
		}

		return result
	}

	return General(command)
}

// Rules returns a copy of the rule table in evaluation order
func (c *Classifier) Rules() []Rule {
	rules := make([]Rule, len(c.rules))
	for i, r := range c.rules {
		rules[i] = r.Rule
	}
	return rules
}

// CacheStats reports cache hits, misses and current size. All zero when the
// cache is disabled.
func (c *Classifier) CacheStats() (hits, misses uint64, size int) {
	if c.cache == nil {
		return 0, 0, 0
	}
	hits, misses = c.cache.stats()
	return hits, misses, c.cache.len()
}
