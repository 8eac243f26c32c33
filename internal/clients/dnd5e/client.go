package dnd5e

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	bmerr "github.com/CWDN/battle-monsters/internal/errors"
	"github.com/CWDN/battle-monsters/internal/logger"
	"github.com/fadedpez/dnd5e-api/clients/dnd5e"
	apiEntities "github.com/fadedpez/dnd5e-api/entities"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// monsterSource is the slice of the upstream API this client uses
type monsterSource interface {
	GetMonster(key string) (*apiEntities.Monster, error)
}

type client struct {
	source monsterSource

	group singleflight.Group
	mu    sync.RWMutex
	cache map[string]*MonsterTemplate
}

// Config holds configuration for the SRD client
type Config struct {
	HttpClient *http.Client

	// BaseURL points requests at a mirror of the SRD API. Empty keeps the
	// upstream default.
	BaseURL string

	// Timeout applies when HttpClient is nil
	Timeout time.Duration
}

// New creates an SRD client backed by the dnd5e API
func New(cfg *Config) (Client, error) {
	if cfg == nil {
		return nil, bmerr.InvalidArgument("dnd5e client config is required")
	}

	httpClient := cfg.HttpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.BaseURL != "" {
		mirror, err := url.Parse(cfg.BaseURL)
		if err != nil || mirror.Host == "" {
			return nil, bmerr.InvalidArgumentf("invalid dnd5e base URL %q", cfg.BaseURL)
		}
		rewritten := *httpClient
		rewritten.Transport = &rewriteTransport{target: mirror, next: httpClient.Transport}
		httpClient = &rewritten
	}

	dndClient, err := dnd5e.NewDND5eAPI(&dnd5e.DND5eAPIConfig{
		Client: httpClient,
	})
	if err != nil {
		return nil, bmerr.Wrap(err, "failed to create dnd5e API client")
	}

	return newClient(dndClient), nil
}

func newClient(source monsterSource) *client {
	return &client{
		source: source,
		cache:  make(map[string]*MonsterTemplate),
	}
}

// GetMonster fetches a stat block once per key and serves repeats from
// memory. Concurrent lookups of the same key share one request.
func (c *client) GetMonster(ctx context.Context, key string) (*MonsterTemplate, error) {
	if key == "" {
		return nil, bmerr.InvalidArgument("monster key is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, bmerr.Wrap(err, "monster lookup cancelled")
	}

	c.mu.RLock()
	cached, ok := c.cache[key]
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}

	result, err, shared := c.group.Do(key, func() (any, error) {
		monster, err := c.source.GetMonster(key)
		if err != nil {
			return nil, bmerr.WrapWithCode(err, bmerr.CodeUnavailable, "failed to fetch SRD monster").
				WithMeta("monster_key", key)
		}
		if monster == nil {
			return nil, bmerr.NotFoundf("SRD monster not found: %s", key).WithMeta("monster_key", key)
		}

		template := apiToMonsterTemplate(monster)
		c.mu.Lock()
		c.cache[key] = template
		c.mu.Unlock()
		return template, nil
	})
	if err != nil {
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{
		"monster_key": key,
		"shared":      shared,
	}).Debug("fetched SRD monster")

	return result.(*MonsterTemplate), nil
}

func apiToMonsterTemplate(input *apiEntities.Monster) *MonsterTemplate {
	return &MonsterTemplate{
		Key:             input.Key,
		Name:            input.Name,
		HitPoints:       float64(input.HitPoints),
		ChallengeRating: float64(input.ChallengeRating),
		Actions:         apisToMonsterActions(input.MonsterActions),
	}
}

func apisToMonsterActions(input []*apiEntities.MonsterAction) []*MonsterAction {
	if input == nil {
		return nil
	}

	var monsterActions []*MonsterAction
	for _, ma := range input {
		if ma == nil {
			continue
		}
		action := &MonsterAction{Name: ma.Name}
		for _, d := range ma.Damage {
			if d != nil && d.DamageDice != "" {
				action.DamageDice = append(action.DamageDice, d.DamageDice)
			}
		}
		monsterActions = append(monsterActions, action)
	}

	return monsterActions
}

// rewriteTransport sends every request to target's scheme and host
type rewriteTransport struct {
	target *url.URL
	next   http.RoundTripper
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.URL.Scheme = t.target.Scheme
	out.URL.Host = t.target.Host
	out.Host = t.target.Host

	next := t.next
	if next == nil {
		next = http.DefaultTransport
	}
	return next.RoundTrip(out)
}
