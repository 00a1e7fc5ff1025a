package graph

import (
	"context"
	"crypto/rand"
	"log"
	"math"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// DefaultTTL is the graph cache lifetime. Deliberately much shorter than
// the dossier TTL: the graph changes on every conversational turn and
// staleness is more costly than the round trip.
const DefaultTTL = 2 * time.Second

// DefaultHealthInterval is the graph-health polling interval.
const DefaultHealthInterval = 30 * time.Second

// Cache presents an eventually-consistent local view of the externally
// authoritative temporal graph. Layout coordinates are the one locally
// authoritative substructure: they are merged into fetched nodes by id and
// survive refreshes. Construct one at process start and pass it by
// reference; the cache cell has no other lifecycle.
type Cache struct {
	client *Client
	layout LayoutStore
	ttl    time.Duration

	mu        sync.Mutex
	data      *GraphData
	fetchedAt time.Time
	subs      []func()
	health    HealthStatus

	pollStop chan struct{}
	pollOnce sync.Once
}

// NewCache creates a graph cache. A zero ttl uses DefaultTTL.
func NewCache(client *Client, layout LayoutStore, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{client: client, layout: layout, ttl: ttl}
}

// Subscribe registers a callback fired after every cache change (fresh
// fetch or write-triggered invalidation) so dependent views can redraw.
// Callbacks run synchronously; keep them cheap.
func (c *Cache) Subscribe(fn func()) {
	c.mu.Lock()
	c.subs = append(c.subs, fn)
	c.mu.Unlock()
}

func (c *Cache) notify() {
	c.mu.Lock()
	subs := make([]func(), len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

// Fetch returns the local graph view. A cache entry younger than the TTL is
// served directly unless forceRefresh is set. On transport failure the last
// good cache is returned even if stale (avoids a visual flash of an empty
// graph); with no cache at all, an empty graph.
func (c *Cache) Fetch(ctx context.Context, forceRefresh bool) *GraphData {
	c.mu.Lock()
	if !forceRefresh && c.data != nil && time.Since(c.fetchedAt) < c.ttl {
		data := c.data
		c.mu.Unlock()
		return data
	}
	stale := c.data
	c.mu.Unlock()

	data, err := c.client.FetchGraph(ctx)
	if err != nil {
		if stale != nil {
			return stale
		}
		return &GraphData{Nodes: []Node{}, Links: []Link{}}
	}

	c.mergeLayout(data)

	c.mu.Lock()
	c.data = data
	c.fetchedAt = time.Now()
	c.mu.Unlock()

	c.notify()
	return data
}

// mergeLayout folds persisted coordinates into fetched nodes by id.
// Unknown/new nodes keep nil coordinates so the physics layout places them.
func (c *Cache) mergeLayout(data *GraphData) {
	if c.layout == nil {
		return
	}
	layouts, err := c.layout.All()
	if err != nil || len(layouts) == 0 {
		return
	}
	for i := range data.Nodes {
		if l, ok := layouts[data.Nodes[i].ID]; ok {
			data.Nodes[i].X = l.X
			data.Nodes[i].Y = l.Y
			data.Nodes[i].FX = l.FX
			data.Nodes[i].FY = l.FY
		}
	}
}

// AddEpisode writes one episode upstream. On success the cache is
// invalidated unconditionally so the next read is a real fetch; on failure
// the cache is left untouched and the result reports the error.
func (c *Cache) AddEpisode(ctx context.Context, content, source, episodeType string) EpisodeResult {
	if source == "" {
		source = "attache"
	}
	if episodeType == "" {
		episodeType = "message"
	}

	resp, err := c.client.AddEpisode(ctx, content, source, episodeType)
	if err != nil {
		return EpisodeResult{Error: err.Error()}
	}
	if !resp.Success {
		return EpisodeResult{Error: orUnknown(resp.Error)}
	}

	c.invalidate()
	return EpisodeResult{
		Success:       true,
		EntitiesAdded: resp.EntitiesCount,
		EdgesAdded:    resp.EdgesCount,
	}
}

// AddConversation writes a full conversation upstream, with the same
// invalidation contract as AddEpisode. An empty sessionID gets a ULID.
func (c *Cache) AddConversation(ctx context.Context, messages []Message, sessionID string) WriteResult {
	if len(messages) == 0 {
		return WriteResult{Error: "no messages to ingest"}
	}
	if sessionID == "" {
		sessionID = newSessionID()
	}

	resp, err := c.client.AddConversation(ctx, messages, sessionID)
	if err != nil {
		return WriteResult{Error: err.Error()}
	}
	if !resp.Success {
		return WriteResult{Error: orUnknown(resp.Error)}
	}

	c.invalidate()
	return WriteResult{Success: true}
}

// Clear destroys the upstream graph. On success both the local cache and
// the persisted layout store are cleared; on failure all local state is
// left untouched (no partial clear). The dossier cache is independent and
// is never touched from here.
func (c *Cache) Clear(ctx context.Context) WriteResult {
	if err := c.client.ClearGraph(ctx); err != nil {
		return WriteResult{Error: err.Error()}
	}

	c.mu.Lock()
	c.data = nil
	c.fetchedAt = time.Time{}
	c.mu.Unlock()

	if c.layout != nil {
		if err := c.layout.Clear(); err != nil {
			log.Printf("graph: layout clear after graph clear failed: %v", err)
		}
	}

	c.notify()
	return WriteResult{Success: true}
}

// SaveLayout persists each node's coordinates keyed by node id. Values that
// are not finite numbers are omitted per-field: a node may end up with x/y
// but no pinned fx/fy.
func (c *Cache) SaveLayout(nodes []Node) error {
	if c.layout == nil {
		return nil
	}
	for _, n := range nodes {
		if n.ID == "" {
			continue
		}
		l := NodeLayout{
			X:  finiteOrNil(n.X),
			Y:  finiteOrNil(n.Y),
			FX: finiteOrNil(n.FX),
			FY: finiteOrNil(n.FY),
		}
		if l.X == nil && l.Y == nil && l.FX == nil && l.FY == nil {
			continue
		}
		if err := c.layout.Upsert(n.ID, l); err != nil {
			return err
		}
	}
	return nil
}

// invalidate expires the cache and notifies subscribers.
func (c *Cache) invalidate() {
	c.mu.Lock()
	c.data = nil
	c.fetchedAt = time.Time{}
	c.mu.Unlock()
	c.notify()
}

// Health returns the last polled health status.
func (c *Cache) Health() HealthStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.health
}

// CheckHealth polls the service once and records the result.
func (c *Cache) CheckHealth(ctx context.Context) HealthStatus {
	status, err := c.client.Health(ctx)
	if err != nil {
		status = &HealthStatus{Status: "unreachable"}
	}
	c.mu.Lock()
	c.health = *status
	c.mu.Unlock()
	return *status
}

// StartHealthPolling launches the fixed-interval health poller. It runs
// independently of the fetch/write paths and never blocks them. Safe to
// call once; StopHealthPolling ends it.
func (c *Cache) StartHealthPolling(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultHealthInterval
	}
	c.pollOnce.Do(func() {
		stop := make(chan struct{})
		c.mu.Lock()
		c.pollStop = stop
		c.mu.Unlock()
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			c.CheckHealth(context.Background())
			for {
				select {
				case <-ticker.C:
					c.CheckHealth(context.Background())
				case <-stop:
					return
				}
			}
		}()
	})
}

// StopHealthPolling stops the poller if it was started. Safe to call more
// than once and concurrently with the poller itself.
func (c *Cache) StopHealthPolling() {
	c.mu.Lock()
	stop := c.pollStop
	c.pollStop = nil
	c.mu.Unlock()
	if stop != nil {
		close(stop)
	}
}

func finiteOrNil(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	return v
}

func newSessionID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "session"
	}
	return id.String()
}
