package geocode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/bpnn/routeplan/blobstore"
	"github.com/bpnn/routeplan/codec"
)

// DefaultSnapshotName is the blob name the cache persists to.
const DefaultSnapshotName = "geocode/cache.snap"

// ErrBadSnapshot is returned when a persisted snapshot cannot be decoded.
var ErrBadSnapshot = errors.New("geocode: bad cache snapshot")

// Snapshot format:
//
//	[magic "RPGC"][version uint8][codec name length uint8][codec name][codec block]
//
// The codec block is a codec.Compress block holding the encoded snapshot.
var snapshotMagic = []byte("RPGC")

const snapshotVersion = 1

type snapshot struct {
	Version int            `json:"version"`
	SavedAt time.Time      `json:"saved_at"`
	Entries []cachedResult `json:"entries"`
}

type cachedResult struct {
	Result
	CachedAt time.Time `json:"cached_at"`
}

type cacheOptions struct {
	codec       codec.Codec
	compression codec.Compression
	logger      *slog.Logger
	now         func() time.Time
}

// CacheOption configures a Cache.
type CacheOption func(*cacheOptions)

// WithCodec sets the codec used for new snapshots.
func WithCodec(c codec.Codec) CacheOption {
	return func(o *cacheOptions) {
		o.codec = c
	}
}

// WithCompression sets the compression used for new snapshots.
func WithCompression(c codec.Compression) CacheOption {
	return func(o *cacheOptions) {
		o.compression = c
	}
}

// WithCacheLogger sets the logger.
func WithCacheLogger(l *slog.Logger) CacheOption {
	return func(o *cacheOptions) {
		o.logger = l
	}
}

// Cache is a persistent address → Result map keyed by the exact input string.
//
// The cache is an explicit object with a Load/Flush lifecycle: Load reads the
// snapshot from the store once at startup, Flush writes it back when entries
// changed. A nil store keeps the cache in memory only.
type Cache struct {
	store blobstore.Store
	name  string
	opts  cacheOptions

	// flushMu serializes Flush so an older snapshot never overwrites a newer one.
	flushMu sync.Mutex

	mu      sync.RWMutex
	entries map[string]cachedResult
	// gen counts Puts; flushed is the gen of the last persisted snapshot.
	gen     uint64
	flushed uint64
}

// NewCache creates an empty cache persisted as blob name in store.
func NewCache(store blobstore.Store, name string, optFns ...CacheOption) *Cache {
	o := cacheOptions{
		codec:       codec.Default,
		compression: codec.CompressionZSTD,
		now:         time.Now,
	}
	for _, fn := range optFns {
		fn(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	if name == "" {
		name = DefaultSnapshotName
	}
	return &Cache{
		store:   store,
		name:    name,
		opts:    o,
		entries: make(map[string]cachedResult),
	}
}

// Get returns the cached result for address.
func (c *Cache) Get(address string) (Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[address]
	if !ok {
		return Result{}, false
	}
	r := e.Result
	r.Cached = true
	return r, true
}

// Put stores a result under its address.
func (c *Cache) Put(r Result) {
	r.Cached = false
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[r.Address] = cachedResult{Result: r, CachedAt: c.opts.now().UTC()}
	c.gen++
}

// Len returns the number of cached addresses.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Dirty reports whether the cache has changes not yet flushed.
func (c *Cache) Dirty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen != c.flushed
}

// Load replaces the in-memory entries with the persisted snapshot.
// A missing snapshot leaves the cache empty.
func (c *Cache) Load(ctx context.Context) error {
	if c.store == nil {
		return nil
	}

	data, err := c.store.Get(ctx, c.name)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			c.opts.logger.InfoContext(ctx, "geocode cache snapshot not found, starting empty", "name", c.name)
			return nil
		}
		return fmt.Errorf("geocode: load cache: %w", err)
	}

	snap, err := decodeSnapshot(data)
	if err != nil {
		return err
	}

	entries := make(map[string]cachedResult, len(snap.Entries))
	for _, e := range snap.Entries {
		entries[e.Address] = e
	}

	c.mu.Lock()
	c.entries = entries
	c.gen++
	c.flushed = c.gen
	c.mu.Unlock()

	c.opts.logger.InfoContext(ctx, "geocode cache loaded", "name", c.name, "entries", len(entries))
	return nil
}

// Flush persists the cache if it changed since the last Load or Flush.
func (c *Cache) Flush(ctx context.Context) error {
	if c.store == nil {
		return nil
	}

	c.flushMu.Lock()
	defer c.flushMu.Unlock()

	c.mu.RLock()
	if c.gen == c.flushed {
		c.mu.RUnlock()
		return nil
	}
	gen := c.gen
	snap := snapshot{
		Version: snapshotVersion,
		SavedAt: c.opts.now().UTC(),
		Entries: make([]cachedResult, 0, len(c.entries)),
	}
	for _, e := range c.entries {
		snap.Entries = append(snap.Entries, e)
	}
	c.mu.RUnlock()

	slices.SortFunc(snap.Entries, func(a, b cachedResult) int {
		switch {
		case a.Address < b.Address:
			return -1
		case a.Address > b.Address:
			return 1
		default:
			return 0
		}
	})

	data, err := encodeSnapshot(snap, c.opts.codec, c.opts.compression)
	if err != nil {
		return err
	}
	if err := c.store.Put(ctx, c.name, data); err != nil {
		return fmt.Errorf("geocode: flush cache: %w", err)
	}

	// Puts that landed during the write keep the cache dirty.
	c.mu.Lock()
	c.flushed = gen
	c.mu.Unlock()

	c.opts.logger.InfoContext(ctx, "geocode cache flushed", "name", c.name, "entries", len(snap.Entries), "bytes", len(data))
	return nil
}

func encodeSnapshot(snap snapshot, cdc codec.Codec, comp codec.Compression) ([]byte, error) {
	payload, err := cdc.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("geocode: encode cache: %w", err)
	}
	block, err := codec.Compress(payload, comp)
	if err != nil {
		return nil, fmt.Errorf("geocode: compress cache: %w", err)
	}

	name := cdc.Name()
	var buf bytes.Buffer
	buf.Grow(len(snapshotMagic) + 2 + len(name) + len(block))
	buf.Write(snapshotMagic)
	buf.WriteByte(snapshotVersion)
	buf.WriteByte(byte(len(name)))
	buf.WriteString(name)
	buf.Write(block)
	return buf.Bytes(), nil
}

func decodeSnapshot(data []byte) (*snapshot, error) {
	if len(data) < len(snapshotMagic)+2 || !bytes.Equal(data[:len(snapshotMagic)], snapshotMagic) {
		return nil, fmt.Errorf("%w: missing header", ErrBadSnapshot)
	}
	data = data[len(snapshotMagic):]

	if v := data[0]; v != snapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadSnapshot, v)
	}
	nameLen := int(data[1])
	data = data[2:]
	if len(data) < nameLen {
		return nil, fmt.Errorf("%w: truncated codec name", ErrBadSnapshot)
	}

	cdc, ok := codec.ByName(string(data[:nameLen]))
	if !ok {
		return nil, fmt.Errorf("%w: unknown codec %q", ErrBadSnapshot, data[:nameLen])
	}

	payload, err := codec.Decompress(data[nameLen:])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadSnapshot, err)
	}

	var snap snapshot
	if err := cdc.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadSnapshot, err)
	}
	return &snap, nil
}
