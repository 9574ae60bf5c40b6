package logger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"sync"
	"time"
)

type Publisher interface {
	PublishMessage(ctx context.Context, topic string, payload interface{}) error
}

type DigestConfig struct {
	Interval  time.Duration // flush interval
	MaxUnique int           // flush early once this many distinct entries are held
	Topic     string
	Levels    []string // levels to aggregate, defaults to error only
	Publisher Publisher
}

// DigestEntry is one distinct (level, message, fields, caller) combination.
type DigestEntry struct {
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields"`
	Caller    string                 `json:"caller"`
	Count     int                    `json:"count"`
	FirstSeen time.Time              `json:"first_seen"`
	LastSeen  time.Time              `json:"last_seen"`
}

// Digest groups repeated warn/error entries and periodically ships them as one
// batch, so a failing upstream produces one message per interval instead of
// one per symbol.
type Digest struct {
	cfg     DigestConfig
	levels  map[string]struct{}
	mu      sync.Mutex
	entries map[string]*DigestEntry
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

func NewDigest(cfg *DigestConfig) *Digest {
	c := *cfg
	if c.Interval <= 0 {
		c.Interval = 30 * time.Second
	}
	if c.MaxUnique <= 0 {
		c.MaxUnique = 100
	}
	if len(c.Levels) == 0 {
		c.Levels = []string{"error"}
	}
	d := &Digest{
		cfg:     c,
		levels:  make(map[string]struct{}, len(c.Levels)),
		entries: make(map[string]*DigestEntry),
		done:    make(chan struct{}),
	}
	for _, lv := range c.Levels {
		d.levels[lv] = struct{}{}
	}
	d.wg.Add(1)
	go d.loop()
	return d
}

func (d *Digest) accepts(level string) bool {
	_, ok := d.levels[level]
	return ok
}

func (d *Digest) Add(level, message string, fields map[string]interface{}, caller string) {
	now := time.Now()
	key := fingerprint(level, message, fields, caller)

	d.mu.Lock()
	if e, ok := d.entries[key]; ok {
		e.Count++
		e.LastSeen = now
	} else {
		d.entries[key] = &DigestEntry{
			Level: level, Message: message, Fields: fields, Caller: caller,
			Count: 1, FirstSeen: now, LastSeen: now,
		}
	}
	var batch []DigestEntry
	if len(d.entries) >= d.cfg.MaxUnique {
		batch = d.drainLocked()
	}
	d.mu.Unlock()

	if batch != nil {
		go d.publish(batch)
	}
}

func (d *Digest) loop() {
	defer d.wg.Done()
	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			d.flush()
		case <-d.done:
			d.flush()
			return
		}
	}
}

func (d *Digest) flush() {
	d.mu.Lock()
	batch := d.drainLocked()
	d.mu.Unlock()
	if batch != nil {
		d.publish(batch)
	}
}

func (d *Digest) drainLocked() []DigestEntry {
	if len(d.entries) == 0 {
		return nil
	}
	batch := make([]DigestEntry, 0, len(d.entries))
	for _, e := range d.entries {
		batch = append(batch, *e)
	}
	d.entries = make(map[string]*DigestEntry)
	return batch
}

func (d *Digest) publish(batch []DigestEntry) {
	if d.cfg.Publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := d.cfg.Publisher.PublishMessage(ctx, d.cfg.Topic, batch); err != nil {
		// the logger itself is the thing failing here, so go straight to stderr
		_, _ = os.Stderr.WriteString("log digest publish failed: " + err.Error() + "\n")
	}
}

// Close stops the flush loop after a final flush. Safe to call twice.
func (d *Digest) Close() {
	d.once.Do(func() {
		close(d.done)
		d.wg.Wait()
	})
}

func fingerprint(level, message string, fields map[string]interface{}, caller string) string {
	raw, _ := json.Marshal(struct {
		L string                 `json:"l"`
		M string                 `json:"m"`
		F map[string]interface{} `json:"f"`
		C string                 `json:"c"`
	}{level, message, fields, caller})
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:12])
}
