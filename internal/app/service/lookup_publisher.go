package service

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/sifan077/TrackDesk/internal/app/model"
)

const (
	// sized for ~100k distinct codes at 1% false positives
	seenCapacity = 100_000
	seenFPRate   = 0.01
)

// LookupRecorder receives the outcome of every backend call made by a page.
type LookupRecorder interface {
	Record(event model.LookupEvent) error
}

type streamPublisher interface {
	Publish(subj string, data []byte, opts ...nats.PubOpt) (*nats.PubAck, error)
}

// LookupPublisher publishes lookup events to NATS JetStream.
type LookupPublisher struct {
	js   streamPublisher
	mu   sync.Mutex
	seen *bloom.BloomFilter
	now  func() time.Time
}

// NewLookupPublisher creates a new lookup event publisher.
func NewLookupPublisher(js nats.JetStreamContext) *LookupPublisher {
	return newLookupPublisher(js)
}

func newLookupPublisher(js streamPublisher) *LookupPublisher {
	return &LookupPublisher{
		js:   js,
		seen: bloom.NewWithEstimates(seenCapacity, seenFPRate),
		now:  time.Now,
	}
}

// Record fills in id, timestamp and the first-seen flag, then publishes the event.
// FirstSeen is approximate: a bloom false positive can report a new code as seen.
func (p *LookupPublisher) Record(event model.LookupEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = p.now()
	}

	p.mu.Lock()
	event.FirstSeen = !p.seen.TestOrAddString(event.ISRC)
	p.mu.Unlock()

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	_, err = p.js.Publish(model.LookupStreamSubject, data)
	return err
}
