// Package stream republishes the current snapshots as a timed sequence of
// layout frames, one frame per GC cycle.
package stream

import (
	"context"
	"encoding/json"
	"time"

	"github.com/g1heapviz/internal/store"
	"github.com/g1heapviz/pkg/model"
	"github.com/g1heapviz/pkg/utils"
)

// DefaultInterval is the delay between two frames.
const DefaultInterval = 320 * time.Millisecond

// DefaultBuffer is the number of frames held for a slow subscriber.
const DefaultBuffer = 100

var emptyFrame = []byte("[]")

// Frame is the payload published for one tick.
type Frame struct {
	Tick int
	Data []byte
}

// Config configures a Projector.
type Config struct {
	Interval time.Duration
	Buffer   int
	Clock    utils.Clock
	Logger   utils.Logger

	// OnTick, when set, is called once per published frame.
	OnTick func()
}

// Projector turns a Store into frames. Tick k carries the layout cells of
// every snapshot whose cycle is k.
type Projector struct {
	store    store.Store
	interval time.Duration
	buffer   int
	clock    utils.Clock
	logger   utils.Logger
	onTick   func()
}

// NewProjector creates a Projector reading from s.
func NewProjector(s store.Store, cfg Config) *Projector {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Buffer < 0 {
		cfg.Buffer = DefaultBuffer
	}
	if cfg.Clock == nil {
		cfg.Clock = utils.NewRealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = &utils.NullLogger{}
	}
	return &Projector{
		store:    s,
		interval: cfg.Interval,
		buffer:   cfg.Buffer,
		clock:    cfg.Clock,
		logger:   cfg.Logger,
		onTick:   cfg.OnTick,
	}
}

// Cells returns the concatenated layout of the snapshots whose cycle equals
// tick, in log order. The result is never nil.
func Cells(snapshots []*model.HeapSnapshot, tick int) []model.LayoutCell {
	cells := make([]model.LayoutCell, 0)
	for _, s := range snapshots {
		if s.Cycle == tick {
			cells = append(cells, s.Layout()...)
		}
	}
	return cells
}

// Frame renders the frame for tick. Any failure yields an empty array.
func (p *Projector) Frame(tick int) []byte {
	data, err := json.Marshal(Cells(p.store.Snapshots(), tick))
	if err != nil {
		p.logger.Error("stream: failed to encode tick %d: %v", tick, err)
		return emptyFrame
	}
	return data
}

// Subscribe starts a frame sequence for one subscriber. The first frame is
// tick 0 and is published one interval after the call. The channel is closed
// when ctx is done. Frames that do not fit the buffer are dropped.
func (p *Projector) Subscribe(ctx context.Context) <-chan Frame {
	out := make(chan Frame, p.buffer)
	ticker := p.clock.NewTicker(p.interval)

	go func() {
		defer close(out)
		defer ticker.Stop()

		tick := 0
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C():
			}

			frame := Frame{Tick: tick, Data: p.Frame(tick)}
			tick++

			select {
			case out <- frame:
				if p.onTick != nil {
					p.onTick()
				}
			case <-ctx.Done():
				return
			default:
				p.logger.Warn("stream: subscriber is %d frames behind, dropping tick %d", p.buffer, frame.Tick)
			}
		}
	}()

	return out
}
