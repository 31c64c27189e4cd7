package main

import (
	"context"
	"sync"
	"time"

	"playsync/block"
	"playsync/logging"
	"playsync/media"
)

// reporter is a minimal media.StateReporter that logs transitions
// through the shared logging.Logger instead of pushing them to a UI
// binding, matching how far the teacher's own pkgLogger.Printf calls go
// (warnings and state notes, no external telemetry sink).
type reporter struct {
	mu       sync.Mutex
	logger   logging.Logger
	state    media.MediaState
	progress float64
	ended    bool
	position time.Duration
}

func newReporter(logger logging.Logger) *reporter {
	return &reporter{logger: logger, state: media.MediaStop, progress: 1}
}

func (r *reporter) UpdateBufferingStats(length, count, countThreshold int) {
	r.logger.Debugf("buffering: length=%d count=%d threshold=%d", length, count, countThreshold)
}

func (r *reporter) UpdateDecodingBitrate(bitsPerSecond float64) {}

func (r *reporter) UpdateDynamicBlockProperties(blk any, bufferKind block.Kind) {}

func (r *reporter) UpdateMediaEnded(ended bool, position time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ended = ended
	r.logger.Printf("media ended=%v position=%s", ended, position)
}

func (r *reporter) UpdateMediaState(state media.MediaState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = state
	r.logger.Printf("media state -> %s", state)
}

func (r *reporter) UpdatePlaybackStartTime(t time.Duration) {}

func (r *reporter) ReportPlaybackPosition(position time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.position = position
}

func (r *reporter) BufferingProgress() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.progress
}

func (r *reporter) MediaState() media.MediaState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *reporter) HasMediaEnded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ended
}

func (r *reporter) Position() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.position
}

// commands is a media.CommandManager with no seek queue: the demo
// drives position purely through the timing controller, so nothing is
// ever pending.
type commands struct{}

func (commands) HasPendingCommands() bool { return false }
func (commands) IsSeeking() bool          { return false }
func (commands) IsActivelySeeking() bool  { return false }
func (commands) ActiveSeekMode() media.SeekMode { return media.SeekNormal }
func (commands) WaitForSeekBlocks(ctx context.Context, timeout time.Duration) bool {
	return false
}
