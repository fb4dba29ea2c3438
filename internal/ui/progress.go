package ui

import (
	"sync"
	"time"
)

// ProgressTracker manages progress state across stages.
// It is safe for concurrent use.
type ProgressTracker struct {
	mu         sync.RWMutex
	stage      Stage
	current    int
	total      int
	startTime  time.Time
	stageStart time.Time

	// ETA smoothing to prevent wild fluctuations
	lastETA time.Duration

	lastCurrent   int
	lastSpeedCalc time.Time
	currentSpeed  float64
	avgSpeed      float64
	speedSamples  int
}

// ProgressStats contains a snapshot of current progress.
type ProgressStats struct {
	Stage    Stage
	Current  int
	Total    int
	Progress float64
	ETA      time.Duration
	// Speed is the smoothed number of lines per second.
	Speed float64
}

// NewProgressTracker creates a new progress tracker.
func NewProgressTracker() *ProgressTracker {
	now := time.Now()
	return &ProgressTracker{
		stage:         StageReading,
		startTime:     now,
		stageStart:    now,
		lastSpeedCalc: now,
	}
}

// SetStage transitions to a new stage.
func (p *ProgressTracker) SetStage(stage Stage, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stage = stage
	p.total = total
	p.current = 0
	p.stageStart = time.Now()
	p.lastETA = 0
	p.lastCurrent = 0
	p.lastSpeedCalc = p.stageStart
}

// Update records the number of items done in the current stage. Lower
// values than the current one are ignored, since concurrent workers may
// report out of order.
func (p *ProgressTracker) Update(current int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if current < p.current {
		return
	}
	p.current = current

	// Calculate speed every 500ms to avoid noise
	now := time.Now()
	elapsed := now.Sub(p.lastSpeedCalc)
	if elapsed >= 500*time.Millisecond {
		if delta := current - p.lastCurrent; delta > 0 {
			speed := float64(delta) / elapsed.Seconds()
			p.currentSpeed = speed
			p.speedSamples++
			if p.speedSamples == 1 {
				p.avgSpeed = speed
			} else {
				p.avgSpeed = 0.2*speed + 0.8*p.avgSpeed
			}
		}
		p.lastCurrent = current
		p.lastSpeedCalc = now
	}
}

// Progress returns current progress percentage (0.0-1.0).
func (p *ProgressTracker) Progress() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.progress()
}

func (p *ProgressTracker) progress() float64 {
	if p.total == 0 {
		return 0.0
	}
	progress := float64(p.current) / float64(p.total)
	if progress > 1.0 {
		return 1.0
	}
	return progress
}

// Elapsed returns time since tracker creation.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return time.Since(p.startTime)
}

// Stats returns current statistics snapshot.
// Uses write lock because calculateETA modifies lastETA for smoothing.
func (p *ProgressTracker) Stats() ProgressStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return ProgressStats{
		Stage:    p.stage,
		Current:  p.current,
		Total:    p.total,
		Progress: p.progress(),
		ETA:      p.calculateETA(),
		Speed:    p.avgSpeed,
	}
}

// etaSmoothingFactor is the weight of a new ETA estimate.
const etaSmoothingFactor = 0.3

// calculateETA calculates ETA with exponential smoothing (must be called with lock held).
func (p *ProgressTracker) calculateETA() time.Duration {
	if p.current == 0 || p.total == 0 {
		return 0
	}

	elapsed := time.Since(p.stageStart)
	progress := float64(p.current) / float64(p.total)
	if progress <= 0 || progress >= 1.0 {
		return 0
	}

	totalEstimate := time.Duration(float64(elapsed) / progress)
	rawRemaining := totalEstimate - elapsed
	if rawRemaining < 0 {
		return 0
	}

	if p.lastETA == 0 {
		p.lastETA = rawRemaining
		return rawRemaining
	}
	smoothed := time.Duration(
		etaSmoothingFactor*float64(rawRemaining) +
			(1-etaSmoothingFactor)*float64(p.lastETA),
	)
	p.lastETA = smoothed
	return smoothed
}
