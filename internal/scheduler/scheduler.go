// Package scheduler bounds how external engine calls are dispatched. The
// detection and translation pools are independent so a burst of
// translation-bound work cannot starve OCR throughput, and vice versa.
package scheduler

import (
	"context"
	"fmt"
	"runtime"
)

// Config holds both pool bounds.
type Config struct {
	Detect    PoolConfig
	Translate PoolConfig
}

// DefaultConfig sizes the detection pool by local compute and the
// translation pool by typical remote service rate limits.
func DefaultConfig() Config {
	workers := runtime.NumCPU()
	return Config{
		Detect:    PoolConfig{Workers: workers, QueueDepth: 2 * workers},
		Translate: PoolConfig{Workers: 4, QueueDepth: 8},
	}
}

// Scheduler owns the two pools.
type Scheduler struct {
	detect    *Pool
	translate *Pool
}

// New starts both pools.
func New(cfg Config) (*Scheduler, error) {
	detect, err := NewPool("detect", cfg.Detect)
	if err != nil {
		return nil, fmt.Errorf("scheduler: %w", err)
	}
	translate, err := NewPool("translate", cfg.Translate)
	if err != nil {
		detect.Close()
		return nil, fmt.Errorf("scheduler: %w", err)
	}
	return &Scheduler{detect: detect, translate: translate}, nil
}

// Detect runs fn on the detection pool.
func (s *Scheduler) Detect(ctx context.Context, fn func(context.Context) error) error {
	return s.detect.Run(ctx, fn)
}

// Translate runs fn on the translation pool.
func (s *Scheduler) Translate(ctx context.Context, fn func(context.Context) error) error {
	return s.translate.Run(ctx, fn)
}

// Close drains both pools.
func (s *Scheduler) Close() {
	s.detect.Close()
	s.translate.Close()
}
