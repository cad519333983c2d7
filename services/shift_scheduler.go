package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ShiftGenerator is the entry point the scheduler triggers.
type ShiftGenerator interface {
	CreateShiftsForToday(ctx context.Context, raiseIfFull bool) (*ShiftGenerationResult, error)
}

// ShiftScheduler creates the day's shifts once on start and then every day
// at a fixed local time.
type ShiftScheduler struct {
	Generator ShiftGenerator
	Log       *logrus.Logger
	Clock     Clock
	Hour      int
	Minute    int
	Timeout   time.Duration

	stopChan chan struct{}
	wg       sync.WaitGroup
	once     sync.Once

	// newTimer is swapped in tests
	newTimer func(d time.Duration) (<-chan time.Time, func() bool)
}

func NewShiftScheduler(gen ShiftGenerator, log *logrus.Logger, clock Clock, hour, minute int) *ShiftScheduler {
	return &ShiftScheduler{
		Generator: gen,
		Log:       log,
		Clock:     clock,
		Hour:      hour,
		Minute:    minute,
		Timeout:   30 * time.Second,
		stopChan:  make(chan struct{}),
		newTimer: func(d time.Duration) (<-chan time.Time, func() bool) {
			t := time.NewTimer(d)
			return t.C, t.Stop
		},
	}
}

func (ss *ShiftScheduler) Start() {
	ss.wg.Add(1)
	go func() {
		defer ss.wg.Done()
		ss.runOnce()

		for {
			wait := ss.NextRun(ss.Clock.Now()).Sub(ss.Clock.Now())
			fired, stop := ss.newTimer(wait)
			select {
			case <-fired:
				ss.runOnce()
			case <-ss.stopChan:
				stop()
				return
			}
		}
	}()
	ss.Log.WithField("at", time.Date(0, 1, 1, ss.Hour, ss.Minute, 0, 0, time.UTC).Format("15:04")).Info("Shift scheduler started")
}

// Stop ends the loop and waits for a running job to finish.
func (ss *ShiftScheduler) Stop() {
	ss.once.Do(func() {
		close(ss.stopChan)
	})
	ss.wg.Wait()
}

// NextRun returns the first scheduled time strictly after now.
func (ss *ShiftScheduler) NextRun(now time.Time) time.Time {
	now = now.In(ss.Clock.Location())
	y, m, d := now.Date()
	next := time.Date(y, m, d, ss.Hour, ss.Minute, 0, 0, now.Location())
	if !next.After(now) {
		next = time.Date(y, m, d+1, ss.Hour, ss.Minute, 0, 0, now.Location())
	}
	return next
}

func (ss *ShiftScheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), ss.Timeout)
	defer cancel()

	result, err := ss.Generator.CreateShiftsForToday(ctx, false)
	if err != nil {
		ss.Log.WithError(err).Error("Error creating today's shifts")
		return
	}
	ss.Log.WithField("created", len(result.Created)).Info(result.Message)
}
