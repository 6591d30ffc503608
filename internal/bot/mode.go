package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/edgard/dictant/internal/config"
)

// Mode selects what a single run does.
type Mode string

// Run modes.
const (
	ModeIdle   Mode = "idle"
	ModeTask   Mode = "task"
	ModeAnswer Mode = "answer"
	ModeAuto   Mode = "auto"
)

// DefaultWindow is used when the schedule does not set one.
const DefaultWindow = 15 * time.Minute

// ParseMode parses a mode name. An empty name means auto.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeAuto, nil
	case ModeIdle, ModeTask, ModeAnswer, ModeAuto:
		return m, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want auto, task, answer or idle)", s)
	}
}

// ModeAt resolves the mode for wall-clock time t: task when t falls within
// the window starting at task_at, answer when within the window starting at
// answer_at, otherwise idle. Times are compared in the schedule's timezone;
// an invalid timezone or clock string never matches.
func ModeAt(t time.Time, sched config.ScheduleConfig) Mode {
	loc, err := sched.Location()
	if err != nil {
		return ModeIdle
	}
	window := sched.Window
	if window <= 0 {
		window = DefaultWindow
	}
	local := t.In(loc)

	if inWindow(local, sched.TaskAt, window) {
		return ModeTask
	}
	if inWindow(local, sched.AnswerAt, window) {
		return ModeAnswer
	}
	return ModeIdle
}

// inWindow reports whether t is in [clock, clock+window) for the slot on
// t's day or the day before, so windows may run past midnight.
func inWindow(t time.Time, clock string, window time.Duration) bool {
	hm, err := time.Parse("15:04", clock)
	if err != nil {
		return false
	}
	for _, dayOffset := range []int{0, -1} {
		y, m, d := t.AddDate(0, 0, dayOffset).Date()
		start := time.Date(y, m, d, hm.Hour(), hm.Minute(), 0, 0, t.Location())
		if !t.Before(start) && t.Before(start.Add(window)) {
			return true
		}
	}
	return false
}
