package sync

import "time"

// Mode is the sync strategy chosen for a tenant+integration pair.
type Mode string

const (
	// ModeCatchUp performs a time-bounded backfill when the mirror has
	// fallen far enough behind that its stored cursor can no longer be
	// trusted to resume cleanly.
	ModeCatchUp Mode = "catch_up"
	// ModeIncremental resumes from the stored cursor/sync-token.
	ModeIncremental Mode = "incremental"
)

// ChooseMode implements the normative catch-up selection rule (spec §4.2):
//
//	age = now - last_successful_sync
//	if last_successful_sync is null OR age > catch_up_threshold:
//	    mode = catch_up(window=catch_up_window)
//	else:
//	    mode = incremental(cursor=stored_cursor_or_time_min)
func ChooseMode(lastSuccessfulSync *time.Time, now time.Time, catchUpThreshold time.Duration) Mode {
	if lastSuccessfulSync == nil {
		return ModeCatchUp
	}
	if now.Sub(*lastSuccessfulSync) > catchUpThreshold {
		return ModeCatchUp
	}
	return ModeIncremental
}

// CatchUpWindowStart returns the start of the time-bounded backfill window
// for a catch_up sync: now minus the configured catch-up window.
func CatchUpWindowStart(now time.Time, catchUpWindow time.Duration) time.Time {
	return now.Add(-catchUpWindow)
}
