package common

import (
	"fmt"
	"time"
)

// TimeUtils provides time-related utilities used across packages
type TimeUtils struct{}

// NewTimeUtils creates a new TimeUtils instance
func NewTimeUtils() *TimeUtils {
	return &TimeUtils{}
}

// GetCurrentTime returns current time in milliseconds for performance tracking
func (tu TimeUtils) GetCurrentTime() int64 {
	return time.Now().UnixMilli()
}

// GetCurrentTimeUnix returns current time in Unix seconds
func (tu TimeUtils) GetCurrentTimeUnix() int64 {
	return time.Now().Unix()
}

// CalculateDuration calculates duration between start and now
func (tu TimeUtils) CalculateDuration(start time.Time) time.Duration {
	return time.Since(start)
}

// FormatDuration formats a duration for human-readable display
func (tu TimeUtils) FormatDuration(duration time.Duration) string {
	if duration < time.Millisecond {
		return fmt.Sprintf("%.2fµs", float64(duration.Nanoseconds())/1000)
	} else if duration < time.Second {
		return fmt.Sprintf("%.2fms", float64(duration.Nanoseconds())/1000000)
	} else if duration < time.Minute {
		return fmt.Sprintf("%.2fs", duration.Seconds())
	} else {
		return fmt.Sprintf("%.2fm", duration.Minutes())
	}
}
