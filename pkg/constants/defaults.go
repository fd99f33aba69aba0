package constants

import "time"

// SubmissionTimestampFormat is the local wall-clock layout stored in the
// waitlist CSV and echoed in submission responses.
const SubmissionTimestampFormat = "2006-01-02 15:04:05"

// UnknownClientAddress is recorded when the client address cannot be read.
const UnknownClientAddress = "Unknown"

const (
	DefaultWaitlistCSVPath       = "media/waitlist.csv"
	DefaultWaitlistRoute         = "/v1/waitlist"
	DefaultWaitlistStatsSchedule = "@every 5m"
)

// Rate limits apply per client IP. The waitlist route gets its own, tighter
// budget over the same window.
const (
	DefaultRateLimitRequests         = 100
	DefaultWaitlistRateLimitRequests = 30
	DefaultRateLimitWindow           = time.Minute
)
