package constants

import "time"

const (
	DefaultHTTPTimeout = 15 * time.Second

	HTTPStatusOKMin = 200
	HTTPStatusOKMax = 300

	// Prefix for scheduler job claims held in redis.
	JobClaimKeyPrefix = "jobclaim:"

	// Extra slack on a job claim TTL so the claim outlives the schedule
	// it guards.
	JobClaimTTLSlack = 5 * time.Minute

	// Placeholder token delimiters, e.g. {{user.first_name}}.
	PlaceholderOpen  = "{{"
	PlaceholderClose = "}}"

	RulesCollection = "rules"

	// Grace period for draining in-flight work on SIGTERM.
	ShutdownTimeout = 10 * time.Second

	DatabaseConnectTimeout = 30 * time.Second

	// Default TTL for key-value state written by actions.
	DefaultStorageTTL = 24 * time.Hour
)
