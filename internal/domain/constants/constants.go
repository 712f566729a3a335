// Package constants holds configuration values that select between implementations.
package constants

// Environments.
const (
	EnvDevelop    = "develop"
	EnvProduction = "production"
)

// Pub/Sub providers.
const (
	PubSubProviderGoogle = "google"
	PubSubProviderLocal  = "local"
	PubSubProviderNoop   = "noop"
)

// Calendar providers.
const (
	CalendarProviderGoogle = "google"
	CalendarProviderICS    = "ics"
)

// Lock providers.
const (
	LockProviderLocal = "local"
	LockProviderRedis = "redis"
)
