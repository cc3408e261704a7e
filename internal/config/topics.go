package config

// TopicCatalogSyncOutcome is the default NSQ topic for per-notification sync outcomes.
const TopicCatalogSyncOutcome = "catalog.sync.outcome"
