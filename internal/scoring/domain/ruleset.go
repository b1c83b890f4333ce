package domain

import "time"

// VersionStatus identifies whether a ruleset version is currently servable.
type VersionStatus string

const (
	VersionActive  VersionStatus = "ACTIVE"
	VersionRetired VersionStatus = "RETIRED"
)

// Ruleset is a named rule configuration with immutable versions.
type Ruleset struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// RulesetVersion is an immutable config snapshot belonging to a ruleset.
// Exactly one version per ruleset is ACTIVE at a time.
type RulesetVersion struct {
	ID         string
	RulesetID  string
	Number     int
	Status     VersionStatus
	ConfigJSON []byte
	CreatedAt  time.Time
}

// ActivationRecord binds a session to a ruleset version at a point in time.
// The log is append-only; the session's current version is the latest record.
type ActivationRecord struct {
	ID               string
	SessionID        string
	RulesetVersionID string
	ActivatedAt      time.Time
}
