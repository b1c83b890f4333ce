// Package service orchestrates event ingestion: sequencing, domain
// validation, projection derivation, metrics, and the audit trail.
package service

import (
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/dompetkecil/scoring/internal/platform/pagination"
	"github.com/dompetkecil/scoring/internal/scoring/metrics"
	"github.com/dompetkecil/scoring/internal/scoring/rules"
	"github.com/dompetkecil/scoring/internal/scoring/ruleset"
	"github.com/dompetkecil/scoring/internal/scoring/storage"
)

const tracerName = "github.com/dompetkecil/scoring/internal/scoring/service"

// Read-back page bounds.
var readPageConfig = pagination.Config{Default: 50, Max: 200}

// Service is the scoring engine's application layer. All mutations of a
// session go through its per-session lock so the validate+append step is
// exclusive per session.
type Service struct {
	store      storage.Store
	gate       rules.SequenceGate
	validator  *rules.Validator
	configs    *ruleset.Cache
	aggregator metrics.Aggregator
	locks      sessionLocks
	tracer     trace.Tracer
	now        func() time.Time
}

// New creates a scoring service on top of the provided store.
func New(store storage.Store) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	configs, err := ruleset.NewCache(0)
	if err != nil {
		return nil, err
	}
	return &Service{
		store:     store,
		validator: rules.NewValidator(),
		configs:   configs,
		tracer:    otel.Tracer(tracerName),
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}
