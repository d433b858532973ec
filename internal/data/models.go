package data

import (
	"errors"

	"github.com/stellar/graphql-stitcher/internal/db"
	"github.com/stellar/graphql-stitcher/internal/metrics"
)

type Models struct {
	SchemaSnapshots *SchemaSnapshotModel
}

func NewModels(db db.ConnectionPool, metricsService metrics.MetricsService) (*Models, error) {
	if db == nil {
		return nil, errors.New("ConnectionPool must be initialized")
	}
	if metricsService == nil {
		return nil, errors.New("MetricsService must be initialized")
	}

	return &Models{
		SchemaSnapshots: &SchemaSnapshotModel{DB: db, MetricsService: metricsService},
	}, nil
}
