package service

import (
	"context"
	"fmt"

	"github.com/okian/meetpoints/internal/adapters/catalog"
	"github.com/okian/meetpoints/pkg/logger"
)

// SeedCatalog creates the catalog events the store does not know yet.
func (s *Service) SeedCatalog(ctx context.Context) (catalog.SeedReport, error) {
	report, err := s.catalog.Seed(ctx, s.store)
	if err != nil {
		return report, fmt.Errorf("seed catalog: %w", err)
	}
	s.logger.Info(ctx, "catalog seeded",
		logger.Int("created", len(report.Created)),
		logger.Int("skipped", len(report.Skipped)),
	)
	return report, nil
}

// AuditPoints reports every group whose resolved points table differs from
// the catalog template.
func (s *Service) AuditPoints(ctx context.Context) ([]catalog.Finding, error) {
	events, err := s.store.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	findings := s.catalog.Audit(events, s.defaults)
	if findings == nil {
		findings = []catalog.Finding{}
	}
	return findings, nil
}
