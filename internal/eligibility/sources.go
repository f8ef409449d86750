// Package eligibility discovers (unit, user) pairs whose occupancy term has
// elapsed. The four record shapes sit behind one TermSource interface so the
// resolver iterates a list instead of four copies of the same query block.
package eligibility

import (
	"context"
	"time"

	"offboard/internal/occupancy/models"
	"offboard/internal/occupancy/ports"
	"offboard/pkg/domain"
)

// TermSource yields due term candidates for one record shape.
type TermSource interface {
	Kind() domain.SourceKind
	DueTerms(ctx context.Context, asOf time.Time) ([]models.TermCandidate, error)
}

type ownerMoveOutSource struct{ store ports.TermStore }
type tenantLeaseSource struct{ store ports.TermStore }
type companyLeaseSource struct{ store ports.TermStore }
type ownerPermitSource struct{ store ports.TermStore }

// Sources builds the canonical source list over one term store.
func Sources(store ports.TermStore) []TermSource {
	return []TermSource{
		ownerMoveOutSource{store},
		tenantLeaseSource{store},
		companyLeaseSource{store},
		ownerPermitSource{store},
	}
}

func (s ownerMoveOutSource) Kind() domain.SourceKind { return domain.SourceOwnerMoveOut }
func (s tenantLeaseSource) Kind() domain.SourceKind  { return domain.SourceTenantLease }
func (s companyLeaseSource) Kind() domain.SourceKind { return domain.SourceCompanyLease }
func (s ownerPermitSource) Kind() domain.SourceKind  { return domain.SourceOwnerPermit }

func (s ownerMoveOutSource) DueTerms(ctx context.Context, asOf time.Time) ([]models.TermCandidate, error) {
	recs, err := s.store.DueOwnerMoveOuts(ctx, asOf)
	if err != nil {
		return nil, err
	}
	out := make([]models.TermCandidate, 0, len(recs))
	for _, r := range recs {
		out = append(out, models.TermCandidate{UnitID: r.UnitID, UserID: r.UserID, Kind: s.Kind()})
	}
	return out, nil
}

func (s tenantLeaseSource) DueTerms(ctx context.Context, asOf time.Time) ([]models.TermCandidate, error) {
	recs, err := s.store.DueTenantLeases(ctx, asOf)
	if err != nil {
		return nil, err
	}
	out := make([]models.TermCandidate, 0, len(recs))
	for _, r := range recs {
		out = append(out, models.TermCandidate{UnitID: r.UnitID, UserID: r.UserID, Kind: s.Kind()})
	}
	return out, nil
}

func (s companyLeaseSource) DueTerms(ctx context.Context, asOf time.Time) ([]models.TermCandidate, error) {
	recs, err := s.store.DueCompanyLeases(ctx, asOf)
	if err != nil {
		return nil, err
	}
	out := make([]models.TermCandidate, 0, len(recs))
	for _, r := range recs {
		out = append(out, models.TermCandidate{UnitID: r.UnitID, UserID: r.UserID, Kind: s.Kind()})
	}
	return out, nil
}

func (s ownerPermitSource) DueTerms(ctx context.Context, asOf time.Time) ([]models.TermCandidate, error) {
	recs, err := s.store.DueOwnerPermits(ctx, asOf)
	if err != nil {
		return nil, err
	}
	out := make([]models.TermCandidate, 0, len(recs))
	for _, r := range recs {
		out = append(out, models.TermCandidate{UnitID: r.UnitID, UserID: r.UserID, Kind: s.Kind()})
	}
	return out, nil
}
