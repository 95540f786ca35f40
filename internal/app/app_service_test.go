package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"fakturabg/internal/ai"
	"fakturabg/internal/app"
	"fakturabg/internal/core"
)

// stubStats serves a fixed set of item names to the merge proposal path.
type stubStats struct {
	names []string
}

func (s *stubStats) ItemStatistics(ctx context.Context, p core.ItemStatsParams) (*core.ItemStatistics, error) {
	return &core.ItemStatistics{
		TopByFrequency: []core.ItemBucket{{OriginalNames: s.names}},
	}, nil
}

func (s *stubStats) Summary(ctx context.Context, companyID string, start, end *time.Time) (*core.Summary, error) {
	return &core.Summary{}, nil
}

func (s *stubStats) ChartData(ctx context.Context, companyID, period string) ([]core.ChartPoint, error) {
	return nil, nil
}

func (s *stubStats) SupplierStatistics(ctx context.Context, companyID string, start, end *time.Time, topN int) ([]core.SupplierStat, error) {
	return nil, nil
}

// stubMerge records upserts and can reject named canonicals.
type stubMerge struct {
	upserted []string
	rejects  map[string]bool
}

func (s *stubMerge) UpsertMapping(ctx context.Context, companyID, canonicalName string, variants []string) (*core.MergeMapping, error) {
	if s.rejects[canonicalName] {
		return nil, core.NewValidationError("canonical %q is a variant elsewhere", canonicalName)
	}
	s.upserted = append(s.upserted, canonicalName)
	return &core.MergeMapping{CompanyID: companyID, DisplayName: canonicalName}, nil
}

func (s *stubMerge) ListMappings(ctx context.Context, companyID string) ([]core.MergeMapping, error) {
	return nil, nil
}

func (s *stubMerge) DeleteMapping(ctx context.Context, companyID, canonicalName string) error {
	return nil
}

func (s *stubMerge) BuildVariantIndex(ctx context.Context, companyID string) (core.VariantIndex, error) {
	return nil, nil
}

type stubOracle struct {
	groups []core.MergeGroup
	err    error
}

func (s *stubOracle) ProposeGroups(ctx context.Context, itemNames []string) ([]core.MergeGroup, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.groups, nil
}

func newTestService(stats *stubStats, merge *stubMerge, oracle *stubOracle) app.ApplicationService {
	var o ai.GroupingOracle
	if oracle != nil {
		o = oracle
	}
	return app.NewAppService(nil, nil, nil, nil, nil, stats, merge, nil, nil, nil, nil, nil, o, nil)
}

func TestProposeMergeGroups_NoOracleConfigured(t *testing.T) {
	svc := newTestService(&stubStats{names: []string{"Олио", "олио"}}, &stubMerge{}, nil)

	result, err := svc.ProposeMergeGroups(context.Background(), app.AIMergeRequest{CompanyID: "c1"})
	if err != nil {
		t.Fatalf("ProposeMergeGroups: %v", err)
	}
	if len(result.Groups) != 0 {
		t.Errorf("groups = %d, want 0", len(result.Groups))
	}
	if result.Message == "" {
		t.Error("expected an explanatory message")
	}
}

func TestProposeMergeGroups_OracleFailureDegrades(t *testing.T) {
	oracle := &stubOracle{err: &core.ExternalServiceError{Op: "propose item groups", Err: errors.New("timeout")}}
	svc := newTestService(&stubStats{names: []string{"Олио", "олио"}}, &stubMerge{}, oracle)

	result, err := svc.ProposeMergeGroups(context.Background(), app.AIMergeRequest{CompanyID: "c1"})
	if err != nil {
		t.Fatalf("oracle failure must not surface as an error, got %v", err)
	}
	if len(result.Groups) != 0 {
		t.Errorf("groups = %d, want 0", len(result.Groups))
	}
	if result.Message == "" {
		t.Error("expected a degradation message")
	}
}

func TestProposeMergeGroups_TooFewNames(t *testing.T) {
	oracle := &stubOracle{groups: []core.MergeGroup{{CanonicalName: "Олио", Variants: []string{"Олио", "олио"}}}}
	svc := newTestService(&stubStats{names: []string{"Олио"}}, &stubMerge{}, oracle)

	result, err := svc.ProposeMergeGroups(context.Background(), app.AIMergeRequest{CompanyID: "c1"})
	if err != nil {
		t.Fatalf("ProposeMergeGroups: %v", err)
	}
	if len(result.Groups) != 0 || result.Message == "" {
		t.Errorf("single name must not reach the oracle, got %+v", result)
	}
}

func TestProposeMergeGroups_ApplyPersistsAndSkipsRejections(t *testing.T) {
	oracle := &stubOracle{groups: []core.MergeGroup{
		{CanonicalName: "Кока Кола", Variants: []string{"Кока Кола", "кока-кола"}},
		{CanonicalName: "Олио", Variants: []string{"Олио", "олио"}},
	}}
	merge := &stubMerge{rejects: map[string]bool{"Олио": true}}
	svc := newTestService(&stubStats{names: []string{"Кока Кола", "кока-кола", "Олио", "олио"}}, merge, oracle)

	result, err := svc.ProposeMergeGroups(context.Background(), app.AIMergeRequest{CompanyID: "c1", Apply: true})
	if err != nil {
		t.Fatalf("ProposeMergeGroups: %v", err)
	}
	if result.Applied != 1 {
		t.Errorf("Applied = %d, want 1", result.Applied)
	}
	if len(merge.upserted) != 1 || merge.upserted[0] != "Кока Кола" {
		t.Errorf("upserted = %v, want only the accepted group", merge.upserted)
	}
	if len(result.Groups) != 2 {
		t.Errorf("proposal should still show both groups, got %d", len(result.Groups))
	}
}

func TestScanInvoice_NoScannerConfigured(t *testing.T) {
	svc := newTestService(&stubStats{}, &stubMerge{}, nil)

	_, err := svc.ScanInvoice(context.Background(), "aGVsbG8=")
	if !core.IsExternal(err) {
		t.Fatalf("err = %v, want external service error", err)
	}
}
