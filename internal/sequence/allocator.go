// Package sequence mints the human-readable identifiers used across the
// registration system.
//
// Every identifier comes from a named counter that only ever moves through a
// single atomic increment-and-fetch in the store, so concurrent allocations
// can never observe the same value. Formatting happens here, after the
// increment, and never feeds back into the counter.
package sequence

import (
	"context"
	"fmt"

	id "roboreg/pkg/domain"
	dErrors "roboreg/pkg/domain-errors"
)

// Sequence names, one counter document per name. Team counters are
// per-category so each category numbers its teams independently.
const (
	SeqOrganisation = "organisationId"
	SeqContestant   = "contestantId"
	SeqCoach        = "coachId"
	seqTeamPrefix   = "teamId_"
)

// CounterStore performs the atomic increment. The increment-and-fetch must be
// a single indivisible store operation, not a read-modify-write pair.
type CounterStore interface {
	IncrementAndGet(ctx context.Context, name string) (int64, error)
}

// Allocator issues formatted, collision-free identifiers. It is stateless;
// all state lives in the counter store, so any number of instances can
// allocate concurrently.
type Allocator struct {
	counters CounterStore
	metrics  *Metrics
}

// Option configures an Allocator.
type Option func(*Allocator)

// WithMetrics records allocation counts per sequence.
func WithMetrics(m *Metrics) Option {
	return func(a *Allocator) {
		a.metrics = m
	}
}

// NewAllocator constructs an allocator backed by the given counter store.
func NewAllocator(counters CounterStore, opts ...Option) *Allocator {
	a := &Allocator{counters: counters}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NextOrganisationID mints the next organisation identifier, e.g. "MN00042".
func (a *Allocator) NextOrganisationID(ctx context.Context) (id.OrganisationID, error) {
	n, err := a.next(ctx, SeqOrganisation)
	if err != nil {
		return "", err
	}
	return id.OrganisationID(fmt.Sprintf("MN%05d", n)), nil
}

// NextContestantID mints the next contestant identifier, e.g. "CN0007".
func (a *Allocator) NextContestantID(ctx context.Context) (id.ContestantID, error) {
	n, err := a.next(ctx, SeqContestant)
	if err != nil {
		return "", err
	}
	return id.ContestantID(fmt.Sprintf("CN%04d", n)), nil
}

// NextCoachID mints the next coach identifier, e.g. "CH0003".
func (a *Allocator) NextCoachID(ctx context.Context) (id.CoachID, error) {
	n, err := a.next(ctx, SeqCoach)
	if err != nil {
		return "", err
	}
	return id.CoachID(fmt.Sprintf("CH%04d", n)), nil
}

// NextTeamID mints the next team identifier within a category, e.g.
// "TMNR0007" for category code MNR.
func (a *Allocator) NextTeamID(ctx context.Context, categoryCode string) (id.TeamID, error) {
	if categoryCode == "" {
		return "", dErrors.New(dErrors.CodeValidation, "category code is required for team id allocation")
	}
	n, err := a.next(ctx, seqTeamPrefix+categoryCode)
	if err != nil {
		return "", err
	}
	return id.TeamID(fmt.Sprintf("T%s%04d", categoryCode, n)), nil
}

// next performs the atomic increment. Store failure is fatal for the caller's
// operation; allocation is never retried here because the store either
// incremented or it did not, and a retry would burn a number.
func (a *Allocator) next(ctx context.Context, seq string) (int64, error) {
	n, err := a.counters.IncrementAndGet(ctx, seq)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("failed to allocate id from sequence %s", seq))
	}
	if a.metrics != nil {
		a.metrics.ObserveAllocation(seq)
	}
	return n, nil
}
