package service

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/BrandonDHaskell/doorbot/internal/doorbot/store"
	"github.com/BrandonDHaskell/doorbot/internal/doorbot/types"
)

type Outcome string

const (
	OutcomeGranted  Outcome = "GRANTED"
	OutcomeDenied   Outcome = "DENIED"
	OutcomeNotFound Outcome = "NOT_FOUND"
)

// Decision is the result of a syntactically valid access request. Member is
// nil when the outcome is OutcomeNotFound.
type Decision struct {
	Outcome Outcome
	Member  *types.Member
}

// Status maps the outcome to the status code the door controller expects.
func (d Decision) Status() int {
	switch d.Outcome {
	case OutcomeGranted:
		return http.StatusOK
	case OutcomeDenied:
		return http.StatusForbidden
	default:
		return http.StatusNotFound
	}
}

// Err returns ErrNotFound for OutcomeNotFound and nil otherwise.
func (d Decision) Err() error {
	if d.Outcome == OutcomeNotFound {
		return ErrNotFound
	}
	return nil
}

type AccessService struct {
	members store.MemberStore
	entries store.EntryLogStore
	log     *zap.Logger
}

func NewAccessService(ms store.MemberStore, es store.EntryLogStore, log *zap.Logger) *AccessService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AccessService{members: ms, entries: es, log: log.Named("access")}
}

// Check decides on tag without writing to the entry log.
func (s *AccessService) Check(ctx context.Context, tag string) (Decision, error) {
	var c checks
	c.tag("tag", tag)
	if err := c.err(); err != nil {
		return Decision{}, err
	}

	d, err := s.decide(ctx, tag)
	if err != nil {
		return Decision{}, fmt.Errorf("Check: %w", err)
	}
	s.log.Debug("check", zap.String("rfid", tag), zap.String("outcome", string(d.Outcome)))
	return d, nil
}

// Entry decides on tag at location and appends exactly one entry log row,
// whatever the outcome. A failed log write fails the request.
func (s *AccessService) Entry(ctx context.Context, tag, location string) (Decision, error) {
	var c checks
	c.tag("tag", tag)
	c.name("location", location)
	if err := c.err(); err != nil {
		return Decision{}, err
	}

	d, err := s.decide(ctx, tag)
	if err != nil {
		return Decision{}, fmt.Errorf("Entry: %w", err)
	}

	rec := store.EntryRecord{
		RFID:         tag,
		LocationName: location,
		IsActiveTag:  d.Outcome == OutcomeGranted,
		IsFoundTag:   d.Outcome != OutcomeNotFound,
	}
	if err := s.entries.RecordEntry(ctx, rec); err != nil {
		s.log.Error("entry log write failed",
			zap.String("rfid", tag), zap.String("location", location), zap.Error(err))
		return Decision{}, fmt.Errorf("Entry: %w", err)
	}

	s.log.Info("entry",
		zap.String("rfid", tag),
		zap.String("location", location),
		zap.String("outcome", string(d.Outcome)))
	return d, nil
}

func (s *AccessService) decide(ctx context.Context, tag string) (Decision, error) {
	m, err := s.members.FetchByRFID(ctx, tag)
	if err != nil {
		return Decision{}, err
	}
	switch {
	case m == nil:
		return Decision{Outcome: OutcomeNotFound}, nil
	case !m.Active:
		return Decision{Outcome: OutcomeDenied, Member: m}, nil
	default:
		return Decision{Outcome: OutcomeGranted, Member: m}, nil
	}
}
