package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/lotplan/internal/domain"
	"github.com/alexanderramin/lotplan/internal/repository"
	"github.com/alexanderramin/lotplan/internal/scheduler"
	"github.com/google/uuid"
)

type linkService struct {
	links         repository.LinkRepo
	interventions repository.InterventionRepo
	opts          options
}

func NewLinkService(links repository.LinkRepo, interventions repository.InterventionRepo, opts ...Option) LinkService {
	return &linkService{links: links, interventions: interventions, opts: buildOptions(opts)}
}

// Create inserts a link. Creating a link that already exists is not an
// error: the stored record is returned with Resolved set.
func (s *linkService) Create(ctx context.Context, sourceID, targetID string, lt domain.LinkType) (result *LinkResult, err error) {
	fields := map[string]any{"source_id": sourceID, "target_id": targetID, "type": string(lt)}
	done := track(ctx, s.opts.observer, "link-tasks", fields)
	defer func() { done(err) }()

	if err := scheduler.ValidateLink(sourceID, targetID, lt); err != nil {
		return nil, err
	}
	for _, id := range []string{sourceID, targetID} {
		if _, err := s.interventions.GetByID(ctx, id); err != nil {
			return nil, fmt.Errorf("loading intervention: %w", err)
		}
	}

	l := &domain.Link{
		ID:        uuid.New().String(),
		SourceID:  sourceID,
		TargetID:  targetID,
		Type:      lt,
		CreatedAt: time.Now().UTC(),
	}
	err = s.links.Create(ctx, l)
	switch {
	case err == nil:
		fields["link_id"] = l.ID
		s.emit(scheduler.LinkChange{Kind: scheduler.LinkAdded, ID: l.ID, Link: l})
		return &LinkResult{Link: l}, nil
	case errors.Is(err, repository.ErrLinkExists):
		existing, findErr := s.links.FindExact(ctx, sourceID, targetID, lt)
		if findErr != nil {
			return nil, fmt.Errorf("looking up existing link: %w", findErr)
		}
		fields["link_id"] = existing.ID
		fields["resolved"] = true
		s.emit(scheduler.LinkChange{Kind: scheduler.LinkConflictResolved, ID: existing.ID, Link: existing})
		return &LinkResult{Link: existing, Resolved: true}, nil
	default:
		return nil, fmt.Errorf("creating link: %w", err)
	}
}

func (s *linkService) Delete(ctx context.Context, id string) (err error) {
	done := track(ctx, s.opts.observer, "unlink-tasks", map[string]any{"link_id": id})
	defer func() { done(err) }()

	l, err := s.links.GetByID(ctx, id)
	if err != nil {
		return err
	}
	ok, err := s.opts.confirmer.Confirm(ctx, fmt.Sprintf("Delete %s link %s → %s?", l.Type.Abbrev(), shortID(l.SourceID), shortID(l.TargetID)))
	if err != nil {
		return fmt.Errorf("confirming deletion: %w", err)
	}
	if !ok {
		return ErrNotConfirmed
	}
	if err := s.links.Delete(ctx, id); err != nil {
		return err
	}
	s.emit(scheduler.LinkChange{Kind: scheduler.LinkDeleted, ID: id})
	return nil
}

func (s *linkService) List(ctx context.Context) ([]*domain.Link, error) {
	return s.links.List(ctx)
}

func (s *linkService) Outgoing(ctx context.Context, interventionID string) ([]*domain.Link, error) {
	return s.links.ListOutgoing(ctx, interventionID)
}

func (s *linkService) Incoming(ctx context.Context, interventionID string) ([]*domain.Link, error) {
	all, err := s.links.List(ctx)
	if err != nil {
		return nil, err
	}
	return scheduler.NewLinkGraph(all).Incoming(interventionID), nil
}

func (s *linkService) emit(c scheduler.LinkChange) {
	s.opts.recorder.LinkChanged(c.Kind)
	s.opts.notifier.LinkChanged(c)
}

func shortID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}
