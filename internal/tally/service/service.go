// Package service implements the status and category write paths and the
// scope-aware summary reads.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"canvass/internal/roster/models"
	"canvass/internal/tally"
	id "canvass/pkg/domain"
	dErrors "canvass/pkg/domain-errors"
	"canvass/pkg/platform/sentinel"
	"canvass/pkg/requestcontext"
)

// EntryStore persists the append-only status log.
type EntryStore interface {
	Append(ctx context.Context, e tally.StatusEntry) (tally.StatusEntry, error)
	ListAll(ctx context.Context) ([]tally.StatusEntry, error)
	ListByMembers(ctx context.Context, memberIDs []id.MemberID) ([]tally.StatusEntry, error)
}

// AssignmentStore persists the append-only category assignment log.
type AssignmentStore interface {
	Append(ctx context.Context, a tally.CategoryAssignment) (tally.CategoryAssignment, error)
	ListAll(ctx context.Context) ([]tally.CategoryAssignment, error)
	ListByMembers(ctx context.Context, memberIDs []id.MemberID) ([]tally.CategoryAssignment, error)
}

// CategoryStore persists the admin-defined category table.
type CategoryStore interface {
	Create(ctx context.Context, c *tally.Category) error
	FindByID(ctx context.Context, categoryID id.CategoryID) (*tally.Category, error)
	List(ctx context.Context) ([]*tally.Category, error)
}

// Roster resolves callers, scopes and referenced members.
type Roster interface {
	Caller(ctx context.Context, callerID id.ActorID) (*models.Actor, error)
	AdmissibleAuthors(ctx context.Context, callerID id.ActorID) (id.Scope, error)
	Leaders(ctx context.Context, supervisorID id.ActorID) ([]*models.Actor, error)
	MembersByID(ctx context.Context, ids []id.MemberID) (map[id.MemberID]*models.Member, error)
}

// Detector is notified after every status append so conflicts surface as
// soon as they are written, not only on the periodic pass.
type Detector interface {
	Detect(ctx context.Context, memberID id.MemberID) error
}

// Service is the tally application service.
type Service struct {
	entries     EntryStore
	assignments AssignmentStore
	categories  CategoryStore
	roster      Roster
	detector    Detector
	logger      *slog.Logger
}

// New constructs the tally service. The detector may be nil until wired.
func New(entries EntryStore, assignments AssignmentStore, categories CategoryStore, roster Roster, logger *slog.Logger) *Service {
	return &Service{
		entries:     entries,
		assignments: assignments,
		categories:  categories,
		roster:      roster,
		logger:      logger,
	}
}

// SetDetector wires the conflict detector. Separate from New because the
// conflict service itself reads this service's stores.
func (s *Service) SetDetector(d Detector) { s.detector = d }

// RecordStatusInput carries one status write.
type RecordStatusInput struct {
	MemberID id.MemberID
	Status   id.Status
	Note     string
}

// RecordStatus appends a status entry authored by the caller and triggers
// conflict detection for the member. Detection failures do not fail the
// write; the entry is already durable.
func (s *Service) RecordStatus(ctx context.Context, callerID id.ActorID, input RecordStatusInput) (tally.StatusEntry, error) {
	if _, err := s.roster.Caller(ctx, callerID); err != nil {
		return tally.StatusEntry{}, err
	}
	if err := s.memberExists(ctx, input.MemberID); err != nil {
		return tally.StatusEntry{}, err
	}

	entry, err := tally.NewStatusEntry(input.MemberID, input.Status, input.Note, callerID, requestcontext.Now(ctx))
	if err != nil {
		return tally.StatusEntry{}, err
	}
	entry, err = s.entries.Append(ctx, entry)
	if err != nil {
		return tally.StatusEntry{}, dErrors.Wrap(dErrors.CodeInternal, "append status entry", err)
	}

	if s.detector != nil {
		if err := s.detector.Detect(ctx, input.MemberID); err != nil {
			s.logger.ErrorContext(ctx, "conflict detection after status write failed",
				"member_id", input.MemberID.String(), "error", err)
		}
	}
	return entry, nil
}

// AssignCategoryInput carries one category assignment write.
type AssignCategoryInput struct {
	MemberID   id.MemberID
	CategoryID id.CategoryID
}

// AssignCategory appends a category assignment authored by the caller.
func (s *Service) AssignCategory(ctx context.Context, callerID id.ActorID, input AssignCategoryInput) (tally.CategoryAssignment, error) {
	if _, err := s.roster.Caller(ctx, callerID); err != nil {
		return tally.CategoryAssignment{}, err
	}
	if err := s.memberExists(ctx, input.MemberID); err != nil {
		return tally.CategoryAssignment{}, err
	}
	if _, err := s.categories.FindByID(ctx, input.CategoryID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return tally.CategoryAssignment{}, dErrors.New(dErrors.CodeNotFound, "category not found")
		}
		return tally.CategoryAssignment{}, dErrors.Wrap(dErrors.CodeInternal, "load category", err)
	}

	assignment, err := tally.NewCategoryAssignment(input.MemberID, input.CategoryID, callerID, requestcontext.Now(ctx))
	if err != nil {
		return tally.CategoryAssignment{}, err
	}
	assignment, err = s.assignments.Append(ctx, assignment)
	if err != nil {
		return tally.CategoryAssignment{}, dErrors.Wrap(dErrors.CodeInternal, "append category assignment", err)
	}
	return assignment, nil
}

// CreateCategoryInput carries one category definition.
type CreateCategoryInput struct {
	Name        string
	Description string
}

// CreateCategory defines a new category label. Admin only; the category
// domain is open but centrally curated.
func (s *Service) CreateCategory(ctx context.Context, callerID id.ActorID, input CreateCategoryInput) (*tally.Category, error) {
	caller, err := s.roster.Caller(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if caller.Role != id.RoleAdmin {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the admin may define categories")
	}
	category, err := tally.NewCategory(input.Name, input.Description)
	if err != nil {
		return nil, err
	}
	if err := s.categories.Create(ctx, category); err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			return nil, dErrors.New(dErrors.CodeConflict, "category name already exists")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "create category", err)
	}
	return category, nil
}

// ListCategories returns all defined categories.
func (s *Service) ListCategories(ctx context.Context) ([]*tally.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "list categories", err)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}

// LeaderSummary rolls up the caller's own entries: the single-actor scope.
func (s *Service) LeaderSummary(ctx context.Context, callerID id.ActorID) (tally.Summary, error) {
	if _, err := s.roster.Caller(ctx, callerID); err != nil {
		return tally.Summary{}, err
	}
	snap, err := s.loadSnapshot(ctx)
	if err != nil {
		return tally.Summary{}, err
	}
	return tally.Summarize(snap, id.NewScope(callerID)), nil
}

// LeaderBreakdown is one team leader's row on the supervisor dashboard.
type LeaderBreakdown struct {
	LeaderID id.ActorID    `json:"leader_id"`
	Name     string        `json:"name"`
	Summary  tally.Summary `json:"summary"`
}

// Dashboard is the supervisor's multi-scope rollup. Every summary in it is
// computed from the same snapshot. GrandTotal uses the union scope, so it is
// deliberately not the sum of the other summaries: a member counted as one
// status in a leader's own scope may resolve to a different, newer status
// once the supervisor's entries join the scope.
type Dashboard struct {
	Self         tally.Summary     `json:"self"`
	Leaders      []LeaderBreakdown `json:"leaders"`
	LeadersTotal tally.Summary     `json:"leaders_total"`
	GrandTotal   tally.Summary     `json:"grand_total"`
}

// SupervisorDashboard builds the four-scope rollup for a supervisor.
func (s *Service) SupervisorDashboard(ctx context.Context, callerID id.ActorID) (*Dashboard, error) {
	caller, err := s.roster.Caller(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if caller.Role != id.RoleSupervisor {
		return nil, dErrors.New(dErrors.CodeForbidden, "dashboard is for supervisors")
	}
	leaders, err := s.roster.Leaders(ctx, callerID)
	if err != nil {
		return nil, err
	}
	snap, err := s.loadSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	leaderScope := id.NewScope()
	dashboard := &Dashboard{
		Self:    tally.Summarize(snap, id.NewScope(callerID)),
		Leaders: make([]LeaderBreakdown, 0, len(leaders)),
	}
	sort.Slice(leaders, func(i, j int) bool { return leaders[i].Name < leaders[j].Name })
	for _, leader := range leaders {
		leaderScope.Add(leader.ID)
		dashboard.Leaders = append(dashboard.Leaders, LeaderBreakdown{
			LeaderID: leader.ID,
			Name:     leader.Name,
			Summary:  tally.Summarize(snap, id.NewScope(leader.ID)),
		})
	}
	dashboard.LeadersTotal = tally.Summarize(snap, leaderScope)
	dashboard.GrandTotal = tally.Summarize(snap, leaderScope.Union(id.NewScope(callerID)))
	return dashboard, nil
}

// MemberStatus is one member's scope-filtered view in a batch read.
type MemberStatus struct {
	MemberID    id.MemberID         `json:"member_id"`
	DisplayName string              `json:"display_name"`
	History     []tally.StatusEntry `json:"history"`
	Current     *tally.StatusEntry  `json:"current,omitempty"`
	Category    string              `json:"category"`
}

// BatchStatusCategory returns, for each known requested member, the status
// history written by in-scope authors, the latest-wins current entry and the
// resolved category name. Unknown member IDs are absent from the result.
func (s *Service) BatchStatusCategory(ctx context.Context, callerID id.ActorID, memberIDs []id.MemberID) ([]MemberStatus, error) {
	scope, err := s.roster.AdmissibleAuthors(ctx, callerID)
	if err != nil {
		return nil, err
	}
	membersByID, err := s.roster.MembersByID(ctx, memberIDs)
	if err != nil {
		return nil, err
	}
	snap, err := s.loadSnapshotFor(ctx, memberIDs)
	if err != nil {
		return nil, err
	}

	currentStatus := tally.ResolveLatest(snap.Entries, scope)
	currentCategory := tally.ResolveLatest(snap.Assignments, scope)

	historyByMember := make(map[id.MemberID][]tally.StatusEntry)
	for _, entry := range snap.Entries {
		if !scope.Contains(entry.AuthorID) {
			continue
		}
		historyByMember[entry.MemberID] = append(historyByMember[entry.MemberID], entry)
	}

	out := make([]MemberStatus, 0, len(membersByID))
	for _, memberID := range memberIDs {
		member, ok := membersByID[memberID]
		if !ok {
			continue
		}
		ms := MemberStatus{
			MemberID:    memberID,
			DisplayName: member.DisplayName,
			History:     historyByMember[memberID],
			Category:    id.UncategorizedLabel,
		}
		if entry, ok := currentStatus[memberID]; ok {
			e := entry
			ms.Current = &e
		}
		if assignment, ok := currentCategory[memberID]; ok {
			if name, ok := snap.CategoryNames[assignment.CategoryID]; ok {
				ms.Category = name
			}
		}
		out = append(out, ms)
	}
	return out, nil
}

func (s *Service) memberExists(ctx context.Context, memberID id.MemberID) error {
	members, err := s.roster.MembersByID(ctx, []id.MemberID{memberID})
	if err != nil {
		return err
	}
	if _, ok := members[memberID]; !ok {
		return dErrors.New(dErrors.CodeNotFound, "member not found")
	}
	return nil
}

// loadSnapshot fetches both logs and the category table concurrently, once.
// Everything derived downstream reads this single snapshot.
func (s *Service) loadSnapshot(ctx context.Context) (*tally.Snapshot, error) {
	return s.load(ctx,
		func(ctx context.Context) ([]tally.StatusEntry, error) { return s.entries.ListAll(ctx) },
		func(ctx context.Context) ([]tally.CategoryAssignment, error) { return s.assignments.ListAll(ctx) },
	)
}

func (s *Service) loadSnapshotFor(ctx context.Context, memberIDs []id.MemberID) (*tally.Snapshot, error) {
	return s.load(ctx,
		func(ctx context.Context) ([]tally.StatusEntry, error) {
			return s.entries.ListByMembers(ctx, memberIDs)
		},
		func(ctx context.Context) ([]tally.CategoryAssignment, error) {
			return s.assignments.ListByMembers(ctx, memberIDs)
		},
	)
}

func (s *Service) load(
	ctx context.Context,
	listEntries func(context.Context) ([]tally.StatusEntry, error),
	listAssignments func(context.Context) ([]tally.CategoryAssignment, error),
) (*tally.Snapshot, error) {
	snap := &tally.Snapshot{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		entries, err := listEntries(gctx)
		if err != nil {
			return err
		}
		snap.Entries = entries
		return nil
	})
	g.Go(func() error {
		assignments, err := listAssignments(gctx)
		if err != nil {
			return err
		}
		snap.Assignments = assignments
		return nil
	})
	g.Go(func() error {
		categories, err := s.categories.List(gctx)
		if err != nil {
			return err
		}
		names := make(map[id.CategoryID]string, len(categories))
		for _, c := range categories {
			names[c.ID] = c.Name
		}
		snap.CategoryNames = names
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "load snapshot", err)
	}
	return snap, nil
}
