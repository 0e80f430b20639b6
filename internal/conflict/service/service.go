// Package service implements conflict detection, resolution and
// notification fan-out.
//
// Detection always runs over the full author set, not the caller's scope: a
// conflict exists when any two authors' current entries disagree, whoever
// is looking. Resolution is the one sanctioned breach of log immutability
// and is therefore admin-only and transactional where the store supports it.
package service

import (
	"context"
	"errors"
	"sort"
	"time"

	conflictMetrics "canvass/internal/conflict/metrics"
	"canvass/internal/conflict/models"
	rosterModels "canvass/internal/roster/models"
	"canvass/internal/tally"
	id "canvass/pkg/domain"
	dErrors "canvass/pkg/domain-errors"
	"canvass/pkg/platform/sentinel"
	"canvass/pkg/requestcontext"
)

// ConflictStore persists status conflicts.
type ConflictStore interface {
	Create(ctx context.Context, c *models.StatusConflict) error
	FindByID(ctx context.Context, conflictID id.ConflictID) (*models.StatusConflict, error)
	FindOpenByMember(ctx context.Context, memberID id.MemberID) (*models.StatusConflict, error)
	UpdateStatusIDs(ctx context.Context, conflictID id.ConflictID, statusIDs []id.EntryID) error
	List(ctx context.Context, resolved *bool) ([]*models.StatusConflict, error)
	MarkResolved(ctx context.Context, conflictID id.ConflictID, resolvedBy id.ActorID, resolvedAt time.Time, notes string) error
}

// NotificationStore persists per-watcher notifications.
type NotificationStore interface {
	Create(ctx context.Context, n *models.ConflictNotification) error
	ListByActor(ctx context.Context, actorID id.ActorID) ([]*models.ConflictNotification, error)
	MarkRead(ctx context.Context, actorID id.ActorID, notificationID id.NotificationID) error
	MarkAllRead(ctx context.Context, actorID id.ActorID) error
}

// EntryStore is the slice of the status log detection and resolution need.
type EntryStore interface {
	ListAll(ctx context.Context) ([]tally.StatusEntry, error)
	ListByMembers(ctx context.Context, memberIDs []id.MemberID) ([]tally.StatusEntry, error)
	FindByIDs(ctx context.Context, entryIDs []id.EntryID) ([]tally.StatusEntry, error)
	PurgeForResolution(ctx context.Context, entryIDs []id.EntryID) error
}

// Roster resolves callers, admins and enrichment lookups.
type Roster interface {
	Caller(ctx context.Context, callerID id.ActorID) (*rosterModels.Actor, error)
	Admins(ctx context.Context) ([]*rosterModels.Actor, error)
	ActorsByID(ctx context.Context, ids []id.ActorID) (map[id.ActorID]*rosterModels.Actor, error)
	MembersByID(ctx context.Context, ids []id.MemberID) (map[id.MemberID]*rosterModels.Member, error)
}

// TxRunner runs a function transactionally. Nil means the backing stores
// have no shared transaction support and the steps run in order.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service is the conflict application service.
type Service struct {
	conflicts     ConflictStore
	notifications NotificationStore
	entries       EntryStore
	roster        Roster
	txRunner      TxRunner
	metrics       *conflictMetrics.Metrics
}

// New constructs the conflict service. txRunner may be nil for stores
// without transactions.
func New(
	conflicts ConflictStore,
	notifications NotificationStore,
	entries EntryStore,
	roster Roster,
	txRunner TxRunner,
	m *conflictMetrics.Metrics) *Service {
	return &Service{
		conflicts:     conflicts,
		notifications: notifications,
		entries:       entries,
		roster:        roster,
		txRunner:      txRunner,
		metrics:       m,
	}
}

// Detect checks one member's log for disagreeing author-current entries and
// ensures at most one open conflict reflects them. Idempotent: re-running
// over an unchanged log changes nothing.
func (s *Service) Detect(ctx context.Context, memberID id.MemberID) error {
	entries, err := s.entries.ListByMembers(ctx, []id.MemberID{memberID})
	if err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "load member entries", err)
	}
	return s.detectFromEntries(ctx, memberID, entries)
}

// Reconcile runs detection over every member present in the log. The
// periodic worker calls this to catch anything a write-triggered pass
// missed.
func (s *Service) Reconcile(ctx context.Context) error {
	start := time.Now()
	defer func() { s.metrics.ReconcileDuration.Observe(time.Since(start).Seconds()) }()

	entries, err := s.entries.ListAll(ctx)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "load entries", err)
	}
	byMember := make(map[id.MemberID][]tally.StatusEntry)
	for _, e := range entries {
		byMember[e.MemberID] = append(byMember[e.MemberID], e)
	}
	for memberID, memberEntries := range byMember {
		if err := s.detectFromEntries(ctx, memberID, memberEntries); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) detectFromEntries(ctx context.Context, memberID id.MemberID, entries []tally.StatusEntry) error {
	statusIDs := disagreeingCurrentEntries(entries)
	if statusIDs == nil {
		return nil
	}

	open, err := s.conflicts.FindOpenByMember(ctx, memberID)
	switch {
	case err == nil:
		if sameEntrySet(open.StatusIDs, statusIDs) {
			return nil
		}
		if err := s.conflicts.UpdateStatusIDs(ctx, open.ID, statusIDs); err != nil {
			return dErrors.Wrap(dErrors.CodeInternal, "update conflict entries", err)
		}
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return s.openConflict(ctx, memberID, statusIDs)
	default:
		return dErrors.Wrap(dErrors.CodeInternal, "find open conflict", err)
	}
}

// disagreeingCurrentEntries resolves each author's current entry over the
// member's log and, when at least two of them disagree on status, returns
// the entry IDs in log order. Nil means no conflict.
func disagreeingCurrentEntries(entries []tally.StatusEntry) []id.EntryID {
	authors := id.NewScope()
	for _, e := range entries {
		authors.Add(e.AuthorID)
	}
	perMember := tally.ResolvePerAuthor(entries, authors)
	if len(perMember) == 0 {
		return nil
	}

	var current []tally.StatusEntry
	for _, perAuthor := range perMember {
		for _, e := range perAuthor {
			current = append(current, e)
		}
	}
	statuses := make(map[id.Status]struct{})
	for _, e := range current {
		statuses[e.Status] = struct{}{}
	}
	if len(statuses) < 2 {
		return nil
	}

	sort.Slice(current, func(i, j int) bool { return current[i].Seq < current[j].Seq })
	statusIDs := make([]id.EntryID, 0, len(current))
	for _, e := range current {
		statusIDs = append(statusIDs, e.ID)
	}
	return statusIDs
}

func (s *Service) openConflict(ctx context.Context, memberID id.MemberID, statusIDs []id.EntryID) error {
	conflict, err := models.NewStatusConflict(memberID, statusIDs, time.Now().UTC())
	if err != nil {
		return err
	}
	if err := s.conflicts.Create(ctx, conflict); err != nil {
		// A concurrent detection won the race to open the conflict; the
		// loser's view lands on the next pass.
		if errors.Is(err, sentinel.ErrInvalidState) {
			return nil
		}
		return dErrors.Wrap(dErrors.CodeInternal, "create conflict", err)
	}
	s.metrics.Detected.Inc()

	admins, err := s.roster.Admins(ctx)
	if err != nil {
		return err
	}
	for _, admin := range admins {
		n, err := models.NewConflictNotification(conflict.ID, admin.ID, conflict.CreatedAt)
		if err != nil {
			return err
		}
		if err := s.notifications.Create(ctx, n); err != nil {
			return dErrors.Wrap(dErrors.CodeInternal, "create notification", err)
		}
		s.metrics.NotificationsSent.Inc()
	}
	return nil
}

func sameEntrySet(a, b []id.EntryID) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[id.EntryID]struct{}, len(a))
	for _, entryID := range a {
		set[entryID] = struct{}{}
	}
	for _, entryID := range b {
		if _, ok := set[entryID]; !ok {
			return false
		}
	}
	return true
}

// EntryDetail is one conflicting entry enriched with its author and, for
// team leader authors, the supervising actor.
type EntryDetail struct {
	Entry          tally.StatusEntry `json:"entry"`
	AuthorName     string            `json:"author_name"`
	AuthorRole     id.Role           `json:"author_role"`
	SupervisorName string            `json:"supervisor_name,omitempty"`
}

// ConflictDetail is one conflict enriched for the admin review screen.
type ConflictDetail struct {
	Conflict     *models.StatusConflict `json:"conflict"`
	MemberName   string                 `json:"member_name"`
	MemberNumber string                 `json:"member_number"`
	Entries      []EntryDetail          `json:"entries"`
}

// List returns conflicts for admin review, enriched with members, entries,
// authors and supervisors. All lookups are batched across the whole
// response, not per conflict.
func (s *Service) List(ctx context.Context, callerID id.ActorID, resolved *bool) ([]ConflictDetail, error) {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	conflicts, err := s.conflicts.List(ctx, resolved)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "list conflicts", err)
	}
	if len(conflicts) == 0 {
		return []ConflictDetail{}, nil
	}

	var entryIDs []id.EntryID
	memberIDs := make([]id.MemberID, 0, len(conflicts))
	for _, c := range conflicts {
		entryIDs = append(entryIDs, c.StatusIDs...)
		memberIDs = append(memberIDs, c.MemberID)
	}
	entries, err := s.entries.FindByIDs(ctx, entryIDs)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "load conflict entries", err)
	}
	membersByID, err := s.roster.MembersByID(ctx, memberIDs)
	if err != nil {
		return nil, err
	}

	authorIDs := make([]id.ActorID, 0, len(entries))
	for _, e := range entries {
		authorIDs = append(authorIDs, e.AuthorID)
	}
	authorsByID, err := s.roster.ActorsByID(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	var supervisorIDs []id.ActorID
	for _, author := range authorsByID {
		if author.SupervisorID != nil {
			supervisorIDs = append(supervisorIDs, *author.SupervisorID)
		}
	}
	supervisorsByID, err := s.roster.ActorsByID(ctx, supervisorIDs)
	if err != nil {
		return nil, err
	}

	entriesByID := make(map[id.EntryID]tally.StatusEntry, len(entries))
	for _, e := range entries {
		entriesByID[e.ID] = e
	}

	out := make([]ConflictDetail, 0, len(conflicts))
	for _, c := range conflicts {
		detail := ConflictDetail{Conflict: c}
		if member, ok := membersByID[c.MemberID]; ok {
			detail.MemberName = member.DisplayName
			detail.MemberNumber = member.MemberNumber
		}
		for _, entryID := range c.StatusIDs {
			e, ok := entriesByID[entryID]
			if !ok {
				// Entry purged by a resolve that raced this read.
				continue
			}
			ed := EntryDetail{Entry: e}
			if author, ok := authorsByID[e.AuthorID]; ok {
				ed.AuthorName = author.Name
				ed.AuthorRole = author.Role
				if author.SupervisorID != nil {
					if supervisor, ok := supervisorsByID[*author.SupervisorID]; ok {
						ed.SupervisorName = supervisor.Name
					}
				}
			}
			detail.Entries = append(detail.Entries, ed)
		}
		out = append(out, detail)
	}
	return out, nil
}

// ResolveInput carries one resolution decision.
type ResolveInput struct {
	ConflictID id.ConflictID
	KeepIDs    []id.EntryID
	Notes      string
}

// Resolve settles a conflict: every referenced entry not in KeepIDs is
// permanently deleted, then the conflict is marked resolved. Deletions come
// first so a failure leaves the conflict open and retryable; with a
// transactional store both land in one commit. An already resolved conflict
// is a conflict error, never a second deletion.
func (s *Service) Resolve(ctx context.Context, callerID id.ActorID, input ResolveInput) (*models.StatusConflict, error) {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	conflict, err := s.conflicts.FindByID(ctx, input.ConflictID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "conflict not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "load conflict", err)
	}
	if conflict.Resolved {
		return nil, dErrors.New(dErrors.CodeConflict, "conflict already resolved")
	}

	referenced := make(map[id.EntryID]struct{}, len(conflict.StatusIDs))
	for _, entryID := range conflict.StatusIDs {
		referenced[entryID] = struct{}{}
	}
	keep := make(map[id.EntryID]struct{}, len(input.KeepIDs))
	for _, entryID := range input.KeepIDs {
		if _, ok := referenced[entryID]; !ok {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "kept entry is not part of the conflict")
		}
		keep[entryID] = struct{}{}
	}
	// An empty keep set closes the conflict without touching the log; the
	// admin is accepting the disagreement as recorded.
	var deleteIDs []id.EntryID
	if len(keep) > 0 {
		for _, entryID := range conflict.StatusIDs {
			if _, ok := keep[entryID]; !ok {
				deleteIDs = append(deleteIDs, entryID)
			}
		}
	}

	resolvedAt := requestcontext.Now(ctx)
	settle := func(ctx context.Context) error {
		if err := s.entries.PurgeForResolution(ctx, deleteIDs); err != nil {
			return dErrors.Wrap(dErrors.CodeInternal, "delete conflicting entries", err)
		}
		return s.conflicts.MarkResolved(ctx, input.ConflictID, callerID, resolvedAt, input.Notes)
	}
	if s.txRunner != nil {
		err = s.txRunner.RunInTx(ctx, settle)
	} else {
		err = settle(ctx)
	}
	if err != nil {
		if errors.Is(err, sentinel.ErrAlreadyResolved) {
			return nil, dErrors.New(dErrors.CodeConflict, "conflict already resolved")
		}
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "conflict not found")
		}
		if dErrors.CodeOf(err) != dErrors.CodeInternal {
			return nil, err
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "resolve conflict", err)
	}
	s.metrics.Resolved.Inc()

	resolved, err := s.conflicts.FindByID(ctx, input.ConflictID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "reload conflict", err)
	}
	return resolved, nil
}

// Notifications returns the caller's own notifications, newest first.
func (s *Service) Notifications(ctx context.Context, callerID id.ActorID) ([]*models.ConflictNotification, error) {
	notifications, err := s.notifications.ListByActor(ctx, callerID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "list notifications", err)
	}
	return notifications, nil
}

// MarkRead marks one of the caller's own notifications read.
func (s *Service) MarkRead(ctx context.Context, callerID id.ActorID, notificationID id.NotificationID) error {
	if err := s.notifications.MarkRead(ctx, callerID, notificationID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "notification not found")
		}
		return dErrors.Wrap(dErrors.CodeInternal, "mark notification read", err)
	}
	return nil
}

// MarkAllRead marks all of the caller's notifications read.
func (s *Service) MarkAllRead(ctx context.Context, callerID id.ActorID) error {
	if err := s.notifications.MarkAllRead(ctx, callerID); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "mark notifications read", err)
	}
	return nil
}

func (s *Service) requireAdmin(ctx context.Context, callerID id.ActorID) error {
	caller, err := s.roster.Caller(ctx, callerID)
	if err != nil {
		return err
	}
	if caller.Role != id.RoleAdmin {
		return dErrors.New(dErrors.CodeForbidden, "conflict review is admin only")
	}
	return nil
}
