// Package services holds the application services orchestrating the domain
// engine, persistence, and the callers' sessions.
package services

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"familytree-backend/application/ports"
	"familytree-backend/domain/tree"
	apperrors "familytree-backend/pkg/errors"
)

// DefaultSaveDelay is the idle delay before a dirty snapshot is persisted.
// Rapid consecutive edits coalesce into one save.
const DefaultSaveDelay = time.Second

// Default founder created when a user loads their tree for the first time.
const (
	defaultFounderFirstName = "You"
	defaultFounderLastName  = ""
)

// TreeService owns the live snapshot of every active user. All mutations run
// through the domain engine under a per-user lock, so concurrent requests for
// one user serialize while different users proceed independently.
//
// Persistence is write-behind: mutations mark the session dirty and schedule
// a debounced save. Save failures are logged, never surfaced to the caller,
// and retried after the next mutation.
type TreeService struct {
	store     ports.TreeStore
	logger    *zap.Logger
	saveDelay time.Duration

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	mu       sync.Mutex
	snapshot *tree.Snapshot
	version  uint64
	dirty    bool
	timer    *time.Timer
}

// NewTreeService creates a TreeService persisting through the given store
func NewTreeService(store ports.TreeStore, logger *zap.Logger, saveDelay time.Duration) *TreeService {
	if saveDelay <= 0 {
		saveDelay = DefaultSaveDelay
	}
	return &TreeService{
		store:     store,
		logger:    logger,
		saveDelay: saveDelay,
		sessions:  make(map[string]*session),
	}
}

// Snapshot returns the user's current snapshot, loading it from the store on
// first access and bootstrapping a founder when the user has no tree yet.
func (s *TreeService) Snapshot(ctx context.Context, userID string) (*tree.Snapshot, error) {
	sess, err := s.session(ctx, userID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.snapshot.Clone(), nil
}

// AddRelative adds a relative to the anchor person and returns the new
// snapshot and the created person's id (empty for a remarriage).
func (s *TreeService) AddRelative(ctx context.Context, userID, anchorID string, rel tree.Relationship, attrs tree.PersonAttributes, existingPersonID string) (*tree.Snapshot, string, error) {
	var createdID string
	snap, err := s.mutate(ctx, userID, func(cur *tree.Snapshot) (*tree.Snapshot, error) {
		next, id, err := tree.AddRelative(cur, anchorID, rel, attrs, existingPersonID)
		createdID = id
		return next, err
	})
	return snap, createdID, err
}

// EditPerson applies a partial field update to a person
func (s *TreeService) EditPerson(ctx context.Context, userID, personID string, patch tree.PersonPatch) (*tree.Snapshot, error) {
	return s.mutate(ctx, userID, func(cur *tree.Snapshot) (*tree.Snapshot, error) {
		return tree.EditPerson(cur, personID, patch)
	})
}

// DeletePerson removes a person and every inbound reference to them
func (s *TreeService) DeletePerson(ctx context.Context, userID, personID string) (*tree.Snapshot, error) {
	return s.mutate(ctx, userID, func(cur *tree.Snapshot) (*tree.Snapshot, error) {
		return tree.DeletePerson(cur, personID)
	})
}

// NavigateTo pushes a person onto the user's navigation stack
func (s *TreeService) NavigateTo(ctx context.Context, userID, personID string) (*tree.Snapshot, error) {
	return s.mutate(ctx, userID, func(cur *tree.Snapshot) (*tree.Snapshot, error) {
		if _, ok := cur.People[personID]; !ok {
			return nil, apperrors.NewNotFoundError("person")
		}
		return cur.NavigateTo(personID), nil
	})
}

// NavigateBack pops the user's navigation stack
func (s *TreeService) NavigateBack(ctx context.Context, userID string) (*tree.Snapshot, error) {
	return s.mutate(ctx, userID, func(cur *tree.Snapshot) (*tree.Snapshot, error) {
		return cur.NavigateBack(), nil
	})
}

// NavigateHome resets the user's navigation stack to the founder
func (s *TreeService) NavigateHome(ctx context.Context, userID string) (*tree.Snapshot, error) {
	return s.mutate(ctx, userID, func(cur *tree.Snapshot) (*tree.Snapshot, error) {
		return cur.NavigateHome(), nil
	})
}

// Import validates an externally supplied snapshot and replaces the user's
// tree with it. The share-by-link flow goes through here too, after the
// payload has been decrypted client-side.
func (s *TreeService) Import(ctx context.Context, userID string, incoming *tree.Snapshot) (*tree.Snapshot, error) {
	if err := tree.Validate(incoming); err != nil {
		return nil, err
	}
	return s.mutate(ctx, userID, func(*tree.Snapshot) (*tree.Snapshot, error) {
		return incoming.Clone(), nil
	})
}

// Merge validates an externally supplied snapshot and merges its people into
// the user's live graph. The live navigation stack is kept.
func (s *TreeService) Merge(ctx context.Context, userID string, incoming *tree.Snapshot) (*tree.Snapshot, error) {
	if err := tree.Validate(incoming); err != nil {
		return nil, err
	}
	return s.mutate(ctx, userID, func(cur *tree.Snapshot) (*tree.Snapshot, error) {
		next := cur.Clone()
		next.People = tree.Merge(cur.People, incoming.People)
		return next, nil
	})
}

// Export renders the user's snapshot as pretty-printed JSON
func (s *TreeService) Export(ctx context.Context, userID string) ([]byte, error) {
	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, apperrors.NewInternalError("failed to encode tree export").WithCause(err)
	}
	return data, nil
}

// Generations returns the id-to-level map rooted at the user's current view
// root.
func (s *TreeService) Generations(ctx context.Context, userID string) (map[string]int, error) {
	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	return tree.IndexGenerations(snap.People, snap.ViewRoot()), nil
}

// FamilyUnit returns the ids to highlight for a clicked edge between two
// people.
func (s *TreeService) FamilyUnit(ctx context.Context, userID, id1, id2 string) ([]string, error) {
	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	return tree.FamilyUnit(snap.People, id1, id2), nil
}

// Statistics computes the derived figures over the user's whole graph
func (s *TreeService) Statistics(ctx context.Context, userID string) (*tree.Statistics, error) {
	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	return tree.ComputeStatistics(snap.People, time.Now()), nil
}

// Birthdays lists the living people with a birthday in the given month
func (s *TreeService) Birthdays(ctx context.Context, userID string, month time.Month) ([]*tree.Person, error) {
	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	return tree.BirthdaysInMonth(snap.People, month), nil
}

// Search returns the people whose name, bio, or contact details contain the
// query, case-insensitively. Results are ordered by full name.
func (s *TreeService) Search(ctx context.Context, userID, query string) ([]*tree.Person, error) {
	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []*tree.Person{}, nil
	}

	var matches []*tree.Person
	for _, p := range snap.People {
		if personMatches(p, q) {
			matches = append(matches, p)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		ni, nj := matches[i].FullName(), matches[j].FullName()
		if ni != nj {
			return ni < nj
		}
		return matches[i].ID < matches[j].ID
	})
	return matches, nil
}

func personMatches(p *tree.Person, q string) bool {
	fields := []string{p.FullName(), p.Bio}
	if p.ContactInfo != nil {
		fields = append(fields, p.ContactInfo.Phone, p.ContactInfo.Email, p.ContactInfo.Address)
	}
	for _, f := range fields {
		if f != "" && strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// Flush synchronously persists every dirty session. Called on shutdown so a
// pending debounced save is not lost.
func (s *TreeService) Flush(ctx context.Context) error {
	s.mu.Lock()
	type pending struct {
		userID string
		sess   *session
	}
	var all []pending
	for userID, sess := range s.sessions {
		all = append(all, pending{userID, sess})
	}
	s.mu.Unlock()

	var lastErr error
	for _, p := range all {
		p.sess.mu.Lock()
		if p.sess.timer != nil {
			p.sess.timer.Stop()
			p.sess.timer = nil
		}
		if !p.sess.dirty {
			p.sess.mu.Unlock()
			continue
		}
		snap := p.sess.snapshot.Clone()
		p.sess.mu.Unlock()

		if err := s.store.Save(ctx, p.userID, snap); err != nil {
			s.logger.Error("failed to flush tree",
				zap.String("user_id", p.userID),
				zap.Error(err))
			lastErr = err
			continue
		}
		p.sess.mu.Lock()
		p.sess.dirty = false
		p.sess.mu.Unlock()
	}
	return lastErr
}

// mutate runs op against the user's current snapshot under the session lock,
// installs the resulting snapshot, and schedules a debounced save.
func (s *TreeService) mutate(ctx context.Context, userID string, op func(*tree.Snapshot) (*tree.Snapshot, error)) (*tree.Snapshot, error) {
	sess, err := s.session(ctx, userID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	next, err := op(sess.snapshot)
	if err != nil {
		return nil, err
	}
	sess.snapshot = next
	sess.version++
	sess.dirty = true
	s.scheduleSave(userID, sess)
	return next.Clone(), nil
}

// session returns the user's session, loading or bootstrapping it on first
// access.
func (s *TreeService) session(ctx context.Context, userID string) (*session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[userID]
	if !ok {
		sess = &session{}
		s.sessions[userID] = sess
	}
	s.mu.Unlock()

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.snapshot != nil {
		return sess, nil
	}

	snap, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		snap = tree.Bootstrap(defaultFounderFirstName, defaultFounderLastName, tree.GenderMale)
		s.logger.Info("bootstrapped new tree", zap.String("user_id", userID))
		sess.dirty = true
		s.scheduleSave(userID, sess)
	}
	sess.snapshot = snap
	return sess, nil
}

// scheduleSave (re)arms the session's debounce timer. Caller holds sess.mu.
func (s *TreeService) scheduleSave(userID string, sess *session) {
	if sess.timer != nil {
		sess.timer.Stop()
	}
	sess.timer = time.AfterFunc(s.saveDelay, func() {
		s.saveSession(userID, sess)
	})
}

// saveSession persists a session if it is still dirty. Runs off the request
// path; errors are logged and the dirty flag kept so the next mutation
// schedules a retry.
func (s *TreeService) saveSession(userID string, sess *session) {
	sess.mu.Lock()
	if !sess.dirty {
		sess.mu.Unlock()
		return
	}
	snap := sess.snapshot.Clone()
	saved := sess.version
	sess.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.store.Save(ctx, userID, snap); err != nil {
		s.logger.Error("failed to persist tree, will retry after next change",
			zap.String("user_id", userID),
			zap.Error(err))
		return
	}

	sess.mu.Lock()
	// a newer mutation may have arrived while saving; keep it dirty then
	if sess.version == saved {
		sess.dirty = false
	}
	sess.mu.Unlock()

	s.logger.Debug("persisted tree",
		zap.String("user_id", userID),
		zap.Int("people", len(snap.People)))
}
