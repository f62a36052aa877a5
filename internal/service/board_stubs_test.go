package service

import (
	"context"
	"sync"
	"time"

	"github.com/noah-isme/housing-board-api/internal/models"
	"github.com/noah-isme/housing-board-api/internal/repository"
	appErrors "github.com/noah-isme/housing-board-api/pkg/errors"
	"github.com/noah-isme/housing-board-api/pkg/hardware"
)

// journal records the order in which stores and triggers fire.
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(entry string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, entry)
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

type announcementRepoStub struct {
	journal   *journal
	created   []*models.Announcement
	createErr error
	items     []models.AnnouncementWithOrganizer
	listErr   error
	filters   []models.AnnouncementFilter
	item      *models.AnnouncementWithOrganizer
	getErr    error
}

func (s *announcementRepoStub) Create(ctx context.Context, announcement *models.Announcement) error {
	if s.createErr != nil {
		return s.createErr
	}
	announcement.ID = int64(len(s.created) + 1)
	announcement.CreatedAt = time.Now().UTC()
	s.created = append(s.created, announcement)
	if s.journal != nil {
		s.journal.add("store:announcement")
	}
	return nil
}

func (s *announcementRepoStub) List(ctx context.Context, filter models.AnnouncementFilter) ([]models.AnnouncementWithOrganizer, error) {
	s.filters = append(s.filters, filter)
	return s.items, s.listErr
}

func (s *announcementRepoStub) GetByID(ctx context.Context, id int64) (*models.AnnouncementWithOrganizer, error) {
	return s.item, s.getErr
}

type triggerRecorder struct {
	journal *journal
	mu      sync.Mutex
	lights  int
	alarms  int
}

func (r *triggerRecorder) TriggerLight(ctx context.Context) {
	r.mu.Lock()
	r.lights++
	r.mu.Unlock()
	if r.journal != nil {
		r.journal.add("trigger:light")
	}
}

func (r *triggerRecorder) TriggerAlarm(ctx context.Context) {
	r.mu.Lock()
	r.alarms++
	r.mu.Unlock()
	if r.journal != nil {
		r.journal.add("trigger:alarm")
	}
}

type viewKey struct {
	announcementID int64
	studentID      int64
}

// viewStoreStub mimics the unique_view constraint: the check and insert are one atomic step.
type viewStoreStub struct {
	mu        sync.Mutex
	names     map[int64]string
	receipts  []viewKey
	seen      map[viewKey]struct{}
	recordErr error
	listErr   error
	calls     int
}

func newViewStoreStub() *viewStoreStub {
	return &viewStoreStub{
		names: map[int64]string{1: "Gio", 2: "Sasha", 3: "Luuk"},
		seen:  map[viewKey]struct{}{},
	}
}

func (s *viewStoreStub) Record(ctx context.Context, announcementID, studentID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.recordErr != nil {
		return false, s.recordErr
	}
	if _, ok := s.names[studentID]; !ok {
		return false, repository.ErrReferenceNotFound
	}
	key := viewKey{announcementID, studentID}
	if _, dup := s.seen[key]; dup {
		return false, nil
	}
	s.seen[key] = struct{}{}
	s.receipts = append(s.receipts, key)
	return true, nil
}

func (s *viewStoreStub) ListReaders(ctx context.Context, announcementID int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	names := make([]string, 0)
	for _, r := range s.receipts {
		if r.announcementID == announcementID {
			names = append(names, s.names[r.studentID])
		}
	}
	return names, nil
}

type memoryCacheRepo struct {
	mu       sync.Mutex
	entries  map[string][]string
	counters map[string]int64
	deletes  []string
	hits     int
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: map[string][]string{}, counters: map[string]int64{}}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	m.hits++
	// A stored [] decodes to a non-nil empty slice in Redis too.
	*(dest.(*[]string)) = append(make([]string, 0, len(v)), v...)
	return nil
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := value.([]string)
	m.entries[key] = append(make([]string, 0, len(v)), v...)
	return nil
}

func (m *memoryCacheRepo) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.entries, k)
	}
	m.deletes = append(m.deletes, keys...)
	return nil
}

func (m *memoryCacheRepo) Counter(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[key], nil
}

func (m *memoryCacheRepo) Incr(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[key]++
	return m.counters[key], nil
}

func (m *memoryCacheRepo) entry(key string) ([]string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[key]
	return v, ok
}

func (m *memoryCacheRepo) hitCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits
}

// gatedViewStore pauses the first ListReaders call after it has read the store, until release
// is closed.
type gatedViewStore struct {
	*viewStoreStub
	once    sync.Once
	listed  chan struct{}
	release chan struct{}
}

func newGatedViewStore(inner *viewStoreStub) *gatedViewStore {
	return &gatedViewStore{viewStoreStub: inner, listed: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedViewStore) ListReaders(ctx context.Context, announcementID int64) ([]string, error) {
	names, err := g.viewStoreStub.ListReaders(ctx, announcementID)
	g.once.Do(func() {
		close(g.listed)
		<-g.release
	})
	return names, err
}

type sinkStub struct {
	journal  *journal
	mu       sync.Mutex
	commands []hardware.Command
	err      error
}

func (s *sinkStub) Send(ctx context.Context, cmd hardware.Command) error {
	s.mu.Lock()
	s.commands = append(s.commands, cmd)
	s.mu.Unlock()
	if s.journal != nil {
		s.journal.add("sink:" + string(cmd))
	}
	return s.err
}

type hubStub struct {
	journal *journal
	mu      sync.Mutex
	events  []models.BroadcastEvent
	err     error
}

func (h *hubStub) Broadcast(event models.BroadcastEvent) (int, error) {
	h.mu.Lock()
	h.events = append(h.events, event)
	h.mu.Unlock()
	if h.journal != nil {
		h.journal.add("broadcast:" + string(event.Kind))
	}
	return 1, h.err
}
