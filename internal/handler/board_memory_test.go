package handler

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/noah-isme/housing-board-api/internal/models"
	"github.com/noah-isme/housing-board-api/internal/repository"
	"github.com/noah-isme/housing-board-api/pkg/hardware"
)

type viewKey struct {
	announcementID int64
	studentID      int64
}

// memoryBoard is an in-memory store with the same uniqueness and reference rules as the schema.
type memoryBoard struct {
	mu            sync.Mutex
	students      map[int64]string
	announcements []models.Announcement
	views         []viewKey
	reports       []models.Report
	failWrites    error
}

func newMemoryBoard() *memoryBoard {
	return &memoryBoard{students: map[int64]string{1: "Gio", 2: "Sasha", 3: "Luuk"}}
}

func (b *memoryBoard) seedAnnouncement(id int64, title string, at time.Time, author int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.announcements = append(b.announcements, models.Announcement{ID: id, Title: title, Datetime: at, AuthorID: author, CreatedAt: time.Now()})
}

func (b *memoryBoard) Create(ctx context.Context, a *models.Announcement) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failWrites != nil {
		return b.failWrites
	}
	if _, ok := b.students[a.AuthorID]; !ok {
		return repository.ErrReferenceNotFound
	}
	var next int64 = 1
	for _, existing := range b.announcements {
		if existing.ID >= next {
			next = existing.ID + 1
		}
	}
	a.ID = next
	a.CreatedAt = time.Now()
	b.announcements = append(b.announcements, *a)
	return nil
}

func (b *memoryBoard) List(ctx context.Context, filter models.AnnouncementFilter) ([]models.AnnouncementWithOrganizer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := time.Now()
	items := make([]models.AnnouncementWithOrganizer, 0)
	for _, a := range b.announcements {
		if filter == models.AnnouncementFilterFutureOnly && a.Datetime.Before(now) {
			continue
		}
		items = append(items, models.AnnouncementWithOrganizer{Announcement: a, Organizer: b.students[a.AuthorID]})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Datetime.Before(items[j].Datetime) })
	return items, nil
}

func (b *memoryBoard) GetByID(ctx context.Context, id int64) (*models.AnnouncementWithOrganizer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, a := range b.announcements {
		if a.ID == id {
			return &models.AnnouncementWithOrganizer{Announcement: a, Organizer: b.students[a.AuthorID]}, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (b *memoryBoard) Record(ctx context.Context, announcementID, studentID int64) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.students[studentID]; !ok {
		return false, repository.ErrReferenceNotFound
	}
	key := viewKey{announcementID, studentID}
	for _, v := range b.views {
		if v == key {
			return false, nil
		}
	}
	b.views = append(b.views, key)
	return true, nil
}

func (b *memoryBoard) ListReaders(ctx context.Context, announcementID int64) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	names := make([]string, 0)
	for _, v := range b.views {
		if v.announcementID == announcementID {
			names = append(names, b.students[v.studentID])
		}
	}
	return names, nil
}

func (b *memoryBoard) viewCount(announcementID, studentID int64) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, v := range b.views {
		if v == (viewKey{announcementID, studentID}) {
			n++
		}
	}
	return n
}

// reportStore adapts memoryBoard to the report repository shape.
type reportStore struct{ board *memoryBoard }

func (r reportStore) Create(ctx context.Context, report *models.Report) error {
	r.board.mu.Lock()
	defer r.board.mu.Unlock()
	if r.board.failWrites != nil {
		return r.board.failWrites
	}
	if _, ok := r.board.students[report.StudentID]; !ok {
		return repository.ErrReferenceNotFound
	}
	report.ID = int64(len(r.board.reports) + 1)
	report.Datetime = time.Now()
	r.board.reports = append(r.board.reports, *report)
	return nil
}

// studentStore adapts memoryBoard to the student repository shape.
type studentStore struct{ board *memoryBoard }

func (s studentStore) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	s.board.mu.Lock()
	defer s.board.mu.Unlock()
	name, ok := s.board.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.Student{ID: id, Name: name}, nil
}

type failingSink struct {
	mu    sync.Mutex
	calls []hardware.Command
	err   error
}

func (s *failingSink) Send(ctx context.Context, cmd hardware.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, cmd)
	return s.err
}

func (s *failingSink) sent() []hardware.Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]hardware.Command(nil), s.calls...)
}

func (b *memoryBoard) setWriteError(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failWrites = err
}

func (b *memoryBoard) reportList() []models.Report {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.Report(nil), b.reports...)
}

func (s *failingSink) setError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}
