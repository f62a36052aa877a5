package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/housing-board-api/internal/models"
)

// ReadState is the per-item state for the viewing student. Read is terminal.
type ReadState int

const (
	Unread ReadState = iota
	Read
)

func (s ReadState) String() string {
	if s == Read {
		return "read"
	}
	return "unread"
}

// Item is one announcement as the viewing student sees it.
type Item struct {
	Announcement models.AnnouncementWithOrganizer
	// Readers is nil until the reader list has been fetched once.
	Readers []string
	State   ReadState
}

// Notification is an advisory push from the server. It is not tied to any item.
type Notification struct {
	Kind       models.EventKind
	ReceivedAt time.Time
}

// BoardAPI is the subset of Client the reconciler needs.
type BoardAPI interface {
	ListAnnouncements(ctx context.Context, futureOnly bool) ([]models.AnnouncementWithOrganizer, error)
	Readers(ctx context.Context, announcementID int64) ([]string, error)
	MarkRead(ctx context.Context, announcementID, studentID int64) error
	Student(ctx context.Context, id int64) (*models.Student, error)
}

// ReconcilerOptions configures a Reconciler.
type ReconcilerOptions struct {
	StudentID int64
	// StudentName is resolved through the API on first refresh when empty.
	StudentName string
	FutureOnly  bool
	// AutoRefresh runs a full refresh after every pushed trigger event.
	AutoRefresh bool
	// OnRefresh is called after every successful Refresh, from the refreshing goroutine.
	OnRefresh func()
	Logger    *zap.Logger
	Now       func() time.Time
}

// Reconciler merges the pulled list and reader data with pushed trigger events. Pushed events
// only prompt refreshes; the REST read model stays authoritative.
type Reconciler struct {
	api  BoardAPI
	opts ReconcilerOptions

	mu            sync.Mutex
	order         []int64
	items         map[int64]*Item
	read          map[int64]struct{}
	notifications []Notification
}

// NewReconciler constructs a reconciler for one viewing student.
func NewReconciler(api BoardAPI, opts ReconcilerOptions) *Reconciler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Reconciler{
		api:   api,
		opts:  opts,
		items: map[int64]*Item{},
		read:  map[int64]struct{}{},
	}
}

// Refresh pulls the list and then the readers of every visible item. A list failure keeps the
// previous list and is returned; reader failures keep the previous readers and are only logged.
func (r *Reconciler) Refresh(ctx context.Context) error {
	if err := r.resolveName(ctx); err != nil {
		r.opts.Logger.Warn("resolve viewing student", zap.Int64("student_id", r.opts.StudentID), zap.Error(err))
	}

	list, err := r.api.ListAnnouncements(ctx, r.opts.FutureOnly)
	if err != nil {
		return fmt.Errorf("refresh announcements: %w", err)
	}

	r.mu.Lock()
	next := make(map[int64]*Item, len(list))
	order := make([]int64, 0, len(list))
	for _, a := range list {
		item := &Item{Announcement: a, State: Unread}
		if prev, ok := r.items[a.ID]; ok {
			item.Readers = prev.Readers
		}
		if _, ok := r.read[a.ID]; ok {
			item.State = Read
		}
		next[a.ID] = item
		order = append(order, a.ID)
	}
	r.items = next
	r.order = order
	r.mu.Unlock()

	for _, id := range order {
		r.refreshReaders(ctx, id)
	}
	if r.opts.OnRefresh != nil {
		r.opts.OnRefresh()
	}
	return nil
}

// MarkRead writes the read receipt and then refreshes the readers of that item only. A failed
// write is returned and leaves the item Unread.
func (r *Reconciler) MarkRead(ctx context.Context, announcementID int64) error {
	if err := r.api.MarkRead(ctx, announcementID, r.opts.StudentID); err != nil {
		return fmt.Errorf("mark announcement %d read: %w", announcementID, err)
	}
	r.setRead(announcementID)
	r.refreshReaders(ctx, announcementID)
	return nil
}

// HandleEvent records a pushed event as a notification. Read state is never touched.
func (r *Reconciler) HandleEvent(ctx context.Context, ev Event) {
	switch ev.Kind {
	case models.EventTriggerLight, models.EventTriggerAlarm:
	default:
		return
	}

	r.mu.Lock()
	r.notifications = append(r.notifications, Notification{Kind: ev.Kind, ReceivedAt: r.opts.Now()})
	r.mu.Unlock()

	if r.opts.AutoRefresh {
		if err := r.Refresh(ctx); err != nil {
			r.opts.Logger.Warn("refresh after push failed", zap.String("event", string(ev.Kind)), zap.Error(err))
		}
	}
}

// Run polls every interval and handles pushed events until ctx ends or events closes. A nil
// events channel only polls. Once events closes, Run keeps polling, or returns when there is
// nothing left to wait for. The caller runs the first Refresh.
func (r *Reconciler) Run(ctx context.Context, events <-chan Event, interval time.Duration) error {
	var tick <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick:
			if err := r.Refresh(ctx); err != nil {
				r.opts.Logger.Warn("poll refresh failed", zap.Error(err))
			}
		case ev, ok := <-events:
			if !ok {
				if tick == nil {
					return nil
				}
				events = nil
				continue
			}
			r.HandleEvent(ctx, ev)
		}
	}
}

// Items returns a copy of the visible items in list order.
func (r *Reconciler) Items() []Item {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Item, 0, len(r.order))
	for _, id := range r.order {
		item := *r.items[id]
		if item.Readers != nil {
			item.Readers = append([]string(nil), item.Readers...)
		}
		out = append(out, item)
	}
	return out
}

// Notifications returns the advisory notifications received so far.
func (r *Reconciler) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.notifications...)
}

// DrainNotifications returns and clears the pending notifications.
func (r *Reconciler) DrainNotifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.notifications
	r.notifications = nil
	return out
}

func (r *Reconciler) resolveName(ctx context.Context) error {
	r.mu.Lock()
	known := r.opts.StudentName != ""
	r.mu.Unlock()
	if known || r.opts.StudentID <= 0 {
		return nil
	}
	student, err := r.api.Student(ctx, r.opts.StudentID)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.opts.StudentName = student.Name
	r.mu.Unlock()
	return nil
}

func (r *Reconciler) refreshReaders(ctx context.Context, id int64) {
	readers, err := r.api.Readers(ctx, id)
	if err != nil {
		r.opts.Logger.Debug("readers refresh failed, keeping previous", zap.Int64("announcement_id", id), zap.Error(err))
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return
	}
	item.Readers = readers
	if r.opts.StudentName == "" {
		return
	}
	for _, name := range readers {
		if name == r.opts.StudentName {
			r.read[id] = struct{}{}
			item.State = Read
			return
		}
	}
}

func (r *Reconciler) setRead(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.read[id] = struct{}{}
	if item, ok := r.items[id]; ok {
		item.State = Read
	}
}
