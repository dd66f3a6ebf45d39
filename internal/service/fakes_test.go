package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/lms-backend/internal/apperr"
	"github.com/iliyamo/lms-backend/internal/events"
	"github.com/iliyamo/lms-backend/internal/mail"
	"github.com/iliyamo/lms-backend/internal/model"
	"github.com/iliyamo/lms-backend/internal/payment"
	"github.com/iliyamo/lms-backend/internal/search"
	"github.com/iliyamo/lms-backend/internal/session"
	"github.com/iliyamo/lms-backend/internal/token"
)

type fakeUsers struct {
	mu   sync.Mutex
	byID map[string]model.User
}

func newFakeUsers(us ...model.User) *fakeUsers {
	f := &fakeUsers{byID: map[string]model.User{}}
	for _, u := range us {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, x := range f.byID {
		if x.Email == u.Email {
			return apperr.ErrAlreadyExists
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	f.byID[u.ID] = *u
	return nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, apperr.ErrNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return model.User{}, apperr.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := f.GetByEmail(ctx, email)
	return err == nil, nil
}

func (f *fakeUsers) Update(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[u.ID]; !ok {
		return apperr.ErrNotFound
	}
	f.byID[u.ID] = *u
	return nil
}

func (f *fakeUsers) List(context.Context) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.User, 0, len(f.byID))
	for _, u := range f.byID {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeUsers) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

// fakeCourses mimics the versioned document store. conflicts makes the
// next n saves lose their version race.
type fakeCourses struct {
	mu        sync.Mutex
	docs      map[string]model.Course
	saves     int
	conflicts int
}

func newFakeCourses(cs ...model.Course) *fakeCourses {
	f := &fakeCourses{docs: map[string]model.Course{}}
	for _, c := range cs {
		if c.Version == 0 {
			c.Version = 1
		}
		f.docs[c.ID] = c
	}
	return f
}

func (f *fakeCourses) Create(_ context.Context, c *model.Course) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.Version = 1
	f.docs[c.ID] = deepCopy(*c)
	return nil
}

func (f *fakeCourses) Get(_ context.Context, id string) (model.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.docs[id]
	if !ok {
		return model.Course{}, apperr.ErrNotFound
	}
	return deepCopy(c), nil
}

func (f *fakeCourses) List(context.Context) ([]model.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Course, 0, len(f.docs))
	for _, c := range f.docs {
		out = append(out, deepCopy(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeCourses) Save(_ context.Context, c *model.Course) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conflicts > 0 {
		f.conflicts--
		return apperr.ErrConflict
	}
	cur, ok := f.docs[c.ID]
	if !ok || cur.Version != c.Version {
		return apperr.ErrConflict
	}
	f.saves++
	c.Version++
	f.docs[c.ID] = deepCopy(*c)
	return nil
}

func (f *fakeCourses) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(f.docs, id)
	return nil
}

func (f *fakeCourses) doc(id string) model.Course {
	f.mu.Lock()
	defer f.mu.Unlock()
	return deepCopy(f.docs[id])
}

// deepCopy detaches nested slices so tests observe only saved state.
func deepCopy(c model.Course) model.Course {
	out := c
	out.CourseData = make([]model.CourseContent, len(c.CourseData))
	for i, cc := range c.CourseData {
		qs := make([]model.Comment, len(cc.Questions))
		for j, q := range cc.Questions {
			q.QuestionReplies = append([]model.Comment(nil), q.QuestionReplies...)
			qs[j] = q
		}
		cc.Questions = qs
		out.CourseData[i] = cc
	}
	out.Reviews = make([]model.Review, len(c.Reviews))
	for i, r := range c.Reviews {
		r.CommentReplies = append([]model.Comment(nil), r.CommentReplies...)
		out.Reviews[i] = r
	}
	return out
}

type fakeNotifications struct {
	mu    sync.Mutex
	items []model.Notification
	err   error
}

func (f *fakeNotifications) Create(_ context.Context, n *model.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Status == "" {
		n.Status = model.NotificationUnread
	}
	f.items = append(f.items, *n)
	return nil
}

func (f *fakeNotifications) Get(_ context.Context, id string) (model.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.items {
		if n.ID == id {
			return n, nil
		}
	}
	return model.Notification{}, apperr.ErrNotFound
}

func (f *fakeNotifications) List(context.Context) ([]model.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Notification(nil), f.items...), nil
}

func (f *fakeNotifications) SetStatus(_ context.Context, id, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].Status = status
			return nil
		}
	}
	return apperr.ErrNotFound
}

type fakeOrders struct {
	items []model.Order
}

func (f *fakeOrders) Create(_ context.Context, o *model.Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	f.items = append(f.items, *o)
	return nil
}

func (f *fakeOrders) List(context.Context) ([]model.Order, error) { return f.items, nil }

type fakeLayouts struct {
	byType map[string]model.Layout
}

func (f *fakeLayouts) Create(_ context.Context, l *model.Layout) error {
	if _, ok := f.byType[l.Type]; ok {
		return apperr.ErrAlreadyExists
	}
	f.byType[l.Type] = *l
	return nil
}

func (f *fakeLayouts) GetByType(_ context.Context, typ string) (model.Layout, error) {
	l, ok := f.byType[typ]
	if !ok {
		return model.Layout{}, apperr.ErrNotFound
	}
	return l, nil
}

func (f *fakeLayouts) Update(_ context.Context, l *model.Layout) error {
	if _, ok := f.byType[l.Type]; !ok {
		return apperr.ErrNotFound
	}
	f.byType[l.Type] = *l
	return nil
}

type fakeMail struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (f *fakeMail) Send(_ context.Context, m mail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m)
	return nil
}

type fakeEvents struct {
	mu  sync.Mutex
	got []events.Event
}

func (f *fakeEvents) Publish(_ context.Context, ev events.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, ev)
	return nil
}

func (f *fakeEvents) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, e := range f.got {
		out = append(out, e.Type)
	}
	return out
}

type fakePayments struct {
	status string
	err    error
}

func (f *fakePayments) PaymentStatus(context.Context, string) (string, error) { return f.status, f.err }

func (f *fakePayments) CreateIntent(_ context.Context, amount int64) (payment.Intent, error) {
	return payment.Intent{ID: "pi_1", ClientSecret: "pi_1_secret"}, nil
}

func (f *fakePayments) PublishableKey() string { return "pk_test" }

type fakePreviewCache struct {
	items   map[string]model.Course
	evicted []string
}

func (f *fakePreviewCache) Get(_ context.Context, id string) (model.Course, bool, error) {
	c, ok := f.items[id]
	return c, ok, nil
}

func (f *fakePreviewCache) Set(_ context.Context, c model.Course) error {
	f.items[c.ID] = c.Preview()
	return nil
}

func (f *fakePreviewCache) Evict(_ context.Context, id string) error {
	f.evicted = append(f.evicted, id)
	delete(f.items, id)
	return nil
}

type fakeIndex struct {
	put     []string
	removed []string
}

func (f *fakeIndex) Put(_ context.Context, c model.Course) error {
	f.put = append(f.put, c.ID)
	return nil
}

func (f *fakeIndex) Remove(_ context.Context, id string) error {
	f.removed = append(f.removed, id)
	return nil
}

func (f *fakeIndex) Search(_ context.Context, q string, from, size int) (search.Result, error) {
	return search.Result{Total: 1, Hits: []search.Document{{ID: "c-1", Name: q}}}, nil
}

type countingPurger struct{ n int }

func (p *countingPurger) Purge(context.Context) error { p.n++; return nil }

var errBoom = errors.New("boom")

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

func newSessions(t *testing.T) (*session.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return session.NewCache(rdb, ""), mr
}

func newTestIssuer(t *testing.T, clk *clock) *token.Issuer {
	t.Helper()
	iss, err := token.NewIssuer(token.Secrets{Access: "access-secret", Refresh: "refresh-secret", Activation: "activation-secret"},
		token.DefaultTTLs(), token.WithClock(clk.Now))
	require.NoError(t, err)
	return iss
}
