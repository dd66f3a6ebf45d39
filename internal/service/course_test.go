package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/lms-backend/internal/apperr"
	"github.com/iliyamo/lms-backend/internal/events"
	"github.com/iliyamo/lms-backend/internal/mail"
	"github.com/iliyamo/lms-backend/internal/model"
)

type courseFixture struct {
	svc     *CourseService
	courses *fakeCourses
	notes   *fakeNotifications
	mail    *fakeMail
	events  *fakeEvents
	cache   *fakePreviewCache
	index   *fakeIndex
	purger  *countingPurger
}

func sampleCourse() model.Course {
	return model.Course{
		ID:   "c-1",
		Name: "Go in Practice",
		CourseData: []model.CourseContent{
			{ID: "s-1", Title: "Intro", VideoURL: "https://video/1", Suggestion: "watch twice",
				Links: []model.Link{{Title: "docs", URL: "https://go.dev"}}},
			{ID: "s-2", Title: "Channels"},
		},
		Reviews: []model.Review{},
	}
}

func newCourseFixture(cs ...model.Course) *courseFixture {
	f := &courseFixture{
		courses: newFakeCourses(cs...),
		notes:   &fakeNotifications{},
		mail:    &fakeMail{},
		events:  &fakeEvents{},
		cache:   &fakePreviewCache{items: map[string]model.Course{}},
		index:   &fakeIndex{},
		purger:  &countingPurger{},
	}
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	f.svc = &CourseService{
		Courses: f.courses, Notifications: f.notes, Mail: f.mail, Events: f.events,
		Cache: f.cache, Responses: f.purger, Index: f.index,
		Now: func() time.Time { return now },
	}
	return f
}

var (
	student = model.User{ID: "u-1", Name: "Ann", Email: "ann@example.com", Role: model.RoleUser,
		Courses: []model.CourseRef{{CourseID: "c-1"}}}
	admin = model.User{ID: "a-1", Name: "Root", Email: "root@example.com", Role: model.RoleAdmin}
)

func TestCreateCourse_AssignsIDsAndIndexes(t *testing.T) {
	f := newCourseFixture()
	c, err := f.svc.Create(context.Background(), model.Course{
		ID: "client-supplied", Name: "New", Ratings: 4, Purchased: 9,
		CourseData: []model.CourseContent{{Title: "one"}},
	})
	require.NoError(t, err)
	assert.NotEqual(t, "client-supplied", c.ID)
	assert.NotEmpty(t, c.CourseData[0].ID)
	assert.Zero(t, c.Ratings)
	assert.Zero(t, c.Purchased)
	assert.Equal(t, []string{c.ID}, f.index.put)
	assert.Equal(t, 1, f.purger.n)

	_, err = f.svc.Create(context.Background(), model.Course{Name: "  "})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestEditCourse_MergesAndProtectsFields(t *testing.T) {
	base := sampleCourse()
	base.Ratings, base.Purchased = 4.5, 3
	f := newCourseFixture(base)
	f.cache.items["c-1"] = base.Preview()

	patch := json.RawMessage(`{"name":"Go, Revised","price":49,"_id":"evil","ratings":1,"purchased":100}`)
	c, err := f.svc.Edit(context.Background(), "c-1", patch)
	require.NoError(t, err)

	assert.Equal(t, "c-1", c.ID)
	assert.Equal(t, "Go, Revised", c.Name)
	assert.Equal(t, 49.0, c.Price)
	assert.Equal(t, 4.5, c.Ratings)
	assert.Equal(t, 3, c.Purchased)
	assert.Len(t, c.CourseData, 2)
	assert.Equal(t, "Go, Revised", f.courses.doc("c-1").Name)
	assert.Equal(t, []string{"c-1"}, f.cache.evicted)

	_, err = f.svc.Edit(context.Background(), "missing", json.RawMessage(`{"name":"x"}`))
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.svc.Edit(context.Background(), "c-1", json.RawMessage(`[1,2]`))
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestGetCourse_PreviewAndCache(t *testing.T) {
	f := newCourseFixture(sampleCourse())
	ctx := context.Background()

	c, err := f.svc.Get(ctx, "c-1")
	require.NoError(t, err)
	assert.Empty(t, c.CourseData[0].VideoURL)
	assert.Empty(t, c.CourseData[0].Suggestion)
	assert.Empty(t, c.CourseData[0].Links)
	require.Contains(t, f.cache.items, "c-1")

	f.courses.docs = map[string]model.Course{}
	c, err = f.svc.Get(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, "Go in Practice", c.Name)

	_, err = f.svc.Get(ctx, "nope")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListCourses_PreviewVersusFull(t *testing.T) {
	f := newCourseFixture(sampleCourse())
	ctx := context.Background()

	pub, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, pub, 1)
	assert.Empty(t, pub[0].CourseData[0].VideoURL)

	full, err := f.svc.ListFull(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://video/1", full[0].CourseData[0].VideoURL)
}

func TestDeleteCourse(t *testing.T) {
	f := newCourseFixture(sampleCourse())
	ctx := context.Background()

	require.NoError(t, f.svc.Delete(ctx, "c-1"))
	assert.Equal(t, []string{"c-1"}, f.index.removed)
	assert.Equal(t, []string{"c-1"}, f.cache.evicted)
	assert.ErrorIs(t, f.svc.Delete(ctx, "c-1"), apperr.ErrNotFound)
}

func TestGetContent_OnlyForBuyers(t *testing.T) {
	f := newCourseFixture(sampleCourse())
	ctx := context.Background()

	content, err := f.svc.GetContent(ctx, student, "c-1")
	require.NoError(t, err)
	assert.Equal(t, "https://video/1", content[0].VideoURL)

	_, err = f.svc.GetContent(ctx, admin, "c-1")
	assert.ErrorIs(t, err, apperr.ErrNotEligible)
}

func TestSearchCourses(t *testing.T) {
	f := newCourseFixture()
	res, err := f.svc.Search(context.Background(), "golang", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Total)

	_, err = f.svc.Search(context.Background(), " ", 1, 10)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	f.svc.Index = nil
	_, err = f.svc.Search(context.Background(), "golang", 1, 10)
	assert.ErrorIs(t, err, ErrSearchDisabled)
}

func TestAddQuestion_AppendsAndNotifies(t *testing.T) {
	f := newCourseFixture(sampleCourse())

	c, err := f.svc.AddQuestion(context.Background(), student, QuestionInput{
		Question: "Why goroutines?", CourseID: "c-1", ContentID: "s-2",
	})
	require.NoError(t, err)
	s, _ := c.Content("s-2")
	require.Len(t, s.Questions, 1)
	assert.Equal(t, "u-1", s.Questions[0].User.ID)

	stored := f.courses.doc("c-1")
	assert.Len(t, stored.CourseData[1].Questions, 1)
	require.Len(t, f.notes.items, 1)
	assert.Equal(t, "New Question Received", f.notes.items[0].Title)
	assert.Contains(t, f.notes.items[0].Message, "Channels")
}

func TestAddQuestion_UnknownContentWritesNothing(t *testing.T) {
	f := newCourseFixture(sampleCourse())

	_, err := f.svc.AddQuestion(context.Background(), student, QuestionInput{
		Question: "hello", CourseID: "c-1", ContentID: "missing",
	})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Zero(t, f.courses.saves)
	assert.Empty(t, f.notes.items)

	_, err = f.svc.AddQuestion(context.Background(), student, QuestionInput{
		Question: "hello", CourseID: "nope", ContentID: "s-1",
	})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAddQuestion_NotificationFailureKeepsQuestion(t *testing.T) {
	f := newCourseFixture(sampleCourse())
	f.notes.err = errBoom

	_, err := f.svc.AddQuestion(context.Background(), student, QuestionInput{
		Question: "hello", CourseID: "c-1", ContentID: "s-1",
	})
	assert.ErrorIs(t, err, apperr.ErrDeliveryFailed)
	assert.Len(t, f.courses.doc("c-1").CourseData[0].Questions, 1)
}

func TestAddQuestion_RetriesVersionConflicts(t *testing.T) {
	f := newCourseFixture(sampleCourse())
	f.courses.conflicts = 2

	_, err := f.svc.AddQuestion(context.Background(), student, QuestionInput{
		Question: "hello", CourseID: "c-1", ContentID: "s-1",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, f.courses.saves)
	assert.Len(t, f.courses.doc("c-1").CourseData[0].Questions, 1)

	f.courses.conflicts = DefaultSaveAttempts
	_, err = f.svc.AddQuestion(context.Background(), student, QuestionInput{
		Question: "again", CourseID: "c-1", ContentID: "s-1",
	})
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Len(t, f.courses.doc("c-1").CourseData[0].Questions, 1)
}

func askedCourse(asker model.User) model.Course {
	c := sampleCourse()
	c.CourseData[0].Questions = []model.Comment{{ID: "q-1", User: asker.Summary(), Question: "?"}}
	return c
}

func TestAddAnswer_MailsTheAsker(t *testing.T) {
	f := newCourseFixture(askedCourse(student))

	c, err := f.svc.AddAnswer(context.Background(), admin, AnswerInput{
		Answer: "Because.", CourseID: "c-1", ContentID: "s-1", QuestionID: "q-1",
	})
	require.NoError(t, err)
	s, _ := c.Content("s-1")
	require.Len(t, s.Questions[0].QuestionReplies, 1)
	assert.Equal(t, "a-1", s.Questions[0].QuestionReplies[0].User.ID)

	require.Len(t, f.mail.sent, 1)
	assert.Equal(t, "ann@example.com", f.mail.sent[0].To)
	assert.Equal(t, mail.TemplateQuestionReply, f.mail.sent[0].Template)
	assert.Empty(t, f.notes.items)
}

func TestAddAnswer_SelfReplyNotifies(t *testing.T) {
	f := newCourseFixture(askedCourse(student))

	_, err := f.svc.AddAnswer(context.Background(), student, AnswerInput{
		Answer: "Never mind", CourseID: "c-1", ContentID: "s-1", QuestionID: "q-1",
	})
	require.NoError(t, err)
	assert.Empty(t, f.mail.sent)
	require.Len(t, f.notes.items, 1)
	assert.Equal(t, "New Question Reply Received", f.notes.items[0].Title)
}

func TestAddAnswer_Failures(t *testing.T) {
	f := newCourseFixture(askedCourse(student))
	ctx := context.Background()

	_, err := f.svc.AddAnswer(ctx, admin, AnswerInput{Answer: "x", CourseID: "c-1", ContentID: "s-1", QuestionID: "q-9"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Zero(t, f.courses.saves)

	f.mail.err = errBoom
	_, err = f.svc.AddAnswer(ctx, admin, AnswerInput{Answer: "x", CourseID: "c-1", ContentID: "s-1", QuestionID: "q-1"})
	assert.ErrorIs(t, err, apperr.ErrDeliveryFailed)
	assert.Len(t, f.courses.doc("c-1").CourseData[0].Questions[0].QuestionReplies, 1)
}

func TestAddReview_RecomputesRatings(t *testing.T) {
	c := sampleCourse()
	c.Reviews = []model.Review{{ID: "r-0", Rating: 3}}
	f := newCourseFixture(c)

	got, err := f.svc.AddReview(context.Background(), student, "c-1", ReviewInput{Review: "great", Rating: 5})
	require.NoError(t, err)
	assert.Len(t, got.Reviews, 2)
	assert.Equal(t, 4.0, got.Ratings)
	assert.Equal(t, 4.0, f.courses.doc("c-1").Ratings)
	assert.Equal(t, []string{events.CourseReviewed}, f.events.types())
	require.Len(t, f.notes.items, 1)
	assert.Equal(t, "New Review Received", f.notes.items[0].Title)
	assert.Equal(t, []string{"c-1"}, f.cache.evicted)
}

// stalledEvents blocks every publish until its context ends.
type stalledEvents struct{ ctxErr error }

func (s *stalledEvents) Publish(ctx context.Context, _ events.Event) error {
	<-ctx.Done()
	s.ctxErr = ctx.Err()
	return ctx.Err()
}

// deadlineNotifications fails like a real store once the caller's context is done.
type deadlineNotifications struct{ *fakeNotifications }

func (d deadlineNotifications) Create(ctx context.Context, n *model.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.fakeNotifications.Create(ctx, n)
}

func TestAddReview_StalledBrokerDoesNotFailRequest(t *testing.T) {
	prev := publishTimeout
	publishTimeout = 50 * time.Millisecond
	t.Cleanup(func() { publishTimeout = prev })

	f := newCourseFixture(sampleCourse())
	stalled := &stalledEvents{}
	f.svc.Events = stalled
	f.svc.Notifications = deadlineNotifications{f.notes}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	got, err := f.svc.AddReview(ctx, student, "c-1", ReviewInput{Review: "great", Rating: 5})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 200*time.Millisecond)
	assert.Len(t, got.Reviews, 1)
	require.Len(t, f.notes.items, 1)
	assert.Equal(t, "New Review Received", f.notes.items[0].Title)
	assert.ErrorIs(t, stalled.ctxErr, context.DeadlineExceeded)
	assert.NoError(t, ctx.Err())
}

func TestAddReview_Rejections(t *testing.T) {
	f := newCourseFixture(sampleCourse())
	ctx := context.Background()

	_, err := f.svc.AddReview(ctx, admin, "c-1", ReviewInput{Rating: 5})
	assert.ErrorIs(t, err, apperr.ErrNotEligible)

	_, err = f.svc.AddReview(ctx, student, "c-1", ReviewInput{Rating: 6})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Zero(t, f.courses.saves)
}

func TestAddReply(t *testing.T) {
	c := sampleCourse()
	c.Reviews = []model.Review{{ID: "r-1", Rating: 4, User: student.Summary()}}
	f := newCourseFixture(c)
	ctx := context.Background()

	got, err := f.svc.AddReply(ctx, admin, ReplyInput{Comment: "thanks", CourseID: "c-1", ReviewID: "r-1"})
	require.NoError(t, err)
	require.Len(t, got.Reviews[0].CommentReplies, 1)
	assert.Equal(t, "thanks", got.Reviews[0].CommentReplies[0].Question)

	_, err = f.svc.AddReply(ctx, admin, ReplyInput{Comment: "x", CourseID: "c-1", ReviewID: "r-9"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = f.svc.AddReply(ctx, admin, ReplyInput{CourseID: "c-1", ReviewID: "r-1"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
