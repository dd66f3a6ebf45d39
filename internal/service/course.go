package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/lms-backend/internal/apperr"
	"github.com/iliyamo/lms-backend/internal/events"
	"github.com/iliyamo/lms-backend/internal/logging"
	"github.com/iliyamo/lms-backend/internal/mail"
	"github.com/iliyamo/lms-backend/internal/model"
	"github.com/iliyamo/lms-backend/internal/search"
)

// ErrSearchDisabled is returned by Search when no index is configured.
var ErrSearchDisabled = errors.New("course search is not configured")

// DefaultSaveAttempts is how often a document mutation is retried after
// losing a version race.
const DefaultSaveAttempts = 3

// CourseService manages the catalog and the Q&A and review threads
// nested inside each course document.
//
// Thread mutations follow one pattern: load the document, resolve every
// referenced sub-document (failing with ErrNotFound before anything is
// written), append, save the whole document against the version that was
// read, and only then run side effects. A side effect that fails is
// reported as ErrDeliveryFailed; the saved change stays.
type CourseService struct {
	Courses       CourseStore
	Notifications NotificationStore
	Mail          mail.Sender
	Events        events.Publisher
	Cache         PreviewCache // optional
	Responses     Purger       // optional
	Index         CourseIndex  // optional
	SaveAttempts  int
	Now           func() time.Time
}

func (s *CourseService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Create adds a course. Content sections get ids when they have none.
func (s *CourseService) Create(ctx context.Context, c model.Course) (model.Course, error) {
	if strings.TrimSpace(c.Name) == "" {
		return model.Course{}, fmt.Errorf("%w: course name is required", apperr.ErrValidation)
	}
	c.ID = ""
	c.Reviews, c.Ratings, c.Purchased = nil, 0, 0
	assignContentIDs(&c)
	if err := s.Courses.Create(ctx, &c); err != nil {
		return model.Course{}, err
	}
	s.catalogChanged(ctx, c, false)
	return c, nil
}

// Edit merges the top-level fields present in patch onto the stored
// course. Identity, timestamps and the review-derived fields cannot be
// overwritten.
func (s *CourseService) Edit(ctx context.Context, id string, patch json.RawMessage) (model.Course, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(patch, &fields); err != nil {
		return model.Course{}, fmt.Errorf("%w: course body must be a JSON object", apperr.ErrValidation)
	}
	for _, k := range []string{"_id", "createdAt", "updatedAt", "reviews", "ratings", "purchased"} {
		delete(fields, k)
	}

	c, err := s.mutate(ctx, id, func(c *model.Course) error {
		merged, err := mergeJSON(*c, fields)
		if err != nil {
			return err
		}
		merged.ID, merged.CreatedAt, merged.Version = c.ID, c.CreatedAt, c.Version
		merged.Reviews, merged.Ratings, merged.Purchased = c.Reviews, c.Ratings, c.Purchased
		assignContentIDs(&merged)
		*c = merged
		return nil
	})
	if err != nil {
		return model.Course{}, err
	}
	s.catalogChanged(ctx, c, true)
	return c, nil
}

// Get returns the public preview of a course, served from the preview
// cache when possible.
func (s *CourseService) Get(ctx context.Context, id string) (model.Course, error) {
	if s.Cache != nil {
		c, ok, err := s.Cache.Get(ctx, id)
		if err != nil {
			logging.FromContext(ctx).Warn("course cache read failed", "course_id", id, "error", err)
		} else if ok {
			return c, nil
		}
	}
	c, err := s.Courses.Get(ctx, id)
	if err != nil {
		return model.Course{}, err
	}
	if s.Cache != nil {
		if err := s.Cache.Set(ctx, c); err != nil {
			logging.FromContext(ctx).Warn("course cache write failed", "course_id", id, "error", err)
		}
	}
	return c.Preview(), nil
}

// List returns previews of every course, newest first.
func (s *CourseService) List(ctx context.Context) ([]model.Course, error) {
	cs, err := s.Courses.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Course, len(cs))
	for i, c := range cs {
		out[i] = c.Preview()
	}
	return out, nil
}

// ListFull returns complete documents for administrators.
func (s *CourseService) ListFull(ctx context.Context) ([]model.Course, error) {
	return s.Courses.List(ctx)
}

// Delete removes a course from the store, the caches and the index.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	if err := s.Courses.Delete(ctx, id); err != nil {
		return err
	}
	log := logging.FromContext(ctx)
	if s.Cache != nil {
		if err := s.Cache.Evict(ctx, id); err != nil {
			log.Warn("course cache evict failed", "course_id", id, "error", err)
		}
	}
	if s.Index != nil {
		if err := s.Index.Remove(ctx, id); err != nil {
			log.Warn("course unindex failed", "course_id", id, "error", err)
		}
	}
	s.purge(ctx)
	return nil
}

// GetContent returns the full lesson list to a user who bought the course.
func (s *CourseService) GetContent(ctx context.Context, user model.User, courseID string) ([]model.CourseContent, error) {
	if !user.HasCourse(courseID) {
		return nil, apperr.ErrNotEligible
	}
	c, err := s.Courses.Get(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return c.CourseData, nil
}

// Search runs a full-text query over the catalog.
func (s *CourseService) Search(ctx context.Context, query string, page, size int) (search.Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return search.Result{}, fmt.Errorf("%w: query is required", apperr.ErrValidation)
	}
	if s.Index == nil {
		return search.Result{}, ErrSearchDisabled
	}
	from, size := search.Page(page, size)
	return s.Index.Search(ctx, query, from, size)
}

// QuestionInput asks a question on a content section.
type QuestionInput struct {
	Question  string `json:"question"`
	CourseID  string `json:"courseId"`
	ContentID string `json:"contentId"`
}

// AddQuestion appends a question to a section and notifies the admins.
func (s *CourseService) AddQuestion(ctx context.Context, user model.User, in QuestionInput) (model.Course, error) {
	if strings.TrimSpace(in.Question) == "" {
		return model.Course{}, fmt.Errorf("%w: question is required", apperr.ErrValidation)
	}
	var section string
	c, err := s.mutate(ctx, in.CourseID, func(c *model.Course) error {
		content, ok := c.Content(in.ContentID)
		if !ok {
			return fmt.Errorf("content %s: %w", in.ContentID, apperr.ErrNotFound)
		}
		now := s.now()
		content.Questions = append(content.Questions, model.Comment{
			ID:              uuid.NewString(),
			User:            user.Summary(),
			Question:        in.Question,
			QuestionReplies: []model.Comment{},
			CreatedAt:       now,
			UpdatedAt:       now,
		})
		section = content.Title
		return nil
	})
	if err != nil {
		return model.Course{}, err
	}
	err = s.notify(ctx, user.ID, "New Question Received", "You have a new question in "+section)
	return c, err
}

// AnswerInput replies to a question.
type AnswerInput struct {
	Answer     string `json:"answer"`
	CourseID   string `json:"courseId"`
	ContentID  string `json:"contentId"`
	QuestionID string `json:"questionId"`
}

// AddAnswer appends a reply to a question. When the asker replies to
// their own question the admins get a notification; otherwise the asker
// is mailed.
func (s *CourseService) AddAnswer(ctx context.Context, user model.User, in AnswerInput) (model.Course, error) {
	if strings.TrimSpace(in.Answer) == "" {
		return model.Course{}, fmt.Errorf("%w: answer is required", apperr.ErrValidation)
	}
	var (
		section string
		asker   model.UserSummary
	)
	c, err := s.mutate(ctx, in.CourseID, func(c *model.Course) error {
		content, ok := c.Content(in.ContentID)
		if !ok {
			return fmt.Errorf("content %s: %w", in.ContentID, apperr.ErrNotFound)
		}
		q, ok := content.Question(in.QuestionID)
		if !ok {
			return fmt.Errorf("question %s: %w", in.QuestionID, apperr.ErrNotFound)
		}
		now := s.now()
		q.QuestionReplies = append(q.QuestionReplies, model.Comment{
			ID:        uuid.NewString(),
			User:      user.Summary(),
			Question:  in.Answer,
			CreatedAt: now,
			UpdatedAt: now,
		})
		q.UpdatedAt = now
		section, asker = content.Title, q.User
		return nil
	})
	if err != nil {
		return model.Course{}, err
	}

	if asker.ID == user.ID {
		err = s.notify(ctx, user.ID, "New Question Reply Received", "You have a new question reply in "+section)
		return c, err
	}
	err = s.Mail.Send(ctx, mail.Message{
		To:       asker.Email,
		Subject:  "Question Reply",
		Template: mail.TemplateQuestionReply,
		Data:     map[string]any{"name": asker.Name, "title": section},
	})
	if err != nil {
		return c, fmt.Errorf("%w: question reply mail: %v", apperr.ErrDeliveryFailed, err)
	}
	return c, nil
}

// ReviewInput rates a course.
type ReviewInput struct {
	Review string  `json:"review"`
	Rating float64 `json:"rating"`
}

// AddReview lets an enrolled user rate the course and recomputes the
// average rating.
func (s *CourseService) AddReview(ctx context.Context, user model.User, courseID string, in ReviewInput) (model.Course, error) {
	if !user.HasCourse(courseID) {
		return model.Course{}, apperr.ErrNotEligible
	}
	if in.Rating < 1 || in.Rating > 5 {
		return model.Course{}, fmt.Errorf("%w: rating must be between 1 and 5", apperr.ErrValidation)
	}
	var review model.Review
	c, err := s.mutate(ctx, courseID, func(c *model.Course) error {
		review = model.Review{
			ID:             uuid.NewString(),
			User:           user.Summary(),
			Rating:         in.Rating,
			Comment:        in.Review,
			CommentReplies: []model.Comment{},
			CreatedAt:      s.now(),
		}
		c.Reviews = append(c.Reviews, review)
		c.RecomputeRatings()
		return nil
	})
	if err != nil {
		return model.Course{}, err
	}
	s.catalogChanged(ctx, c, true)
	err = s.notify(ctx, user.ID, "New Review Received", fmt.Sprintf("%s has given a review in %s", user.Name, c.Name))
	publish(ctx, s.Events, events.New(events.CourseReviewed, c.ID, map[string]any{
		"courseId": c.ID, "reviewId": review.ID, "userId": user.ID, "rating": in.Rating, "ratings": c.Ratings,
	}))
	return c, err
}

// ReplyInput answers a review.
type ReplyInput struct {
	Comment  string `json:"comment"`
	CourseID string `json:"courseId"`
	ReviewID string `json:"reviewId"`
}

// AddReply appends an admin reply to a review.
func (s *CourseService) AddReply(ctx context.Context, user model.User, in ReplyInput) (model.Course, error) {
	if strings.TrimSpace(in.Comment) == "" {
		return model.Course{}, fmt.Errorf("%w: comment is required", apperr.ErrValidation)
	}
	c, err := s.mutate(ctx, in.CourseID, func(c *model.Course) error {
		r, ok := c.Review(in.ReviewID)
		if !ok {
			return fmt.Errorf("review %s: %w", in.ReviewID, apperr.ErrNotFound)
		}
		now := s.now()
		r.CommentReplies = append(r.CommentReplies, model.Comment{
			ID:        uuid.NewString(),
			User:      user.Summary(),
			Question:  in.Comment,
			CreatedAt: now,
			UpdatedAt: now,
		})
		return nil
	})
	if err != nil {
		return model.Course{}, err
	}
	s.catalogChanged(ctx, c, true)
	return c, nil
}

// mutate applies fn to a fresh copy of the course and saves it, retrying
// the whole read-modify-write when another writer saved first.
func (s *CourseService) mutate(ctx context.Context, id string, fn func(*model.Course) error) (model.Course, error) {
	return mutateCourse(ctx, s.Courses, id, s.SaveAttempts, fn)
}

func mutateCourse(ctx context.Context, store CourseStore, id string, attempts int, fn func(*model.Course) error) (model.Course, error) {
	if attempts <= 0 {
		attempts = DefaultSaveAttempts
	}
	var err error
	for i := 0; i < attempts; i++ {
		var c model.Course
		c, err = store.Get(ctx, id)
		if err != nil {
			return model.Course{}, err
		}
		if err = fn(&c); err != nil {
			return model.Course{}, err
		}
		err = store.Save(ctx, &c)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, apperr.ErrConflict) {
			return model.Course{}, err
		}
		logging.FromContext(ctx).Debug("course save lost a version race", "course_id", id, "attempt", i+1)
	}
	return model.Course{}, err
}

func (s *CourseService) notify(ctx context.Context, userID, title, message string) error {
	n := model.Notification{UserID: userID, Title: title, Message: message}
	if err := s.Notifications.Create(ctx, &n); err != nil {
		return fmt.Errorf("%w: notification: %v", apperr.ErrDeliveryFailed, err)
	}
	return nil
}

// catalogChanged refreshes the derived copies of c: the preview cache,
// the search index and cached catalog responses. Failures are logged.
func (s *CourseService) catalogChanged(ctx context.Context, c model.Course, evict bool) {
	log := logging.FromContext(ctx)
	if evict && s.Cache != nil {
		if err := s.Cache.Evict(ctx, c.ID); err != nil {
			log.Warn("course cache evict failed", "course_id", c.ID, "error", err)
		}
	}
	if s.Index != nil {
		if err := s.Index.Put(ctx, c); err != nil {
			log.Warn("course index failed", "course_id", c.ID, "error", err)
		}
	}
	s.purge(ctx)
}

func (s *CourseService) purge(ctx context.Context) {
	if s.Responses == nil {
		return
	}
	if err := s.Responses.Purge(ctx); err != nil {
		logging.FromContext(ctx).Warn("response cache purge failed", "error", err)
	}
}

func assignContentIDs(c *model.Course) {
	for i := range c.CourseData {
		if c.CourseData[i].ID == "" {
			c.CourseData[i].ID = uuid.NewString()
		}
	}
}

// mergeJSON overlays the given top-level fields onto c's JSON form.
func mergeJSON(c model.Course, fields map[string]json.RawMessage) (model.Course, error) {
	base, err := json.Marshal(c)
	if err != nil {
		return model.Course{}, err
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(base, &doc); err != nil {
		return model.Course{}, err
	}
	for k, v := range fields {
		doc[k] = v
	}
	merged, err := json.Marshal(doc)
	if err != nil {
		return model.Course{}, err
	}
	var out model.Course
	if err := json.Unmarshal(merged, &out); err != nil {
		return model.Course{}, fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}
	return out, nil
}
