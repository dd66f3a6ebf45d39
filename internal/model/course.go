package model

import "time"

// Course is the catalog aggregate. It is persisted as a single JSON
// document in `courses.doc`; Version backs the optimistic concurrency
// check on whole-document saves and is not part of the document itself.
type Course struct {
	ID             string          `json:"_id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Categories     string          `json:"categories,omitempty"`
	Price          float64         `json:"price"`
	EstimatedPrice *float64        `json:"estimatedPrice,omitempty"`
	Thumbnail      string          `json:"thumbnail"`
	Tags           []string        `json:"tags"`
	Level          string          `json:"level"`
	DemoURL        string          `json:"demoUrl"`
	Benefits       []Titled        `json:"benefits"`
	Prerequisites  []Titled        `json:"prerequisites"`
	Reviews        []Review        `json:"reviews"`
	CourseData     []CourseContent `json:"courseData"`
	Ratings        float64         `json:"ratings"`
	Purchased      int             `json:"purchased"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	Version        int64           `json:"-"`
}

// Titled is a single-field list entry (benefits, prerequisites).
type Titled struct {
	Title string `json:"title"`
}

// Link is a resource attached to a content section.
type Link struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// CourseContent is one lesson/section of a course.
type CourseContent struct {
	ID             string    `json:"_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	VideoURL       string    `json:"videoUrl,omitempty"`
	VideoThumbnail string    `json:"videoThumbnail,omitempty"`
	VideoSection   string    `json:"videoSection"`
	VideoLength    int       `json:"videoLength"`
	VideoPlayer    string    `json:"videoPlayer"`
	Links          []Link    `json:"links,omitempty"`
	Suggestion     string    `json:"suggestion,omitempty"`
	Questions      []Comment `json:"questions,omitempty"`
}

// Comment is a question on a content section or a reply in a thread.
type Comment struct {
	ID              string      `json:"_id"`
	User            UserSummary `json:"user"`
	Question        string      `json:"question"`
	QuestionReplies []Comment   `json:"questionReplies"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// Review is a rated comment on a course.
type Review struct {
	ID             string      `json:"_id"`
	User           UserSummary `json:"user"`
	Rating         float64     `json:"rating"`
	Comment        string      `json:"comment"`
	CommentReplies []Comment   `json:"commentReplies"`
	CreatedAt      time.Time   `json:"createdAt"`
}

// Content returns the section with the given id.
func (c *Course) Content(id string) (*CourseContent, bool) {
	for i := range c.CourseData {
		if c.CourseData[i].ID == id {
			return &c.CourseData[i], true
		}
	}
	return nil, false
}

// Review returns the review with the given id.
func (c *Course) Review(id string) (*Review, bool) {
	for i := range c.Reviews {
		if c.Reviews[i].ID == id {
			return &c.Reviews[i], true
		}
	}
	return nil, false
}

// Question returns the question with the given id.
func (cc *CourseContent) Question(id string) (*Comment, bool) {
	for i := range cc.Questions {
		if cc.Questions[i].ID == id {
			return &cc.Questions[i], true
		}
	}
	return nil, false
}

// RecomputeRatings sets Ratings to the mean review rating.
func (c *Course) RecomputeRatings() {
	if len(c.Reviews) == 0 {
		c.Ratings = 0
		return
	}
	var sum float64
	for _, r := range c.Reviews {
		sum += r.Rating
	}
	c.Ratings = sum / float64(len(c.Reviews))
}

// Preview returns a copy safe to show to users who have not purchased
// the course: video URLs, suggestions, questions and links are removed.
func (c Course) Preview() Course {
	out := c
	out.CourseData = make([]CourseContent, len(c.CourseData))
	for i, cc := range c.CourseData {
		cc.VideoURL = ""
		cc.Suggestion = ""
		cc.Questions = nil
		cc.Links = nil
		out.CourseData[i] = cc
	}
	return out
}
