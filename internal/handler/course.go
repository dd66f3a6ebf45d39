package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lms-backend/internal/model"
	"github.com/iliyamo/lms-backend/internal/service"
)

// CourseHandler serves the catalog, course content and the question and
// review threads.
type CourseHandler struct {
	Catalog Catalog
}

func NewCourseHandler(cat Catalog) *CourseHandler { return &CourseHandler{Catalog: cat} }

func (h *CourseHandler) Create(c echo.Context) error {
	var req model.Course
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	course, err := h.Catalog.Create(ctx, req)
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, echo.Map{"course": course})
}

// Edit merges the JSON body onto the stored course, so the raw body is
// passed through rather than bound to a struct.
func (h *CourseHandler) Edit(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, 50<<20))
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	course, err := h.Catalog.Edit(ctx, c.Param("id"), json.RawMessage(body))
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, echo.Map{"course": course})
}

func (h *CourseHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	course, err := h.Catalog.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"course": course})
}

func (h *CourseHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	courses, err := h.Catalog.List(ctx)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"courses": courses})
}

func (h *CourseHandler) ListFull(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	courses, err := h.Catalog.ListFull(ctx)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"courses": courses})
}

func (h *CourseHandler) Delete(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Catalog.Delete(ctx, c.Param("id")); err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"message": "Course deleted successfully"})
}

// Content returns the full lessons to a buyer.
func (h *CourseHandler) Content(c echo.Context) error {
	u, err := caller(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	content, err := h.Catalog.GetContent(ctx, u, c.Param("id"))
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"content": content})
}

// Search takes ?q=, ?page= and ?size=.
func (h *CourseHandler) Search(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	ctx, cancel := reqCtx(c)
	defer cancel()

	res, err := h.Catalog.Search(ctx, c.QueryParam("q"), page, size)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"total": res.Total, "courses": res.Hits})
}

func (h *CourseHandler) AddQuestion(c echo.Context) error {
	u, err := caller(c)
	if err != nil {
		return err
	}
	var req service.QuestionInput
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	course, err := h.Catalog.AddQuestion(ctx, u, req)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"course": course})
}

func (h *CourseHandler) AddAnswer(c echo.Context) error {
	u, err := caller(c)
	if err != nil {
		return err
	}
	var req service.AnswerInput
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	course, err := h.Catalog.AddAnswer(ctx, u, req)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"course": course})
}

func (h *CourseHandler) AddReview(c echo.Context) error {
	u, err := caller(c)
	if err != nil {
		return err
	}
	var req service.ReviewInput
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	course, err := h.Catalog.AddReview(ctx, u, c.Param("id"), req)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"course": course})
}

func (h *CourseHandler) AddReply(c echo.Context) error {
	u, err := caller(c)
	if err != nil {
		return err
	}
	var req service.ReplyInput
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	course, err := h.Catalog.AddReply(ctx, u, req)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"course": course})
}
