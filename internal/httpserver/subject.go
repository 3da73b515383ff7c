package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mlevchenko/studyhub/internal/logging"
	"github.com/mlevchenko/studyhub/internal/service"
	"github.com/mlevchenko/studyhub/internal/util"
)

type SubjectHTTP struct {
	Svc *service.SubjectService
}

func parseID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "id is not a number")
	}
	return uint(id), nil
}

func (h *SubjectHTTP) GetSubject(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "subject_get")

	id, err := parseID(c)
	if err != nil {
		return err
	}

	subject, err := h.Svc.GetSubject(ctx, id)
	if err != nil {
		l.Warn("get_subject_failed", "subject_id", id, "error", err)
		return httpError(err)
	}

	return c.JSON(http.StatusOK, subject)
}

func (h *SubjectHTTP) GetSubjects(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "subject_list")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, items, err := h.Svc.GetSubjects(ctx, offset, limit)
	if err != nil {
		l.Error("get_subjects_failed", "status", 500, "error", err)
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data": items,
		"meta": echo.Map{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}

func (h *SubjectHTTP) CreateSubject(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "subject_create")

	var req CreateSubjectRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_subject_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	subject, err := h.Svc.CreateSubject(ctx, req.Name, req.Description)
	if err != nil {
		l.Warn("create_subject_failed", "error", err)
		return httpError(err)
	}

	l.Info("create_subject_success", "subject_id", subject.ID)
	return c.JSON(http.StatusCreated, subject)
}

func (h *SubjectHTTP) PatchSubject(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "subject_patch")

	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req PatchSubjectRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("patch_subject_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	subject, err := h.Svc.PatchSubject(ctx, id, req.Name, req.Description)
	if err != nil {
		l.Warn("patch_subject_failed", "subject_id", id, "error", err)
		return httpError(err)
	}

	return c.JSON(http.StatusOK, subject)
}

func (h *SubjectHTTP) DeleteSubject(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "subject_delete")

	id, err := parseID(c)
	if err != nil {
		return err
	}

	if err := h.Svc.DeleteSubject(ctx, id); err != nil {
		l.Warn("delete_subject_failed", "subject_id", id, "error", err)
		return httpError(err)
	}

	l.Info("delete_subject_success", "subject_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *SubjectHTTP) SearchSubjects(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "subject_search")

	q := c.QueryParam("q")
	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	from, limit := util.Calculate(page, size)

	total, items, err := h.Svc.SearchSubjects(ctx, q, from, limit)
	if err != nil {
		l.Warn("search_subjects_failed", "error", err)
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data": items,
		"meta": echo.Map{
			"page":  page,
			"size":  limit,
			"total": total,
		},
	})
}
