package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/kashmau/track-fitness/internal/middleware"
	"github.com/kashmau/track-fitness/internal/service"
)

// ProfileHandler serves the profile service.  The caller is always the
// identity established by middleware.ProfileIdentity; no route takes a user
// id from the path.
type ProfileHandler struct {
	Svc *service.ProfileService
}

func NewProfileHandler(svc *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{Svc: svc}
}

func caller(c echo.Context) (string, error) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return "", echo.ErrUnauthorized
	}
	return id.UserID, nil
}

// Get: GET /getUserProfile
func (h *ProfileHandler) Get(c echo.Context) error {
	uid, err := caller(c)
	if err != nil {
		return err
	}
	v, err := h.Svc.Get(c.Request().Context(), uid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, v)
}

// Create: POST /userProfile
func (h *ProfileHandler) Create(c echo.Context) error {
	uid, err := caller(c)
	if err != nil {
		return err
	}
	var in service.ProfileInput
	if err := c.Bind(&in); err != nil {
		return badRequest("invalid body")
	}
	v, err := h.Svc.Create(c.Request().Context(), uid, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, v)
}

// Update: PUT /userProfile.  Absent fields keep their stored values.
func (h *ProfileHandler) Update(c echo.Context) error {
	uid, err := caller(c)
	if err != nil {
		return err
	}
	var in service.ProfileInput
	if err := c.Bind(&in); err != nil {
		return badRequest("invalid body")
	}
	v, err := h.Svc.Update(c.Request().Context(), uid, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, v)
}

// Delete: DELETE /userProfile
func (h *ProfileHandler) Delete(c echo.Context) error {
	uid, err := caller(c)
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(c.Request().Context(), uid); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ProfileHandler) AddGoal(c echo.Context) error {
	uid, err := caller(c)
	if err != nil {
		return err
	}
	var in service.GoalInput
	if err := c.Bind(&in); err != nil {
		return badRequest("invalid body")
	}
	g, err := h.Svc.AddGoal(c.Request().Context(), uid, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, g)
}

func (h *ProfileHandler) ListGoals(c echo.Context) error {
	uid, err := caller(c)
	if err != nil {
		return err
	}
	goals, err := h.Svc.ListGoals(c.Request().Context(), uid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, goals)
}

func (h *ProfileHandler) AddHealthRecord(c echo.Context) error {
	uid, err := caller(c)
	if err != nil {
		return err
	}
	var in service.HealthInput
	if err := c.Bind(&in); err != nil {
		return badRequest("invalid body")
	}
	rec, err := h.Svc.AddHealthRecord(c.Request().Context(), uid, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *ProfileHandler) ListHealthHistory(c echo.Context) error {
	uid, err := caller(c)
	if err != nil {
		return err
	}
	list, err := h.Svc.ListHealthHistory(c.Request().Context(), uid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

type metricResp struct {
	Metric  service.MetricView  `json:"metric"`
	Profile service.ProfileView `json:"profile"`
}

func (h *ProfileHandler) RecordMetric(c echo.Context) error {
	uid, err := caller(c)
	if err != nil {
		return err
	}
	var in service.MetricInput
	if err := c.Bind(&in); err != nil {
		return badRequest("invalid body")
	}
	m, p, err := h.Svc.RecordMetric(c.Request().Context(), uid, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, metricResp{Metric: m, Profile: p})
}

// ListMetrics: GET /userProfile/metrics?type=BODY&limit=20
func (h *ProfileHandler) ListMetrics(c echo.Context) error {
	uid, err := caller(c)
	if err != nil {
		return err
	}
	limit := 0
	if s := c.QueryParam("limit"); s != "" {
		if limit, err = strconv.Atoi(s); err != nil || limit < 0 {
			return badRequest("limit must be a non-negative integer")
		}
	}
	list, err := h.Svc.ListMetrics(c.Request().Context(), uid, c.QueryParam("type"), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

type scoreResp struct {
	Score   service.FitnessScoreView `json:"score"`
	Profile service.ProfileView      `json:"profile"`
}

func (h *ProfileHandler) RecordFitnessScore(c echo.Context) error {
	uid, err := caller(c)
	if err != nil {
		return err
	}
	var in service.FitnessScoreInput
	if err := c.Bind(&in); err != nil {
		return badRequest("invalid body")
	}
	s, p, err := h.Svc.RecordFitnessScore(c.Request().Context(), uid, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, scoreResp{Score: s, Profile: p})
}

func (h *ProfileHandler) ListFitnessScores(c echo.Context) error {
	uid, err := caller(c)
	if err != nil {
		return err
	}
	list, err := h.Svc.ListFitnessScores(c.Request().Context(), uid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}
