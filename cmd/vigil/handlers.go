package main

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"

	"github.com/meridian-social/aegis/moderation"
	"github.com/meridian-social/aegis/moderation/actions"
	"github.com/meridian-social/aegis/moderation/classify"
	"github.com/meridian-social/aegis/moderation/engine"
	"github.com/meridian-social/aegis/moderation/queue"
	"github.com/meridian-social/aegis/moderation/reporting"
)

func (srv *Server) registerRoutes(e *echo.Echo) {
	e.GET("/_health", srv.handleHealthCheck)

	api := e.Group("/api")
	api.POST("/content", srv.handleSubmitContent)

	api.POST("/reports", srv.handleSubmitReport)
	api.GET("/reports/limits", srv.handleReportingLimits)
	api.GET("/reports/analytics", srv.handleAnalytics)
	api.GET("/reports/:id", srv.handleGetReport)
	api.POST("/reports/:id/review", srv.handleReviewReport)
	api.POST("/reports/:id/withdraw", srv.handleWithdrawReport)

	api.GET("/queue", srv.handleListQueue)
	api.GET("/queue/stats", srv.handleQueueStats)
	api.POST("/queue/:id/action", srv.handleQueueAction)

	api.GET("/users/:id/penalties", srv.handleUserPenalties)
	api.POST("/penalties", srv.handleApplyPenalty)

	api.POST("/appeals", srv.handleSubmitAppeal)
	api.GET("/appeals/:id", srv.handleGetAppeal)
	api.POST("/appeals/:id/resolve", srv.handleResolveAppeal)

	api.GET("/audit/:subject", srv.handleAuditTrail)
}

// validation failures surface as 400s with the caller-facing reason;
// anything else is a 500 with the detail kept in the logs.
func (srv *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		c.JSON(he.Code, map[string]any{"error": he.Message})
		return
	}
	if moderation.IsValidation(err) {
		c.JSON(http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	srv.logger.Error("request failed", "err", err, "path", c.Path())
	c.JSON(http.StatusInternalServerError, map[string]any{"error": "internal server error"})
}

func (srv *Server) handleHealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type submitContentRequest struct {
	ContentID   string `json:"contentId"`
	ContentType string `json:"contentType"`
	AuthorID    string `json:"authorId"`
	Text        string `json:"text"`
	Images      []struct {
		ID   string `json:"id"`
		Data []byte `json:"data"`
	} `json:"images"`
}

func (srv *Server) handleSubmitContent(c echo.Context) error {
	var req submitContentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	sub := engine.ContentSubmission{
		ContentID:   req.ContentID,
		ContentType: moderation.ContentType(req.ContentType),
		AuthorID:    req.AuthorID,
		Text:        req.Text,
	}
	for _, img := range req.Images {
		sub.Images = append(sub.Images, classify.Image{ID: img.ID, Data: img.Data})
	}
	contentReceived.Inc()

	ctx, span := tracer.Start(c.Request().Context(), "handleSubmitContent")
	defer span.End()
	span.SetAttributes(attribute.String("content.id", sub.ContentID))

	res, err := srv.engine.ProcessContent(ctx, sub)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

type submitReportRequest struct {
	ContentID         string `json:"contentId"`
	ContentType       string `json:"contentType"`
	ReporterID        string `json:"reporterId"`
	Reason            string `json:"reason"`
	AdditionalDetails string `json:"additionalDetails"`
	IsAnonymous       bool   `json:"isAnonymous"`
}

func (srv *Server) handleSubmitReport(c echo.Context) error {
	var req submitReportRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ctx, span := tracer.Start(c.Request().Context(), "handleSubmitReport")
	defer span.End()
	span.SetAttributes(attribute.String("content.id", req.ContentID))

	rep, err := srv.reports.SubmitReport(ctx, reporting.SubmitReportInput{
		ContentID:         req.ContentID,
		ContentType:       moderation.ContentType(req.ContentType),
		ReporterID:        req.ReporterID,
		Reason:            reporting.Reason(req.Reason),
		AdditionalDetails: req.AdditionalDetails,
		IsAnonymous:       req.IsAnonymous,
	})
	if err != nil {
		return err
	}
	reportsReceived.Inc()
	return c.JSON(http.StatusCreated, rep)
}

func (srv *Server) handleReportingLimits(c echo.Context) error {
	userID := c.QueryParam("userId")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "userId query parameter is required")
	}
	limits, err := srv.reports.CheckReportingLimits(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, limits)
}

func (srv *Server) handleAnalytics(c echo.Context) error {
	r := reporting.TimeRange(c.QueryParam("range"))
	if r == "" {
		r = reporting.RangeWeek
	}
	a, err := srv.reports.Analytics(r)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (srv *Server) handleGetReport(c echo.Context) error {
	rep, ok := srv.reports.Get(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "report not found")
	}
	return c.JSON(http.StatusOK, rep)
}

type reviewReportRequest struct {
	ModeratorID string `json:"moderatorId"`
	Resolution  string `json:"resolution"`
	Notes       string `json:"notes"`
}

func (srv *Server) handleReviewReport(c echo.Context) error {
	var req reviewReportRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	rep, found, err := srv.reports.ReviewReport(c.Request().Context(), c.Param("id"), req.ModeratorID, reporting.Resolution(req.Resolution), req.Notes)
	if !found {
		return echo.NewHTTPError(http.StatusNotFound, "report not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rep)
}

func (srv *Server) handleWithdrawReport(c echo.Context) error {
	var req struct {
		ReporterID string `json:"reporterId"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	found, err := srv.reports.WithdrawReport(c.Request().Context(), c.Param("id"), req.ReporterID)
	if !found {
		return echo.NewHTTPError(http.StatusNotFound, "report not found")
	}
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (srv *Server) handleListQueue(c echo.Context) error {
	var f queue.Filter
	if s := c.QueryParam("priority"); s != "" {
		p, ok := queue.ParsePriority(s)
		if !ok {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown priority")
		}
		f.Priority = &p
	}
	if s := c.QueryParam("status"); s != "" {
		st := moderation.ModerationStatus(s)
		f.Status = &st
	}
	if s := c.QueryParam("contentType"); s != "" {
		ct := moderation.ContentType(s)
		f.ContentType = &ct
	}
	if err := echo.QueryParamsBinder(c).Int("limit", &f.Limit).BindError(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	return c.JSON(http.StatusOK, srv.queue.List(f))
}

func (srv *Server) handleQueueStats(c echo.Context) error {
	return c.JSON(http.StatusOK, srv.queue.Statistics())
}

type queueActionRequest struct {
	Action      string `json:"action"`
	ModeratorID string `json:"moderatorId"`
	Reason      string `json:"reason"`
	Notes       string `json:"notes"`
}

func (srv *Server) handleQueueAction(c echo.Context) error {
	var req queueActionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ctx, span := tracer.Start(c.Request().Context(), "handleQueueAction")
	defer span.End()
	span.SetAttributes(attribute.String("queue.action", req.Action))

	item, found, err := srv.actions.ProcessContentApproval(ctx, c.Param("id"), queue.Action(req.Action), req.ModeratorID, req.Reason, req.Notes)
	if err != nil {
		return err
	}
	if !found {
		return echo.NewHTTPError(http.StatusNotFound, "queue item not found")
	}
	return c.JSON(http.StatusOK, item)
}

func (srv *Server) handleUserPenalties(c echo.Context) error {
	pens := srv.actions.ActivePenaltiesFor(c.Param("id"))
	if pens == nil {
		pens = []actions.UserPenalty{}
	}
	return c.JSON(http.StatusOK, pens)
}

type applyPenaltyRequest struct {
	UserID      string `json:"userId"`
	Kind        string `json:"kind"`
	Days        int    `json:"days"`
	Reason      string `json:"reason"`
	ModeratorID string `json:"moderatorId"`
	ContentID   string `json:"contentId"`
}

func (srv *Server) handleApplyPenalty(c echo.Context) error {
	var req applyPenaltyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	pt := actions.PenaltyType{Kind: actions.PenaltyKind(req.Kind), Days: req.Days}
	pen, err := srv.actions.ApplyUserPenalty(c.Request().Context(), req.UserID, pt, req.Reason, req.ModeratorID, req.ContentID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, pen)
}

type submitAppealRequest struct {
	UserID    string `json:"userId"`
	ContentID string `json:"contentId"`
	ActionID  string `json:"actionId"`
}

func (srv *Server) handleSubmitAppeal(c echo.Context) error {
	var req submitAppealRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	appeal, err := srv.actions.SubmitAppeal(c.Request().Context(), req.UserID, req.ContentID, req.ActionID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, appeal)
}

func (srv *Server) handleGetAppeal(c echo.Context) error {
	appeal, ok := srv.actions.Appeal(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "appeal not found")
	}
	return c.JSON(http.StatusOK, appeal)
}

type resolveAppealRequest struct {
	ModeratorID string `json:"moderatorId"`
	Approve     bool   `json:"approve"`
	Reason      string `json:"reason"`
}

func (srv *Server) handleResolveAppeal(c echo.Context) error {
	var req resolveAppealRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	appeal, found, err := srv.actions.ResolveAppeal(c.Request().Context(), c.Param("id"), req.ModeratorID, req.Approve, req.Reason)
	if !found {
		return echo.NewHTTPError(http.StatusNotFound, "appeal not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, appeal)
}

func (srv *Server) handleAuditTrail(c echo.Context) error {
	evts, err := srv.events.ListBySubject(c.Request().Context(), c.Param("subject"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, evts)
}
