package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/eddy80524/dental-quiz-app/internal/api/shared"
	"github.com/eddy80524/dental-quiz-app/internal/service/aggregation"
)

// JobHandler triggers the scheduled jobs on demand.
type JobHandler struct {
	pipeline *aggregation.Pipeline
	clock    func() time.Time
	logger   *slog.Logger
}

// NewJobHandler creates a JobHandler.
func NewJobHandler(pipeline *aggregation.Pipeline, clock func() time.Time, logger *slog.Logger) *JobHandler {
	if pipeline == nil {
		panic("pipeline cannot be nil for JobHandler")
	}
	if logger == nil {
		panic("logger cannot be nil for JobHandler")
	}
	if clock == nil {
		clock = time.Now
	}
	return &JobHandler{
		pipeline: pipeline,
		clock:    clock,
		logger:   logger.With(slog.String("component", "job_handler")),
	}
}

// RunDailyAggregation handles POST /api/jobs/daily-aggregation.
func (h *JobHandler) RunDailyAggregation(w http.ResponseWriter, r *http.Request) {
	var req RunAggregationRequest
	if r.ContentLength != 0 {
		if err := shared.DecodeJSON(w, r, &req); err != nil {
			shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request body", err)
			return
		}
		if err := shared.ValidateRequest(&req); err != nil {
			HandleAPIError(w, r, err, "")
			return
		}
	}

	var (
		report *aggregation.RunReport
		err    error
	)
	if req.Start != nil && req.End != nil {
		report, err = h.pipeline.RunDailyAggregation(r.Context(), *req.Start, *req.End)
	} else {
		report, err = h.pipeline.RunTrailing(r.Context())
	}
	if err != nil {
		HandleAPIError(w, r, err, "Aggregation failed")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, report)
}

// RunWeeklyReset handles POST /api/jobs/weekly-reset.
func (h *JobHandler) RunWeeklyReset(w http.ResponseWriter, r *http.Request) {
	var req RunWeeklyResetRequest
	if r.ContentLength != 0 {
		if err := shared.DecodeJSON(w, r, &req); err != nil {
			shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	at := h.clock()
	if req.At != nil {
		at = *req.At
	}

	report, err := h.pipeline.RunWeeklyReset(r.Context(), at)
	if err != nil {
		HandleAPIError(w, r, err, "Weekly reset failed")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, report)
}
