package handlers

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/JBRUL255/funny-video-generator/models"
	"github.com/JBRUL255/funny-video-generator/utils"
)

const defaultTopic = "funny random"

// streamPollInterval bounds how often the event stream re-reads a job
// snapshot, so a stream never busy-loops.
const streamPollInterval = time.Second

// EnqueueRequest is the POST /generate body.
type EnqueueRequest struct {
	Topic string `json:"topic" validate:"omitempty,max=200"`
}

// EnqueueJob creates a job and hands it to the scheduler.
// POST /api/v1/generate
func (h *ApplicationHandler) EnqueueJob(c *fiber.Ctx) error {
	var req EnqueueRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid request body")
		}
	}
	if req.Topic == "" {
		req.Topic = c.Query("topic")
	}
	req.Topic = strings.TrimSpace(req.Topic)
	if req.Topic == "" {
		req.Topic = defaultTopic
	}

	if err := h.Validate.Struct(req); err != nil {
		msgs := utils.FormatValidationErrors(err)
		return utils.RespondWithError(c, fiber.StatusBadRequest, strings.Join(msgs, "; "))
	}

	// Reject up front when the daily cap is met: no job record is created.
	if h.Quota != nil && h.Quota.QuotaReached() {
		return utils.RespondWithError(c, fiber.StatusTooManyRequests, "daily limit reached, try again tomorrow")
	}

	job, err := h.Store.Create(req.Topic)
	if err != nil {
		h.Logger.WithField("error", err).Error("could not create job")
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not create job")
	}

	if err := h.Scheduler.Submit(c.Context(), job.ID); err != nil {
		h.Logger.WithFields(map[string]interface{}{"job_id": job.ID, "error": err}).Error("could not submit job")
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not schedule job")
	}

	h.Logger.WithFields(map[string]interface{}{"job_id": job.ID, "topic": job.Topic}).Info("job enqueued")
	return utils.RespondWithJSON(c, fiber.StatusAccepted, fiber.Map{
		"job_id": job.ID,
		"status": job.Status,
	})
}

// GetJobStatus returns the current snapshot of one job.
// GET /api/v1/jobs/:id
func (h *ApplicationHandler) GetJobStatus(c *fiber.Ctx) error {
	jobID, err := parseJobID(c.Params("id"))
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid job ID")
	}

	job, err := h.Store.Get(jobID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return utils.RespondWithError(c, fiber.StatusNotFound, "Job not found")
		}
		h.Logger.WithFields(map[string]interface{}{"job_id": jobID, "error": err}).Error("could not fetch job")
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not retrieve job")
	}

	return utils.RespondWithJSON(c, fiber.StatusOK, job)
}

// StreamJobEvents pushes job snapshots as server-sent events. A new event is
// emitted whenever the snapshot changed since the last one; the stream ends
// once the job reaches a terminal state.
// GET /api/v1/jobs/:id/events
func (h *ApplicationHandler) StreamJobEvents(c *fiber.Ctx) error {
	jobID, err := parseJobID(c.Params("id"))
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid job ID")
	}
	if _, err := h.Store.Get(jobID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return utils.RespondWithError(c, fiber.StatusNotFound, "Job not found")
		}
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not retrieve job")
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		var lastEmitted time.Time
		first := true
		for {
			job, err := h.Store.Get(jobID)
			if err != nil {
				return
			}

			if first || job.UpdatedAt.After(lastEmitted) {
				payload, err := json.Marshal(job)
				if err != nil {
					return
				}
				if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					// Client went away.
					return
				}
				lastEmitted = job.UpdatedAt
				first = false
			}

			if job.Status.Terminal() {
				return
			}
			time.Sleep(streamPollInterval)
		}
	})
	return nil
}

func parseJobID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid job id %q", raw)
	}
	return id, nil
}
