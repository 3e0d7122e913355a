package handlers

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/JBRUL255/funny-video-generator/utils"
)

// ListVideos returns all known artifacts, most recent first.
// GET /api/v1/videos
func (h *ApplicationHandler) ListVideos(c *fiber.Ctx) error {
	artifacts, err := h.Store.ListArtifacts()
	if err != nil {
		h.Logger.WithField("error", err).Error("could not list artifacts")
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not list videos")
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, artifacts)
}

// DownloadVideo streams a stored video file.
// GET /api/v1/videos/:name
func (h *ApplicationHandler) DownloadVideo(c *fiber.Ctx) error {
	name := c.Params("name")
	// Reject anything that could escape the output directory.
	if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid video name")
	}

	path := filepath.Join(h.OutputDir, name)
	if _, err := os.Stat(path); err != nil {
		return utils.RespondWithError(c, fiber.StatusNotFound, "Video not found")
	}

	return c.Download(path, name)
}

// Health is the liveness probe.
// GET /health
func (h *ApplicationHandler) Health(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "ok",
		"message": "funny-video-generator is healthy",
	})
}
