package handlers

import (
	"bytes"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/afi-report/backend/internal/metrics"
	"github.com/afi-report/backend/internal/report"
	"github.com/afi-report/backend/pkg/logger"
)

// PageComposer renders navigation selections.
type PageComposer interface {
	Compose(state report.NavigationState) (*report.RenderedPage, error)
	Navigation() *report.Navigation
}

// ReportHandler serves the server-rendered report pages and their JSON form.
type ReportHandler struct {
	composer PageComposer
	title    string
}

func NewReportHandler(composer PageComposer, title string) *ReportHandler {
	return &ReportHandler{
		composer: composer,
		title:    title,
	}
}

// Index redirects to the first page of the report.
func (h *ReportHandler) Index(c *fiber.Ctx) error {
	return c.Redirect("/report/"+h.composer.Navigation().Default().Slug, fiber.StatusFound)
}

func (h *ReportHandler) RenderPage(c *fiber.Ctx) error {
	state := report.NavigationState{Page: c.Params("page"), Tab: c.Query("tab")}

	page, err := h.composer.Compose(state)
	if err != nil {
		if errors.Is(err, report.ErrUnknownPage) {
			return c.Status(fiber.StatusNotFound).SendString("Unknown page: " + state.Page)
		}
		logger.Error("Failed to compose page", zap.String("page", state.Page), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to render page")
	}
	metrics.NavigationEvents.WithLabelValues(page.Slug, "http").Inc()

	var buf bytes.Buffer
	if err := report.RenderHTML(&buf, h.title, page); err != nil {
		logger.Error("Failed to render page", zap.String("render_id", page.RenderID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to render page")
	}

	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}

func (h *ReportHandler) ListPages(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"title": h.title,
		"pages": h.composer.Navigation().Pages,
	})
}

func (h *ReportHandler) GetPage(c *fiber.Ctx) error {
	state := report.NavigationState{Page: c.Params("page"), Tab: c.Query("tab")}

	page, err := h.composer.Compose(state)
	if err != nil {
		if errors.Is(err, report.ErrUnknownPage) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Unknown page",
				"page":  state.Page,
			})
		}
		logger.Error("Failed to compose page", zap.String("page", state.Page), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compose page",
		})
	}
	metrics.NavigationEvents.WithLabelValues(page.Slug, "api").Inc()

	return c.JSON(fiber.Map{
		"page":     page,
		"failures": len(page.Failures()),
	})
}
