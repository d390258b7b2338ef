package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/afi-report/backend/internal/dataset"
	"github.com/afi-report/backend/internal/middleware/validation"
	"github.com/afi-report/backend/internal/storage/models"
	"github.com/afi-report/backend/pkg/logger"
)

const (
	defaultDistrictLimit = 15
	loadHistoryLimit     = 10
)

// DistrictStore answers ranked district queries over the reconciled table.
type DistrictStore interface {
	TopDistricts(ctx context.Context, state string, limit int) ([]models.District, error)
	StateSummaries(ctx context.Context) ([]models.StateSummary, error)
	LoadHistory(ctx context.Context, limit int) ([]models.ReconciliationReport, error)
}

type DatasetHandler struct {
	table  *dataset.Table
	report models.ReconciliationReport
	store  DistrictStore
}

// NewDatasetHandler serves the reconciled table. store may be nil, in which
// case the district endpoints answer 503.
func NewDatasetHandler(table *dataset.Table, rep models.ReconciliationReport, store DistrictStore) *DatasetHandler {
	return &DatasetHandler{
		table:  table,
		report: rep,
		store:  store,
	}
}

func (h *DatasetHandler) GetDataset(c *fiber.Ctx) error {
	resp := fiber.Map{
		"columns":        h.table.Columns(),
		"rows":           h.table.Len(),
		"reconciliation": h.report,
	}

	if h.store != nil {
		history, err := h.store.LoadHistory(c.UserContext(), loadHistoryLimit)
		if err != nil {
			logger.Warn("Failed to read load history", zap.Error(err))
		} else {
			resp["history"] = history
		}
	}

	return c.JSON(resp)
}

func (h *DatasetHandler) ListDistricts(c *fiber.Ctx) error {
	if h.store == nil {
		return storeUnavailable(c)
	}

	state := validation.SanitizeString(c.Query("state"))
	limit := c.QueryInt("limit", defaultDistrictLimit)

	districts, err := h.store.TopDistricts(c.UserContext(), state, limit)
	if err != nil {
		logger.Error("Failed to query districts", zap.String("state", state), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to query districts",
		})
	}
	if districts == nil {
		districts = []models.District{}
	}

	return c.JSON(fiber.Map{
		"state":     state,
		"limit":     limit,
		"districts": districts,
	})
}

func (h *DatasetHandler) ListStates(c *fiber.Ctx) error {
	if h.store == nil {
		return storeUnavailable(c)
	}

	states, err := h.store.StateSummaries(c.UserContext())
	if err != nil {
		logger.Error("Failed to query states", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to query states",
		})
	}
	if states == nil {
		states = []models.StateSummary{}
	}

	return c.JSON(fiber.Map{
		"states": states,
	})
}

func storeUnavailable(c *fiber.Ctx) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": "District store is disabled",
	})
}
