package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"trustnet/internal/service"
)

// Feed lists educational items.
//
// @Summary List the educational feed
// @Tags feed
// @Produce json
// @Param language query string false "Content language" default(en)
// @Param category query string false "health, politics, finance or social"
// @Param limit query int false "Page size (1-50)" default(20)
// @Param offset query int false "Page offset" default(0)
// @Success 200 {object} service.EducationalFeed
// @Failure 400 {object} errorPayload
// @Router /v1/feed [get]
func Feed(svc service.FeedService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}
		feed, err := svc.Feed(c.UserContext(), service.FeedQuery{
			Language: c.Query("language"),
			Category: c.Query("category"),
			Limit:    limit,
			Offset:   offset,
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(feed)
	}
}

// @Summary Get a feed item with related items
// @Tags feed
// @Produce json
// @Param id path string true "Feed item ID"
// @Success 200 {object} service.FeedItemDetail
// @Failure 404 {object} errorPayload
// @Router /v1/feed/{id} [get]
func FeedItem(svc service.FeedService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		item, err := svc.Item(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(item)
	}
}

// @Summary List feed categories
// @Tags feed
// @Produce json
// @Success 200 {object} map[string][]service.FeedCategory
// @Router /v1/feed/categories [get]
func FeedCategories(svc service.FeedService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"categories": svc.Categories(c.UserContext())})
	}
}

// @Summary List trending misinformation patterns
// @Tags feed
// @Produce json
// @Param language query string false "Content language" default(en)
// @Param time_range query string false "24h, 7d or 30d" default(7d)
// @Success 200 {object} service.TrendingPatterns
// @Failure 400 {object} errorPayload
// @Router /v1/feed/trends [get]
func FeedTrends(svc service.FeedService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		out, err := svc.Trends(c.UserContext(), c.Query("language"), c.Query("time_range"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(out)
	}
}

// FeedEngagement records a user interaction with a feed item.
//
// @Summary Submit engagement on a feed item
// @Tags feed
// @Accept json
// @Produce json
// @Param id path string true "Feed item ID"
// @Param request body service.EngagementRequest true "Engagement"
// @Success 201 {object} service.EngagementReceipt
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /v1/feed/{id}/engagement [post]
func FeedEngagement(svc service.FeedService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req service.EngagementRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		out, err := svc.Engage(c.UserContext(), c.Params("id"), req)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(out)
	}
}
