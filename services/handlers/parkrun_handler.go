package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/wheelchair-racer/wr_api/dto"
	"github.com/wheelchair-racer/wr_api/middleware"
	"github.com/wheelchair-racer/wr_api/shared"
)

type ParkrunHandler struct {
	parkrunSvc ParkrunServiceInterface
}

func NewParkrunHandler(parkrunSvc ParkrunServiceInterface) *ParkrunHandler {
	return &ParkrunHandler{
		parkrunSvc: parkrunSvc,
	}
}

// @Summary List parkrun events
// @Tags parkrun
// @Produce json
// @Param country query string false "Country name"
// @Param search query string false "Matches name or location"
// @Param junior query bool false "Only junior (true) or only 5k (false) events"
// @Success 200 {object} shared.Response{data=dto.ParkrunListResponse}
// @Router /api/v1/parkruns [get]
func (h *ParkrunHandler) List(c *fiber.Ctx) error {
	var query dto.ParkrunQuery
	if err := c.QueryParser(&query); err != nil {
		return shared.NewBadRequestError(err, "Invalid query parameters")
	}

	resp, err := h.parkrunSvc.List(c.UserContext(), query)
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, resp)
}

// @Summary Get a parkrun event
// @Description Includes the accessibility scores
// @Tags parkrun
// @Produce json
// @Param slug path string true "Event slug"
// @Success 200 {object} shared.Response{data=model.Parkrun}
// @Failure 404 {object} shared.Response
// @Router /api/v1/parkruns/{slug} [get]
func (h *ParkrunHandler) Get(c *fiber.Ctx) error {
	event, err := h.parkrunSvc.Get(c.UserContext(), c.Params("slug"))
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, event)
}

// @Summary List parkrun countries
// @Tags parkrun
// @Produce json
// @Success 200 {object} shared.Response{data=[]string}
// @Router /api/v1/parkruns/countries [get]
func (h *ParkrunHandler) Countries(c *fiber.Ctx) error {
	countries, err := h.parkrunSvc.Countries(c.UserContext())
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, countries)
}

// @Summary Find parkrun events near you
// @Description Uses lat and lon when given, otherwise the caller's IP address
// @Tags parkrun
// @Produce json
// @Param lat query number false "Latitude"
// @Param lon query number false "Longitude"
// @Param limit query int false "Number of events, at most 50" default(10)
// @Param junior query bool false "Only junior (true) or only 5k (false) events"
// @Success 200 {object} shared.Response{data=dto.NearbyResponse}
// @Failure 400 {object} shared.Response
// @Router /api/v1/parkruns/nearby [get]
func (h *ParkrunHandler) Nearby(c *fiber.Ctx) error {
	var query dto.NearbyQuery
	if err := c.QueryParser(&query); err != nil {
		return shared.NewBadRequestError(err, "Invalid query parameters")
	}

	resp, err := h.parkrunSvc.Nearby(c.UserContext(), query, middleware.ClientIP(c))
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, resp)
}
