package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/journify/core/internal/application/query"
	"github.com/journify/core/internal/domain/entities"
)

// Owner resolves the user id new entries and tags are created for.
type Owner func() string

// bindAndValidate decodes the request body into req and runs the validator.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// parseFilters reads search filters from query parameters. ok is false when
// no filter parameter is present.
func parseFilters(c echo.Context, loc *time.Location) (filters entities.SearchFilters, ok bool, err error) {
	params := c.QueryParams()

	if q := params.Get("q"); q != "" {
		filters.SearchTerm = &q
		ok = true
	}
	for _, m := range params["mood"] {
		mood := entities.Mood(m)
		if !mood.Valid() {
			return filters, false, echo.NewHTTPError(http.StatusBadRequest, "Invalid mood parameter")
		}
		filters.Mood = append(filters.Mood, mood)
		ok = true
	}
	if tags := params["tag"]; len(tags) > 0 {
		filters.Tags = append([]string(nil), tags...)
		ok = true
	}
	if h := params.Get("highlight"); h != "" {
		v, perr := strconv.ParseBool(h)
		if perr != nil {
			return filters, false, echo.NewHTTPError(http.StatusBadRequest, "Invalid highlight parameter")
		}
		filters.IsHighlight = &v
		ok = true
	}

	from, to := params.Get("from"), params.Get("to")
	if from != "" || to != "" {
		if from == "" || to == "" {
			return filters, false, echo.NewHTTPError(http.StatusBadRequest, "from and to must be given together")
		}
		start, perr := query.ParseDay(from, loc)
		if perr != nil {
			return filters, false, echo.NewHTTPError(http.StatusBadRequest, "Invalid from parameter")
		}
		end, perr := query.ParseDay(to, loc)
		if perr != nil {
			return filters, false, echo.NewHTTPError(http.StatusBadRequest, "Invalid to parameter")
		}
		// The end day is inclusive.
		filters.DateRange = &entities.DateRange{Start: start, End: end.AddDate(0, 0, 1).Add(-time.Nanosecond)}
		ok = true
	}

	return filters, ok, nil
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type ListResponse[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
}

func newListResponse[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Data: items, Total: len(items)}
}
