package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/travel-booking-core/internal/booking"
    "github.com/iliyamo/travel-booking-core/internal/pricing"
    "github.com/iliyamo/travel-booking-core/internal/repository"
)

// writeError translates the error kinds of the booking core into HTTP
// responses.  Unknown errors are logged and answered with 500.
func writeError(c echo.Context, err error) error {
    var verr *booking.ValidationError
    var amb *pricing.AmbiguousMatchError
    var perr *booking.PartialWriteError
    switch {
    case errors.Is(err, booking.ErrAuthRequired):
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error()})
    case errors.As(err, &verr):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": verr.Fields})
    case errors.As(err, &perr):
        return c.JSON(http.StatusMultiStatus, partialJSON(perr))
    case errors.As(err, &amb):
        return c.JSON(http.StatusConflict, echo.Map{"error": "ambiguous price selection", "table": amb.Table, "codes": amb.Codes})
    case errors.Is(err, repository.ErrTimeout):
        return c.JSON(http.StatusGatewayTimeout, echo.Map{"error": "store timeout"})
    case errors.Is(err, pricing.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "no matching option"})
    case errors.Is(err, repository.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
    case errors.Is(err, repository.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    case errors.Is(err, repository.ErrConflict):
        return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
    case errors.Is(err, pricing.ErrUnknownTable), errors.Is(err, pricing.ErrUnknownAttribute),
        errors.Is(err, pricing.ErrInvalidDate):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    logrus.WithError(err).WithFields(logrus.Fields{"method": c.Request().Method, "path": c.Path()}).Error("request failed")
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

func partialJSON(perr *booking.PartialWriteError) echo.Map {
    failures := make([]echo.Map, 0, len(perr.Failures))
    for _, f := range perr.Failures {
        failures = append(failures, echo.Map{"index": f.Index, "kind": f.Kind, "price_code": f.Code, "error": f.Err.Error()})
    }
    return echo.Map{"error": "partial write", "written": perr.Written, "failures": failures}
}
