package handler

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"
)

var errUnauthorized = errors.New("unauthorized")

// getStudentID extracts the authenticated student's id injected by the
// JWT middleware.  MapClaims decode numeric claims as float64; other
// types are tolerated for tests.
func getStudentID(c echo.Context) (uint64, error) {
	switch v := c.Get("student_id").(type) {
	case float64:
		if v > 0 {
			return uint64(v), nil
		}
	case uint64:
		if v > 0 {
			return v, nil
		}
	case int:
		if v > 0 {
			return uint64(v), nil
		}
	case string:
		if n, err := strconv.ParseUint(v, 10, 64); err == nil && n > 0 {
			return n, nil
		}
	}
	return 0, errUnauthorized
}
