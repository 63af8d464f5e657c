// Package handler defines the HTTP handlers of the API.
package handler

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"
)

// Shared error values so handlers return consistent messages.
var (
	errDatabase      = errors.New("database error")
	errOrderNotFound = errors.New("order not found")
	errNotYourOrder  = errors.New("not your order")
	errInvalidID     = errors.New("invalid id")
)

// getUserID extracts the authenticated user's ID from the echo context.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		if t != 0 {
			return t, nil
		}
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// getOrganizerID extracts the organizer profile ID embedded in the access
// token, zero when the caller is not an organizer.
func getOrganizerID(c echo.Context) uint64 {
	switch t := c.Get("organizer_id").(type) {
	case uint64:
		return t
	case float64:
		return uint64(t)
	}
	return 0
}

// isAdmin reports whether the caller holds the ADMIN role.
func isAdmin(c echo.Context) bool {
	role, _ := c.Get("role").(string)
	return role == "ADMIN"
}

// parseIDParam parses a positive numeric path parameter.
func parseIDParam(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}
