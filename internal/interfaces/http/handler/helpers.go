package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

// Date accepts "2006-01-02" or an RFC 3339 timestamp in request bodies.
type Date struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	t, err := parseDateTime(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// Ptr returns nil for a zero date.
func (d *Date) Ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

var errBadDate = errors.New("expected YYYY-MM-DD or RFC 3339 time")

func parseDateTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	return time.Time{}, errBadDate
}

// optionalTimeQuery parses an optional date or timestamp query parameter.
func (h *BaseHandler) optionalTimeQuery(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	t, err := parseDateTime(raw)
	if err != nil {
		h.BadRequest(c, "Invalid "+name+": "+err.Error())
		return nil, false
	}
	return &t, true
}
