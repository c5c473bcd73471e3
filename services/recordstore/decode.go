package recordstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"wedbook/models"
)

// The store has shipped several response shapes over time: bare arrays,
// {bookings: [...]}, {data: [...]}, string or numeric ids. Decoding accepts all of them.

type bookingRow struct {
	ID           json.RawMessage `json:"id"`
	MongoID      json.RawMessage `json:"_id"`
	BookingID    json.RawMessage `json:"bookingId"`
	VendorID     string          `json:"vendorId"`
	ServiceName  string          `json:"serviceName"`
	EventDate    string          `json:"eventDate"`
	EventDateAlt string          `json:"event_date"`
	Date         string          `json:"date"`
	Status       string          `json:"status"`
	ContactPhone string          `json:"contactPhone"`
}

type listEnvelope struct {
	Bookings          json.RawMessage `json:"bookings"`
	OffDays           json.RawMessage `json:"offDays"`
	OffDaysAlt        json.RawMessage `json:"off_days"`
	Data              json.RawMessage `json:"data"`
	Items             json.RawMessage `json:"items"`
	MaxBookingsPerDay *int            `json:"maxBookingsPerDay"`
	MaxBookingsAlt    *int            `json:"max_bookings_per_day"`
}

type offDayRow struct {
	ID                json.RawMessage `json:"id"`
	VendorID          string          `json:"vendorId"`
	Date              string          `json:"date"`
	OffDate           string          `json:"offDate"`
	RecurrencePattern string          `json:"recurrencePattern"`
	RecurrenceAlt     string          `json:"recurrence_pattern"`
	RecurrenceEnd     string          `json:"recurrenceEnd"`
	Reason            string          `json:"reason"`
	IsActive          *bool           `json:"isActive"`
	IsActiveAlt       *bool           `json:"is_active"`
}

// splitList returns the list part of a response and the envelope, if any.
func splitList(body []byte, keys func(listEnvelope) []json.RawMessage) (json.RawMessage, *listEnvelope, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil, fmt.Errorf("empty body")
	}
	switch trimmed[0] {
	case '[':
		return trimmed, nil, nil
	case '{':
		var env listEnvelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, nil, err
		}
		for _, raw := range keys(env) {
			raw = bytes.TrimSpace(raw)
			if len(raw) > 0 && raw[0] == '[' {
				return raw, &env, nil
			}
			if len(raw) > 0 && raw[0] == '{' {
				// one more level, e.g. {data: {bookings: [...]}}
				if inner, innerEnv, err := splitList(raw, keys); err == nil {
					if innerEnv != nil && env.MaxBookingsPerDay == nil {
						env.MaxBookingsPerDay = innerEnv.MaxBookingsPerDay
					}
					return inner, &env, nil
				}
			}
		}
		return nil, &env, fmt.Errorf("no list field in object")
	default:
		return nil, nil, fmt.Errorf("unexpected leading byte %q", trimmed[0])
	}
}

func decodeVendorBookings(body []byte) (*models.VendorBookings, error) {
	list, env, err := splitList(body, func(e listEnvelope) []json.RawMessage {
		return []json.RawMessage{e.Bookings, e.Data, e.Items}
	})
	if err != nil {
		return nil, err
	}

	var rows []bookingRow
	if err := json.Unmarshal(list, &rows); err != nil {
		return nil, err
	}

	out := &models.VendorBookings{Bookings: make([]models.Booking, 0, len(rows))}
	if env != nil {
		if env.MaxBookingsPerDay != nil {
			out.MaxBookingsPerDay = *env.MaxBookingsPerDay
		} else if env.MaxBookingsAlt != nil {
			out.MaxBookingsPerDay = *env.MaxBookingsAlt
		}
	}
	for _, r := range rows {
		date := normalizeDate(firstNonEmpty(r.EventDate, r.EventDateAlt, r.Date))
		if date == "" {
			// rows without a usable date cannot occupy a day
			continue
		}
		out.Bookings = append(out.Bookings, models.Booking{
			ID:           firstNonEmpty(rawID(r.ID), rawID(r.MongoID), rawID(r.BookingID)),
			VendorID:     r.VendorID,
			ServiceName:  r.ServiceName,
			EventDate:    date,
			Status:       r.Status,
			ContactPhone: r.ContactPhone,
		})
	}
	return out, nil
}

func decodeOffDays(body []byte) ([]models.OffDay, error) {
	list, _, err := splitList(body, func(e listEnvelope) []json.RawMessage {
		return []json.RawMessage{e.OffDays, e.OffDaysAlt, e.Data, e.Items}
	})
	if err != nil {
		return nil, err
	}

	var rows []offDayRow
	if err := json.Unmarshal(list, &rows); err != nil {
		return nil, err
	}

	out := make([]models.OffDay, 0, len(rows))
	for _, r := range rows {
		date := normalizeDate(firstNonEmpty(r.Date, r.OffDate))
		if date == "" {
			continue
		}
		active := true
		if r.IsActive != nil {
			active = *r.IsActive
		} else if r.IsActiveAlt != nil {
			active = *r.IsActiveAlt
		}
		out = append(out, models.OffDay{
			ID:                rawID(r.ID),
			VendorID:          r.VendorID,
			Date:              date,
			RecurrencePattern: firstNonEmpty(r.RecurrencePattern, r.RecurrenceAlt),
			RecurrenceEnd:     normalizeDate(r.RecurrenceEnd),
			Reason:            r.Reason,
			IsActive:          active,
		})
	}
	return out, nil
}

// decodeCreated looks for a booking identifier in the usual places.
func decodeCreated(body []byte) (*models.CreatedBooking, bool) {
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, false
	}

	candidates := []map[string]any{obj}
	for _, key := range []string{"booking", "data"} {
		if inner, ok := obj[key].(map[string]any); ok {
			candidates = append(candidates, inner)
			if nested, ok := inner["booking"].(map[string]any); ok {
				candidates = append(candidates, nested)
			}
		}
	}

	for _, c := range candidates {
		id := anyID(c["id"])
		if id == "" {
			id = anyID(c["_id"])
		}
		if id == "" {
			id = anyID(c["bookingId"])
		}
		if id == "" {
			continue
		}
		status, _ := c["status"].(string)
		if status == "" {
			status, _ = obj["status"].(string)
		}
		if status == "" {
			status = models.BookingPending
		}
		return &models.CreatedBooking{ID: id, Status: status}, true
	}
	return nil, false
}

func anyID(v any) string {
	switch id := v.(type) {
	case string:
		return strings.TrimSpace(id)
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case map[string]any:
		// extended JSON: {"$oid": "..."}
		if oid, ok := id["$oid"].(string); ok {
			return oid
		}
	}
	return ""
}

func rawID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	return anyID(v)
}

// normalizeDate keeps the calendar date of YYYY-MM-DD or longer ISO timestamps.
func normalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < len(models.DateLayout) {
		return ""
	}
	d := s[:len(models.DateLayout)]
	if _, err := models.ParseDate(d); err != nil {
		return ""
	}
	return d
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
