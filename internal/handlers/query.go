package handlers

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/savingapp/internal/apperrors"
	"github.com/nkiryanov/savingapp/internal/models"
)

const dateLayout = time.DateOnly

// Read 'page' and 'pageSize'. Missing values are defaults, out of range ones are clamped
func pageParam(q url.Values) (models.PageRequest, error) {
	var (
		p   models.PageRequest
		err error
	)
	if p.Page, err = intParam(q, "page"); err != nil {
		return p, err
	}
	if p.Size, err = intParam(q, "pageSize"); err != nil {
		return p, err
	}
	return p.Normalize(), nil
}

func intParam(q url.Values, name string) (int, error) {
	v := q.Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &paramError{Name: name, Value: v}
	}
	return n, nil
}

// 'sortDirection' is asc (default) or desc
func descParam(q url.Values) (bool, error) {
	switch strings.ToLower(q.Get("sortDirection")) {
	case "", "asc":
		return false, nil
	case "desc":
		return true, nil
	default:
		return false, apperrors.ErrSortInvalid
	}
}

// Date in YYYY-MM-DD format as UTC midnight.
// With endOfDay the last moment of the date is returned, so the bound includes the whole day
func dateParam(q url.Values, name string, endOfDay bool) (*time.Time, error) {
	v := q.Get(name)
	if v == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, v, time.UTC)
	if err != nil {
		return nil, &paramError{Name: name, Value: v}
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Microsecond)
	}
	return &t, nil
}

func boolParam(q url.Values, name string) (*bool, error) {
	v := q.Get(name)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, &paramError{Name: name, Value: v}
	}
	return &b, nil
}

func uuidParam(q url.Values, name string) (*uuid.UUID, error) {
	v := q.Get(name)
	if v == "" {
		return nil, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return nil, &paramError{Name: name, Value: v}
	}
	return &id, nil
}
