package types

import (
	"time"

	ierr "github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/errors"
	"github.com/samber/lo"
)

const (
	FilterDefaultLimit = 50
	FilterMaxLimit     = 1000

	OrderDesc = "desc"
	OrderAsc  = "asc"
)

// QueryFilter represents a generic query filter with optional fields
type QueryFilter struct {
	Limit  *int    `json:"limit,omitempty" form:"limit" validate:"omitempty,min=1,max=1000"`
	Offset *int    `json:"offset,omitempty" form:"offset" validate:"omitempty,min=0"`
	Sort   *string `json:"sort,omitempty" form:"sort"`
	Order  *string `json:"order,omitempty" form:"order" validate:"omitempty,oneof=asc desc"`
}

// NewDefaultQueryFilter defines default values for query filters
func NewDefaultQueryFilter() *QueryFilter {
	return &QueryFilter{
		Limit:  lo.ToPtr(FilterDefaultLimit),
		Offset: lo.ToPtr(0),
		Sort:   lo.ToPtr("created_at"),
		Order:  lo.ToPtr(OrderDesc),
	}
}

func (f *QueryFilter) GetLimit() int {
	if f == nil || f.Limit == nil {
		return FilterDefaultLimit
	}
	return *f.Limit
}

func (f *QueryFilter) GetOffset() int {
	if f == nil || f.Offset == nil {
		return 0
	}
	return *f.Offset
}

func (f *QueryFilter) GetSort() string {
	if f == nil || f.Sort == nil {
		return "created_at"
	}
	return *f.Sort
}

func (f *QueryFilter) GetOrder() string {
	if f == nil || f.Order == nil {
		return OrderDesc
	}
	return *f.Order
}

func (f *QueryFilter) Validate() error {
	if f == nil {
		return nil
	}
	if f.Limit != nil && (*f.Limit < 1 || *f.Limit > FilterMaxLimit) {
		return ierr.NewError("limit out of range").
			WithHint("Limit must be between 1 and 1000").
			Mark(ierr.ErrValidation)
	}
	if f.Offset != nil && *f.Offset < 0 {
		return ierr.NewError("offset out of range").
			WithHint("Offset must not be negative").
			Mark(ierr.ErrValidation)
	}
	if f.Order != nil && *f.Order != OrderAsc && *f.Order != OrderDesc {
		return ierr.NewError("invalid order").
			WithHint("Order must be asc or desc").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// RecordFilter narrows record list queries. Soft-deleted records are
// excluded unless IncludeDeleted is set.
type RecordFilter struct {
	*QueryFilter

	Module         Module        `json:"module" form:"module" validate:"required"`
	EntityKey      string        `json:"entity" form:"entity" validate:"required"`
	Status         *RecordStatus `json:"status,omitempty" form:"status"`
	CreatedBy      *string       `json:"created_by,omitempty" form:"created_by"`
	StartTime      *time.Time    `json:"start_time,omitempty" form:"start_time"`
	EndTime        *time.Time    `json:"end_time,omitempty" form:"end_time"`
	Search         *string       `json:"search,omitempty" form:"search"`
	IncludeDeleted bool          `json:"include_deleted,omitempty" form:"include_deleted"`

	// CreatedByIn narrows to a set of creators; set by the service when a
	// scope restricts visibility, never bound from the request
	CreatedByIn []string `json:"-" form:"-"`
}

func (f *RecordFilter) Validate() error {
	if f == nil {
		return ierr.NewError("filter is required").Mark(ierr.ErrValidation)
	}
	if err := f.Module.Validate(); err != nil {
		return ierr.WithError(err).
			WithHint("Unknown module").
			Mark(ierr.ErrValidation)
	}
	if f.EntityKey == "" {
		return ierr.NewError("entity is required").
			WithHint("Entity key must be provided").
			Mark(ierr.ErrValidation)
	}
	if f.Status != nil {
		if err := f.Status.Validate(); err != nil {
			return ierr.WithError(err).
				WithHint("Unknown record status").
				Mark(ierr.ErrValidation)
		}
	}
	if f.StartTime != nil && f.EndTime != nil && f.EndTime.Before(*f.StartTime) {
		return ierr.NewError("invalid time range").
			WithHint("End time must not be before start time").
			Mark(ierr.ErrValidation)
	}
	return f.QueryFilter.Validate()
}

// ActivityFilter narrows activity log queries
type ActivityFilter struct {
	*QueryFilter

	UserID    *string     `json:"user_id,omitempty" form:"user_id"`
	Module    *Module     `json:"module,omitempty" form:"module"`
	EntityKey *string     `json:"entity,omitempty" form:"entity"`
	RecordID  *string     `json:"record_id,omitempty" form:"record_id"`
	Action    *ActionType `json:"action,omitempty" form:"action"`
	StartTime *time.Time  `json:"start_time,omitempty" form:"start_time"`
	EndTime   *time.Time  `json:"end_time,omitempty" form:"end_time"`
}

func (f *ActivityFilter) Validate() error {
	if f == nil {
		return nil
	}
	if f.Module != nil {
		if err := f.Module.Validate(); err != nil {
			return ierr.WithError(err).
				WithHint("Unknown module").
				Mark(ierr.ErrValidation)
		}
	}
	if f.Action != nil {
		if err := f.Action.Validate(); err != nil {
			return ierr.WithError(err).
				WithHint("Unknown action").
				Mark(ierr.ErrValidation)
		}
	}
	return f.QueryFilter.Validate()
}
