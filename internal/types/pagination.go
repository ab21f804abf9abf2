package types

// PaginationResponse describes the window a list call returned
type PaginationResponse struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

// ListResponse is the envelope for every paginated list endpoint
type ListResponse[T any] struct {
	Items      []T                `json:"items"`
	Pagination PaginationResponse `json:"pagination"`
}

// NewListResponse builds the envelope from the items of one page and the
// filter that produced it
func NewListResponse[T any](items []T, total int, filter *QueryFilter) *ListResponse[T] {
	limit := filter.GetLimit()
	offset := filter.GetOffset()
	return &ListResponse[T]{
		Items: items,
		Pagination: PaginationResponse{
			Total:   total,
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(items) < total,
		},
	}
}
