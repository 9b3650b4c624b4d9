package handlers

// Pagination carries list paging metadata
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalCount int64 `json:"total_count"`
	TotalPages int   `json:"total_pages"`
}

// ListResponse is the envelope for every paginated list endpoint
type ListResponse struct {
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// MessageResponse is the envelope for mutations that return no entity
type MessageResponse struct {
	Message string `json:"message"`
}
