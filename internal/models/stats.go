package models

// Stats is the aggregate snapshot served by the stats endpoint.
type Stats struct {
	TotalPosts       int64 `json:"totalPosts"`
	PublishedPosts   int64 `json:"publishedPosts"`
	DraftPosts       int64 `json:"draftPosts"`
	ArchivedPosts    int64 `json:"archivedPosts"`
	TotalViews       int64 `json:"totalViews"`
	TotalComments    int64 `json:"totalComments"`
	ApprovedComments int64 `json:"approvedComments"`
	RejectComments   int64 `json:"rejectComments"`
	TotalUsers       int64 `json:"totalUsers"`
	AdminCount       int64 `json:"adminCount"`
	UserCount        int64 `json:"userCount"`
}

// Pagination describes one page of a listing.
type Pagination struct {
	Count      int64 `json:"count"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

// Envelope is the success body returned by every endpoint.
type Envelope struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}
