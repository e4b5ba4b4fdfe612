package paging

// PageState is the position of one request within the result set.
type PageState struct {
	Page    int
	PerPage int
	Total   int
	// LastPage is never below 1, even for an empty result set.
	LastPage int
}

// NewPageState derives the state for page out of total entries split into
// pages of perPage. perPage has to be positive.
func NewPageState(page, perPage, total int) PageState {
	return PageState{
		Page:     page,
		PerPage:  perPage,
		Total:    total,
		LastPage: max(1, pageCount(total, perPage)),
	}
}

// pageCount is ceil(total/perPage); 0 for an empty result set. It does not
// overflow for totals close to math.MaxInt.
func pageCount(total, perPage int) int {
	if total <= 0 {
		return 0
	}
	return (total-1)/perPage + 1
}

// Offset is the index of the first entry on the page.
func (s PageState) Offset() int {
	return (s.Page - 1) * s.PerPage
}

// HasPrev reports whether a previous page exists. Pages past the end have
// none, so out-of-range requests only navigate through first and last.
func (s PageState) HasPrev() bool {
	return s.Page > 1 && s.Page <= pageCount(s.Total, s.PerPage)
}

// HasNext reports whether a following page exists.
func (s PageState) HasNext() bool {
	return s.Page >= 1 && s.Page < pageCount(s.Total, s.PerPage)
}
