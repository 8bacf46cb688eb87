package services

// DefaultPageSize is the fixed number of rows per list page.
const DefaultPageSize = 8

// TotalPages is ceil(total/size); zero items means zero pages.
func TotalPages(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// ClampPage keeps page inside [1, totalPages]; with no pages it is 1.
func ClampPage(page, totalPages int) int {
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return page
}

// PageWindow returns the half-open slice bounds [start, end) of page p.
func PageWindow(page, size, total int) (start, end int) {
	if size <= 0 || total <= 0 || page < 1 {
		return 0, 0
	}
	start = (page - 1) * size
	if start > total {
		start = total
	}
	end = start + size
	if end > total {
		end = total
	}
	return start, end
}
