package analysis

// Page represents a paginated list of reports with metadata
type Page struct {
	Data       []*AnalysisReport `json:"data"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	Total      int64             `json:"totalItems"`
	TotalPages int               `json:"totalPages"`
}

// NormalizePage applies the default and maximum page size.
func NormalizePage(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

// NewPage fills the derived fields.
func NewPage(data []*AnalysisReport, page, pageSize int, total int64) Page {
	pages := 0
	if pageSize > 0 {
		pages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	if data == nil {
		data = []*AnalysisReport{}
	}
	return Page{Data: data, Page: page, PageSize: pageSize, Total: total, TotalPages: pages}
}
