package service

// Page is the normalized pagination input shared by list operations.
type Page struct {
	Page  int32 `query:"page"`
	Limit int32 `query:"limit"`
}

// PageMeta accompanies every list response.
type PageMeta struct {
	Page      int32 `json:"page"`
	Limit     int32 `json:"limit"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"totalPage"`
}

func (p Page) normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 20
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	return p
}

func (p Page) offset() int32 {
	return (p.Page - 1) * p.Limit
}

func (p Page) meta(total int64) *PageMeta {
	totalPage := total / int64(p.Limit)
	if total%int64(p.Limit) != 0 {
		totalPage++
	}
	return &PageMeta{
		Page:      p.Page,
		Limit:     p.Limit,
		Total:     total,
		TotalPage: totalPage,
	}
}
