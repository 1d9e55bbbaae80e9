package books

type CreateBookRequest struct {
	Title         string  `json:"title" validate:"required,max=300"`
	Author        string  `json:"author" validate:"required,max=200"`
	ISBN          string  `json:"isbn" validate:"required,isbn"`
	PublishedYear int     `json:"published_year" validate:"gte=0,lte=2100"`
	Summary       *string `json:"summary,omitempty" validate:"omitempty,max=4000"`
}

type UpdateBookRequest struct {
	Title         *string `json:"title,omitempty" validate:"omitempty,max=300"`
	Author        *string `json:"author,omitempty" validate:"omitempty,max=200"`
	ISBN          *string `json:"isbn,omitempty" validate:"omitempty,isbn"`
	PublishedYear *int    `json:"published_year,omitempty" validate:"omitempty,gte=0,lte=2100"`
	Summary       *string `json:"summary,omitempty" validate:"omitempty,max=4000"`
}

type ListBooksRequest struct {
	Search *string `json:"search,omitempty"`
	Author *string `json:"author,omitempty"`
	Limit  int     `json:"limit" validate:"gte=0,lte=200"`
	Offset int     `json:"offset" validate:"gte=0"`
}
