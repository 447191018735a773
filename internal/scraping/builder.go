package scraping

import (
	"context"

	"github.com/jonathan/jobscout/internal/types"
)

// SearchBuilder assembles SearchParams fluently:
//
//	res, err := scraping.NewSearch().Query("golang").Location("Lyon").Limit(20).Run(ctx, c)
type SearchBuilder struct {
	params types.SearchParams
}

// NewSearch starts an empty search over all boards.
func NewSearch() *SearchBuilder {
	return &SearchBuilder{}
}

func (b *SearchBuilder) Query(q string) *SearchBuilder {
	b.params.Query = q
	return b
}

func (b *SearchBuilder) Location(l string) *SearchBuilder {
	b.params.Location = l
	return b
}

func (b *SearchBuilder) Limit(n int) *SearchBuilder {
	b.params.Limit = n
	return b
}

func (b *SearchBuilder) Offset(n int) *SearchBuilder {
	b.params.Offset = n
	return b
}

func (b *SearchBuilder) SinglePage() *SearchBuilder {
	b.params.SinglePage = true
	return b
}

// Boards appends board names; "all" or no names searches every board.
func (b *SearchBuilder) Boards(names ...string) *SearchBuilder {
	b.params.Boards = append(b.params.Boards, names...)
	return b
}

func (b *SearchBuilder) Radius(km int) *SearchBuilder {
	b.params.Radius = km
	return b
}

func (b *SearchBuilder) JobType(t types.JobType) *SearchBuilder {
	b.params.JobType = t
	return b
}

func (b *SearchBuilder) Experience(e types.ExperienceLevel) *SearchBuilder {
	b.params.Experience = e
	return b
}

func (b *SearchBuilder) DatePosted(d types.DatePosted) *SearchBuilder {
	b.params.DatePosted = d
	return b
}

// Params returns a copy of the assembled parameters with defaults applied.
func (b *SearchBuilder) Params() types.SearchParams {
	p := b.params
	p.Boards = append([]string(nil), b.params.Boards...)
	return p.WithDefaults()
}

// Run searches with c.
func (b *SearchBuilder) Run(ctx context.Context, c *Coordinator) (*Result, error) {
	return c.Search(ctx, b.Params())
}
