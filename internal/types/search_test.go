package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeBoards(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"nil", nil, nil},
		{"lowercases and trims", []string{" LinkedIn ", "Indeed"}, []string{"linkedin", "indeed"}},
		{"drops duplicates and blanks", []string{"wttj", "", "WTTJ", "hellowork"}, []string{"wttj", "hellowork"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeBoards(tt.in))
		})
	}
}

func TestSearchParams_WithDefaults(t *testing.T) {
	p := SearchParams{Query: "go", Boards: []string{"ALL"}}.WithDefaults()
	assert.Equal(t, DefaultLimit, p.Limit)
	assert.Equal(t, []string{"all"}, p.Boards)
	assert.True(t, p.AllBoardsRequested())

	p = SearchParams{Query: "go", Limit: 3, Boards: []string{"indeed"}}.WithDefaults()
	assert.Equal(t, 3, p.Limit)
	assert.False(t, p.AllBoardsRequested())
}

func TestSearchParams_AllBoardsRequested(t *testing.T) {
	assert.True(t, SearchParams{}.AllBoardsRequested())
	assert.True(t, SearchParams{Boards: []string{"indeed", AllBoards}}.AllBoardsRequested())
	assert.False(t, SearchParams{Boards: []string{"indeed"}}.AllBoardsRequested())
}

func TestSearchParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		params  SearchParams
		wantErr bool
	}{
		{"valid", SearchParams{Query: "go", Limit: 10}, false},
		{"valid filters", SearchParams{Query: "go", Limit: 10, JobType: JobTypeContract, Experience: ExperienceMidSenior, DatePosted: DatePostedPastDay}, false},
		{"missing query", SearchParams{Limit: 10}, true},
		{"zero limit", SearchParams{Query: "go"}, true},
		{"limit above max", SearchParams{Query: "go", Limit: MaxLimit + 1}, true},
		{"negative offset", SearchParams{Query: "go", Limit: 1, Offset: -1}, true},
		{"negative radius", SearchParams{Query: "go", Limit: 1, Radius: -5}, true},
		{"unknown job type", SearchParams{Query: "go", Limit: 1, JobType: "gig"}, true},
		{"blank board", SearchParams{Query: "go", Limit: 1, Boards: []string{""}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
