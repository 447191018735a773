package boards

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jonathan/jobscout/internal/extract"
	"github.com/jonathan/jobscout/internal/schemas"
	"github.com/jonathan/jobscout/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_RegistryOrder(t *testing.T) {
	r := Default()
	assert.Equal(t, []string{Hellowork, LinkedIn, WTTJ, Indeed}, r.Names())
	assert.Len(t, r.Sources(), 4)
	assert.Same(t, r, Default())
}

func TestRegistry_Lookup(t *testing.T) {
	r := Default()

	s, ok := r.Lookup(" LinkedIn ")
	require.True(t, ok)
	assert.Equal(t, LinkedIn, s.Name())

	_, ok = r.Lookup("monster")
	assert.False(t, ok)
}

func TestRegistry_Unknown(t *testing.T) {
	assert.Equal(t, []string{"dice", "monster"}, Default().Unknown([]string{"monster", "indeed", "dice"}))
	assert.Empty(t, Default().Unknown([]string{"indeed"}))
}

func TestNewRegistry_RejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(MustNew(LinkedInProfile()), MustNew(LinkedInProfile()))
	assert.Error(t, err)
}

func TestRegistry_WithOverridesAndAppends(t *testing.T) {
	override := LinkedInProfile()
	override.DisplayName = "LinkedIn (custom)"

	extra := IndeedProfile()
	extra.Name = "indeed_fr"
	extra.BaseURL = "https://fr.indeed.com/"

	base := Default()
	r := base.With(MustNew(override), MustNew(extra))

	assert.Equal(t, []string{Hellowork, LinkedIn, WTTJ, Indeed, "indeed_fr"}, r.Names())
	s, _ := r.Lookup(LinkedIn)
	assert.Equal(t, "LinkedIn (custom)", s.(*Board).Profile().Label())

	// The original registry is untouched
	assert.Len(t, base.Names(), 4)
	s, _ = base.Lookup(LinkedIn)
	assert.Equal(t, "LinkedIn", s.(*Board).Profile().Label())
}

const profilesJSON = `{
  "profiles": [
    {
      "name": "acme",
      "base_url": "https://jobs.acme.test/",
      "listing_path": "search",
      "detail_path": "job/{id}",
      "rules": {
        "card": {"selector": "article.job", "returns": "html"},
        "id": {"selector": "article.job", "returns": "attribute", "attr": "data-id"},
        "title": {"selector": "h2"},
        "company": {"selector": ".company"},
        "location": {"selector": ".city", "transform": "collapse_whitespace"},
        "description": {"selector": "#desc p", "range": {"start": 0, "end": 3}},
        "date_posted": {"selector": "time", "returns": "attribute", "attr": "datetime", "transform": "iso_date"}
      },
      "params": {"query": "q", "location": "where", "offset": "page"},
      "pre_search": {"steps": [{"action": "click", "selector": "#consent", "optional": true}], "settle": "500ms"},
      "offset_start": 1
    }
  ]
}`

const profilesYAML = `
profiles:
  - name: acme
    base_url: https://jobs.acme.test/
    listing_path: search
    detail_path: job/{id}
    rules:
      card: {selector: article.job, returns: html}
      id: {selector: article.job, returns: attribute, attr: data-id}
      title: {selector: h2}
      company: {selector: .company}
      location: {selector: .city}
      description: {selector: "#desc p", range: {start: 0, end: 3}}
    params:
      query: q
      offset: page
    pre_search:
      steps:
        - {action: sleep, delay: 250}
`

func TestParse_JSON(t *testing.T) {
	boards, err := Parse([]byte(profilesJSON), ".json")
	require.NoError(t, err)
	require.Len(t, boards, 1)

	b := boards[0]
	assert.Equal(t, "acme", b.Name())
	rules := b.Rules()
	assert.Equal(t, extract.Attribute, rules.ID.Returns)
	assert.Equal(t, extract.CollapseWhitespace, rules.Location.Transform)
	require.NotNil(t, rules.DatePosted)
	assert.Equal(t, extract.ISODate, rules.DatePosted.Transform)
	require.NotNil(t, b.PreSearch())
	assert.True(t, b.PreSearch().Steps[0].Optional)

	u, err := b.ListingURL(searchParams("go"), 0)
	require.NoError(t, err)
	assert.Equal(t, "https://jobs.acme.test/search?page=1&q=go", u)
}

func TestParse_YAML(t *testing.T) {
	boards, err := Parse([]byte(profilesYAML), ".yml")
	require.NoError(t, err)
	require.Len(t, boards, 1)
	assert.Equal(t, "acme", boards[0].Name())
	assert.Equal(t, extract.HTML, boards[0].Rules().Card.Returns)
	assert.Nil(t, boards[0].Rules().DatePosted)

	detail, err := boards[0].DetailURL("42")
	require.NoError(t, err)
	assert.Equal(t, "https://jobs.acme.test/job/42", detail)
}

func TestParse_SchemaViolation(t *testing.T) {
	_, err := Parse([]byte(`{"profiles": [{"name": "Acme"}]}`), ".json")
	require.Error(t, err)

	var validationErr *schemas.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestParse_BadSelectorIsReportedAtLoad(t *testing.T) {
	broken := []byte(`{"profiles": [{
		"name": "acme", "base_url": "https://jobs.acme.test/", "listing_path": "s", "detail_path": "j/{id}",
		"rules": {"card": {"selector": "article["}, "id": {"selector": "a"}, "title": {"selector": "h2"},
			"company": {"selector": "b"}, "location": {"selector": "c"}, "description": {"selector": "d"}},
		"params": {"query": "q"}
	}]}`)

	_, err := Parse(broken, ".json")
	require.Error(t, err)

	var selErr *extract.SelectorError
	assert.ErrorAs(t, err, &selErr)
}

func TestParse_DuplicateProfiles(t *testing.T) {
	doc := []byte(`{"profiles": [` + profileEntry + `,` + profileEntry + `]}`)
	_, err := Parse(doc, ".json")
	assert.ErrorContains(t, err, "duplicate")
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "boards.yaml")
	require.NoError(t, os.WriteFile(path, []byte(profilesYAML), 0o644))

	boards, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, Sources(boards), 1)

	_, err = LoadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

const profileEntry = `{
	"name": "acme", "base_url": "https://jobs.acme.test/", "listing_path": "s", "detail_path": "j/{id}",
	"rules": {"card": {"selector": "article"}, "id": {"selector": "a"}, "title": {"selector": "h2"},
		"company": {"selector": "b"}, "location": {"selector": "c"}, "description": {"selector": "d"}},
	"params": {"query": "q"}
}`

func searchParams(query string) types.SearchParams {
	return types.SearchParams{Query: query}
}
