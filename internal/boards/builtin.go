package boards

import (
	"time"

	"github.com/jonathan/jobscout/internal/extract"
	"github.com/jonathan/jobscout/internal/fetch"
	"github.com/jonathan/jobscout/internal/types"
)

// Built-in board names.
const (
	Hellowork = "hellowork"
	LinkedIn  = "linkedin"
	WTTJ      = "wttj"
	Indeed    = "indeed"
)

// HelloworkProfile is the French generalist board hellowork.com.
func HelloworkProfile() Profile {
	card := "li[data-id-storage-target='item']"
	date := extract.TextRule("div[data-cy='publishDate']").WithTransform(extract.RelativeDate)
	return Profile{
		Name:        Hellowork,
		DisplayName: "Hellowork",
		BaseURL:     "https://www.hellowork.com/fr-fr/",
		ListingPath: "emploi/recherche.html",
		DetailPath:  "emplois/" + IDPlaceholder + ".html",
		Rules: Rules{
			Card:        extract.HTMLRule(card),
			ID:          extract.AttrRule(card, "data-id-storage-item-id"),
			Title:       extract.TextRule("h3.tw-inline p:first-of-type"),
			Company:     extract.TextRule("h3.tw-inline p:last-of-type"),
			Location:    extract.TextRule("div[data-cy='localisationCard']"),
			Description: extract.TextRule("div#offer-panel p").WithRange(0, 3),
			DatePosted:  &date,
		},
		Params: QueryParams{
			Query:    "k",
			Location: "l",
			Offset:   "p",
			Radius:   "distance",
		},
		Headers: map[string]string{"Accept-Language": "fr-FR,fr;q=0.9"},
		PreSearch: &fetch.Interaction{
			Steps: []fetch.Step{
				{Action: fetch.ActionClick, Selector: "button#hw-cc-notice-accept-btn", Optional: true},
			},
		},
		OffsetStart: 1,
		OffsetStep:  1,
	}
}

// LinkedInProfile is LinkedIn's public guest job search endpoint, which
// returns bare job cards without a login.
func LinkedInProfile() Profile {
	card := "div.base-search-card"
	date := extract.AttrRule("time[datetime]", "datetime").WithTransform(extract.ISODate)
	return Profile{
		Name:        LinkedIn,
		DisplayName: "LinkedIn",
		BaseURL:     "https://www.linkedin.com/",
		ListingPath: "jobs-guest/jobs/api/seeMoreJobPostings/search",
		DetailPath:  "jobs/view/" + IDPlaceholder,
		Rules: Rules{
			Card:        extract.HTMLRule(card),
			ID:          extract.AttrRule(card, "data-entity-urn").WithTransform(extract.TrailingColonSegment),
			Title:       extract.TextRule("span.sr-only"),
			Company:     extract.TextRule("h4.base-search-card__subtitle"),
			Location:    extract.TextRule("span.job-search-card__location"),
			Description: extract.TextRule("div[class*='show-more-less-html__markup']").WithRange(0, 1),
			DatePosted:  &date,
		},
		Params: QueryParams{
			Query:      "keywords",
			Location:   "location",
			Offset:     "start",
			Radius:     "distance",
			JobType:    "f_JT",
			Experience: "f_E",
			DatePosted: "f_TPR",
		},
		Codes: Codes{
			JobType: map[types.JobType]string{
				types.JobTypeFullTime:   "F",
				types.JobTypePartTime:   "P",
				types.JobTypeContract:   "C",
				types.JobTypeTemporary:  "T",
				types.JobTypeInternship: "I",
				types.JobTypeVolunteer:  "V",
			},
			Experience: map[types.ExperienceLevel]string{
				types.ExperienceInternship: "1",
				types.ExperienceEntry:      "2",
				types.ExperienceAssociate:  "3",
				types.ExperienceMidSenior:  "4",
				types.ExperienceDirector:   "5",
				types.ExperienceExecutive:  "6",
			},
			DatePosted: map[types.DatePosted]string{
				types.DatePostedPastDay:   "r86400",
				types.DatePostedPastWeek:  "r604800",
				types.DatePostedPastMonth: "r2592000",
			},
		},
		OffsetStart: 0,
		OffsetStep:  10,
	}
}

// WTTJProfile is Welcome to the Jungle. Its result list is rendered client
// side and only filled in once the cookie banner is dismissed and a location
// is picked, so it needs the browser fetcher.
func WTTJProfile() Profile {
	card := "li[data-testid='search-results-list-item-wrapper']"
	date := extract.AttrRule("time[datetime]", "datetime").WithTransform(extract.ISODate)
	return Profile{
		Name:        WTTJ,
		DisplayName: "Welcome to the Jungle",
		BaseURL:     "https://www.welcometothejungle.com/fr/",
		ListingPath: "jobs",
		DetailPath:  "jobs/" + IDPlaceholder,
		Rules: Rules{
			Card:        extract.HTMLRule(card),
			ID:          extract.AttrRule("div[data-object-id]", "data-object-id"),
			Title:       extract.TextRule("h4"),
			Company:     extract.TextRule("div[data-testid='job-card-company'] span"),
			Location:    extract.TextRule("p.wui-text span").WithTransform(extract.CollapseWhitespace),
			Description: extract.TextRule("div[data-testid='job-section-description'] p").WithRange(0, 5),
			DatePosted:  &date,
		},
		Params: QueryParams{
			Query:    "query",
			Location: "aroundQuery",
			Offset:   "page",
		},
		Browser: true,
		PreSearch: &fetch.Interaction{
			Steps: []fetch.Step{
				{Action: fetch.ActionClick, Selector: "button#axeptio_btn_dismiss", Optional: true},
				{Action: fetch.ActionClickPoint, X: 600, Y: 190},
				{Action: fetch.ActionPressKey, Key: " "},
				{Action: fetch.ActionClick, Selector: "div[data-testid='place-item-0'] div"},
				{Action: fetch.ActionSleep, Delay: fetch.Duration(2 * time.Second)},
			},
		},
		OffsetStart: 1,
		OffsetStep:  1,
	}
}

// IndeedProfile is indeed.com.
func IndeedProfile() Profile {
	// Older result layouts are kept as fallbacks.
	card := "div.job_seen_beacon, div.jobsearch-SerpJobCard, div[data-jk], div.slider_item, td.resultContent"
	date := extract.TextRule("span[data-testid='myJobsStateDate']").WithTransform(extract.RelativeDate)
	return Profile{
		Name:        Indeed,
		DisplayName: "Indeed",
		BaseURL:     "https://www.indeed.com/",
		ListingPath: "jobs",
		DetailPath:  "viewjob?jk=" + IDPlaceholder,
		Rules: Rules{
			Card:        extract.HTMLRule(card),
			ID:          extract.AttrRule("a[data-jk]", "data-jk"),
			Title:       extract.TextRule("h2.jobTitle span"),
			Company:     extract.TextRule("span[data-testid='company-name']"),
			Location:    extract.TextRule("div[data-testid='text-location']"),
			Description: extract.TextRule("div#jobDescriptionText").WithRange(0, 1),
			DatePosted:  &date,
		},
		Params: QueryParams{
			Query:      "q",
			Location:   "l",
			Offset:     "start",
			Radius:     "radius",
			JobType:    "jt",
			DatePosted: "fromage",
		},
		Codes: Codes{
			JobType: map[types.JobType]string{
				types.JobTypeFullTime:   "fulltime",
				types.JobTypePartTime:   "parttime",
				types.JobTypeContract:   "contract",
				types.JobTypeTemporary:  "temporary",
				types.JobTypeInternship: "internship",
			},
			DatePosted: map[types.DatePosted]string{
				types.DatePostedPastDay:   "1",
				types.DatePostedPastWeek:  "7",
				types.DatePostedPastMonth: "14",
			},
		},
		OffsetStart: 0,
		OffsetStep:  10,
	}
}

// BuiltinProfiles returns the built-in profiles in registry order.
func BuiltinProfiles() []Profile {
	return []Profile{
		HelloworkProfile(),
		LinkedInProfile(),
		WTTJProfile(),
		IndeedProfile(),
	}
}
