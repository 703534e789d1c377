package export

import (
	"strconv"
	"time"

	"otwscraper/pkg/models"
)

var csvHeaders = []string{
	"first_name",
	"last_name",
	"full_name",
	"headline",
	"current_company",
	"location",
	"profile_url",
	"is_open_to_work",
	"scraped_at",
}

var sheetHeaders = []interface{}{
	"First Name",
	"Last Name",
	"Full Name",
	"Headline",
	"Current Company",
	"Location",
	"Profile URL",
	"Open to Work",
	"Scraped At",
}

const sheetTimeFormat = "2006-01-02 15:04:05"

func csvRow(r models.ProfileRecord) []string {
	return []string{
		r.FirstName,
		r.LastName,
		r.FullName(),
		r.Headline,
		r.CurrentCompany,
		r.Location,
		r.ProfileURL,
		strconv.FormatBool(r.OpenToWork),
		r.ScrapedAt.Format(time.RFC3339),
	}
}

func sheetRow(r models.ProfileRecord) []interface{} {
	otw := "No"
	if r.OpenToWork {
		otw = "Yes"
	}
	return []interface{}{
		r.FirstName,
		r.LastName,
		r.FullName(),
		r.Headline,
		r.CurrentCompany,
		r.Location,
		r.ProfileURL,
		otw,
		r.ScrapedAt.Format(sheetTimeFormat),
	}
}
