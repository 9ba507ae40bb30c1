package pipeline

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"catalog-pipeline/internal/models"
)

const (
	seoTitleMaxLen       = 60
	seoTitleBaseLen      = 50
	seoDescriptionMaxLen = 155
	seoDescriptionCutLen = 152
)

var (
	whitespaceRuns = regexp.MustCompile(`\s+`)
	// keep letters, digits, underscore, whitespace, hyphen, comma,
	// ampersand, parentheses and period; drop everything else. \p{L}\p{N}
	// instead of \w so accented titles survive cleaning.
	disallowedChars = regexp.MustCompile(`[^\p{L}\p{N}_\s\-,&().]`)
)

// enrichText normalizes the text fields of a record, generates missing SEO
// metadata and computes the content quality inputs.
func enrichText(r *models.Record) {
	vendor := titleCaseTrimmed(r.Vendor, models.UnknownVendor)
	r.Vendor = &vendor

	category := titleCaseTrimmed(r.Category, models.Uncategorized)
	r.Category = &category

	r.Title = cleanTitle(r.Title)
	r.TitleLength = len([]rune(r.Title))

	if r.SEOTitle == nil || strings.TrimSpace(*r.SEOTitle) == "" {
		seoTitle := generateSEOTitle(r.Title, vendor, category)
		r.SEOTitle = &seoTitle
	}

	bodyText := ""
	if r.BodyHTML != nil {
		bodyText = StripHTML(*r.BodyHTML)
	}
	r.DescriptionLength = len([]rune(bodyText))

	if r.SEODescription == nil || strings.TrimSpace(*r.SEODescription) == "" {
		seoDesc := generateSEODescription(r.Title, vendor, category, bodyText)
		r.SEODescription = &seoDesc
	}

	tags := models.Untagged
	if r.Tags != nil {
		if t := strings.ToLower(strings.TrimSpace(*r.Tags)); t != "" {
			tags = t
		}
	}
	r.Tags = &tags
	if tags == models.Untagged {
		r.TagCount = 0
	} else {
		r.TagCount = len(strings.Split(tags, ","))
	}

	r.HasSEOTitle = *r.SEOTitle != ""
	r.HasSEODescription = *r.SEODescription != ""
	r.HasTags = tags != models.Untagged
	r.HasDescription = r.DescriptionLength > 0

	r.ContentQualityScore = contentQualityScore(r)
}

// contentQualityScore sums the five independent content contributions.
// Always in [0,100].
func contentQualityScore(r *models.Record) int {
	score := 0
	if r.HasSEOTitle {
		score += 25
	}
	if r.HasSEODescription {
		score += 25
	}
	if r.HasTags {
		score += 20
	}
	if r.HasDescription {
		score += 20
	}
	if r.TitleLength >= 30 && r.TitleLength <= 70 {
		score += 10
	}
	return score
}

// cleanTitle trims, collapses whitespace runs and strips characters outside
// the allow-list.
func cleanTitle(title string) string {
	title = strings.TrimSpace(title)
	title = whitespaceRuns.ReplaceAllString(title, " ")
	return disallowedChars.ReplaceAllString(title, "")
}

// generateSEOTitle builds "{title[:50]} - {vendor} | Premium {category}",
// falling back to "{title[:50]} - {vendor}" truncated to 60 characters when
// the full format is too long. Never exceeds 60 characters.
func generateSEOTitle(title, vendor, category string) string {
	base := truncateRunes(title, seoTitleBaseLen)
	full := fmt.Sprintf("%s - %s | Premium %s", base, vendor, category)
	if len([]rune(full)) > seoTitleMaxLen {
		return truncateRunes(fmt.Sprintf("%s - %s", base, vendor), seoTitleMaxLen)
	}
	return full
}

// generateSEODescription builds the meta description from the stripped body
// text, or a generic fallback when the body is too short. Results over 155
// characters are cut to 152 plus an ellipsis.
func generateSEODescription(title, vendor, category, bodyText string) string {
	var desc string
	if len([]rune(bodyText)) > 20 {
		desc = fmt.Sprintf("Shop %s from %s. %s", title, vendor, bodyText)
	} else {
		desc = fmt.Sprintf("Shop %s from %s. Premium %s with free shipping available.", title, vendor, category)
	}
	if len([]rune(desc)) > seoDescriptionMaxLen {
		desc = truncateRunes(desc, seoDescriptionCutLen) + "..."
	}
	return desc
}

// titleCaseTrimmed trims and title-cases an optional string, substituting
// the sentinel for null or blank input.
func titleCaseTrimmed(value *string, sentinel string) string {
	if value == nil {
		return sentinel
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return sentinel
	}
	return titleCase(v)
}

// titleCase uppercases the first letter of every space-separated word and
// lowercases the rest.
func titleCase(s string) string {
	words := strings.Split(s, " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		runes := []rune(strings.ToLower(w))
		runes[0] = []rune(strings.ToUpper(string(runes[0])))[0]
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// StripHTML converts an HTML fragment to plain text. Malformed markup never
// errors; the tolerant parser recovers, and standard character entities are
// decoded.
func StripHTML(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Text())
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
