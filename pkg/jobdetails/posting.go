package jobdetails

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Posting is what could be read straight from the page markup.
type Posting struct {
	Title       string
	Company     string
	Location    string
	Description string
}

// Селекторы публичной страницы вакансии LinkedIn; порядок важен.
var (
	descriptionSelectors = []string{
		".show-more-less-html__markup",
		".description__text",
		".jobs-description__content",
		"[data-testid=job-description]",
		"#job-description",
		".job-description",
	}
	titleSelectors    = []string{".top-card-layout__title", ".topcard__title", "h1"}
	companySelectors  = []string{".topcard__org-name-link", ".topcard__flavor a", "[data-testid=company-name]"}
	locationSelectors = []string{".topcard__flavor--bullet", "[data-testid=job-location]"}
)

var reSpaces = regexp.MustCompile(`[ \t]+`)

// ExtractPosting reads a job posting out of HTML. Known job-board markup is
// tried first; otherwise the page is stripped of chrome and its text blocks kept.
func ExtractPosting(html string) Posting {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Posting{}
	}
	p := Posting{
		Title:    firstText(doc, titleSelectors),
		Company:  firstText(doc, companySelectors),
		Location: firstText(doc, locationSelectors),
	}
	for _, sel := range descriptionSelectors {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			if text := blockText(s); text != "" {
				p.Description = text
				return p
			}
		}
	}
	p.Description = genericText(doc)
	return p
}

func firstText(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		if t := clean(doc.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	return ""
}

// blockText keeps paragraph/list structure as newlines.
func blockText(s *goquery.Selection) string {
	var blocks []string
	s.Find("p, li, h2, h3, h4").Each(func(_ int, b *goquery.Selection) {
		if t := clean(b.Text()); t != "" {
			blocks = append(blocks, t)
		}
	})
	if len(blocks) == 0 {
		return clean(s.Text())
	}
	return strings.Join(blocks, "\n")
}

func genericText(doc *goquery.Document) string {
	doc.Find("script, style, nav, header, footer, iframe, noscript, form").Remove()
	doc.Find(".menu, .navigation, .social, .banner, .ads, .cookie, .popup").Remove()
	var blocks []string
	doc.Find("p, li, h1, h2, h3, h4").Each(func(_ int, b *goquery.Selection) {
		if t := clean(b.Text()); t != "" {
			blocks = append(blocks, t)
		}
	})
	if len(blocks) > 0 {
		return strings.Join(blocks, "\n")
	}
	return clean(doc.Find("body").Text())
}

func clean(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(reSpaces.ReplaceAllString(l, " ")); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, " ")
}
