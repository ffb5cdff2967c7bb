package scraper

import (
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"nest-hub/internal/models"
	"nest-hub/internal/utils"
)

// Selectors for the listing tiles on the opportunities page.
const (
	itemSelector       = "app-competition-listing, app-featured-opportunity-tile"
	contentSelector    = ".content"
	titleSelector      = ".opp-title h2.double-wrap"
	organizerSelector  = "p"
	typeSelector       = ".tag-container .un_tag .tag-text"
	registeredSelector = ".other_fields .seperate_box:first-child"
	daysLeftSelector   = ".other_fields .seperate_box:nth-child(2)"
	skillSelector      = ".skills .skill_list .chip_text"
	imageSelector      = ".img img"
)

var firstNumber = regexp.MustCompile(`\d+`)

// Parse extracts listings from an opportunities page. Tiles without a content
// block are ignored; tiles without a title are returned with an empty Title so
// the caller can count them as skipped.
func Parse(r io.Reader, base *url.URL) ([]models.Opportunity, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	var out []models.Opportunity
	doc.Find(itemSelector).Each(func(_ int, item *goquery.Selection) {
		content := item.Find(contentSelector).First()
		if content.Length() == 0 {
			return
		}

		opp := models.Opportunity{
			Title:      text(content.Find(titleSelector).First()),
			Organizer:  text(content.Find(organizerSelector).First()),
			Type:       text(content.Find(typeSelector).First()),
			Registered: number(text(item.Find(registeredSelector).First())),
			DaysLeft:   number(text(item.Find(daysLeftSelector).First())),
			Skills:     []string{},
		}
		item.Find(skillSelector).Each(func(_ int, chip *goquery.Selection) {
			if skill := text(chip); skill != "" {
				opp.Skills = append(opp.Skills, skill)
			}
		})
		if src, ok := item.Find(imageSelector).First().Attr("src"); ok {
			opp.Image = resolve(base, src)
		}
		out = append(out, opp)
	})
	return out, nil
}

// text returns the visible text of sel with whitespace collapsed.
func text(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	html, err := sel.Html()
	if err != nil {
		return strings.Join(strings.Fields(sel.Text()), " ")
	}
	return strings.Join(strings.Fields(utils.StripHTML(html)), " ")
}

func number(s string) int {
	m := firstNumber.FindString(s)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

func resolve(base *url.URL, src string) string {
	src = strings.TrimSpace(src)
	if base == nil || src == "" {
		return src
	}
	ref, err := url.Parse(src)
	if err != nil {
		return src
	}
	return base.ResolveReference(ref).String()
}
