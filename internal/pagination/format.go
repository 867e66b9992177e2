package pagination

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var reSectionMarker = regexp.MustCompile(`\(\s*(\d+)\s*/\s*(\d+)\s*\)`)

type Format int

const (
	SinglePage Format = iota
	MultiSection
)

func (f Format) String() string {
	if f == MultiSection {
		return "multi-section"
	}

	return "single-page"
}

// Detection is the classification of one rendered page. Current and Total are
// advisory: they come from page text and are never trusted for termination.
type Detection struct {
	Format  Format
	Current int
	Total   int
}

// Detector classifies pages by their chapter title and navigation controls.
type Detector struct {
	TitleSelector string
	NavSelector   string
	AdvanceLabel  string
}

func (d Detector) Detect(doc *goquery.Document) Detection {
	if doc == nil {
		return Classify("", false)
	}

	var title string
	if d.TitleSelector != "" {
		title = doc.Find(d.TitleSelector).First().Text()
	}

	advance := false
	if d.NavSelector != "" && d.AdvanceLabel != "" {
		doc.Find(d.NavSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if strings.Contains(s.Text(), d.AdvanceLabel) {
				advance = true
				return false
			}
			return true
		})
	}

	return Classify(title, advance)
}

// Classify applies the detection rules to already extracted signals.
func Classify(title string, advance bool) Detection {
	if m := reSectionMarker.FindStringSubmatch(title); m != nil {
		cur, err1 := strconv.Atoi(m[1])
		total, err2 := strconv.Atoi(m[2])
		if err1 == nil && err2 == nil && cur > 0 && total > 0 {
			return Detection{Format: MultiSection, Current: cur, Total: total}
		}
	}

	if advance {
		return Detection{Format: MultiSection, Current: 1, Total: 1}
	}

	return Detection{Format: SinglePage, Current: 1, Total: 1}
}
