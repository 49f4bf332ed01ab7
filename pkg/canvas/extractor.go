package canvas

import (
	"regexp"
)

// downloadButtonRegex matches the canvas page's download button and captures the
// URL it opens.
var downloadButtonRegex = regexp.MustCompile(`download-button' onclick="window\.open\('(.*?)', '_blank'\)"`)

// Extractor pulls the canvas video URL out of a scraped page. The bool reports
// whether the page had a canvas link at all; a found URL may still be blank.
type Extractor interface {
	Extract(html string) (string, bool)
}

// PatternExtractor extracts the URL with a regular expression whose first group is the URL.
type PatternExtractor struct {
	pattern *regexp.Regexp
}

// NewPatternExtractor returns an extractor for the download button markup.
func NewPatternExtractor() *PatternExtractor {
	return &PatternExtractor{pattern: downloadButtonRegex}
}

func (e *PatternExtractor) Extract(html string) (string, bool) {
	matches := e.pattern.FindStringSubmatch(html)
	if len(matches) < 2 {
		return "", false
	}
	return matches[1], true
}
