package analysis

import (
	"regexp"
	"strings"
)

// sectionRe captures paragraphs that follow headings likely to discuss open
// problems, with a fixed window of trailing characters per match
var sectionRe = regexp.MustCompile(
	`(?i)(?:limitations|future work|conclusion|further work|future directions)[\s\S]{0,1000}`)

// RelevantSections trims a document down to the text proximate to
// limitation / future-work / conclusion headings. Returns "" when no heading
// matches, in which case callers fall back to the whole document.
func RelevantSections(text string) string {
	matches := sectionRe.FindAllString(text, -1)
	if len(matches) == 0 {
		return ""
	}
	return strings.Join(matches, "\n\n")
}
