package wizard

import (
	"regexp"
	"strings"

	"github.com/quantonganh/newsletter"
)

// notSpaceOrAt excludes every character a browser treats as white space:
// ASCII blanks, \v, the Unicode space separators and the BOM.
const notSpaceOrAt = `[^\s\v\p{Z}\x{FEFF}@]`

var emailPattern = regexp.MustCompile(`^` + notSpaceOrAt + `+@` + notSpaceOrAt + `+\.` + notSpaceOrAt + `+$`)

// Validation messages.
const (
	MsgFirstNameRequired = "First name is required."
	MsgLastNameRequired  = "Last name is required."
	MsgEmailRequired     = "Email is required."
	MsgEmailInvalid      = "Please enter a valid email."
	MsgTagsRequired      = "Select at least one topic tag."
	MsgSimpleCount       = "Select articles per newsletter."
	MsgTopicTotalZero    = "Total must be greater than 0."
	MsgTopicTotalStep    = "Total must be a multiple of 5."
)

// ValidateStep1 checks the personal details. Only the first failure is
// reported. An empty string means the step is valid. The email pattern is
// matched against the untrimmed input, so surrounding blanks are rejected.
func ValidateStep1(d Draft) string {
	switch {
	case strings.TrimSpace(d.FirstName) == "":
		return MsgFirstNameRequired
	case strings.TrimSpace(d.LastName) == "":
		return MsgLastNameRequired
	case strings.TrimSpace(d.Email) == "":
		return MsgEmailRequired
	case !emailPattern.MatchString(d.Email):
		return MsgEmailInvalid
	}
	return ""
}

// ValidateStep2 checks that at least one tag is selected.
func ValidateStep2(d Draft) string {
	if len(d.Tags) == 0 {
		return MsgTagsRequired
	}
	return ""
}

// ValidateStep3 checks the article count for the current mode.
func ValidateStep3(d Draft) string {
	if d.ArticleMode == newsletter.ModePerTopic {
		total := d.TopicTotal()
		if total == 0 {
			return MsgTopicTotalZero
		}
		if total%5 != 0 {
			return MsgTopicTotalStep
		}
		return ""
	}

	if !contains(SimpleCounts, d.SimpleCount) {
		return MsgSimpleCount
	}
	return ""
}
