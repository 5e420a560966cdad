// Package wizard implements the three step subscription form: the draft
// being edited, the pure reducers that change it, the per step validators
// and the stateful Wizard that gates submission.
package wizard

import "github.com/quantonganh/newsletter"

const (
	// MaxTags is the maximum number of selected topic tags.
	MaxTags = 10
	// CustomTagMaxLen is the maximum length, in runes, of a custom tag.
	CustomTagMaxLen = 30
	// DefaultSimpleCount is the preselected article count in simple mode.
	DefaultSimpleCount = 10
)

// PredefinedTags are offered on step 2 before any custom tag.
var PredefinedTags = []string{
	"AI", "Machine Learning", "JavaScript", "TypeScript", "React", "Node.js",
	"Cloud & AWS", "DevOps", "MLOps", "Generative AI", "Data Engineering",
	"System Design", "Open Source", "Tech Career", "Finance & Markets", "History & Culture",
}

// SimpleCounts are the article counts selectable in simple mode.
var SimpleCounts = []int{5, 10, 15, 20, 25}

// TopicCountOptions are the per tag article counts selectable in per topic mode.
var TopicCountOptions = []int{0, 1, 2, 3, 4, 5}

// Field names a free text field of the draft.
type Field string

const (
	FieldFirstName      Field = "firstName"
	FieldLastName       Field = "lastName"
	FieldEmail          Field = "email"
	FieldCustomTagInput Field = "customTagInput"
)

// Draft is the in-progress, unsubmitted subscription.
type Draft struct {
	FirstName         string
	LastName          string
	Email             string
	CustomTagInput    string
	Tags              []string
	ArticleMode       newsletter.ArticleMode
	SimpleCount       int
	TopicDistribution map[string]int
}

// NewDraft returns a draft with the form defaults.
func NewDraft() Draft {
	return Draft{
		Tags:              []string{},
		ArticleMode:       newsletter.ModeSimple,
		SimpleCount:       DefaultSimpleCount,
		TopicDistribution: map[string]int{},
	}
}

// HasTag reports whether tag is selected. The match is exact.
func (d Draft) HasTag(tag string) bool {
	for _, t := range d.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// CanAddTag reports whether another tag fits.
func (d Draft) CanAddTag() bool {
	return len(d.Tags) < MaxTags
}

// CanUsePerTopic reports whether per topic mode may be selected.
func (d Draft) CanUsePerTopic() bool {
	return len(d.Tags) >= 2
}

// CustomTags returns the selected tags that are not predefined, in order.
func (d Draft) CustomTags() []string {
	var custom []string
	for _, t := range d.Tags {
		if !isPredefined(t) {
			custom = append(custom, t)
		}
	}
	return custom
}

// TopicTotal sums the per topic counts of the selected tags.
func (d Draft) TopicTotal() int {
	total := 0
	for _, t := range d.Tags {
		total += d.TopicDistribution[t]
	}
	return total
}

// TopicValid reports whether the per topic total is positive and a multiple of 5.
func (d Draft) TopicValid() bool {
	total := d.TopicTotal()
	return total > 0 && total%5 == 0
}

// TotalCount is the number of articles per digest for the current mode.
func (d Draft) TotalCount() int {
	if d.ArticleMode == newsletter.ModePerTopic {
		return d.TopicTotal()
	}
	return d.SimpleCount
}

func (d Draft) clone() Draft {
	c := d
	c.Tags = append([]string(nil), d.Tags...)
	c.TopicDistribution = make(map[string]int, len(d.TopicDistribution))
	for k, v := range d.TopicDistribution {
		c.TopicDistribution[k] = v
	}
	return c
}

func isPredefined(tag string) bool {
	for _, t := range PredefinedTags {
		if t == tag {
			return true
		}
	}
	return false
}

func contains(values []int, v int) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
