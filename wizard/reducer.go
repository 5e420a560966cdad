package wizard

import (
	"strings"

	"github.com/quantonganh/newsletter"
)

// ApplyUpdateField overwrites one free text field. Nothing is validated here.
func ApplyUpdateField(d Draft, field Field, value string) Draft {
	next := d.clone()
	switch field {
	case FieldFirstName:
		next.FirstName = value
	case FieldLastName:
		next.LastName = value
	case FieldEmail:
		next.Email = value
	case FieldCustomTagInput:
		next.CustomTagInput = value
	}
	return next
}

// ApplyToggleTag removes tag if it is selected, otherwise appends it when
// there is room. Removing a tag always drops its distribution entry.
func ApplyToggleTag(d Draft, tag string) Draft {
	if d.HasTag(tag) {
		next := d.clone()
		next.Tags = next.Tags[:0]
		for _, t := range d.Tags {
			if t != tag {
				next.Tags = append(next.Tags, t)
			}
		}
		delete(next.TopicDistribution, tag)
		return next
	}

	if !d.CanAddTag() {
		return d
	}

	next := d.clone()
	next.Tags = append(next.Tags, tag)
	if next.ArticleMode == newsletter.ModePerTopic {
		if _, ok := next.TopicDistribution[tag]; !ok {
			next.TopicDistribution[tag] = 0
		}
	}
	return next
}

// ApplyAddCustomTag adds raw as a tag after trimming and truncating it. It is
// a no-op when the result is empty, when no more tags fit, or when the tag
// matches a predefined or selected tag ignoring case.
func ApplyAddCustomTag(d Draft, raw string) Draft {
	tag := truncate(strings.TrimSpace(raw), CustomTagMaxLen)
	if tag == "" || !d.CanAddTag() {
		return d
	}

	for _, t := range PredefinedTags {
		if strings.EqualFold(t, tag) {
			return d
		}
	}
	for _, t := range d.Tags {
		if strings.EqualFold(t, tag) {
			return d
		}
	}

	next := d.clone()
	next.Tags = append(next.Tags, tag)
	next.CustomTagInput = ""
	if next.ArticleMode == newsletter.ModePerTopic {
		next.TopicDistribution[tag] = 0
	}
	return next
}

// ApplySetTopicCount sets the per topic count of a selected tag.
func ApplySetTopicCount(d Draft, tag string, count int) Draft {
	if !d.HasTag(tag) || !contains(TopicCountOptions, count) {
		return d
	}

	next := d.clone()
	next.TopicDistribution[tag] = count
	return next
}

// ApplySetArticleMode switches the article mode. Per topic mode needs at
// least two tags. The distribution is neither cleared nor seeded.
func ApplySetArticleMode(d Draft, mode newsletter.ArticleMode) Draft {
	if !mode.Valid() {
		return d
	}
	if mode == newsletter.ModePerTopic && !d.CanUsePerTopic() {
		return d
	}

	next := d.clone()
	next.ArticleMode = mode
	return next
}

// ApplySetSimpleCount sets the simple mode count if it is one of SimpleCounts.
func ApplySetSimpleCount(d Draft, count int) Draft {
	if !contains(SimpleCounts, count) {
		return d
	}

	next := d.clone()
	next.SimpleCount = count
	return next
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
