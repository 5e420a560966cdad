package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quantonganh/newsletter"
)

func TestValidateStep1(t *testing.T) {
	tests := []struct {
		name               string
		first, last, email string
		want               string
	}{
		{"all missing", "", "", "", MsgFirstNameRequired},
		{"blank first name", "  ", "Lee", "ana@example.com", MsgFirstNameRequired},
		{"missing last name", "Ana", "", "", MsgLastNameRequired},
		{"missing email", "Ana", "Lee", " ", MsgEmailRequired},
		{"no at sign", "Ana", "Lee", "ana.example.com", MsgEmailInvalid},
		{"no dot in domain", "Ana", "Lee", "ana@example", MsgEmailInvalid},
		{"inner space", "Ana", "Lee", "an a@example.com", MsgEmailInvalid},
		{"surrounding blanks", "Ana", "Lee", " ana@example.com", MsgEmailInvalid},
		{"no-break space", "Ana", "Lee", "ana\u00a0x@example.com", MsgEmailInvalid},
		{"line separator", "Ana", "Lee", "ana@exa\u2028mple.com", MsgEmailInvalid},
		{"vertical tab", "Ana", "Lee", "ana\vx@example.com", MsgEmailInvalid},
		{"ideographic space", "Ana", "Lee", "ana@example.\u3000com", MsgEmailInvalid},
		{"byte order mark", "Ana", "Lee", "\ufeffana@example.com", MsgEmailInvalid},
		{"non-ascii letters", "Ana", "Lee", "zoë@exämple.com", ""},
		{"valid", "Ana", "Lee", "ana@example.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDraft()
			d = ApplyUpdateField(d, FieldFirstName, tt.first)
			d = ApplyUpdateField(d, FieldLastName, tt.last)
			d = ApplyUpdateField(d, FieldEmail, tt.email)
			assert.Equal(t, tt.want, ValidateStep1(d))
		})
	}
}

func TestValidateStep2(t *testing.T) {
	assert.Equal(t, MsgTagsRequired, ValidateStep2(NewDraft()))
	assert.Equal(t, "", ValidateStep2(draftWithTags("AI")))
}

func TestValidateStep3(t *testing.T) {
	t.Run("simple", func(t *testing.T) {
		d := draftWithTags("AI")
		assert.Equal(t, "", ValidateStep3(d))

		d.SimpleCount = 7
		assert.Equal(t, MsgSimpleCount, ValidateStep3(d))
	})

	t.Run("per topic totals", func(t *testing.T) {
		tests := []struct {
			ai, react int
			want      string
		}{
			{0, 0, MsgTopicTotalZero},
			{1, 0, MsgTopicTotalStep},
			{2, 2, MsgTopicTotalStep},
			{4, 3, MsgTopicTotalStep},
			{3, 2, ""},
			{5, 5, ""},
		}

		for _, tt := range tests {
			d := draftWithTags("AI", "React", "DevOps")
			d = ApplySetArticleMode(d, newsletter.ModePerTopic)
			d = ApplySetTopicCount(d, "AI", tt.ai)
			d = ApplySetTopicCount(d, "React", tt.react)
			assert.Equal(t, tt.want, ValidateStep3(d), "AI=%d React=%d", tt.ai, tt.react)
		}
	})

	t.Run("per topic total of fifteen", func(t *testing.T) {
		d := draftWithTags("AI", "React", "DevOps")
		d = ApplySetArticleMode(d, newsletter.ModePerTopic)
		for _, tag := range d.Tags {
			d = ApplySetTopicCount(d, tag, 5)
		}
		assert.Equal(t, 15, d.TopicTotal())
		assert.True(t, d.TopicValid())
		assert.Equal(t, "", ValidateStep3(d))
	})
}
