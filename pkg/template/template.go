package template

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
)

// DefaultLanguage is the fallback content language.
const DefaultLanguage = "en"

// CallToAction is an optional nested action block inside a content entry.
// Its fields participate in placeholder substitution like any other string.
type CallToAction struct {
	Label string `bson:"label"           json:"label"           yaml:"label"`
	URL   string `bson:"url"             json:"url"             yaml:"url"`
}

// Content is the rendered unit for one channel in one language.
type Content struct {
	Title        string        `bson:"title"                    json:"title"                    yaml:"title"`
	Message      string        `bson:"message"                  json:"message"                  yaml:"message"`
	HTMLMessage  string        `bson:"html_message,omitempty"   json:"htmlMessage,omitempty"    yaml:"htmlMessage,omitempty"`
	CallToAction *CallToAction `bson:"call_to_action,omitempty" json:"callToAction,omitempty"   yaml:"callToAction,omitempty"`
}

// Channel is one channel's slice of a template: whether the template permits
// the channel at all, and its content per language tag.
type Channel struct {
	Enabled bool               `bson:"enabled" json:"enabled" yaml:"enabled"`
	Content map[string]Content `bson:"content" json:"content" yaml:"content"`
}

// Metadata carries delivery hints attached to a template.
type Metadata struct {
	DefaultPriority string        `bson:"default_priority,omitempty" json:"defaultPriority,omitempty" yaml:"defaultPriority,omitempty"`
	Category        string        `bson:"category,omitempty"         json:"category,omitempty"        yaml:"category,omitempty"`
	TTL             time.Duration `bson:"ttl,omitempty"              json:"ttl,omitempty"             yaml:"ttl,omitempty"`
}

// Template is a per-event-type content definition. Exactly one template
// exists per id; lookup is by id, not event type.
type Template struct {
	ID        string    `bson:"_id"        json:"templateId" yaml:"templateId"`
	EventType string    `bson:"event_type" json:"eventType"  yaml:"eventType"`
	Active    bool      `bson:"active"     json:"active"     yaml:"active"`
	InApp     Channel   `bson:"in_app"     json:"inApp"      yaml:"inApp"`
	Push      Channel   `bson:"push"       json:"push"       yaml:"push"`
	Email     Channel   `bson:"email"      json:"email"      yaml:"email"`
	SMS       Channel   `bson:"sms"        json:"sms"        yaml:"sms"`
	Metadata  Metadata  `bson:"metadata"   json:"metadata"   yaml:"metadata"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"  yaml:"-"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"  yaml:"-"`
}

// Validate checks the structural invariants of a template.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("%w: missing template id", ErrTemplateInvalid)
	}
	if t.EventType == "" {
		return fmt.Errorf("%w: template %q has no event type", ErrTemplateInvalid, t.ID)
	}
	for name, ch := range map[string]Channel{
		"inApp": t.InApp,
		"push":  t.Push,
		"email": t.Email,
		"sms":   t.SMS,
	} {
		if ch.Enabled && len(ch.Content) == 0 {
			return fmt.Errorf("%w: channel %s of template %q", ErrContentMissing, name, t.ID)
		}
	}
	return nil
}

// ContentFor selects the channel content for the requested language. An
// exact key match wins; otherwise the request is matched against the
// available tags, and English is the final fallback. The second return is
// false when the channel has no content at all.
func (c Channel) ContentFor(lang string) (Content, bool) {
	if len(c.Content) == 0 {
		return Content{}, false
	}
	if content, ok := c.Content[lang]; ok {
		return content, true
	}

	keys := make([]string, 0, len(c.Content))
	tags := make([]language.Tag, 0, len(c.Content))
	for key := range c.Content {
		tag, err := language.Parse(key)
		if err != nil {
			continue
		}
		keys = append(keys, key)
		tags = append(tags, tag)
	}

	if requested, err := language.Parse(lang); err == nil && len(tags) > 0 {
		matcher := language.NewMatcher(tags)
		if _, idx, conf := matcher.Match(requested); conf >= language.High {
			return c.Content[keys[idx]], true
		}
	}

	if content, ok := c.Content[DefaultLanguage]; ok {
		return content, true
	}

	// No English block either; hand back any deterministic entry rather
	// than dropping the notification over a localization gap.
	if len(keys) > 0 {
		best := keys[0]
		for _, k := range keys[1:] {
			if k < best {
				best = k
			}
		}
		return c.Content[best], true
	}
	return Content{}, false
}
