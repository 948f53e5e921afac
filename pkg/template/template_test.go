package template_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentpulse/notifykit/pkg/template"
)

func enContent(title, message string) map[string]template.Content {
	return map[string]template.Content{
		"en": {Title: title, Message: message},
	}
}

func validTemplate() *template.Template {
	return &template.Template{
		ID:        "new-follower",
		EventType: "user.newFollower",
		Active:    true,
		InApp:     template.Channel{Enabled: true, Content: enContent("New follower", "{{senderName}} started following you")},
		Push:      template.Channel{Enabled: true, Content: enContent("New follower", "{{senderName}} started following you")},
	}
}

func TestContent_Render(t *testing.T) {
	t.Parallel()

	content := template.Content{
		Title:       "Hi {{userName}}",
		Message:     "{{senderName}} commented on {{contentTitle}}",
		HTMLMessage: "<b>{{senderName}}</b> commented",
		CallToAction: &template.CallToAction{
			Label: "View {{contentTitle}}",
			URL:   "https://app.example.com/content/{{contentId}}",
		},
	}

	got := content.Render(map[string]string{
		"userName":     "Bob",
		"senderName":   "Alice",
		"contentTitle": "My Post",
		"contentId":    "c-42",
	})

	assert.Equal(t, "Hi Bob", got.Title)
	assert.Equal(t, "Alice commented on My Post", got.Message)
	assert.Equal(t, "<b>Alice</b> commented", got.HTMLMessage)
	require.NotNil(t, got.CallToAction)
	assert.Equal(t, "View My Post", got.CallToAction.Label)
	assert.Equal(t, "https://app.example.com/content/c-42", got.CallToAction.URL)

	// Original content stays untouched.
	assert.Equal(t, "Hi {{userName}}", content.Title)
	assert.Equal(t, "View {{contentTitle}}", content.CallToAction.Label)
}

func TestContent_RenderLeavesUnknownPlaceholders(t *testing.T) {
	t.Parallel()

	content := template.Content{Message: "{{senderName}} did {{unknownThing}}"}
	got := content.Render(map[string]string{"senderName": "Alice"})
	assert.Equal(t, "Alice did {{unknownThing}}", got.Message)
}

func TestChannel_ContentFor(t *testing.T) {
	t.Parallel()

	ch := template.Channel{
		Enabled: true,
		Content: map[string]template.Content{
			"en": {Title: "english"},
			"es": {Title: "spanish"},
		},
	}

	tests := []struct {
		name string
		lang string
		want string
	}{
		{name: "exact match", lang: "es", want: "spanish"},
		{name: "regional variant matches base", lang: "es-MX", want: "spanish"},
		{name: "unsupported falls back to english", lang: "ja", want: "english"},
		{name: "empty falls back to english", lang: "", want: "english"},
		{name: "garbage tag falls back to english", lang: "not a tag", want: "english"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			content, ok := ch.ContentFor(tt.lang)
			require.True(t, ok)
			assert.Equal(t, tt.want, content.Title)
		})
	}
}

func TestChannel_ContentForNoEnglish(t *testing.T) {
	t.Parallel()

	ch := template.Channel{
		Enabled: true,
		Content: map[string]template.Content{
			"fr": {Title: "french"},
			"de": {Title: "german"},
		},
	}

	// Deterministic pick when neither the request nor English is available.
	content, ok := ch.ContentFor("ja")
	require.True(t, ok)
	assert.Equal(t, "german", content.Title)

	empty := template.Channel{}
	_, ok = empty.ContentFor("en")
	assert.False(t, ok)
}

func TestTemplate_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*template.Template)
		wantErr error
	}{
		{name: "valid", mutate: func(*template.Template) {}},
		{
			name:    "missing id",
			mutate:  func(tpl *template.Template) { tpl.ID = "" },
			wantErr: template.ErrTemplateInvalid,
		},
		{
			name:    "missing event type",
			mutate:  func(tpl *template.Template) { tpl.EventType = "" },
			wantErr: template.ErrTemplateInvalid,
		},
		{
			name:    "enabled channel without content",
			mutate:  func(tpl *template.Template) { tpl.SMS = template.Channel{Enabled: true} },
			wantErr: template.ErrContentMissing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tpl := validTemplate()
			tt.mutate(tpl)

			err := tpl.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestMemoryStore_GetActive(t *testing.T) {
	t.Parallel()

	store := template.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, validTemplate()))

	inactive := validTemplate()
	inactive.ID = "retired"
	inactive.Active = false
	require.NoError(t, store.Put(ctx, inactive))

	got, err := store.GetActive(ctx, "new-follower")
	require.NoError(t, err)
	assert.Equal(t, "user.newFollower", got.EventType)
	assert.False(t, got.UpdatedAt.IsZero())

	_, err = store.GetActive(ctx, "retired")
	assert.ErrorIs(t, err, template.ErrTemplateInactive)

	_, err = store.GetActive(ctx, "nope")
	assert.ErrorIs(t, err, template.ErrTemplateNotFound)
}

const catalogYAML = `
templates:
  - templateId: new-follower
    eventType: user.newFollower
    active: true
    push:
      enabled: true
      content:
        en:
          title: New follower
          message: "{{senderName}} started following you"
          callToAction:
            label: View profile
            url: "https://app.example.com/users/{{userId}}"
        es:
          title: Nuevo seguidor
          message: "{{senderName}} empezó a seguirte"
    metadata:
      defaultPriority: medium
      category: social
      ttl: 72h
  - templateId: content-approved
    eventType: content.approved
    active: true
    email:
      enabled: true
      content:
        en:
          title: Content approved
          message: "{{contentTitle}} was approved"
          htmlMessage: "<p>{{contentTitle}} was approved</p>"
`

func TestLoadCatalog(t *testing.T) {
	t.Parallel()

	templates, err := template.LoadCatalog(strings.NewReader(catalogYAML))
	require.NoError(t, err)
	require.Len(t, templates, 2)

	follower := templates[0]
	assert.Equal(t, "new-follower", follower.ID)
	assert.Equal(t, 72*time.Hour, follower.Metadata.TTL)
	assert.Equal(t, "social", follower.Metadata.Category)

	content, ok := follower.Push.ContentFor("es")
	require.True(t, ok)
	assert.Equal(t, "Nuevo seguidor", content.Title)
	require.NotNil(t, follower.Push.Content["en"].CallToAction)
}

func TestLoadCatalog_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yaml string
	}{
		{name: "not yaml", yaml: "{{{"},
		{name: "empty", yaml: "templates: []"},
		{
			name: "duplicate ids",
			yaml: `
templates:
  - templateId: a
    eventType: x
    active: true
  - templateId: a
    eventType: y
    active: true
`,
		},
		{
			name: "bad ttl",
			yaml: `
templates:
  - templateId: a
    eventType: x
    active: true
    metadata:
      ttl: soon
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := template.LoadCatalog(strings.NewReader(tt.yaml))
			assert.Error(t, err)
		})
	}
}
