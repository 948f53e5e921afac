// Package template defines localized, per-channel notification content.
//
// A Template is keyed by its id and bound to an event type. Each channel
// (in-app, push, email, sms) carries an enabled flag plus content blocks per
// language. Content uses {{placeholder}} markers substituted by literal text
// replacement, applied to every string field including nested call-to-action
// blocks.
//
// Language selection matches the requested tag against the available content
// languages and falls back to English when no acceptable match exists.
//
// Templates can be stored in MongoDB, held in memory for tests, or loaded
// from a YAML catalog shipped alongside the service:
//
//	templates, err := template.LoadCatalogFile("templates.yaml")
//	if err != nil { ... }
//	store := template.NewMemoryStore()
//	for _, tpl := range templates {
//		_ = store.Put(ctx, tpl)
//	}
package template
