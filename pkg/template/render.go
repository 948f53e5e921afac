package template

import "strings"

// substitute replaces every {{key}} marker with its value. Unknown markers
// are left in place so missing data is visible rather than silently blank.
func substitute(s string, vars map[string]string) string {
	if s == "" || len(vars) == 0 {
		return s
	}
	pairs := make([]string, 0, len(vars)*2)
	for key, value := range vars {
		pairs = append(pairs, "{{"+key+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(s)
}

// Render produces a copy of the content with all placeholders substituted,
// including the nested call-to-action block.
func (c Content) Render(vars map[string]string) Content {
	out := Content{
		Title:       substitute(c.Title, vars),
		Message:     substitute(c.Message, vars),
		HTMLMessage: substitute(c.HTMLMessage, vars),
	}
	if c.CallToAction != nil {
		out.CallToAction = &CallToAction{
			Label: substitute(c.CallToAction.Label, vars),
			URL:   substitute(c.CallToAction.URL, vars),
		}
	}
	return out
}
