package notifier

import (
	"github.com/contentpulse/notifykit/pkg/channel"
	"github.com/contentpulse/notifykit/pkg/eventbus"
	"github.com/contentpulse/notifykit/pkg/settings"
	"github.com/contentpulse/notifykit/pkg/template"
)

// ChannelDecision is the fan-out result for one recipient.
type ChannelDecision struct {
	InApp bool
	Push  bool
	Email bool
	SMS   bool
}

// Enabled reports whether the named channel is selected.
func (d ChannelDecision) Enabled(name channel.Name) bool {
	switch name {
	case channel.InApp:
		return d.InApp
	case channel.Push:
		return d.Push
	case channel.Email:
		return d.Email
	case channel.SMS:
		return d.SMS
	}
	return false
}

// DetermineChannels decides the per-channel fan-out for one recipient.
//
// Base eligibility per channel is the user's enabled flag AND the template's
// enabled flag. Quiet hours suppress push and sms for non-critical events.
// A channel configured for digest or off frequency is removed from the
// real-time path. Critical priority is applied last and forces push, email
// and sms back on wherever the template permits the channel; a channel the
// template disables stays off regardless of priority.
func DetermineChannels(priority eventbus.Priority, setting *settings.Setting, isQuietHours bool, tpl *template.Template) ChannelDecision {
	d := ChannelDecision{
		InApp: setting.InApp.Enabled && tpl.InApp.Enabled,
		Push:  setting.Push.Enabled && tpl.Push.Enabled,
		Email: setting.Email.Enabled && tpl.Email.Enabled,
		SMS:   setting.SMS.Enabled && tpl.SMS.Enabled,
	}

	if isQuietHours && priority != eventbus.PriorityCritical {
		d.Push = false
		d.SMS = false
	}

	if setting.Email.Frequency != settings.FrequencyImmediate {
		d.Email = false
	}
	if setting.Push.Frequency != settings.FrequencyImmediate {
		d.Push = false
	}
	if setting.SMS.Frequency != settings.FrequencyImmediate {
		d.SMS = false
	}

	if priority == eventbus.PriorityCritical {
		d.Push = tpl.Push.Enabled
		d.Email = tpl.Email.Enabled
		d.SMS = tpl.SMS.Enabled
	}

	return d
}
