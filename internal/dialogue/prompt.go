package dialogue

import (
	"strings"

	"github.com/antoniostano/rin/internal/memory"
	"github.com/antoniostano/rin/internal/policy"
)

const defaultUserLabel = "User"

// buildPrompt renders the persona, the last ContextExchanges exchanges and
// the new utterance as a transcript ending with the assistant's label.
func (o *Orchestrator) buildPrompt(text string) string {
	userLabel := defaultUserLabel
	if owner, ok := o.store.Owner(); ok {
		userLabel = owner
	}

	var lines []string
	if o.opts.ContextExchanges > 0 {
		for _, turn := range o.store.History(2 * o.opts.ContextExchanges) {
			label := userLabel
			if turn.Speaker == memory.SpeakerAssistant {
				label = o.opts.AssistantName
			}
			lines = append(lines, label+": "+turn.Text)
		}
	}
	if o.opts.RedactContext && len(lines) > 0 {
		var redacted int
		lines, redacted = policy.RedactLines(lines)
		if redacted > 0 && o.opts.Metrics != nil {
			o.opts.Metrics.SessionEvents.WithLabelValues("context_redacted").Inc()
		}
	}

	var b strings.Builder
	if persona := strings.TrimSpace(o.opts.Persona); persona != "" {
		b.WriteString(persona)
		b.WriteString("\n\n")
	}
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString(userLabel + ": " + text + "\n")
	b.WriteString(o.opts.AssistantName + ":")
	return b.String()
}
