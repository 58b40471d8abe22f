package engine

import (
	"github.com/genricoloni/cmusrpc/internal/config"
	"github.com/genricoloni/cmusrpc/internal/domain"
	"github.com/genricoloni/cmusrpc/internal/format"
)

// buttonTemplate holds the unrendered label and URL of one button
type buttonTemplate struct {
	label string
	url   string
}

func (b buttonTemplate) complete() bool {
	return b.label != "" && b.url != ""
}

// resolveButtons promotes the second button's label and URL into the first
// slot when the first one is not configured. The service cannot show a
// second button without a first one.
func resolveButtons(cfg config.Config) [2]buttonTemplate {
	first := buttonTemplate{label: cfg.ButtonOne, url: cfg.ButtonURLOne}
	second := buttonTemplate{label: cfg.ButtonTwo, url: cfg.ButtonURLTwo}

	if first.label == "" {
		first.label, second.label = second.label, ""
	}
	if first.url == "" {
		first.url, second.url = second.url, ""
	}
	return [2]buttonTemplate{first, second}
}

// renderButtons returns no buttons unless the first one is complete
func renderButtons(buttons [2]buttonTemplate, s domain.Status) []domain.Button {
	if !buttons[0].complete() {
		return nil
	}

	var out []domain.Button
	for _, b := range buttons {
		if !b.complete() {
			continue
		}
		out = append(out, domain.Button{
			Label: format.Render(b.label, s),
			URL:   format.Render(b.url, s),
		})
	}
	return out
}
