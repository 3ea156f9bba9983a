package funnel

import (
	"net/url"
	"strings"

	"ctalens/internal/engine"
	"ctalens/internal/model"
)

// ResolveCTATarget resolves the primary CTA's destination against the
// page origin so a funnel's second step can be followed. Relative hrefs
// and form actions resolve against the origin; cross-domain targets are
// rejected with an unresolvable-navigation reason ("manual analysis
// required") rather than silently failing.
func ResolveCTATarget(pageURL string, primary model.PageElement) (string, error) {
	const op = "funnel.ResolveCTATarget"

	base, err := url.Parse(pageURL)
	if err != nil || base.Host == "" {
		return "", engine.InvalidInput(op, "page url is not absolute")
	}

	target := ""
	if primary.Nav != nil {
		target = primary.Nav.Href
		if target == "" {
			target = primary.Nav.FormAction
		}
	}
	if primary.Kind == model.ElementForm && primary.Form != nil && target == "" {
		target = primary.Form.Action
	}
	target = strings.TrimSpace(target)
	if target == "" || strings.HasPrefix(target, "#") || strings.HasPrefix(strings.ToLower(target), "javascript:") {
		return "", engine.UnresolvableNavigation(op, "primary CTA has no followable destination")
	}

	tu, err := url.Parse(target)
	if err != nil {
		return "", engine.UnresolvableNavigation(op, "primary CTA destination is not a valid url")
	}
	resolved := base.ResolveReference(tu)

	if !sameDomain(base.Hostname(), resolved.Hostname()) {
		return "", engine.UnresolvableNavigation(op, "cross-domain CTA target, manual analysis required")
	}
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", engine.UnresolvableNavigation(op, "unsupported scheme "+resolved.Scheme)
	}

	return resolved.String(), nil
}

// sameDomain treats exact host matches and www-prefix variants as one
// domain.
func sameDomain(a, b string) bool {
	a = strings.ToLower(strings.TrimPrefix(a, "www."))
	b = strings.ToLower(strings.TrimPrefix(b, "www."))
	return a == b
}
