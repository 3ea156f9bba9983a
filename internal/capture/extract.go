package capture

import (
	"strings"

	htmlmd "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	"ctalens/internal/feature"
)

// Structure is everything the engine needs from one rendered page:
// raw element records for the feature extractor, the text corpus for
// message-match scoring, and asset counts for the page-speed proxy.
type Structure struct {
	RawElements []feature.RawElement
	Headings    []string
	ButtonTexts []string
	TextContent string

	ImageCount       int
	ScriptCount      int
	LazyLoadedImages int
}

// ExtractStructure walks a rendered page's HTML and builds the raw
// structural records. Geometry and visibility are filled in separately
// by the browser pass; records produced here carry only DOM-derivable
// attributes.
func ExtractStructure(pageHTML, hostname string) (*Structure, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, err
	}

	s := &Structure{}

	doc.Find("button, input[type=submit], input[type=button]").Each(func(i int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text == "" {
			text = strings.TrimSpace(sel.AttrOr("value", ""))
		}
		s.RawElements = append(s.RawElements, feature.RawElement{
			ID:            sel.AttrOr("id", ""),
			TagName:       "button",
			Text:          text,
			FormAction:    closestFormAction(sel),
			ButtonStyling: true,
		})
		if text != "" {
			s.ButtonTexts = append(s.ButtonTexts, text)
		}
	})

	doc.Find("a[href]").Each(func(i int, sel *goquery.Selection) {
		href := strings.TrimSpace(sel.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}
		text := strings.TrimSpace(sel.Text())
		styled := looksLikeButton(sel)
		s.RawElements = append(s.RawElements, feature.RawElement{
			ID:            sel.AttrOr("id", ""),
			TagName:       "a",
			Text:          text,
			Href:          href,
			ButtonStyling: styled,
		})
		if styled && text != "" {
			s.ButtonTexts = append(s.ButtonTexts, text)
		}
	})

	doc.Find("form").Each(func(i int, sel *goquery.Selection) {
		fields := sel.Find("input:not([type=hidden]):not([type=submit]):not([type=button]), select, textarea")
		required := sel.Find("[required]")
		s.RawElements = append(s.RawElements, feature.RawElement{
			ID:                   sel.AttrOr("id", ""),
			TagName:              "form",
			FormAction:           sel.AttrOr("action", ""),
			FieldCount:           fields.Length(),
			RequiredCount:        required.Length(),
			HasProgressIndicator: sel.Find("progress, .progress, [role=progressbar]").Length() > 0,
		})
	})

	doc.Find("input:not([type=hidden]):not([type=submit]):not([type=button]), select, textarea").Each(func(i int, sel *goquery.Selection) {
		_, required := sel.Attr("required")
		s.RawElements = append(s.RawElements, feature.RawElement{
			ID:           sel.AttrOr("id", ""),
			TagName:      goquery.NodeName(sel),
			Type:         sel.AttrOr("type", "text"),
			Required:     required,
			Placeholder:  sel.AttrOr("placeholder", ""),
			Autocomplete: sel.AttrOr("autocomplete", ""),
			Pattern:      sel.AttrOr("pattern", ""),
		})
	})

	doc.Find("h1, h2, h3").Each(func(i int, sel *goquery.Selection) {
		if text := strings.TrimSpace(sel.Text()); text != "" {
			s.Headings = append(s.Headings, text)
		}
	})

	doc.Find("img").Each(func(i int, sel *goquery.Selection) {
		s.ImageCount++
		if strings.EqualFold(sel.AttrOr("loading", ""), "lazy") {
			s.LazyLoadedImages++
		}
	})
	s.ScriptCount = doc.Find("script").Length()

	// The markdown rendition of the body is the text corpus used by the
	// trust and message-match scorers; it strips tags while keeping
	// heading and link text.
	converter := htmlmd.NewConverter(hostname, true, nil)
	if markdown, err := converter.ConvertString(pageHTML); err == nil {
		s.TextContent = markdown
	} else {
		s.TextContent = doc.Text()
	}

	return s, nil
}

// looksLikeButton reports whether an anchor is styled as a button.
func looksLikeButton(sel *goquery.Selection) bool {
	class := strings.ToLower(sel.AttrOr("class", ""))
	if strings.Contains(class, "btn") || strings.Contains(class, "button") || strings.Contains(class, "cta") {
		return true
	}
	return sel.AttrOr("role", "") == "button"
}

// closestFormAction finds the action of the form a submit control
// belongs to, if any.
func closestFormAction(sel *goquery.Selection) string {
	form := sel.Closest("form")
	if form.Length() == 0 {
		return ""
	}
	return form.AttrOr("action", "")
}
