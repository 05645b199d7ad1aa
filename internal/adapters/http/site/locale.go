package site

import (
	"net/http"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// supported lists the locales numbers can be rendered in. The first entry is
// the fallback.
var supported = []language.Tag{
	language.English,
	language.German,
	language.French,
	language.Spanish,
	language.Italian,
	language.Dutch,
}

var matcher = language.NewMatcher(supported)

// locale picks the best supported language for r from Accept-Language.
func locale(r *http.Request) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	if err != nil || len(tags) == 0 {
		return language.English
	}
	_, idx, _ := matcher.Match(tags...)
	return supported[idx]
}

// printer renders numbers for one request.
type printer struct {
	tag language.Tag
	p   *message.Printer
}

func newPrinter(tag language.Tag) printer {
	return printer{tag: tag, p: message.NewPrinter(tag)}
}

// decimal formats v with two decimals using the locale's separators.
func (p printer) decimal(v float64) string { return p.p.Sprintf("%.2f", v) }

// integer formats v using the locale's grouping.
func (p printer) integer(v int) string { return p.p.Sprintf("%d", v) }

// lang is the value of the html lang attribute.
func (p printer) lang() string {
	base, _ := p.tag.Base()
	return base.String()
}
