package fetcher

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// minVisibleText is the visible body text, in bytes, under which a page that
// still loads scripts is treated as an unrendered shell.
const minVisibleText = 200

// appRoots are the mount points of the common client-side frameworks.
const appRoots = "#__next, #root, #app, [data-reactroot]"

// LooksScriptRendered reports whether a results page arrived without any
// <table> because its content is built by JavaScript. Such pages need the
// browser backend. Pages that already carry a table are never flagged.
func LooksScriptRendered(body []byte) bool {
	if len(bytes.TrimSpace(body)) == 0 {
		return true
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return false
	}
	if doc.Find("table").Length() > 0 {
		return false
	}
	if doc.Find(appRoots).Length() > 0 {
		return true
	}
	scripts := doc.Find("script").Length()
	doc.Find("script, style, noscript, template").Remove()
	text := strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	if text == "" {
		return true
	}
	return scripts > 0 && len(text) < minVisibleText
}
