// Package fetcher downloads HTML pages through a pluggable backend with a
// realistic browser header set, retry and politeness delays between fetches.
//
// Backends live in sub-packages: colly (plain HTTP) and headless (chromedp).
package fetcher
