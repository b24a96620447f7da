package htmlsearch

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Extractor tries to pull one image url out of a parsed results page
type Extractor struct {
	Name string
	Fn   func(doc *html.Node) (string, bool)
}

// DefaultExtractors strategies in the order they are tried
var DefaultExtractors = []Extractor{
	{Name: "img_src", Fn: FirstImageSource},
	{Name: "lazy_src", Fn: FirstLazySource},
	{Name: "srcset", Fn: FirstSrcsetCandidate},
	{Name: "script", Fn: ScriptImageURL},
}

// searchEngineDomains image sources containing these point back at a search engine (sprites, icons)
var searchEngineDomains = []string{"google", "bing", "yandex", "yahoo", "ecosia", "brave", "duckduckgo"}

var scriptImagePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\["(https?://[^"]+\.(?:jpg|jpeg|png|gif|svg))"`),
	regexp.MustCompile(`"contentUrl":\s*"(https?://[^"]+\.(?:jpg|jpeg|png|gif|svg))"`),
	regexp.MustCompile(`"url":\s*"(https?://[^"]+\.(?:jpg|jpeg|png|gif|svg))"`),
	regexp.MustCompile(`"thumbnailUrl":\s*"(https?://[^"]+\.(?:jpg|jpeg|png|gif|svg))"`),
}

// Extract runs extractors in order; the first hit wins
func Extract(doc *html.Node, extractors []Extractor) (url, strategy string, ok bool) {
	for _, e := range extractors {
		if u, found := e.Fn(doc); found {
			return u, e.Name, true
		}
	}
	return "", "", false
}

// FirstImageSource first <img src> that is absolute and not hosted by a search engine
func FirstImageSource(doc *html.Node) (string, bool) {
	var found string
	walk(doc, func(n *html.Node) bool {
		if !isElement(n, "img") {
			return true
		}
		src := attr(n, "src")
		if isAbsolute(src) && !fromSearchEngine(src) {
			found = src
			return false
		}
		return true
	})
	return found, found != ""
}

// FirstLazySource first element with an absolute data-src
func FirstLazySource(doc *html.Node) (string, bool) {
	var found string
	walk(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		if src := attr(n, "data-src"); isAbsolute(src) {
			found = src
			return false
		}
		return true
	})
	return found, found != ""
}

// FirstSrcsetCandidate first absolute candidate of any srcset attribute
func FirstSrcsetCandidate(doc *html.Node) (string, bool) {
	var found string
	walk(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		srcset := attr(n, "srcset")
		if srcset == "" {
			return true
		}
		for _, candidate := range strings.Split(srcset, ",") {
			fields := strings.Fields(candidate)
			if len(fields) > 0 && isAbsolute(fields[0]) {
				found = fields[0]
				return false
			}
		}
		return true
	})
	return found, found != ""
}

// ScriptImageURL scans inline scripts for image urls embedded in JSON-like data
func ScriptImageURL(doc *html.Node) (string, bool) {
	var b strings.Builder
	walk(doc, func(n *html.Node) bool {
		if isElement(n, "script") {
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					b.WriteString(c.Data)
				}
			}
		}
		return true
	})

	scripts := b.String()
	if scripts == "" {
		return "", false
	}
	for _, re := range scriptImagePatterns {
		if m := re.FindStringSubmatch(scripts); len(m) > 1 {
			return m[1], true
		}
	}
	return "", false
}

// walk visits nodes in document order until visit returns false
func walk(n *html.Node, visit func(*html.Node) bool) bool {
	if !visit(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, visit) {
			return false
		}
	}
	return true
}

func isElement(n *html.Node, tag string) bool {
	return n.Type == html.ElementNode && n.Data == tag
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

func isAbsolute(u string) bool {
	return strings.HasPrefix(u, "http")
}

func fromSearchEngine(u string) bool {
	for _, d := range searchEngineDomains {
		if strings.Contains(u, d) {
			return true
		}
	}
	return false
}
