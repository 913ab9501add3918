package goquery

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/harvest"
	"github.com/kennygrant/sanitize"
)

// FallbackName is the name of the generic extractor.
const FallbackName = "fallback"

var (
	allowedTags  = []string{"strong", "p", "i", "em", "br", "ul", "li", "ol"}
	textTags     = []string{"h1", "h2", "h3", "h4", "h5", "p", "ul", "ol"}
	socialEmbeds = []string{"twitter-tweet", "instagram-media", "tumblr-post", "bf-tweet"}
	bannedImages = []string{"gravatar.com"}
	lineBreaks   = regexp.MustCompile(`\\n|<br\s*/?>`)
)

const (
	instagramScript = `<script async defer src="//platform.instagram.com/en_US/embeds.js"></script>`
	twitterScript   = `<script src="//platform.twitter.com/widgets.js" async="" charset="utf-8"></script>`
	facebookEmbed   = `<div id="fb-root"></div><script>(function(d, s, id) {  var js, fjs = d.getElementsByTagName(s)[0];  if (d.getElementById(id)) return;  js = d.createElement(s); js.id = id;  js.src = "//connect.facebook.net/en_GB/sdk.js#xfbml=1&version=v2.3";  fjs.parentNode.insertBefore(js, fjs);}(document, "script", "facebook-jssdk"));</script><div class="fb-post" data-href="%s" data-width="500"><div class="fb-xfbml-parse-ignore"></div></div>`
)

// NewFallback returns the generic extractor used for pages no domain-specific
// extractor claims. It keeps headings, paragraphs, lists, images, embedded
// video and social embeds. fetcher may be nil when the extractor only serves
// as another extractor's fallback rule set.
func NewFallback(fetcher harvest.Fetcher, opts ...Option) *Extractor {
	base := []Option{
		WithFinal("blockquote", "img"),
		WithRules(
			NewRule([]string{"img"}, fallbackImage),
			NewRule([]string{"iframe"}, fallbackIframe),
			NewRule([]string{"blockquote", ".tumblr-post"}, fallbackQuote),
			NewRule([]string{".fb-post"}, fallbackFacebook),
			NewRule(textTags, fallbackText),
		),
	}
	return NewExtractor(FallbackName, fetcher, append(base, opts...)...)
}

func fallbackImage(node *goquery.Selection, info PageInfo) (harvest.Block, bool) {
	src := imageSource(node)
	if src == "" || strings.HasPrefix(src, "data:") {
		return harvest.Block{}, false
	}
	for _, banned := range bannedImages {
		if strings.Contains(src, banned) {
			return harvest.Block{}, false
		}
	}
	src = resolveAgainst(info.URL, src)
	if strings.Contains(src, "//pixel.") {
		return harvest.Block{}, false
	}
	return harvest.Image(src), true
}

func fallbackIframe(node *goquery.Selection, info PageInfo) (harvest.Block, bool) {
	src := imageSource(node)
	if src == "" {
		return harvest.Block{}, false
	}
	src = resolveAgainst(info.URL, src)
	embed := fmt.Sprintf(`<iframe src="%s" width="100%%" height="400px" frameborder="0" scrolling="no"></iframe>`,
		html.EscapeString(strings.Replace(src, "http:", "https:", 1)))
	return harvest.Block{Type: harvest.BlockHTML, Content: embed, Video: src}, true
}

func fallbackQuote(node *goquery.Selection, _ PageInfo) (harvest.Block, bool) {
	if !hasAnyClass(node, socialEmbeds) {
		inner, err := node.Html()
		if err != nil {
			return harvest.Block{}, false
		}
		text, err := sanitize.HTMLAllowing(inner, allowedTags)
		if err != nil || strings.TrimSpace(text) == "" {
			return harvest.Block{}, false
		}
		return harvest.Text("<blockquote>" + strings.TrimSpace(text) + "</blockquote>"), true
	}

	embed, err := goquery.OuterHtml(node)
	if err != nil {
		return harvest.Block{}, false
	}
	if next := node.Next(); next.Is("script") {
		script, err := goquery.OuterHtml(next)
		if err == nil {
			return harvest.HTML(embed + script), true
		}
	}
	if node.HasClass("instagram-media") {
		return harvest.HTML(embed + instagramScript), true
	}
	embed = strings.Replace(embed, "bf-tweet", "twitter-tweet", 1)
	return harvest.HTML(embed + twitterScript), true
}

func fallbackFacebook(node *goquery.Selection, _ PageInfo) (harvest.Block, bool) {
	href, _ := node.Attr("data-href")
	return harvest.HTML(fmt.Sprintf(facebookEmbed, html.EscapeString(href))), true
}

func fallbackText(node *goquery.Selection, _ PageInfo) (harvest.Block, bool) {
	outer, err := goquery.OuterHtml(node)
	if err != nil {
		return harvest.Block{}, false
	}
	text, err := sanitize.HTMLAllowing(outer, allowedTags)
	if err != nil {
		return harvest.Block{}, false
	}
	text = strings.TrimSpace(lineBreaks.ReplaceAllString(text, ""))
	if text == "" || isEmptyMarkup(text) {
		return harvest.Block{}, false
	}
	if node.Is("h1, h2, h3") {
		text = "<h2>" + text + "</h2>"
	}
	return harvest.Text(text), true
}

// isEmptyMarkup reports whether s holds tags but no text.
func isEmptyMarkup(s string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return false
	}
	return strings.TrimSpace(doc.Text()) == ""
}

func hasAnyClass(node *goquery.Selection, classes []string) bool {
	for _, c := range classes {
		if node.HasClass(c) {
			return true
		}
	}
	return false
}
