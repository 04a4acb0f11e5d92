package linkstash

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/linkstash/linkstash/models"
)

// noiseSelectors are removed from the working document before text
// extraction. They contribute navigation chrome, ads and scripts, not
// content.
var noiseSelectors = []string{
	"script", "style", "noscript", "nav", "footer", "header", "aside",
	"[role=banner]", "[role=navigation]", "[role=complementary]",
	".sidebar", "#sidebar", ".nav", ".menu", ".ad", ".ads", ".advert",
	".advertisement", ".promo", ".banner", ".cookie", ".newsletter",
}

// contentSelectors identify the main content container, tried in order.
var contentSelectors = []string{
	"main", "article", "#content", ".content", "#main", ".main-content",
	".post", ".post-content", ".entry-content", ".article-body",
}

// textNodeSelector lists the elements whose text is collected from the
// content container.
const textNodeSelector = "p, h1, h2, h3, h4, h5, h6, li, blockquote, span, div"

// blockSelector is the subset of textNodeSelector that is always collected.
// span and div are only collected when they contain no other text node, so
// wrapper containers do not duplicate the text of their children.
const blockSelector = "p, h1, h2, h3, h4, h5, h6, li, blockquote"

// minFragmentLen filters residual nav fragments: any collected node whose
// trimmed text is this long or shorter is discarded.
const minFragmentLen = 10

var newlineRuns = regexp.MustCompile(`\s*\n\s*`)

// Extractor derives a title, a representative image and cleaned body text
// from fetched HTML.
type Extractor struct{}

// NewExtractor creates an Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract parses html and pulls out metadata using ordered fallback
// heuristics. Relative URLs are made absolute against base. Malformed HTML
// never produces an error: absent sources yield zero values.
func (e *Extractor) Extract(html string, base *url.URL) models.Metadata {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return models.Metadata{}
	}

	title := extractTitle(doc)
	return models.Metadata{
		Title:    title,
		ImageURL: extractImageURL(doc, base, title),
		Text:     extractText(doc),
	}
}

// extractTitle resolves the page title. First non-empty wins:
// og:title meta, document <title>, first <h1>.
func extractTitle(doc *goquery.Document) string {
	if og, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok {
		if t := strings.TrimSpace(og); t != "" {
			return t
		}
	}
	if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
		return t
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}

// extractImageURL resolves the representative image. First match wins:
// og:image, twitter:image, link[rel=image_src], then the title-relevance
// heuristic. Returns "" when no source is found.
func extractImageURL(doc *goquery.Document, base *url.URL, pageTitle string) string {
	if og, ok := doc.Find(`meta[property="og:image"]`).First().Attr("content"); ok && og != "" {
		return absolutize(base, og)
	}
	if tw, ok := doc.Find(`meta[name="twitter:image"]`).First().Attr("content"); ok && tw != "" {
		return absolutize(base, tw)
	}
	if href, ok := doc.Find(`link[rel="image_src"]`).First().Attr("href"); ok && href != "" {
		return absolutize(base, href)
	}
	return findBestImageByTitleMatch(doc, base, pageTitle)
}

// findBestImageByTitleMatch scores every candidate <img> by how many title
// words appear in its alt/title attributes and keeps the single highest
// scorer. Ties keep the first candidate encountered (strict > comparison),
// and a zero score never wins.
func findBestImageByTitleMatch(doc *goquery.Document, base *url.URL, pageTitle string) string {
	titleWords := strings.Fields(strings.ToLower(pageTitle))
	if len(titleWords) == 0 {
		return ""
	}

	bestImage := ""
	highestScore := 0

	doc.Find("article img, main img, body img").Each(func(_ int, img *goquery.Selection) {
		alt, _ := img.Attr("alt")
		title, _ := img.Attr("title")
		imageText := strings.ToLower(alt + " " + title)

		score := 0
		for _, word := range titleWords {
			if len(word) > 3 && strings.Contains(imageText, word) {
				score++
			}
		}

		if score > highestScore {
			highestScore = score
			src, ok := img.Attr("src")
			if !ok || src == "" {
				src, _ = img.Attr("data-src")
			}
			if src != "" {
				bestImage = absolutize(base, src)
			}
		}
	})

	return bestImage
}

// extractText collects cleaned body text. Noise elements are stripped from
// the working copy, then text is gathered from a semantic main-content
// container when one exists, falling back to the whole body. Fragments of
// minFragmentLen characters or fewer are discarded.
func extractText(doc *goquery.Document) string {
	for _, sel := range noiseSelectors {
		doc.Find(sel).Remove()
	}

	var scope *goquery.Selection
	for _, sel := range contentSelectors {
		if found := doc.Find(sel); found.Length() > 0 {
			scope = found.First()
			break
		}
	}
	if scope == nil {
		scope = doc.Find("body")
	}

	var fragments []string
	scope.Find(textNodeSelector).Each(func(_ int, s *goquery.Selection) {
		if s.Is("span, div") {
			// Wrapper containers would repeat the text of the block
			// elements inside them.
			if s.Find(textNodeSelector).Length() > 0 || s.ParentsFiltered(blockSelector).Length() > 0 {
				return
			}
		}
		text := strings.TrimSpace(s.Text())
		if len(text) > minFragmentLen {
			fragments = append(fragments, text)
		}
	})

	joined := strings.Join(fragments, "\n")
	return strings.TrimSpace(newlineRuns.ReplaceAllString(joined, "\n"))
}

// absolutize resolves ref against base. Already-absolute URLs pass through
// unchanged; unparseable ones yield "".
func absolutize(base *url.URL, ref string) string {
	parsed, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ""
	}
	if parsed.IsAbs() {
		return parsed.String()
	}
	if base == nil {
		return parsed.String()
	}
	return base.ResolveReference(parsed).String()
}
