package clipper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// maxSourceRunes bounds the text sent to the model.
const maxSourceRunes = 5000

// Source is the recipe text gathered from a page.
type Source struct {
	Title       string
	Description string
	TopComment  string
}

// Empty reports whether nothing usable was found.
func (s Source) Empty() bool {
	return s.Description == "" && s.TopComment == ""
}

func (c *Clipper) fetchSource(ctx context.Context, pageURL string) (Source, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return Source{}, err
	}
	req.Header.Set("Accept-Language", "en-US,en;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Source{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Source{}, fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return Source{}, err
	}
	return parseSource(doc), nil
}

// parseSource reads the title, description and top comment of a video page.
// Pages that are not video pages fall back to their visible body text.
func parseSource(doc *goquery.Document) Source {
	var src Source
	src.Title = firstNonEmpty(
		metaContent(doc, `meta[property="og:title"]`),
		metaContent(doc, `meta[name="title"]`),
		strings.TrimSpace(doc.Find("title").First().Text()),
	)

	var initialData, playerResponse any
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		text := s.Text()
		if initialData == nil {
			initialData = embeddedJSON(text, "ytInitialData")
		}
		if playerResponse == nil {
			playerResponse = embeddedJSON(text, "ytInitialPlayerResponse")
		}
	})

	description, _ := findKey(playerResponse, "shortDescription").(string)
	src.Description = firstNonEmpty(
		description,
		metaContent(doc, `meta[name="description"]`),
		metaContent(doc, `meta[property="og:description"]`),
	)
	if comment := findKey(initialData, "commentRenderer"); comment != nil {
		src.TopComment = runsText(findKey(comment, "contentText"))
	}

	if src.Empty() {
		// Remove noise to save LLM tokens
		doc.Find("script, style, nav, footer, iframe, ads, .ads, #ads").Each(func(_ int, s *goquery.Selection) {
			s.Remove()
		})
		src.Description = strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	}

	src.Title = cleanText(src.Title)
	src.Description = truncate(cleanText(src.Description), maxSourceRunes)
	src.TopComment = truncate(cleanText(src.TopComment), maxSourceRunes)
	return src
}

func metaContent(doc *goquery.Document, selector string) string {
	v, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(v)
}

// embeddedJSON decodes the object assigned to name in an inline script such
// as `var ytInitialData = {...};`.
func embeddedJSON(script, name string) any {
	i := strings.Index(script, name)
	if i < 0 {
		return nil
	}
	rest := script[i+len(name):]
	start := strings.Index(rest, "{")
	if start < 0 {
		return nil
	}
	var v any
	dec := json.NewDecoder(strings.NewReader(rest[start:]))
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	return v
}

// findKey returns the first value stored under key in a decoded JSON tree,
// searching depth first.
func findKey(v any, key string) any {
	switch t := v.(type) {
	case map[string]any:
		if found, ok := t[key]; ok {
			return found
		}
		for _, child := range t {
			if found := findKey(child, key); found != nil {
				return found
			}
		}
	case []any:
		for _, child := range t {
			if found := findKey(child, key); found != nil {
				return found
			}
		}
	}
	return nil
}

// runsText joins a YouTube formatted string ({"runs": [{"text": ...}]}).
func runsText(v any) string {
	m, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	if s, ok := m["simpleText"].(string); ok {
		return s
	}
	runs, _ := m["runs"].([]any)
	var sb strings.Builder
	for _, r := range runs {
		if rm, ok := r.(map[string]any); ok {
			if s, ok := rm["text"].(string); ok {
				sb.WriteString(s)
			}
		}
	}
	return sb.String()
}

// cleanText drops the braille blank YouTube descriptions use as spacing.
func cleanText(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "⠀", ""))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// YouTubeID extracts the video id from watch, shorts and youtu.be links.
func YouTubeID(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if v := u.Query().Get("v"); v != "" {
		return v
	}
	if rest, ok := strings.CutPrefix(u.Path, "/shorts/"); ok {
		id, _, _ := strings.Cut(rest, "/")
		return id
	}
	if strings.HasSuffix(u.Hostname(), "youtu.be") {
		return strings.Trim(u.Path, "/")
	}
	return ""
}
