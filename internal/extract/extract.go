// Package extract turns a downloaded HTML page into the structural
// document view the analysis engine consumes.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"keywordgap-backend/internal/gapengine"
)

var ErrEmptyPage = errors.New("extract: empty page body")

var whitespaceRe = regexp.MustCompile(`\s+`)

// boilerplate selectors removed before text collection.
const strippedSelectors = "script,noscript,style,nav,footer,header,aside,form,iframe"

// pathExtensions are trailing file extensions dropped from URL slug tokens.
var pathExtensions = map[string]bool{
	"html": true, "htm": true, "php": true, "asp": true, "aspx": true, "jsp": true,
}

// Document parses one HTML payload into an ExtractedDocument. The body
// is decoded to UTF-8 first using the response content type and byte
// sniffing, so non-Latin pages survive intact.
func Document(pageURL string, body []byte, contentType string) (*gapengine.ExtractedDocument, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmptyPage
	}

	utf8Body, err := decodeToUTF8(body, contentType)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", pageURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(utf8Body))
	if err != nil {
		return nil, fmt.Errorf("extract %s: parse: %w", pageURL, err)
	}

	doc.Find(strippedSelectors).Each(func(_ int, s *goquery.Selection) {
		s.Remove()
	})

	title := collapse(doc.Find("title").First().Text())
	meta := collapse(doc.Find(`meta[name="description"]`).AttrOr("content", ""))
	if meta == "" {
		meta = collapse(doc.Find(`meta[property="og:description"]`).AttrOr("content", ""))
	}

	var headings []gapengine.Heading
	doc.Find("h1,h2,h3,h4,h5,h6").Each(func(_ int, s *goquery.Selection) {
		text := collapse(s.Text())
		if text == "" {
			return
		}
		headings = append(headings, gapengine.Heading{
			Level: headingLevel(goquery.NodeName(s)),
			Text:  text,
		})
	})

	var parts []string
	doc.Find("p,li,td,blockquote").Each(func(_ int, s *goquery.Selection) {
		if t := collapse(s.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	bodyText := strings.Join(parts, " ")
	if bodyText == "" {
		// Pages without semantic markup still carry text.
		bodyText = collapse(doc.Find("body").Text())
	}

	return &gapengine.ExtractedDocument{
		URL:             pageURL,
		Title:           title,
		MetaDescription: meta,
		Headings:        headings,
		Body:            bodyText,
		PathTokens:      PathTokens(pageURL),
	}, nil
}

// PathTokens splits a URL path into slug words, dropping file extensions
// and empty segments. Query strings and fragments carry no slug signal
// and are ignored.
func PathTokens(rawURL string) []string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	var tokens []string
	for _, segment := range strings.Split(u.Path, "/") {
		for _, token := range strings.FieldsFunc(segment, func(r rune) bool {
			return r == '-' || r == '_' || r == '.' || r == '~'
		}) {
			token = strings.ToLower(token)
			if token == "" || pathExtensions[token] {
				continue
			}
			tokens = append(tokens, token)
		}
	}
	return tokens
}

func decodeToUTF8(data []byte, contentType string) ([]byte, error) {
	enc, _, _ := charset.DetermineEncoding(data, contentType)
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		if utf8.Valid(data) {
			return data, nil
		}
		return nil, err
	}
	return decoded, nil
}

func collapse(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}
