package analyses

import (
	"keywordgap-backend/internal/extract"
	"keywordgap-backend/internal/fetch"
	"keywordgap-backend/internal/gapengine"
)

// extractDocument turns a fetched page into the engine's document view.
// Pages that parse to no analyzable text come back as nil.
func extractDocument(page *fetch.Page) *gapengine.ExtractedDocument {
	if page == nil {
		return nil
	}
	pageURL := page.FinalURL
	if pageURL == "" {
		pageURL = page.RequestedURL
	}
	doc, err := extract.Document(pageURL, page.Body, page.ContentType)
	if err != nil {
		return nil
	}
	return doc
}
