package main

// Run one keyword gap analysis from the command line:
//   go run ./cmd/gapcli -own https://example.com -competitors https://rival-a.com,https://rival-b.com -niche "laser hair removal"

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"keywordgap-backend/internal/extract"
	"keywordgap-backend/internal/fetch"
	"keywordgap-backend/internal/gapengine"
	"keywordgap-backend/internal/shared/config"
)

func main() {
	cfg := config.Load()

	ownURL := flag.String("own", "", "URL of your own page")
	competitors := flag.String("competitors", "", "Comma-separated competitor page URLs")
	industry := flag.String("industry", "", "Business industry")
	niche := flag.String("niche", "", "Business niche")
	services := flag.String("services", "", "Comma-separated services")
	products := flag.String("products", "", "Comma-separated products")
	locations := flag.String("locations", "", "Comma-separated target locations")
	brands := flag.String("brands", "", "Comma-separated brand keywords to skip")
	excluded := flag.String("exclude", "", "Comma-separated keywords to exclude")
	outPath := flag.String("out", "", "Path to write the JSON result (default stdout)")
	timeout := flag.Duration("timeout", 2*time.Minute, "Overall analysis timeout")
	flag.Parse()

	if strings.TrimSpace(*ownURL) == "" {
		exitErr("own page url is required")
	}
	competitorURLs := splitList(*competitors)
	if len(competitorURLs) == 0 {
		exitErr("at least one competitor url is required")
	}

	biz := gapengine.NewBusinessContext(
		*industry,
		*niche,
		splitList(*services),
		splitList(*products),
		splitList(*locations),
		splitList(*brands),
		splitList(*excluded),
	)

	engine, err := gapengine.New(gapengine.DefaultConfig())
	if err != nil {
		exitErr(fmt.Sprintf("engine setup: %v", err))
	}
	client := fetch.NewClient(fetch.Options{
		Timeout:   cfg.FetchTimeout,
		SizeCap:   cfg.FetchSizeCap,
		UserAgent: cfg.FetchUserAgent,
		Delay:     cfg.FetchDelay,
	})

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	ownDoc := &gapengine.ExtractedDocument{URL: *ownURL}
	if page, err := client.Fetch(ctx, *ownURL); err != nil {
		fmt.Fprintf(os.Stderr, "warn: fetch own page: %v\n", err)
		ownDoc = &gapengine.ExtractedDocument{}
	} else if doc := documentFromPage(page); doc != nil {
		ownDoc = doc
	}

	competitorDocs := make([]*gapengine.ExtractedDocument, 0, len(competitorURLs))
	for _, res := range client.FetchAll(ctx, competitorURLs) {
		if res.Err != nil {
			fmt.Fprintf(os.Stderr, "warn: fetch %s: %v\n", res.URL, res.Err)
			competitorDocs = append(competitorDocs, nil)
			continue
		}
		competitorDocs = append(competitorDocs, documentFromPage(res.Page))
	}

	result, err := engine.Analyze(ctx, ownDoc, competitorDocs, biz)
	if err != nil {
		exitErr(fmt.Sprintf("analyze: %v", err))
	}

	raw, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		exitErr(fmt.Sprintf("encode result: %v", err))
	}

	if strings.TrimSpace(*outPath) == "" {
		fmt.Println(string(raw))
		return
	}
	if err := os.WriteFile(*outPath, raw, 0o644); err != nil {
		exitErr(fmt.Sprintf("write result: %v", err))
	}
	fmt.Printf("wrote %s (%d opportunities)\n", *outPath, result.TotalOpportunities)
}

func documentFromPage(page *fetch.Page) *gapengine.ExtractedDocument {
	if page == nil {
		return nil
	}
	pageURL := page.FinalURL
	if pageURL == "" {
		pageURL = page.RequestedURL
	}
	doc, err := extract.Document(pageURL, page.Body, page.ContentType)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warn: extract %s: %v\n", pageURL, err)
		return nil
	}
	return doc
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func exitErr(msg string) {
	fmt.Fprintln(os.Stderr, "error: "+msg)
	os.Exit(1)
}
