package papers

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"
)

type rssDoc struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	Author      string `xml:"author,omitempty"`
	GUID        string `xml:"guid"`
	PubDate     string `xml:"pubDate,omitempty"`
}

// RenderRSS serializes entries as an RSS 2.0 document for a category.
func RenderRSS(category string, entries []Entry) (string, error) {
	if category == "" {
		category = DefaultCategory
	}
	doc := rssDoc{
		Version: "2.0",
		Channel: rssChannel{
			Title:       fmt.Sprintf("arXiv %s papers", category),
			Link:        "https://arxiv.org/list/" + category + "/recent",
			Description: fmt.Sprintf("Recent submissions in %s", category),
		},
	}
	for _, e := range entries {
		item := rssItem{
			Title:       e.Title,
			Link:        e.Link,
			Description: e.Summary,
			Author:      strings.Join(e.Authors, ", "),
			GUID:        e.ID,
		}
		if !e.Published.IsZero() {
			item.PubDate = e.Published.Format(time.RFC1123Z)
		}
		doc.Channel.Items = append(doc.Channel.Items, item)
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("rendering rss: %w", err)
	}
	return xml.Header + string(out), nil
}
