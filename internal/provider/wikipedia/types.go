package wikipedia

// searchResponse is the MediaWiki Action API list=search response.
type searchResponse struct {
	Query struct {
		Search []struct {
			Title  string `json:"title"`
			PageID int    `json:"pageid"`
		} `json:"search"`
	} `json:"query"`
}

// summaryResponse is the REST v1 page/summary response.
type summaryResponse struct {
	Title         string     `json:"title"`
	Type          string     `json:"type"`
	Description   string     `json:"description"`
	Extract       string     `json:"extract"`
	Thumbnail     *imageInfo `json:"thumbnail"`
	OriginalImage *imageInfo `json:"originalimage"`
	ContentURLs   struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

type imageInfo struct {
	Source string `json:"source"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// TypeDisambiguation marks a summary of a disambiguation page. Such
// summaries are still returned; callers decide how to treat them.
const TypeDisambiguation = "disambiguation"

// Summary is the short profile of a Wikipedia page.
type Summary struct {
	Title            string `json:"title"`
	Type             string `json:"type,omitempty"`
	Description      string `json:"description,omitempty"`
	Extract          string `json:"extract,omitempty"`
	ThumbnailURL     string `json:"thumbnail_url,omitempty"`
	OriginalImageURL string `json:"original_image_url,omitempty"`
	PageURL          string `json:"page_url,omitempty"`
}

// ImageURL returns the thumbnail, or the original image when there is no
// thumbnail, or "".
func (s *Summary) ImageURL() string {
	if s.ThumbnailURL != "" {
		return s.ThumbnailURL
	}
	return s.OriginalImageURL
}
