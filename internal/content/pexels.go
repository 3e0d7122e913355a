package content

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"

	"github.com/JBRUL255/funny-video-generator/internal/pipeline"
)

const pexelsSearchURL = "https://api.pexels.com/videos/search"

type pexelsClient struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
}

func newPexelsClient(httpClient *http.Client, apiKey string) *pexelsClient {
	return &pexelsClient{httpClient: httpClient, apiKey: apiKey, baseURL: pexelsSearchURL}
}

type pexelsSearchResponse struct {
	Videos []struct {
		ID         int     `json:"id"`
		Duration   float64 `json:"duration"`
		VideoFiles []struct {
			Link     string `json:"link"`
			FileType string `json:"file_type"`
			Width    int    `json:"width"`
			Height   int    `json:"height"`
		} `json:"video_files"`
	} `json:"videos"`
}

// Search queries Pexels for vertical stock videos and returns up to limit
// refs, each pointing at the mp4 rendition closest to 9:16.
func (c *pexelsClient) Search(ctx context.Context, topic string, limit int) ([]pipeline.ClipRef, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("clip search unavailable: PEXELS_API_KEY not set")
	}

	params := url.Values{}
	params.Set("query", topic)
	params.Set("per_page", "8")
	params.Set("orientation", "vertical")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pexels search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pexels search: unexpected status %d", resp.StatusCode)
	}

	var parsed pexelsSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode pexels response: %w", err)
	}

	refs := make([]pipeline.ClipRef, 0, limit)
	for _, video := range parsed.Videos {
		if len(refs) >= limit {
			break
		}
		ref, ok := bestRendition(video.VideoFiles)
		if !ok {
			continue
		}
		ref.Duration = video.Duration
		refs = append(refs, ref)
	}
	return refs, nil
}

// bestRendition picks the mp4 whose aspect ratio is closest to 9:16.
func bestRendition(files []struct {
	Link     string `json:"link"`
	FileType string `json:"file_type"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}) (pipeline.ClipRef, bool) {
	const target = 9.0 / 16.0

	best := pipeline.ClipRef{}
	bestDelta := math.MaxFloat64
	for _, f := range files {
		if f.FileType != "video/mp4" || f.Width == 0 || f.Height == 0 {
			continue
		}
		delta := math.Abs(float64(f.Width)/float64(f.Height) - target)
		if delta < bestDelta {
			bestDelta = delta
			best = pipeline.ClipRef{URL: f.Link, Width: f.Width, Height: f.Height}
		}
	}
	return best, best.URL != ""
}
