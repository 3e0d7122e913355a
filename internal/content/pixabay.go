package content

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"

	"github.com/JBRUL255/funny-video-generator/internal/pipeline"
)

const pixabayAudioURL = "https://pixabay.com/api/audio/"

type pixabayClient struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
}

func newPixabayClient(httpClient *http.Client, apiKey string) *pixabayClient {
	return &pixabayClient{httpClient: httpClient, apiKey: apiKey, baseURL: pixabayAudioURL}
}

type pixabayAudioResponse struct {
	Hits []struct {
		Audio string `json:"audio"`
		Title string `json:"title"`
	} `json:"hits"`
}

// Find returns a random upbeat background track.
func (c *pixabayClient) Find(ctx context.Context) (*pipeline.MusicRef, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("q", "happy")
	params.Set("per_page", "5")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pixabay search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pixabay search: unexpected status %d", resp.StatusCode)
	}

	var parsed pixabayAudioResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode pixabay response: %w", err)
	}
	if len(parsed.Hits) == 0 {
		return nil, fmt.Errorf("pixabay returned no tracks")
	}

	hit := parsed.Hits[rand.Intn(len(parsed.Hits))]
	return &pipeline.MusicRef{URL: hit.Audio, Title: hit.Title}, nil
}
