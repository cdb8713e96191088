// Package assets searches the Sketchfab catalogue for 3D models used in AR
// lessons.
package assets

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/markdave123-py/EduAI/internal/core"
	"github.com/markdave123-py/EduAI/internal/models"
)

const (
	sourceSketchfab = "sketchfab"
	viewerBaseURL   = "https://sketchfab.com/models"
	defaultLimit    = 24
	maxLimit        = 100
)

// ErrNotConfigured is returned when no API key was supplied.
var ErrNotConfigured = errors.New("sketchfab api key not configured")

// defaultEmbedOptions are the viewer flags used for classroom embeds.
var defaultEmbedOptions = map[string]bool{
	"autostart":    true,
	"ui_controls":  true,
	"ui_infos":     true,
	"ui_inspector": true,
	"ui_stop":      true,
	"ui_watermark": false,
	"preload":      true,
}

type SketchfabClient struct {
	http   *resty.Client
	apiKey string
}

var _ core.AssetSearcher = (*SketchfabClient)(nil)

func NewSketchfabClient(baseURL, apiKey string) *SketchfabClient {
	c := resty.New().
		SetHostURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Accept", "application/json").
		SetTimeout(20 * time.Second)
	if apiKey != "" {
		c.SetHeader("Authorization", "Token "+apiKey)
	}
	return &SketchfabClient{http: c, apiKey: apiKey}
}

type searchResponse struct {
	Results []struct {
		UID         string `json:"uid"`
		Name        string `json:"name"`
		Description string `json:"description"`
		ViewerURL   string `json:"viewerUrl"`
		User        struct {
			Username    string `json:"username"`
			DisplayName string `json:"displayName"`
		} `json:"user"`
		License *struct {
			Label string `json:"label"`
		} `json:"license"`
		Tags []struct {
			Name string `json:"name"`
		} `json:"tags"`
		Thumbnails struct {
			Images []struct {
				URL   string `json:"url"`
				Width int    `json:"width"`
			} `json:"images"`
		} `json:"thumbnails"`
	} `json:"results"`
}

// Search queries the model catalogue. Upstream failures are returned as
// errors; there is no canned fallback.
func (c *SketchfabClient) Search(ctx context.Context, query string, limit int) ([]models.AssetModel, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, models.Invalid("query", "required")
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	var out searchResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"type":    "models",
			"q":       query,
			"sort_by": "relevance",
			"count":   strconv.Itoa(limit),
		}).
		SetResult(&out).
		Get("/models")
	if err != nil {
		return nil, fmt.Errorf("sketchfab search: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("sketchfab search: status %d: %s", resp.StatusCode(), truncate(resp.String(), 200))
	}

	assets := make([]models.AssetModel, 0, len(out.Results))
	for _, r := range out.Results {
		a := models.AssetModel{
			ID:          r.UID,
			Name:        r.Name,
			Description: r.Description,
			Source:      sourceSketchfab,
			URL:         r.ViewerURL,
			EmbedURL:    c.EmbedURL(r.UID, nil),
			Author:      r.User.DisplayName,
			Tags:        []string{},
		}
		if a.Author == "" {
			a.Author = r.User.Username
		}
		if r.License != nil {
			a.License = r.License.Label
		}
		for _, t := range r.Tags {
			a.Tags = append(a.Tags, t.Name)
		}
		// largest thumbnail wins
		best := -1
		for _, img := range r.Thumbnails.Images {
			if img.Width > best {
				best, a.Thumbnail = img.Width, img.URL
			}
		}
		assets = append(assets, a)
		if len(assets) == limit {
			break
		}
	}
	return assets, nil
}

// EmbedURL builds the viewer embed URL for a model. options override the
// classroom defaults.
func (c *SketchfabClient) EmbedURL(id string, options map[string]bool) string {
	params := url.Values{}
	for k, v := range defaultEmbedOptions {
		params.Set(k, flag(v))
	}
	for k, v := range options {
		params.Set(k, flag(v))
	}
	return fmt.Sprintf("%s/%s/embed?%s", viewerBaseURL, url.PathEscape(id), params.Encode())
}

func flag(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
