package catalog

import (
	"context"
	"fmt"
	"sort"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/pkg/errors"
)

const (
	searchPath = "/api/v1/catalog/1.0.0/search"
	Collection = "sentinel-2-l2a"
	pageLimit  = 100
	maxPages   = 200
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Scene is one Sentinel-2 L2A acquisition intersecting the query bound.
type Scene struct {
	ID         string
	Datetime   time.Time
	CloudCover float64
}

// Day is the UTC calendar day of the acquisition.
func (s Scene) Day() time.Time {
	y, m, d := s.Datetime.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Query selects scenes acquired in [Start, End) over Bound with at most
// MaxCloudCover percent cloudy pixels.
type Query struct {
	Bound         orb.Bound
	Start         time.Time
	End           time.Time
	MaxCloudCover float64
}

//go:generate mockgen -destination=mocks/searcher.go -package=mocks . Searcher
type Searcher interface {
	Search(ctx context.Context, q Query) ([]Scene, error)
}

type poster interface {
	PostJSON(ctx context.Context, path string, payload interface{}, accept string) ([]byte, error)
}

type Client struct {
	api poster
}

func NewClient(api poster) *Client {
	return &Client{api: api}
}

// BoundAround returns the square bound of half-width meters around p.
func BoundAround(p orb.Point, meters float64) orb.Bound {
	return geo.NewBoundAroundPoint(p, meters)
}

type searchRequest struct {
	BBox        [4]float64   `json:"bbox"`
	Datetime    string       `json:"datetime"`
	Collections []string     `json:"collections"`
	Limit       int          `json:"limit"`
	Filter      string       `json:"filter"`
	FilterLang  string       `json:"filter-lang"`
	Fields      searchFields `json:"fields"`
	Next        *int         `json:"next,omitempty"`
}

type searchFields struct {
	Include []string `json:"include"`
	Exclude []string `json:"exclude"`
}

type searchResponse struct {
	Features []struct {
		ID         string `json:"id"`
		Properties struct {
			Datetime   time.Time `json:"datetime"`
			CloudCover float64   `json:"eo:cloud_cover"`
		} `json:"properties"`
	} `json:"features"`
	Context struct {
		Next     *int `json:"next"`
		Returned int  `json:"returned"`
	} `json:"context"`
}

// Search returns the matching scenes ordered by acquisition time. Tiles
// acquired on the same UTC day are merged, keeping the least cloudy one.
func (c *Client) Search(ctx context.Context, q Query) ([]Scene, error) {
	if !q.End.After(q.Start) {
		return nil, errors.Errorf("empty search interval %s/%s", q.Start.Format(time.RFC3339), q.End.Format(time.RFC3339))
	}

	req := searchRequest{
		BBox:        [4]float64{q.Bound.Min.Lon(), q.Bound.Min.Lat(), q.Bound.Max.Lon(), q.Bound.Max.Lat()},
		Datetime:    fmt.Sprintf("%s/%s", q.Start.UTC().Format(time.RFC3339), q.End.UTC().Add(-time.Second).Format(time.RFC3339)),
		Collections: []string{Collection},
		Limit:       pageLimit,
		Filter:      fmt.Sprintf("eo:cloud_cover <= %g", q.MaxCloudCover),
		FilterLang:  "cql2-text",
		Fields: searchFields{
			Include: []string{"id", "properties.datetime", "properties.eo:cloud_cover"},
			Exclude: []string{},
		},
	}

	byDay := make(map[time.Time]Scene)
	for page := 0; page < maxPages; page++ {
		body, err := c.api.PostJSON(ctx, searchPath, req, "application/json")
		if err != nil {
			return nil, errors.Wrap(err, "catalog search failed")
		}

		var resp searchResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, errors.Wrap(err, "failed to parse catalog response")
		}

		for _, f := range resp.Features {
			scene := Scene{ID: f.ID, Datetime: f.Properties.Datetime.UTC(), CloudCover: f.Properties.CloudCover}
			if scene.CloudCover > q.MaxCloudCover {
				continue
			}
			day := scene.Day()
			if existing, ok := byDay[day]; !ok || scene.CloudCover < existing.CloudCover {
				byDay[day] = scene
			}
		}

		if resp.Context.Next == nil || len(resp.Features) == 0 {
			break
		}
		req.Next = resp.Context.Next
	}

	scenes := make([]Scene, 0, len(byDay))
	for _, s := range byDay {
		scenes = append(scenes, s)
	}
	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].Datetime.Before(scenes[j].Datetime)
	})
	return scenes, nil
}
