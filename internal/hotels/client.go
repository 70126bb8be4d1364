package hotels

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	citySearchPath = "/locations/v3/search"
	hotelListPath  = "/properties/v2/list"
	hotelInfoPath  = "/properties/v2/detail"

	defaultTimeout = 30 * time.Second
	defaultRPS     = 5
	defaultLocale  = "en_US"

	// wideResultsSize is requested when sorting or filtering happens locally
	// and the API page must be wider than the user's limit.
	wideResultsSize = 200
)

// Config configures the hotel API client.
type Config struct {
	Host    string
	APIKey  string
	Timeout time.Duration
	RPS     int
	Locale  string

	// BaseURL overrides the https://Host default, for tests.
	BaseURL string
}

// Client talks to the hotel aggregator API. Calls are rate limited
// client-side; a timeout or transport failure is reported as-is, the caller
// decides whether the search dies with it.
type Client struct {
	baseURL string
	host    string
	key     string
	locale  string
	hc      *http.Client
	limiter *rate.Limiter
}

// NewClient builds a Client from cfg, filling in defaults for timeout,
// rate and locale.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, fmt.Errorf("hotels: empty API host")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("hotels: empty API key")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	rps := cfg.RPS
	if rps <= 0 {
		rps = defaultRPS
	}
	locale := cfg.Locale
	if locale == "" {
		locale = defaultLocale
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://" + cfg.Host
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		host:    cfg.Host,
		key:     cfg.APIKey,
		locale:  locale,
		hc:      &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// FindCities looks up cities matching name and returns them in API order.
// An empty slice with a nil error means the name matched nothing.
func (c *Client) FindCities(ctx context.Context, name string) ([]City, error) {
	params := url.Values{}
	params.Set("q", name)
	params.Set("locale", c.locale)

	var resp citySearchResponse
	if err := c.do(ctx, http.MethodGet, citySearchPath, params, nil, &resp); err != nil {
		return nil, err
	}

	var cities []City
	for _, entry := range resp.SR {
		if entry.Type != "CITY" {
			continue
		}
		if entry.GaiaID == "" || entry.RegionNames.ShortName == "" {
			return nil, fmt.Errorf("hotels: city entry missing id or name")
		}
		cities = append(cities, City{ID: entry.GaiaID, Name: entry.RegionNames.ShortName})
	}
	return cities, nil
}

// SearchHotels runs the list query for q and returns candidates already
// ordered and truncated according to q.Mode.
func (c *Client) SearchHotels(ctx context.Context, q Query) ([]Candidate, error) {
	req := listRequest{
		Currency:             "USD",
		EAPID:                1,
		Locale:               c.locale,
		SiteID:               300000001,
		Destination:          listDestination{RegionID: q.RegionID},
		CheckInDate:          apiDate(q.CheckIn),
		CheckOutDate:         apiDate(q.CheckOut),
		Rooms:                []listRoom{{Adults: 1}},
		ResultsStartingIndex: 0,
		Filters:              listFilters{AvailableFilter: "SHOW_AVAILABLE_ONLY"},
	}

	switch q.Mode {
	case ModeLow:
		req.Sort = "PRICE_LOW_TO_HIGH"
		req.ResultsSize = q.Limit
	case ModeHigh:
		req.ResultsSize = wideResultsSize
	case ModeBestDeals:
		req.Sort = "DISTANCE"
		req.ResultsSize = wideResultsSize
		req.Filters.Price = &listPriceFilter{Min: q.LowPrice, Max: q.HighPrice}
	default:
		return nil, fmt.Errorf("hotels: unknown search mode %q", q.Mode)
	}

	var resp listResponse
	if err := c.do(ctx, http.MethodPost, hotelListPath, nil, req, &resp); err != nil {
		return nil, err
	}

	cands := make([]Candidate, 0, len(resp.Data.PropertySearch.Properties))
	for _, p := range resp.Data.PropertySearch.Properties {
		cands = append(cands, Candidate{
			ID:           p.ID,
			Name:         p.Name,
			NightlyPrice: round2(p.Price.Lead.Amount),
			DistanceKM:   p.DestinationInfo.DistanceFromDestination.Value,
		})
	}

	switch q.Mode {
	case ModeHigh:
		cands = TakeHighestPriced(cands, q.Limit)
	case ModeBestDeals:
		cands = TakeBestDeals(cands, float64(q.DistanceKM), q.Limit)
	}
	return cands, nil
}

// GetDetails fetches address and, when requested, up to imageLimit photo
// URLs for a hotel. A missing address comes back as AddressNotFound rather
// than an error.
func (c *Client) GetDetails(ctx context.Context, hotelID string, wantImages bool, imageLimit int) (Details, error) {
	req := detailRequest{
		Currency:   "USD",
		EAPID:      1,
		Locale:     c.locale,
		SiteID:     300000001,
		PropertyID: hotelID,
	}

	var resp detailResponse
	if err := c.do(ctx, http.MethodPost, hotelInfoPath, nil, req, &resp); err != nil {
		return Details{}, err
	}

	det := Details{Address: AddressNotFound}
	if line := resp.Data.PropertyInfo.Summary.Location.Address.AddressLine; line != "" {
		det.Address = line
	}
	if wantImages {
		for _, img := range resp.Data.PropertyInfo.PropertyGallery.Images {
			if img.Image.URL == "" {
				continue
			}
			det.Images = append(det.Images, img.Image.URL)
			if len(det.Images) >= imageLimit {
				break
			}
		}
	}
	return det, nil
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("hotels: rate limit wait: %w", err)
	}

	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("hotels: encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("hotels: build request: %w", err)
	}
	req.Header.Set("X-RapidAPI-Key", c.key)
	req.Header.Set("X-RapidAPI-Host", c.host)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("hotels: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("hotels: %s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("hotels: decode response: %w", err)
	}
	return nil
}

func apiDate(t time.Time) dateParts {
	return dateParts{Day: t.Day(), Month: int(t.Month()), Year: t.Year()}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Wire types below mirror the aggregator's JSON shapes; only the fields the
// bot consumes are declared.

type citySearchResponse struct {
	SR []struct {
		Type        string `json:"type"`
		GaiaID      string `json:"gaiaId"`
		RegionNames struct {
			ShortName string `json:"shortName"`
		} `json:"regionNames"`
	} `json:"sr"`
}

type dateParts struct {
	Day   int `json:"day"`
	Month int `json:"month"`
	Year  int `json:"year"`
}

type listDestination struct {
	RegionID string `json:"regionId"`
}

type listRoom struct {
	Adults int `json:"adults"`
}

type listPriceFilter struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

type listFilters struct {
	AvailableFilter string           `json:"availableFilter"`
	Price           *listPriceFilter `json:"price,omitempty"`
}

type listRequest struct {
	Currency             string          `json:"currency"`
	EAPID                int             `json:"eapid"`
	Locale               string          `json:"locale"`
	SiteID               int             `json:"siteId"`
	Destination          listDestination `json:"destination"`
	CheckInDate          dateParts       `json:"checkInDate"`
	CheckOutDate         dateParts       `json:"checkOutDate"`
	Rooms                []listRoom      `json:"rooms"`
	ResultsStartingIndex int             `json:"resultsStartingIndex"`
	ResultsSize          int             `json:"resultsSize"`
	Sort                 string          `json:"sort,omitempty"`
	Filters              listFilters     `json:"filters"`
}

type listResponse struct {
	Data struct {
		PropertySearch struct {
			Properties []struct {
				ID    string `json:"id"`
				Name  string `json:"name"`
				Price struct {
					Lead struct {
						Amount float64 `json:"amount"`
					} `json:"lead"`
				} `json:"price"`
				DestinationInfo struct {
					DistanceFromDestination struct {
						Value float64 `json:"value"`
					} `json:"distanceFromDestination"`
				} `json:"destinationInfo"`
			} `json:"properties"`
		} `json:"propertySearch"`
	} `json:"data"`
}

type detailRequest struct {
	Currency   string `json:"currency"`
	EAPID      int    `json:"eapid"`
	Locale     string `json:"locale"`
	SiteID     int    `json:"siteId"`
	PropertyID string `json:"propertyId"`
}

type detailResponse struct {
	Data struct {
		PropertyInfo struct {
			Summary struct {
				Location struct {
					Address struct {
						AddressLine string `json:"addressLine"`
					} `json:"address"`
				} `json:"location"`
			} `json:"summary"`
			PropertyGallery struct {
				Images []struct {
					Image struct {
						URL string `json:"url"`
					} `json:"image"`
				} `json:"images"`
			} `json:"propertyGallery"`
		} `json:"propertyInfo"`
	} `json:"data"`
}
