// Package weather reports current conditions from OpenWeatherMap.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/antoniostano/rin/internal/reliability"
	"github.com/antoniostano/rin/internal/tools"
)

const defaultEndpoint = "https://api.openweathermap.org/data/2.5/weather"

type Client struct {
	apiKey   string
	location string
	lang     string
	endpoint string
	client   *http.Client
}

type Option func(*Client)

// WithEndpoint points the client at another server.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

// WithLanguage sets the language of the condition description.
func WithLanguage(lang string) Option {
	return func(c *Client) { c.lang = lang }
}

func New(apiKey, location string, timeout time.Duration, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%w: openweather api key missing", tools.ErrUnavailable)
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	c := &Client{
		apiKey:   apiKey,
		location: location,
		lang:     "en",
		endpoint: defaultEndpoint,
		client:   &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type currentResponse struct {
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Main *struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Wind *struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Message string `json:"message"`
}

// Current returns e.g. "Overcast clouds, 22.5°C, humidity 60%, wind 3.2 m/s".
func (c *Client) Current(ctx context.Context) (string, error) {
	var out string
	err := reliability.Retry(ctx, 2, 200*time.Millisecond, time.Second, func(ctx context.Context) error {
		var err error
		out, err = c.current(ctx)
		return err
	})
	return out, err
}

func (c *Client) current(ctx context.Context) (string, error) {
	q := url.Values{}
	q.Set("q", c.location)
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")
	q.Set("lang", c.lang)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var decoded currentResponse
	decodeErr := json.Unmarshal(body, &decoded)
	if resp.StatusCode != http.StatusOK {
		return "", &reliability.StatusError{Code: resp.StatusCode, Body: decoded.Message}
	}
	if decodeErr != nil {
		return "", reliability.Permanent(fmt.Errorf("decode weather: %w", decodeErr))
	}
	if len(decoded.Weather) == 0 || decoded.Main == nil || decoded.Wind == nil {
		return "", reliability.Permanent(fmt.Errorf("weather response missing fields"))
	}

	return fmt.Sprintf("%s, %.1f°C, humidity %d%%, wind %g m/s",
		capitalize(decoded.Weather[0].Description),
		decoded.Main.Temp,
		decoded.Main.Humidity,
		decoded.Wind.Speed,
	), nil
}

func capitalize(s string) string {
	s = strings.TrimSpace(s)
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
