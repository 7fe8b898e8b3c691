package homeassistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"miso-assistant/internal/domain"
	"miso-assistant/internal/infra"
)

// Client is a device registry backed by a live Home Assistant instance
// over its REST API. It is interchangeable with the in-memory simulator.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type haState struct {
	EntityID   string         `json:"entity_id"`
	State      string         `json:"state"`
	Attributes map[string]any `json:"attributes"`
}

func (c *Client) States(ctx context.Context) ([]domain.Entity, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/api/states", nil)
	if err != nil {
		return nil, fmt.Errorf("fetching states: %w", err)
	}

	var states []haState
	if err := json.Unmarshal(body, &states); err != nil {
		return nil, fmt.Errorf("decoding states: %w", err)
	}

	entities := make([]domain.Entity, 0, len(states))
	for _, s := range states {
		d, _ := domain.SplitEntityID(s.EntityID)
		switch d {
		case domain.DomainLight, domain.DomainClimate, domain.DomainSwitch,
			domain.DomainMediaPlayer, domain.DomainSensor:
		default:
			continue
		}
		entities = append(entities, toEntity(d, s))
	}
	return entities, nil
}

func toEntity(d domain.EntityDomain, s haState) domain.Entity {
	e := domain.Entity{
		ID:     s.EntityID,
		Domain: d,
		Name:   attrString(s.Attributes, "friendly_name"),
		State:  s.State,
	}
	if e.Name == "" {
		_, e.Name = domain.SplitEntityID(s.EntityID)
	}

	switch d {
	case domain.DomainLight:
		e.Light = &domain.LightAttributes{Brightness: attrInt(s.Attributes, "brightness")}
	case domain.DomainClimate:
		e.Climate = &domain.ClimateAttributes{
			TargetTemp: attrFloat(s.Attributes, "temperature"),
			Mode:       s.State,
		}
	case domain.DomainMediaPlayer:
		e.Media = &domain.MediaAttributes{Volume: attrInt(s.Attributes, "volume_level")}
	case domain.DomainSensor:
		e.Sensor = &domain.SensorAttributes{Unit: attrString(s.Attributes, "unit_of_measurement")}
	}
	return e
}

func (c *Client) FriendlyNames(ctx context.Context) (map[string]string, error) {
	entities, err := c.States(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(entities))
	for _, e := range entities {
		names[e.ID] = e.Name
	}
	return names, nil
}

// CallService posts to /api/services/{domain}/{action} with the service
// data, which already carries entity_id.
func (c *Client) CallService(ctx context.Context, d domain.EntityDomain, action domain.Action, data map[string]any) error {
	path := fmt.Sprintf("/api/services/%s/%s", d, action)

	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling service data: %w", err)
	}

	if _, err := c.doRequest(ctx, http.MethodPost, path, body); err != nil {
		return fmt.Errorf("calling service %s.%s: %w", d, action, err)
	}
	return nil
}

func (c *Client) Summary() string {
	entities, err := c.States(context.Background())
	if err != nil {
		return "## Available devices: (unavailable)\n"
	}

	var sb strings.Builder
	sb.WriteString("## Available devices:\n")
	for _, e := range entities {
		sb.WriteString(fmt.Sprintf("- %s (id: %s, domain: %s, state: %s)\n", e.Name, e.ID, e.Domain, e.State))
	}
	return sb.String()
}

func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var respBody []byte

	retryErr := infra.WithRetry(ctx, infra.DefaultRetryConfig(), func() error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		defer resp.Body.Close()

		respBody, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading response: %w", err)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			if infra.IsRetryableHTTPStatus(resp.StatusCode) {
				return fmt.Errorf("home assistant error %d: %s (retryable)", resp.StatusCode, string(respBody))
			}
			return fmt.Errorf("home assistant error %d: %s", resp.StatusCode, string(respBody))
		}
		return nil
	})
	if retryErr != nil {
		return nil, retryErr
	}
	return respBody, nil
}

func attrString(attrs map[string]any, key string) string {
	if v, ok := attrs[key].(string); ok {
		return v
	}
	return ""
}

func attrInt(attrs map[string]any, key string) int {
	if v, ok := attrs[key].(float64); ok {
		return int(v)
	}
	return 0
}

func attrFloat(attrs map[string]any, key string) float64 {
	if v, ok := attrs[key].(float64); ok {
		return v
	}
	return 0
}
