// Package babelnet reads synsets from the BabelNet HTTP API.
package babelnet

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Pew-X/sensegate/internal/core"
)

// DefaultBaseURL is the public BabelNet REST endpoint.
const DefaultBaseURL = "https://babelnet.io/v9"

// Config configures a Client.
type Config struct {
	BaseURL  string        `yaml:"base_url" env:"BASE_URL"`
	Key      string        `yaml:"key" env:"KEY"`
	Timeout  time.Duration `yaml:"timeout" env:"TIMEOUT"`
	Language core.Language `yaml:"-"`
}

// Client is a knowledge.Base backed by the BabelNet REST API.
// Every call goes to the network, nothing is cached.
type Client struct {
	baseURL    string
	key        string
	language   core.Language
	httpClient *http.Client
	log        *log.Entry
}

// NewClient creates a client. An empty base URL selects DefaultBaseURL.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Key) == "" {
		return nil, fmt.Errorf("babelnet: api key is required")
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	lang := cfg.Language
	if lang == "" {
		lang = core.English
	}

	return &Client{
		baseURL:    baseURL,
		key:        cfg.Key,
		language:   lang,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.WithField("adapter", "babelnet"),
	}, nil
}

// Synset resolves a BabelNet id ("bn:...") or a resource id such as a
// WordNet id ("wn:00001740n"). Unknown ids yield (nil, nil).
func (c *Client) Synset(ctx context.Context, id string) (*core.Synset, error) {
	bnID := id
	var resourceIDs []string

	if !strings.HasPrefix(id, "bn:") {
		resolved, err := c.resolveResourceID(ctx, id)
		if err != nil {
			return nil, err
		}
		if resolved == "" {
			return nil, nil
		}
		bnID = resolved
		resourceIDs = []string{id}
	}

	var resp synsetResponse
	found, err := c.get(ctx, "getSynset", url.Values{
		"id":         {bnID},
		"targetLang": {string(c.language)},
	}, &resp)
	if err != nil || !found {
		return nil, err
	}

	synset := resp.toSynset(bnID)
	synset.ResourceIDs = resourceIDs
	return synset, nil
}

// OutgoingEdges fetches the synset's edges and keeps those of one relation type.
func (c *Client) OutgoingEdges(ctx context.Context, synset *core.Synset, pointer core.Pointer) ([]core.Edge, error) {
	var resp []edgeResponse
	found, err := c.get(ctx, "getOutgoingEdges", url.Values{"id": {synset.ID}}, &resp)
	if err != nil || !found {
		return nil, err
	}

	var edges []core.Edge
	for _, e := range resp {
		if !strings.EqualFold(e.Pointer.ShortName, string(pointer)) {
			continue
		}
		edges = append(edges, core.Edge{
			Pointer:  pointer,
			Target:   e.Target,
			Language: core.Language(e.Language),
		})
	}
	return edges, nil
}

// resolveResourceID maps an external id to its BabelNet synset id, or "" if
// BabelNet does not know it.
func (c *Client) resolveResourceID(ctx context.Context, id string) (string, error) {
	params := url.Values{
		"id":     {id},
		"source": {string(core.TaxonomyOf(id))},
	}
	if core.TaxonomyOf(id) == core.SourceWordNet {
		params.Set("wnVersion", "WN_30")
	}

	var ids []synsetIDResponse
	found, err := c.get(ctx, "getSynsetIdsFromResourceID", params, &ids)
	if err != nil || !found || len(ids) == 0 {
		return "", err
	}
	return ids[0].ID, nil
}

// get performs one API call and decodes the JSON body into out.
// It reports false when the API answers 404.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) (bool, error) {
	params.Set("key", c.key)
	reqURL := c.baseURL + "/" + endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return false, fmt.Errorf("babelnet: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("babelnet: %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("babelnet: %s: read body: %w", endpoint, err)
	}

	c.log.WithFields(log.Fields{
		"endpoint": endpoint,
		"id":       params.Get("id"),
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	}).Debug("BabelNet request")

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if msg := apiMessage(body); msg != "" {
		return false, fmt.Errorf("babelnet: %s: %s", endpoint, msg)
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("babelnet: %s: unexpected status %d", endpoint, resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return false, fmt.Errorf("babelnet: %s: decode json: %w", endpoint, err)
	}
	return true, nil
}
