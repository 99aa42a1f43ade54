// Package assign implements the single combiner-assignment request a
// client issues against the control plane before it can build a channel.
package assign

import (
	"bytes"
	"fmt"
	"net/http"
	"os"

	json "github.com/goccy/go-json"
	"github.com/hashicorp/go-cleanhttp"

	"github.com/scaleoutsystems/fedn-go-client/internal/config"
	"github.com/scaleoutsystems/fedn-go-client/internal/errs"
)

const (
	assignPath            = "/api/v1/clients/add"
	defaultAuthSchemeEnv  = "FEDN_AUTH_SCHEME"
	defaultAuthSchemeName = "Bearer"
)

type requestBody struct {
	ClientID          string `json:"client_id"`
	Name              string `json:"name"`
	Package           string `json:"package"`
	PreferredCombiner string `json:"preferred_combiner"`
}

type responseBody struct {
	Host string `json:"host"`
	FQDN *string `json:"fqdn"`
	Port *int    `json:"port"`
}

// Client issues the assignment request. It wraps a cleanhttp *http.Client
// with its own non-shared transport and keep-alives disabled, the way the
// rest of the ecosystem builds HTTP clients for short-lived CLI/agent
// processes.
type Client struct {
	hc *http.Client
}

// New builds an assignment Client with a non-shared, non-pooled transport.
func New() *Client {
	return &Client{hc: cleanhttp.DefaultClient()}
}

// Assign issues POST {api_url}/api/v1/clients/add and folds the response
// into the combiner config it produced during startup.
func (c *Client) Assign(ctl config.ControlPlane, cmb config.Combiner) (config.Combiner, error) {
	body, err := json.Marshal(requestBody{
		ClientID:          ctl.ClientID,
		Name:              ctl.Name,
		Package:           ctl.Package,
		PreferredCombiner: ctl.PreferredCombiner,
	})
	if err != nil {
		return config.Combiner{}, fmt.Errorf("%w: encode request body: %v", errs.ErrAssignmentFailed, err)
	}

	req, err := http.NewRequest(http.MethodPost, ctl.APIURL+assignPath, bytes.NewReader(body))
	if err != nil {
		return config.Combiner{}, fmt.Errorf("%w: build request: %v", errs.ErrAssignmentFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if ctl.Token != "" {
		scheme := os.Getenv(defaultAuthSchemeEnv)
		if scheme == "" {
			scheme = defaultAuthSchemeName
		}
		req.Header.Set("Authorization", fmt.Sprintf("%s %s", scheme, ctl.Token))
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return config.Combiner{}, fmt.Errorf("%w: %v", errs.ErrAssignmentFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return config.Combiner{}, fmt.Errorf("%w: unexpected status %d", errs.ErrAssignmentFailed, resp.StatusCode)
	}

	var rb responseBody
	if err := json.NewDecoder(resp.Body).Decode(&rb); err != nil {
		return config.Combiner{}, fmt.Errorf("%w: decode response: %v", errs.ErrAssignmentFailed, err)
	}
	if rb.Host == "" {
		return config.Combiner{}, fmt.Errorf("%w: response missing host", errs.ErrAssignmentFailed)
	}

	out := cmb
	out.Token = ctl.Token
	if ctl.Insecure {
		port := 443
		if rb.Port != nil {
			port = *rb.Port
		}
		out.Host = fmt.Sprintf("%s:%d", rb.Host, port)
	} else {
		out.Host = rb.Host
	}
	if rb.FQDN != nil && *rb.FQDN != "" {
		out.ProxyHost = *rb.FQDN
	}
	out.Insecure = ctl.Insecure

	return out, nil
}
