// Package config resolves the client's flat key-value source into the two
// immutable records the rest of the runtime consumes: the control-plane
// config and the combiner config. Resolve is a pure function; loading the
// key-value source from disk is the caller's concern (see cmd/fednclient).
package config

import (
	"fmt"

	"github.com/scaleoutsystems/fedn-go-client/internal/errs"
)

// AuthScheme is the header scheme used to authenticate to the combiner.
type AuthScheme string

const (
	AuthSchemeBearer AuthScheme = "Bearer"
	AuthSchemeToken  AuthScheme = "Token"

	defaultPackage    = "remote"
	defaultAuthScheme = AuthSchemeBearer
)

// ControlPlane is immutable after construction.
type ControlPlane struct {
	APIURL            string
	Token             string
	ClientID          string
	Name              string
	Package           string
	PreferredCombiner string
	Insecure          bool
}

// Combiner is mutated only by the assignment step (internal/assign).
type Combiner struct {
	Host       string
	ProxyHost  string
	Token      string
	AuthScheme AuthScheme
	Insecure   bool
}

// Resolve reads a flat mapping and produces the control-plane and combiner
// configs described in spec.md §4.2. Required keys: discover_host,
// client_id, name. Unknown keys are ignored.
func Resolve(kv map[string]string) (ControlPlane, Combiner, error) {
	discoverHost, ok := kv["discover_host"]
	if !ok || discoverHost == "" {
		return ControlPlane{}, Combiner{}, fmt.Errorf("%w: discover_host is required", errs.ErrConfigInvalid)
	}
	clientID, ok := kv["client_id"]
	if !ok || clientID == "" {
		return ControlPlane{}, Combiner{}, fmt.Errorf("%w: client_id is required", errs.ErrConfigInvalid)
	}
	name, ok := kv["name"]
	if !ok || name == "" {
		return ControlPlane{}, Combiner{}, fmt.Errorf("%w: name is required", errs.ErrConfigInvalid)
	}

	insecure, err := parseBool(kv, "insecure", false)
	if err != nil {
		return ControlPlane{}, Combiner{}, err
	}

	token, hasToken := kv["token"]
	if hasToken && token == "" {
		return ControlPlane{}, Combiner{}, fmt.Errorf("%w: token, if present, must be non-empty", errs.ErrConfigInvalid)
	}

	authScheme := defaultAuthScheme
	if raw, ok := kv["auth_scheme"]; ok {
		switch AuthScheme(raw) {
		case AuthSchemeBearer, AuthSchemeToken:
			authScheme = AuthScheme(raw)
		default:
			return ControlPlane{}, Combiner{}, fmt.Errorf("%w: auth_scheme %q must be Bearer or Token", errs.ErrConfigInvalid, raw)
		}
	}

	pkg := kv["package"]
	if pkg == "" {
		pkg = defaultPackage
	}

	scheme := "https"
	if insecure {
		scheme = "http"
	}

	ctl := ControlPlane{
		APIURL:            fmt.Sprintf("%s://%s", scheme, discoverHost),
		Token:             token,
		ClientID:          clientID,
		Name:              name,
		Package:           pkg,
		PreferredCombiner: kv["preferred_combiner"],
		Insecure:          insecure,
	}

	cmb := Combiner{
		Host:       kv["combiner"],
		ProxyHost:  kv["proxy_server"],
		Token:      token,
		AuthScheme: authScheme,
		Insecure:   insecure,
	}

	return ctl, cmb, nil
}

func parseBool(kv map[string]string, key string, def bool) (bool, error) {
	raw, ok := kv[key]
	if !ok {
		return def, nil
	}
	switch raw {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %s must be \"true\" or \"false\", got %q", errs.ErrConfigInvalid, key, raw)
	}
}
