package channel

import (
	"errors"
	"testing"

	"github.com/scaleoutsystems/fedn-go-client/internal/config"
	"github.com/scaleoutsystems/fedn-go-client/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildInsecureSucceeds(t *testing.T) {
	cmb := config.Combiner{Host: "combiner.local:8080", Insecure: true}
	conn, err := Build(cmb)
	require.NoError(t, err)
	defer conn.Close()
}

func TestBuildSecureRequiresToken(t *testing.T) {
	cmb := config.Combiner{Host: "combiner.local", AuthScheme: config.AuthSchemeBearer}
	_, err := Build(cmb)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrConfigInvalid))
}

func TestBuildSecureRequiresValidAuthScheme(t *testing.T) {
	cmb := config.Combiner{Host: "combiner.local", Token: "tok", AuthScheme: "Basic"}
	_, err := Build(cmb)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrConfigInvalid))
}

func TestBuildSecureSucceedsWithValidCreds(t *testing.T) {
	cmb := config.Combiner{Host: "combiner.local:443", Token: "tok", AuthScheme: config.AuthSchemeToken}
	conn, err := Build(cmb)
	require.NoError(t, err)
	defer conn.Close()
}

func TestBearerCredentialMetadata(t *testing.T) {
	b := bearerCredential{scheme: "Bearer", token: "secret"}
	md, err := b.GetRequestMetadata(nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", md["authorization"])
}

func TestServerRouteCredentialNamesRealHostNotProxy(t *testing.T) {
	s := serverRouteCredential{host: "real-combiner.internal"}
	md, err := s.GetRequestMetadata(nil)
	require.NoError(t, err)
	assert.Equal(t, "real-combiner.internal", md["grpc-server"])
}

// TestBuildDialsProxyHost exercises the dial half of I5 through Build
// itself: the dial target follows proxy_host. The grpc-server value is
// checked by TestServerRouteCredentialNamesRealHostNotProxy.
func TestBuildDialsProxyHost(t *testing.T) {
	cmb := config.Combiner{
		Host:       "real-combiner.internal:443",
		ProxyHost:  "proxy.example:443",
		Token:      "tok",
		AuthScheme: config.AuthSchemeBearer,
	}
	conn, err := Build(cmb)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, "proxy.example:443", conn.Target())
}
