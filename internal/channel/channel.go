// Package channel builds the gRPC channel the task engine uses to talk to
// the assigned combiner, composing the credential plugins, keepalive
// policy and proxy-routing behavior spec.md §4.4 describes.
package channel

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	grpcprometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"

	"github.com/scaleoutsystems/fedn-go-client/internal/config"
	"github.com/scaleoutsystems/fedn-go-client/internal/errs"
)

const (
	keepaliveTime    = 60 * time.Second
	keepaliveTimeout = 20 * time.Second
)

// bearerCredential injects the authorization header on every call.
type bearerCredential struct {
	scheme string
	token  string
}

func (b bearerCredential) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	return map[string]string{
		"authorization": fmt.Sprintf("%s %s", b.scheme, b.token),
	}, nil
}

func (b bearerCredential) RequireTransportSecurity() bool { return true }

// serverRouteCredential injects the grpc-server metadata header naming the
// true combiner host, independent of whatever host the channel actually
// dials (I5).
type serverRouteCredential struct {
	host string
}

func (s serverRouteCredential) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	return map[string]string{"grpc-server": s.host}, nil
}

func (s serverRouteCredential) RequireTransportSecurity() bool { return true }

// Build dials the combiner described by cmb, applying the credential
// composition, keepalive policy and client-side Prometheus interceptors
// that instrument every RPC the task engine issues.
func Build(cmb config.Combiner) (*grpc.ClientConn, error) {
	kp := grpc.WithKeepaliveParams(keepalive.ClientParameters{
		Time:                keepaliveTime,
		Timeout:             keepaliveTimeout,
		PermitWithoutStream: true,
	})

	opts := []grpc.DialOption{
		kp,
		grpc.WithUnaryInterceptor(grpcprometheus.UnaryClientInterceptor),
		grpc.WithStreamInterceptor(grpcprometheus.StreamClientInterceptor),
	}

	target := cmb.Host
	if cmb.ProxyHost != "" {
		target = cmb.ProxyHost
	}

	if cmb.Insecure {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	} else {
		if cmb.Token == "" || cmb.AuthScheme == "" {
			return nil, fmt.Errorf("%w: secure channel requires token and auth_scheme", errs.ErrConfigInvalid)
		}
		switch cmb.AuthScheme {
		case config.AuthSchemeBearer, config.AuthSchemeToken:
		default:
			return nil, fmt.Errorf("%w: auth_scheme %q must be Bearer or Token", errs.ErrConfigInvalid, cmb.AuthScheme)
		}

		creds := credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
		opts = append(opts,
			grpc.WithTransportCredentials(creds),
			grpc.WithPerRPCCredentials(bearerCredential{scheme: string(cmb.AuthScheme), token: cmb.Token}),
			grpc.WithPerRPCCredentials(serverRouteCredential{host: cmb.Host}),
		)
	}

	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", errs.ErrChannelUnavailable, target, err)
	}
	return conn, nil
}
