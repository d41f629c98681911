package config

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// TLSConfig names the certificate material a peer needs. Server selects
// between the serving side (verify client certs against the CA) and the
// dialing side (verify the server against the CA).
type TLSConfig struct {
	CertFile      string
	KeyFile       string
	CAFile        string
	ServerAddress string
	Server        bool
}

// SetupTLSConfig builds a *tls.Config from the given files. When both a
// cert and key are named, the pair is loaded as this peer's certificate.
// When a CA is named, servers require and verify client certificates
// against it, and clients verify the server against it.
func SetupTLSConfig(config TLSConfig) (*tls.Config, error) {

	var err error

	tlsConfig := &tls.Config{}

	if config.CertFile != "" && config.KeyFile != "" {
		tlsConfig.Certificates = make([]tls.Certificate, 1)

		tlsConfig.Certificates[0], err = tls.LoadX509KeyPair(
			config.CertFile,
			config.KeyFile,
		)

		if err != nil {
			return nil, err
		}
	}

	if config.CAFile != "" {
		b, err := os.ReadFile(config.CAFile)

		if err != nil {
			return nil, err
		}

		ca := x509.NewCertPool()

		if ok := ca.AppendCertsFromPEM(b); !ok {
			return nil, fmt.Errorf(
				"failed to parse root certificates from: %q",
				config.CAFile,
			)
		}

		if config.Server {
			tlsConfig.ClientCAs = ca
			tlsConfig.ClientAuth = tls.RequireAndVerifyClientCert
		} else {
			tlsConfig.RootCAs = ca
		}
		tlsConfig.ServerName = config.ServerAddress
	}

	return tlsConfig, nil
}
