package config

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"
)

// TestCerts holds the file paths of a throwaway PKI: a CA, a server
// certificate for the loopback address, and one client certificate per
// test role. The client common names are the subjects the ACL policy
// grants or denies.
type TestCerts struct {
	CAFile string

	ServerCertFile string
	ServerKeyFile  string

	RootClientCertFile string
	RootClientKeyFile  string

	NobodyClientCertFile string
	NobodyClientKeyFile  string
}

// GenerateTestCerts writes a freshly generated CA and leaf certificates as
// PEM files under dir and returns their paths. Tests use this in place of
// pre-provisioned certificate fixtures so the suite carries no external
// state.
func GenerateTestCerts(dir string) (*TestCerts, error) {
	caKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}

	caTmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "seglog-test-ca"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	caDER, err := x509.CreateCertificate(
		rand.Reader, caTmpl, caTmpl, &caKey.PublicKey, caKey,
	)
	if err != nil {
		return nil, err
	}

	caCert, err := x509.ParseCertificate(caDER)
	if err != nil {
		return nil, err
	}

	caFile := filepath.Join(dir, "ca.pem")
	if err := writePEM(caFile, "CERTIFICATE", caDER); err != nil {
		return nil, err
	}

	certs := &TestCerts{CAFile: caFile}

	issue := func(serial int64, cn string, server bool) (string, string, error) {
		key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			return "", "", err
		}

		tmpl := &x509.Certificate{
			SerialNumber: big.NewInt(serial),
			Subject:      pkix.Name{CommonName: cn},
			NotBefore:    time.Now().Add(-time.Hour),
			NotAfter:     time.Now().Add(24 * time.Hour),
			KeyUsage:     x509.KeyUsageDigitalSignature,
		}

		if server {
			tmpl.ExtKeyUsage = []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth}
			tmpl.IPAddresses = []net.IP{net.IPv4(127, 0, 0, 1)}
			tmpl.DNSNames = []string{"localhost"}
		} else {
			tmpl.ExtKeyUsage = []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth}
		}

		der, err := x509.CreateCertificate(
			rand.Reader, tmpl, caCert, &key.PublicKey, caKey,
		)
		if err != nil {
			return "", "", err
		}

		certFile := filepath.Join(dir, cn+".pem")
		if err := writePEM(certFile, "CERTIFICATE", der); err != nil {
			return "", "", err
		}

		keyDER, err := x509.MarshalECPrivateKey(key)
		if err != nil {
			return "", "", err
		}

		keyFile := filepath.Join(dir, cn+"-key.pem")
		if err := writePEM(keyFile, "EC PRIVATE KEY", keyDER); err != nil {
			return "", "", err
		}

		return certFile, keyFile, nil
	}

	if certs.ServerCertFile, certs.ServerKeyFile, err = issue(2, "server", true); err != nil {
		return nil, err
	}
	if certs.RootClientCertFile, certs.RootClientKeyFile, err = issue(3, "root", false); err != nil {
		return nil, err
	}
	if certs.NobodyClientCertFile, certs.NobodyClientKeyFile, err = issue(4, "nobody", false); err != nil {
		return nil, err
	}

	return certs, nil
}

func writePEM(path, blockType string, der []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	if err := pem.Encode(f, &pem.Block{Type: blockType, Bytes: der}); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
