package rpcconfig

import (
	"crypto/tls"
	"crypto/x509"
	"os"

	"github.com/aashishbishow/quicserve/rpcerror"
)

// BuildServerTLSConfig loads the server's PEM identity from CertPath/KeyPath.
// When CAPath is set its bundle becomes the client CA pool, and when
// VerifyPeer is also true client certificates are required and verified
// against it. Certificates and keys are PEM-encoded, per spec.md section 6.
func (c Config) BuildServerTLSConfig() (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(c.CertPath, c.KeyPath)
	if err != nil {
		return nil, rpcerror.Wrap(rpcerror.KindCertificateError, err, "load server certificate %s / %s", c.CertPath, c.KeyPath)
	}

	tlsConf := &tls.Config{
		Certificates: []tls.Certificate{cert},
	}

	if c.CAPath != "" {
		pool, err := loadCertPool(c.CAPath)
		if err != nil {
			return nil, err
		}
		tlsConf.ClientCAs = pool
		if c.VerifyPeer {
			tlsConf.ClientAuth = tls.RequireAndVerifyClientCert
		}
	}

	return tlsConf, nil
}

// BuildClientTLSConfig builds the client's dial-time TLS config. When
// VerifyPeer is false, server certificate verification is skipped entirely,
// whether or not CAPath is set (test/dev use only). Otherwise the server
// certificate is verified against the CAPath bundle when set, or against
// the system root pool.
func (c Config) BuildClientTLSConfig() (*tls.Config, error) {
	tlsConf := &tls.Config{
		ServerName: c.ServerName,
	}

	if !c.VerifyPeer {
		tlsConf.InsecureSkipVerify = true
		return tlsConf, nil
	}

	if c.CAPath != "" {
		pool, err := loadCertPool(c.CAPath)
		if err != nil {
			return nil, err
		}
		tlsConf.RootCAs = pool
	}

	return tlsConf, nil
}

func loadCertPool(path string) (*x509.CertPool, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, rpcerror.Wrap(rpcerror.KindCertificateError, err, "read CA bundle %s", path)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, rpcerror.New(rpcerror.KindCertificateError, "no valid certificates found in CA bundle %s", path)
	}
	return pool, nil
}
