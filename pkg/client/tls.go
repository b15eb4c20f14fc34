package client

import (
	"crypto/tls"
	"crypto/x509"
	"os"

	"github.com/Slach/catalog-browser/pkg/config"
	"github.com/pkg/errors"
)

// tlsConfig returns nil when the backend is plain text
func tlsConfig(cfg config.Backend) (*tls.Config, error) {
	if !cfg.Secure && (cfg.TLSCert == "" || cfg.TLSKey == "") && cfg.TLSCa == "" && !cfg.TLSVerify {
		return nil, nil
	}
	tlsCfg := &tls.Config{
		InsecureSkipVerify: !cfg.TLSVerify,
	}
	if cfg.TLSCert != "" && cfg.TLSKey != "" {
		cert, err := tls.LoadX509KeyPair(cfg.TLSCert, cfg.TLSKey)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load client certificate")
		}
		tlsCfg.Certificates = []tls.Certificate{cert}
	}
	if cfg.TLSCa != "" {
		caCert, err := os.ReadFile(cfg.TLSCa)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read CA certificate")
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caCert) {
			return nil, errors.Errorf("no certificates found in %s", cfg.TLSCa)
		}
		tlsCfg.RootCAs = pool
	}
	return tlsCfg, nil
}
