// Package credentials resolves TLS material for secure telemetry
// endpoints. A missing or unreadable certificate file is never fatal:
// it is logged and the connection proceeds with system roots.
package credentials

import (
	"crypto/tls"
	"crypto/x509"
	"os"

	"go.uber.org/zap"
)

// ReadCertFile reads a PEM certificate file. On any failure it logs a
// warning and returns nil; callers treat nil as "no custom CA".
func ReadCertFile(log *zap.Logger, path string) []byte {
	if path == "" {
		return nil
	}
	pem, err := os.ReadFile(path)
	if err != nil {
		log.Warn("Could not read TLS certificate file, continuing without it",
			zap.String("path", path),
			zap.Error(err),
		)
		return nil
	}
	return pem
}

// ClientTLSConfig builds a client TLS config trusting the CA in
// certFile in addition to nothing else. When certFile is empty or
// unreadable, nil is returned and the transport falls back to the
// system certificate pool.
func ClientTLSConfig(log *zap.Logger, certFile string) *tls.Config {
	pem := ReadCertFile(log, certFile)
	if pem == nil {
		return nil
	}

	pool := x509.NewCertPool()
	if ok := pool.AppendCertsFromPEM(pem); !ok {
		log.Warn("No certificates parsed from TLS certificate file, continuing without it",
			zap.String("path", certFile),
		)
		return nil
	}

	return &tls.Config{RootCAs: pool}
}
