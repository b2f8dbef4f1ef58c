package http

import (
	"crypto/tls"
	"net/http"

	"golang.org/x/crypto/acme/autocert"
)

// WithServerTLSConfig installs a fully-initialized TLS configuration on a
// Server, matching spec §6's "caller supplies a fully-initialized TLS
// context" for the server side.
func WithServerTLSConfig(cfg *tls.Config) ServerOption {
	return func(s *Server) { s.http.TLSConfig = cfg }
}

// WithAutocert wires an autocert.Manager into the server, obtaining and
// renewing certificates automatically instead of requiring a caller to
// hand-build a tls.Config. RunTLS must be used to start a Server
// configured this way.
func WithAutocert(m *autocert.Manager) ServerOption {
	return func(s *Server) {
		s.http.TLSConfig = m.TLSConfig()
		s.autocert = m
	}
}

// ServeAutocertChallenge answers the ACME HTTP-01 challenge on address,
// typically ":80". It blocks, and only does anything useful once the
// Server has been built with WithAutocert.
func (s *Server) ServeAutocertChallenge(address string) error {
	if s.autocert == nil {
		return nil
	}
	err := http.ListenAndServe(address, s.autocert.HTTPHandler(nil))
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// RunTLS starts accepting TLS connections using the Server's configured
// TLSConfig. certFile/keyFile are ignored (and may be empty) when the
// Server was built with WithAutocert, since the manager supplies
// certificates via GetCertificate.
func (s *Server) RunTLS(certFile, keyFile string) error {
	err := s.http.ListenAndServeTLS(certFile, keyFile)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
