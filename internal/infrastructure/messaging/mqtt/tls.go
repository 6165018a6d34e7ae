package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"strings"
)

// NewTLSConfig builds mutual TLS settings from base64 encoded PEM material
func NewTLSConfig(certificate, privateKey, rootCA string) (*tls.Config, error) {
	certPEM, err := decodeBase64("certificate", certificate)
	if err != nil {
		return nil, err
	}
	keyPEM, err := decodeBase64("private key", privateKey)
	if err != nil {
		return nil, err
	}
	caPEM, err := decodeBase64("root CA", rootCA)
	if err != nil {
		return nil, err
	}

	pair, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, fmt.Errorf("invalid device certificate: %w", err)
	}

	roots := x509.NewCertPool()
	if !roots.AppendCertsFromPEM(caPEM) {
		return nil, fmt.Errorf("invalid root CA: no certificates found")
	}

	return &tls.Config{
		Certificates: []tls.Certificate{pair},
		RootCAs:      roots,
		MinVersion:   tls.VersionTLS12,
	}, nil
}

func decodeBase64(name, value string) ([]byte, error) {
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(value))
	if err != nil {
		return nil, fmt.Errorf("invalid base64 %s: %w", name, err)
	}
	return decoded, nil
}
