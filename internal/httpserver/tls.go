package httpserver

import (
	"bytes"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

var (
	ErrNoKeyPEM               = errors.New("no PEM block in tls key")
	ErrUnsupportedKeyEncrypt  = errors.New("encrypted PKCS#8 keys are not supported, use a PEM key encrypted with a passphrase")
	ErrKeyPasswordWithoutFile = errors.New("tls key is encrypted but no passphrase file is configured")
)

// TLSFiles locates the serving key pair.
type TLSFiles struct {
	Cert string
	Key  string
	// CA certificates, if any, are appended to the served chain so clients
	// can build the path to their root.
	CA string
	// KeyPassword holds the passphrase of an encrypted PEM key.
	KeyPassword string
}

// LoadTLSConfig loads the serving key pair described by files.
func LoadTLSConfig(files TLSFiles) (*tls.Config, error) {
	certPEM, err := os.ReadFile(files.Cert)
	if err != nil {
		return nil, fmt.Errorf("read tls cert: %w", err)
	}

	keyPEM, err := os.ReadFile(files.Key)
	if err != nil {
		return nil, fmt.Errorf("read tls key: %w", err)
	}

	keyPEM, err = decryptKey(keyPEM, files.KeyPassword)
	if err != nil {
		return nil, err
	}

	if files.CA != "" {
		caPEM, err := os.ReadFile(files.CA)
		if err != nil {
			return nil, fmt.Errorf("read tls ca: %w", err)
		}

		certPEM = append(bytes.TrimRight(certPEM, "\n"), '\n')
		certPEM = append(certPEM, caPEM...)
	}

	pair, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, fmt.Errorf("load tls key pair: %w", err)
	}

	return &tls.Config{
		Certificates: []tls.Certificate{pair},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

// decryptKey returns keyPEM unchanged unless it is a passphrase encrypted PEM block.
func decryptKey(keyPEM []byte, passwordFile string) ([]byte, error) {
	block, _ := pem.Decode(keyPEM)
	if block == nil {
		return nil, ErrNoKeyPEM
	}

	if block.Type == "ENCRYPTED PRIVATE KEY" {
		return nil, ErrUnsupportedKeyEncrypt
	}

	//nolint:staticcheck // legacy PEM encryption is what openssl -des3/-aes256 writes
	if !x509.IsEncryptedPEMBlock(block) {
		return keyPEM, nil
	}

	if passwordFile == "" {
		return nil, ErrKeyPasswordWithoutFile
	}

	password, err := os.ReadFile(passwordFile)
	if err != nil {
		return nil, fmt.Errorf("read tls key passphrase: %w", err)
	}

	//nolint:staticcheck // see above
	der, err := x509.DecryptPEMBlock(block, bytes.TrimRight(password, "\r\n"))
	if err != nil {
		return nil, fmt.Errorf("decrypt tls key: %w", err)
	}

	return pem.EncodeToMemory(&pem.Block{Type: block.Type, Bytes: der}), nil
}
