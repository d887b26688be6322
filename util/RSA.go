package util

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

var (
	keyMu      sync.RWMutex
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
)

var ErrKeysNotLoaded = errors.New("rsa keys not loaded")

// InitRSAKeys parses PEM encoded keys. Literal "\n" sequences are accepted so
// keys can live on one line in .env files.
func InitRSAKeys(privPEM, pubPEM string) error {
	if privPEM == "" {
		return errors.New("RSA_PRIVATE_KEY not set")
	}
	if pubPEM == "" {
		return errors.New("RSA_PUBLIC_KEY not set")
	}

	privBlock, _ := pem.Decode([]byte(strings.ReplaceAll(privPEM, `\n`, "\n")))
	if privBlock == nil {
		return errors.New("failed to decode RSA_PRIVATE_KEY PEM")
	}
	priv, err := parsePrivateKey(privBlock.Bytes)
	if err != nil {
		return err
	}

	pubBlock, _ := pem.Decode([]byte(strings.ReplaceAll(pubPEM, `\n`, "\n")))
	if pubBlock == nil {
		return errors.New("failed to decode RSA_PUBLIC_KEY PEM")
	}
	parsed, err := x509.ParsePKIXPublicKey(pubBlock.Bytes)
	if err != nil {
		return fmt.Errorf("parse public key: %w", err)
	}
	pub, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return errors.New("RSA_PUBLIC_KEY is not an RSA key")
	}

	SetRSAKeys(priv, pub)
	log.Info().Msg("RSA keys loaded")
	return nil
}

func parsePrivateKey(der []byte) (*rsa.PrivateKey, error) {
	if k, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return k, nil
	}
	k, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	rk, ok := k.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("RSA_PRIVATE_KEY is not an RSA key")
	}
	return rk, nil
}

// SetRSAKeys installs an already parsed key pair.
func SetRSAKeys(priv *rsa.PrivateKey, pub *rsa.PublicKey) {
	keyMu.Lock()
	defer keyMu.Unlock()
	privateKey = priv
	publicKey = pub
}

func GetPrivateKey() *rsa.PrivateKey {
	keyMu.RLock()
	defer keyMu.RUnlock()
	return privateKey
}

func GetPublicKey() *rsa.PublicKey {
	keyMu.RLock()
	defer keyMu.RUnlock()
	return publicKey
}
