package payment

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"github.com/dealership/backend/internal/infrastructure/config"
)

// AlipayConfig contains configuration for the Alipay Open Platform API
type AlipayConfig struct {
	// AppID is the Alipay application ID
	AppID string
	// PrivateKey is the application private key for signing requests
	PrivateKey *rsa.PrivateKey
	// AlipayPublicKey is Alipay's public key for verifying responses/callbacks
	AlipayPublicKey *rsa.PublicKey
	// IsSandbox indicates whether to use sandbox environment
	IsSandbox bool
	// SignType is the signature algorithm (RSA2 recommended)
	SignType string
	// NotifyURL is the default callback URL for payment notifications
	NotifyURL string
	// ReturnURL is the default return URL after payment
	ReturnURL string
}

// Errors for configuration validation
var (
	ErrAlipayMissingAppID      = errors.New("alipay: missing app ID")
	ErrAlipayMissingPrivateKey = errors.New("alipay: missing private key")
	ErrAlipayInvalidPrivateKey = errors.New("alipay: invalid private key format")
	ErrAlipayMissingPublicKey  = errors.New("alipay: missing Alipay public key")
	ErrAlipayInvalidPublicKey  = errors.New("alipay: invalid Alipay public key format")
	ErrAlipayMissingNotifyURL  = errors.New("alipay: missing notify URL")
	ErrAlipayInvalidSignType   = errors.New("alipay: invalid sign type, must be RSA2 or RSA")
)

// Validate validates the configuration
func (c *AlipayConfig) Validate() error {
	if c.AppID == "" {
		return ErrAlipayMissingAppID
	}
	if c.PrivateKey == nil {
		return ErrAlipayMissingPrivateKey
	}
	if c.AlipayPublicKey == nil {
		return ErrAlipayMissingPublicKey
	}
	if c.SignType == "" {
		c.SignType = "RSA2" // Default to RSA2
	}
	if c.SignType != "RSA2" && c.SignType != "RSA" {
		return ErrAlipayInvalidSignType
	}
	if c.NotifyURL == "" {
		return ErrAlipayMissingNotifyURL
	}
	return nil
}

// NewAlipayConfig builds an AlipayConfig from application configuration,
// loading the RSA key material from the configured PEM files
func NewAlipayConfig(cfg *config.PaymentConfig) (*AlipayConfig, error) {
	privateKey, err := loadPrivateKeyFromFile(cfg.PrivateKeyPath)
	if err != nil {
		return nil, err
	}
	publicKey, err := loadPublicKeyFromFile(cfg.PublicKeyPath)
	if err != nil {
		return nil, err
	}

	ac := &AlipayConfig{
		AppID:           cfg.AppID,
		PrivateKey:      privateKey,
		AlipayPublicKey: publicKey,
		IsSandbox:       cfg.Sandbox,
		SignType:        cfg.SignType,
		NotifyURL:       cfg.NotifyURL,
		ReturnURL:       cfg.ReturnURL,
	}
	if err := ac.Validate(); err != nil {
		return nil, err
	}
	return ac, nil
}

// ParsePrivateKeyPEM parses an RSA private key from a PEM string.
// Both PKCS8 and PKCS1 formats are accepted.
func ParsePrivateKeyPEM(pemStr string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(pemStr))
	if block == nil {
		return nil, ErrAlipayInvalidPrivateKey
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		// Try PKCS1 format
		pkcs1Key, pkcs1Err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if pkcs1Err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAlipayInvalidPrivateKey, err)
		}
		return pkcs1Key, nil
	}

	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, ErrAlipayInvalidPrivateKey
	}
	return rsaKey, nil
}

// ParsePublicKeyPEM parses an RSA public key from a PEM string
func ParsePublicKeyPEM(pemStr string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(pemStr))
	if block == nil {
		return nil, ErrAlipayInvalidPublicKey
	}

	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAlipayInvalidPublicKey, err)
	}

	rsaKey, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, ErrAlipayInvalidPublicKey
	}
	return rsaKey, nil
}

func loadPrivateKeyFromFile(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("alipay: failed to read private key file: %w", err)
	}
	return ParsePrivateKeyPEM(string(data))
}

func loadPublicKeyFromFile(path string) (*rsa.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("alipay: failed to read public key file: %w", err)
	}
	return ParsePublicKeyPEM(string(data))
}
