// Package appstore verifies signed platform purchase transactions.
package appstore

import (
	"context"
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fredylg/ReefBuddy-sub001/internal/domain/purchase"
	"github.com/fredylg/ReefBuddy-sub001/internal/shared/config"
	"github.com/fredylg/ReefBuddy-sub001/internal/shared/logger"
)

// transactionClaims mirrors the JWS payload of a StoreKit signed transaction.
type transactionClaims struct {
	TransactionID         string `json:"transactionId"`
	OriginalTransactionID string `json:"originalTransactionId"`
	ProductID             string `json:"productId"`
	BundleID              string `json:"bundleId"`
	Environment           string `json:"environment"`
	PurchaseDateMS        int64  `json:"purchaseDate"`
	jwt.RegisteredClaims
}

// TransactionVerifier checks the ES256 signature of a signed transaction and
// anchors its x5c certificate chain to the platform root. In development mode
// without a configured root the chain anchor is skipped (signature is still
// checked against the embedded leaf certificate); production requires the
// root and fails closed without it.
type TransactionVerifier struct {
	roots      *x509.CertPool
	production bool
	logger     logger.Interface
}

// NewTransactionVerifier creates a verifier from the App Store configuration.
func NewTransactionVerifier(cfg config.AppStoreConfig, production bool, logger logger.Interface) (*TransactionVerifier, error) {
	v := &TransactionVerifier{
		production: production,
		logger:     logger,
	}

	if cfg.RootCertPath == "" {
		if production {
			return nil, fmt.Errorf("appstore root certificate not configured")
		}
		logger.Warnw("appstore root certificate not configured, chain anchoring disabled")
		return v, nil
	}

	data, err := os.ReadFile(cfg.RootCertPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read appstore root certificate: %w", err)
	}

	pool := x509.NewCertPool()
	if block, _ := pem.Decode(data); block != nil {
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse appstore root certificate: %w", err)
		}
		pool.AddCert(cert)
	} else {
		cert, err := x509.ParseCertificate(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse appstore root certificate: %w", err)
		}
		pool.AddCert(cert)
	}

	v.roots = pool
	return v, nil
}

var _ purchase.Verifier = (*TransactionVerifier)(nil)

// Verify checks the signed transaction envelope and returns its claims.
func (v *TransactionVerifier) Verify(ctx context.Context, signedTransaction string) (*purchase.VerifiedTransaction, error) {
	if signedTransaction == "" {
		return nil, fmt.Errorf("%w: empty payload", purchase.ErrVerificationFailed)
	}

	claims := &transactionClaims{}
	token, err := jwt.ParseWithClaims(signedTransaction, claims, v.leafKey,
		jwt.WithValidMethods([]string{jwt.SigningMethodES256.Alg()}),
	)
	if err != nil {
		v.logger.Warnw("signed transaction verification failed", "error", err)
		return nil, fmt.Errorf("%w: %v", purchase.ErrVerificationFailed, err)
	}
	if !token.Valid {
		return nil, purchase.ErrVerificationFailed
	}

	if claims.TransactionID == "" || claims.ProductID == "" {
		return nil, fmt.Errorf("%w: missing transaction or product identifier", purchase.ErrVerificationFailed)
	}

	return &purchase.VerifiedTransaction{
		TransactionID:         claims.TransactionID,
		OriginalTransactionID: claims.OriginalTransactionID,
		ProductID:             claims.ProductID,
		BundleID:              claims.BundleID,
		Environment:           claims.Environment,
		PurchaseDate:          time.UnixMilli(claims.PurchaseDateMS).UTC(),
	}, nil
}

// leafKey extracts the signing key from the x5c header, anchoring the chain
// to the platform root when one is configured.
func (v *TransactionVerifier) leafKey(token *jwt.Token) (interface{}, error) {
	chain, err := parseCertChain(token)
	if err != nil {
		return nil, err
	}
	leaf := chain[0]

	if v.roots != nil {
		intermediates := x509.NewCertPool()
		for _, cert := range chain[1:] {
			intermediates.AddCert(cert)
		}
		if _, err := leaf.Verify(x509.VerifyOptions{
			Roots:         v.roots,
			Intermediates: intermediates,
			KeyUsages:     []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
		}); err != nil {
			return nil, fmt.Errorf("certificate chain does not anchor to platform root: %w", err)
		}
	}

	key, ok := leaf.PublicKey.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("leaf certificate key is not ECDSA")
	}
	return key, nil
}

func parseCertChain(token *jwt.Token) ([]*x509.Certificate, error) {
	raw, ok := token.Header["x5c"].([]interface{})
	if !ok || len(raw) == 0 {
		return nil, fmt.Errorf("missing x5c certificate chain")
	}

	chain := make([]*x509.Certificate, 0, len(raw))
	for i, entry := range raw {
		encoded, ok := entry.(string)
		if !ok {
			return nil, fmt.Errorf("x5c entry %d is not a string", i)
		}
		der, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("failed to decode x5c entry %d: %w", i, err)
		}
		cert, err := x509.ParseCertificate(der)
		if err != nil {
			return nil, fmt.Errorf("failed to parse x5c entry %d: %w", i, err)
		}
		chain = append(chain, cert)
	}
	return chain, nil
}
