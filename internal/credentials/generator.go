package credentials

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/skip2/go-qrcode"
)

const (
	defaultQRSize = 290
	minQRSize     = 64
	maxQRSize     = 2048

	// ContentTypePNG is the media type of rendered codes.
	ContentTypePNG = "image/png"
)

// Config carries the settings required to mint credentials.
type Config struct {
	Secret        string
	BaseURL       string
	QRSize        int
	RecoveryLevel string
}

// Minted is a freshly derived credential that has not been persisted yet.
type Minted struct {
	Token         string
	ValidationURL string
	ImageKey      string
	Image         []byte
	IssuedAt      time.Time
}

// Generator derives tokens and renders validation QR codes.
type Generator struct {
	secret  []byte
	baseURL string
	size    int
	level   qrcode.RecoveryLevel
}

// NewGenerator validates cfg and returns a ready generator.
func NewGenerator(cfg Config) (*Generator, error) {
	secret := strings.TrimSpace(cfg.Secret)
	if len(secret) < 16 {
		return nil, errors.New("credentials: secret must be at least 16 characters")
	}

	baseURL, err := ParseBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	size := cfg.QRSize
	if size == 0 {
		size = defaultQRSize
	}
	if size < minQRSize || size > maxQRSize {
		return nil, fmt.Errorf("credentials: qr size must be between %d and %d pixels", minQRSize, maxQRSize)
	}

	level, err := ParseRecoveryLevel(cfg.RecoveryLevel)
	if err != nil {
		return nil, err
	}

	return &Generator{
		secret:  []byte(secret),
		baseURL: baseURL,
		size:    size,
		level:   level,
	}, nil
}

// BaseURL returns the normalised validation host.
func (g *Generator) BaseURL() string {
	return g.baseURL
}

// Mint derives a token for externalID at issuedAt and renders its QR image.
func (g *Generator) Mint(externalID string, issuedAt time.Time) (Minted, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return Minted{}, errors.New("credentials: external id is required")
	}

	token := DeriveToken(g.secret, externalID, issuedAt)
	link := ValidationURL(g.baseURL, token)

	png, err := qrcode.Encode(link, g.level, g.size)
	if err != nil {
		return Minted{}, fmt.Errorf("credentials: render qr code: %w", err)
	}

	return Minted{
		Token:         token,
		ValidationURL: link,
		ImageKey:      ImageKey(externalID, token),
		Image:         png,
		IssuedAt:      issuedAt,
	}, nil
}

// ParseRecoveryLevel maps a configuration string to a QR error correction level.
func ParseRecoveryLevel(value string) (qrcode.RecoveryLevel, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "medium", "m":
		return qrcode.Medium, nil
	case "low", "l":
		return qrcode.Low, nil
	case "high", "q":
		return qrcode.High, nil
	case "highest", "h":
		return qrcode.Highest, nil
	default:
		return qrcode.Medium, fmt.Errorf("credentials: unknown recovery level %q", value)
	}
}
