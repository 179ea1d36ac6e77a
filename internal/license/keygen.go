// internal/license/keygen.go
package license

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"net"
	"os"
	"runtime"

	"github.com/keygen-sh/keygen-go/v3"
	"go.uber.org/zap"
)

const minLicenseKeyLength = 16

// Validator checks the operator's license key against Keygen.sh, bound
// to a machine fingerprint. When no Keygen account is configured it
// falls back to an offline sanity check so development setups still
// start.
type Validator struct {
	logger    *zap.Logger
	accountID string
}

func NewValidator(accountID, productToken, productID string, logger *zap.Logger) *Validator {
	keygen.Account = accountID
	keygen.Product = productID
	keygen.Token = productToken

	return &Validator{
		logger:    logger.Named("license"),
		accountID: accountID,
	}
}

// Validate checks the license key. A not-yet-activated license is
// activated for this machine on the spot.
func (v *Validator) Validate(ctx context.Context, licenseKey string) error {
	if len(licenseKey) < minLicenseKeyLength {
		return errors.New("license key is too short")
	}

	if v.accountID == "" {
		v.logger.Warn("No license account configured, skipping online validation")
		return nil
	}

	v.logger.Info("🔑 Validating license: " + licenseKey[:8] + "...")

	fingerprint, err := machineFingerprint()
	if err != nil {
		return fmt.Errorf("failed to generate machine fingerprint: %w", err)
	}

	keygen.LicenseKey = licenseKey

	lic, err := keygen.Validate(ctx, fingerprint)
	switch {
	case errors.Is(err, keygen.ErrLicenseNotActivated):
		v.logger.Info("License not activated, activating this machine")
		machine, activateErr := lic.Activate(ctx, fingerprint)
		if activateErr != nil {
			return fmt.Errorf("failed to activate license: %w", activateErr)
		}
		v.logger.Info("License activated", zap.String("machine_id", machine.ID))

	case errors.Is(err, keygen.ErrLicenseExpired):
		return errors.New("license has expired")

	case err != nil:
		return fmt.Errorf("license validation failed: %w", err)
	}

	if lic == nil {
		return errors.New("license not found")
	}

	v.logger.Info("✅ License valid", zap.String("license_id", lic.ID))
	return nil
}

// machineFingerprint hashes hostname, first active MAC address and OS
// into a stable machine identity.
func machineFingerprint() (string, error) {
	interfaces, err := net.Interfaces()
	if err != nil {
		return "", err
	}

	var mac string
	for _, iface := range interfaces {
		if iface.Flags&net.FlagUp != 0 && iface.Flags&net.FlagLoopback == 0 {
			mac = iface.HardwareAddr.String()
			break
		}
	}
	if mac == "" {
		return "", errors.New("no active network interface found")
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	hash := sha256.Sum256([]byte(hostname + "-" + mac + "-" + runtime.GOOS))
	return fmt.Sprintf("%x", hash), nil
}
