package payment

import (
	"fmt"

	"github.com/stephanos-estetic/backend/internal/domain/payment"
	"github.com/stephanos-estetic/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewGateways builds every configured provider. The fake provider is always
// available outside production so pending intents created with it can still
// be settled after switching to webpay.
func NewGateways(cfg config.PaymentConfig, production bool, logger *zap.Logger) ([]payment.Gateway, error) {
	var gateways []payment.Gateway
	if !production {
		gateways = append(gateways, NewFakeGateway())
	}

	if cfg.Provider == WebpayGatewayName || cfg.Webpay.CommerceCode != "" {
		webpay, err := NewWebpayGateway(cfg.Webpay, logger)
		if err != nil {
			if cfg.Provider == WebpayGatewayName {
				return nil, err
			}
			logger.Warn("webpay credentials incomplete, provider disabled", zap.Error(err))
		} else {
			gateways = append(gateways, webpay)
		}
	}

	for _, g := range gateways {
		if g.Name() == cfg.Provider {
			return gateways, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", payment.ErrUnknownProvider, cfg.Provider)
}
