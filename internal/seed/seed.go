package seed

import (
	"context"
	"errors"

	"github.com/metrobox/forestry-pots/internal/config"
	identitydomain "github.com/metrobox/forestry-pots/internal/identity/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module ensures bootstrap data exists on startup.
var Module = fx.Module("seed",
	fx.Invoke(EnsureDefaultAdmin),
)

// EnsureDefaultAdmin creates the bootstrap administrator when no account
// exists for the configured email. Re-runs are no-ops.
func EnsureDefaultAdmin(cfg config.Config, log *zap.Logger, identitySvc identitydomain.Service) error {
	if !cfg.Bootstrap.EnsureDefaultAdmin {
		return nil
	}

	_, err := identitySvc.CreateUser(context.Background(), identitydomain.CreateUserRequest{
		Name:     "Administrator",
		Company:  "Forestry Pots",
		Email:    cfg.Bootstrap.DefaultAdminEmail,
		Password: cfg.Bootstrap.DefaultAdminPassword,
		Role:     identitydomain.RoleAdmin,
	})
	if errors.Is(err, identitydomain.ErrEmailTaken) {
		return nil
	}
	if err != nil {
		return err
	}

	log.Info("default admin created", zap.String("email", cfg.Bootstrap.DefaultAdminEmail))
	return nil
}
