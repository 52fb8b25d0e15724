package service

import (
	"context"

	"bistro/catalog"
	"bistro/domain/menu"
	"bistro/domain/user"
	"bistro/metrics"

	"go.uber.org/zap"
)

// Roles resolves a session token to the caller's role.
type Roles interface {
	Resolve(token string) (user.Role, bool)
}

const msgManagerRequired = "Manager role required"

// UpdateResult carries the outcome of a menu mutation. Rule violations
// are reported here rather than as an error.
type UpdateResult struct {
	OK    bool
	Error string
}

type MenuService struct {
	store   *catalog.Store
	roles   Roles
	metrics *metrics.Metrics
	log     *zap.Logger
}

func NewMenuService(store *catalog.Store, roles Roles, m *metrics.Metrics, log *zap.Logger) *MenuService {
	if log == nil {
		log = zap.NewNop()
	}
	return &MenuService{store: store, roles: roles, metrics: m, log: log}
}

// GetMenu returns the current menu. It needs no session.
func (s *MenuService) GetMenu(ctx context.Context) menu.Menu {
	return s.store.Menu()
}

// UpdateMenu applies one ADD, UPDATE or DELETE to the menu. Only managers
// may call it; the check happens before any state is read.
func (s *MenuService) UpdateMenu(ctx context.Context, operation, category string, item menu.Item) (UpdateResult, error) {
	if err := requireRole(ctx, s.roles, user.RoleManager); err != nil {
		return UpdateResult{}, err
	}

	op := menu.ParseOperation(operation)
	cat, err := menu.ParseCategoryName(category)
	if err != nil {
		s.metrics.MenuUpdate(op.String(), false)
		return UpdateResult{Error: (&menu.UnknownCategoryError{Name: category}).Error()}, nil
	}

	_, err = s.store.UpdateMenu(ctx, func(cur menu.Menu) (menu.Menu, error) {
		return cur.Apply(op, cat, item)
	})
	switch {
	case err == nil:
		s.metrics.MenuUpdate(op.String(), true)
		s.log.Info("menu updated",
			zap.Stringer("op", op),
			zap.Stringer("category", cat),
			zap.String("item", item.ID),
		)
		return UpdateResult{OK: true}, nil
	case menu.IsRuleError(err):
		s.metrics.MenuUpdate(op.String(), false)
		return UpdateResult{Error: err.Error()}, nil
	default:
		s.log.Error("menu update failed", zap.Stringer("op", op), zap.Error(err))
		return UpdateResult{}, internal(err, "menu update failed")
	}
}

func requireRole(ctx context.Context, roles Roles, want user.Role) error {
	role, ok := roles.Resolve(TokenFrom(ctx))
	if !ok || role != want {
		return newError(KindPermissionDenied, msgManagerRequired)
	}
	return nil
}
