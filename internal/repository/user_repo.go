package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"escrowhub/internal/model"
	"escrowhub/internal/store"
)

type UserRepository struct {
	store  store.Store
	logger *zap.Logger
}

func NewUserRepository(s store.Store, logger *zap.Logger) *UserRepository {
	return &UserRepository{store: s, logger: logger}
}

func (r *UserRepository) Get(ctx context.Context, address string) (*model.User, error) {
	var u model.User
	ok, err := loadJSON(ctx, r.store, store.UserKey(address), &u)
	if err != nil {
		r.logger.Error("Failed to load user", zap.String("address", address), zap.Error(err))
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: user %s", model.ErrNotFound, address)
	}
	return &u, nil
}

func (r *UserRepository) Save(ctx context.Context, u *model.User) error {
	r.logger.Debug("Saving user", zap.String("address", u.Address), zap.String("role", string(u.Role)))
	if err := saveJSON(ctx, r.store, store.UserKey(u.Address), u); err != nil {
		r.logger.Error("Failed to save user", zap.String("address", u.Address), zap.Error(err))
		return err
	}
	return nil
}
