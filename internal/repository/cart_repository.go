package repository

import (
	"context"

	"market/internal/domain/model"
)

type CartRepository interface {
	//無ければ作る（1ユーザー1カート）
	GetOrCreateByUserID(ctx context.Context, userID int64) (model.Cart, error)
	FindByUserID(ctx context.Context, userID int64) (model.Cart, error)
}
