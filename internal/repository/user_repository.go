package repository

import (
	"context"

	"market/internal/domain/model"
)

type UserRepository interface {
	FindByID(ctx context.Context, userID int64) (model.User, error)
	//初回アクセス時の遅延プロビジョニング（IDトークンのclaimsから）
	Create(ctx context.Context, user model.User) (model.User, error)
	Update(ctx context.Context, user model.User) error
	//username/emailの重複チェック（自分自身は除外）
	ExistsOtherWithUsernameOrEmail(ctx context.Context, excludeID int64, username string, email string) (bool, error)
}
