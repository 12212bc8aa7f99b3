package usecase

import (
	"context"
	"net/http"
	"strings"

	"pharmacy/internal/domain/model"
	repo "pharmacy/internal/repository"
)

// 管理画面のユーザー一覧。
type AdminUserUsecase struct {
	userRepo repo.UserRepository
}

func NewAdminUserUsecase(userRepo repo.UserRepository) *AdminUserUsecase {
	return &AdminUserUsecase{userRepo: userRepo}
}

type ListUsersInput struct {
	Page   int
	Limit  int
	Search string
}

type UserListOutput struct {
	Items       []model.User `json:"items"`
	TotalCount  int64        `json:"totalCount"`
	TotalPages  int64        `json:"totalPages"`
	CurrentPage int          `json:"currentPage"`
}

// name/emailの部分一致検索付きページング一覧。
// password_hashはmodel側のjson:"-"で絶対に出ない。
func (u *AdminUserUsecase) ListUsers(ctx context.Context, in ListUsersInput) (UserListOutput, error) {
	if in.Page < 1 {
		return UserListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return UserListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	items, total, err := u.userRepo.List(ctx, repo.UserListQuery{
		Page:   in.Page,
		Limit:  in.Limit,
		Search: strings.TrimSpace(in.Search),
	})
	if err != nil {
		return UserListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	totalPages := total / int64(in.Limit)
	if total%int64(in.Limit) != 0 {
		totalPages++
	}

	return UserListOutput{
		Items:       items,
		TotalCount:  total,
		TotalPages:  totalPages,
		CurrentPage: in.Page,
	}, nil
}
