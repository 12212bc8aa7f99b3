package unit

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"pharmacy/internal/domain/model"
	"pharmacy/internal/repository"
	"pharmacy/internal/usecase"
)

// 管理画面のユーザー一覧（AuthUserRepoMockを使い回す）

func TestAdminListUsers_PagingMath(t *testing.T) {
	ctx := context.Background()
	userRepo := new(AuthUserRepoMock)

	userRepo.On("List", ctx, repository.UserListQuery{Page: 1, Limit: 10, Search: "minh"}).
		Return([]model.User{{ID: 1, Name: "Minh"}}, int64(11), nil)

	uc := usecase.NewAdminUserUsecase(userRepo)

	out, err := uc.ListUsers(ctx, usecase.ListUsersInput{Page: 1, Limit: 10, Search: " minh "})

	assert.NoError(t, err)
	assert.Equal(t, int64(11), out.TotalCount)
	// 11件 / 10件 => 2ページ
	assert.Equal(t, int64(2), out.TotalPages)
	assert.Equal(t, 1, out.CurrentPage)
	assert.Len(t, out.Items, 1)
}

func TestAdminListUsers_InvalidPaging(t *testing.T) {
	uc := usecase.NewAdminUserUsecase(new(AuthUserRepoMock))
	ctx := context.Background()

	_, err := uc.ListUsers(ctx, usecase.ListUsersInput{Page: 0, Limit: 10})
	assertHTTPStatus(t, err, http.StatusBadRequest)

	_, err = uc.ListUsers(ctx, usecase.ListUsersInput{Page: 1, Limit: 101})
	assertHTTPStatus(t, err, http.StatusBadRequest)
}
