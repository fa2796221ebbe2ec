package service_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sairamarava/CodeTogether/internal/domain"
	"github.com/sairamarava/CodeTogether/internal/repository/mocks"
	"github.com/sairamarava/CodeTogether/internal/service"
)

func executionRoom(allowExec bool) *domain.Room {
	return &domain.Room{
		ID:     1,
		RoomID: "ABCD1234",
		Settings: domain.RoomSettings{
			AllowCodeExecution: allowExec,
		},
	}
}

func TestExecutionService_Execute_Success(t *testing.T) {
	runner := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/execute", r.URL.Path)
		w.Write([]byte(`{"run":{"stdout":"hi\n","stderr":"","code":0}}`))
	}))
	defer runner.Close()

	roomRepo := new(mocks.RoomRepository)
	limiter := new(mocks.RateLimitRepository)
	exec := service.NewExecutionService(roomRepo, limiter, runner.URL)
	ctx := context.Background()

	roomRepo.On("FindByRoomID", ctx, "ABCD1234").Return(executionRoom(true), nil).Once()
	limiter.On("Allow", ctx, "execute:7", service.ExecuteRateLimit, service.ExecuteRateWindow).
		Return(true, nil).Once()

	result, err := exec.Execute(ctx, 7, "ABCD1234", "python", `print("hi")`, "")

	require.NoError(t, err)
	assert.Equal(t, "hi\n", result.Stdout)
	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, "python", result.Language)
}

func TestExecutionService_Execute_DisabledByRoomSettings(t *testing.T) {
	roomRepo := new(mocks.RoomRepository)
	limiter := new(mocks.RateLimitRepository)
	exec := service.NewExecutionService(roomRepo, limiter, "http://unused")
	ctx := context.Background()

	roomRepo.On("FindByRoomID", ctx, "ABCD1234").Return(executionRoom(false), nil).Once()

	_, err := exec.Execute(ctx, 7, "ABCD1234", "python", "print(1)", "")

	assert.True(t, errors.Is(err, service.ErrExecutionDisabled))
	limiter.AssertNotCalled(t, "Allow", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestExecutionService_Execute_UnsupportedLanguage(t *testing.T) {
	roomRepo := new(mocks.RoomRepository)
	limiter := new(mocks.RateLimitRepository)
	exec := service.NewExecutionService(roomRepo, limiter, "http://unused")
	ctx := context.Background()

	roomRepo.On("FindByRoomID", ctx, "ABCD1234").Return(executionRoom(true), nil).Once()

	_, err := exec.Execute(ctx, 7, "ABCD1234", "cobol", "DISPLAY 'HI'", "")

	assert.True(t, errors.Is(err, service.ErrUnsupportedLanguage))
}

func TestExecutionService_Execute_RateLimited(t *testing.T) {
	roomRepo := new(mocks.RoomRepository)
	limiter := new(mocks.RateLimitRepository)
	exec := service.NewExecutionService(roomRepo, limiter, "http://unused")
	ctx := context.Background()

	roomRepo.On("FindByRoomID", ctx, "ABCD1234").Return(executionRoom(true), nil).Once()
	limiter.On("Allow", ctx, "execute:7", service.ExecuteRateLimit, service.ExecuteRateWindow).
		Return(false, nil).Once()

	_, err := exec.Execute(ctx, 7, "ABCD1234", "python", "print(1)", "")

	assert.True(t, errors.Is(err, service.ErrRateLimited))
}

func TestExecutionService_Languages(t *testing.T) {
	exec := service.NewExecutionService(new(mocks.RoomRepository), new(mocks.RateLimitRepository), "http://unused")

	langs := exec.Languages()

	assert.NotEmpty(t, langs)
	ids := make(map[string]bool, len(langs))
	for _, l := range langs {
		ids[l.ID] = true
		assert.NotEmpty(t, l.Version, "every language pins a version")
	}
	assert.True(t, ids["python"])
	assert.True(t, ids["go"])
}
