package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"campfire/internal/models"
	"campfire/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newUserTestServer(userRepo *MockUserRepository) *Server {
	return &Server{
		userService: service.NewUserService(userRepo),
	}
}

func TestGetUserProfile(t *testing.T) {
	mockRepo := new(MockUserRepository)
	s := newUserTestServer(mockRepo)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("userID", uint(7))
		return c.Next()
	})
	app.Get("/users/:id", s.GetUserProfile)

	tests := []struct {
		name           string
		userIDParam    string
		mockSetup      func()
		expectedStatus int
	}{
		{
			name:        "Success",
			userIDParam: "1",
			mockSetup: func() {
				mockRepo.On("GetProfile", mock.Anything, uint(1), uint(7)).
					Return(&models.User{ID: 1, Username: "testuser", FollowersCount: 3}, nil).Once()
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Invalid ID",
			userIDParam:    "abc",
			mockSetup:      func() {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "Not Found",
			userIDParam: "99",
			mockSetup: func() {
				mockRepo.On("GetProfile", mock.Anything, uint(99), uint(7)).
					Return(nil, models.NewNotFoundError("User", 99)).Once()
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			req := httptest.NewRequest(http.MethodGet, "/users/"+tt.userIDParam, nil)
			resp, _ := app.Test(req)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}

	mockRepo.AssertExpectations(t)
}

func TestGetUserByUsername(t *testing.T) {
	mockRepo := new(MockUserRepository)
	s := newUserTestServer(mockRepo)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("userID", uint(7))
		return c.Next()
	})
	app.Get("/users/by-username/:username", s.GetUserByUsername)

	t.Run("Success", func(t *testing.T) {
		mockRepo.On("GetByUsername", mock.Anything, "alice").
			Return(&models.User{ID: 4, Username: "alice"}, nil).Once()
		mockRepo.On("GetProfile", mock.Anything, uint(4), uint(7)).
			Return(&models.User{ID: 4, Username: "alice", FollowingCount: 2}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/users/by-username/alice", nil)
		resp, err := app.Test(req)
		assert.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("Unknown Username", func(t *testing.T) {
		mockRepo.On("GetByUsername", mock.Anything, "ghost").
			Return(nil, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/users/by-username/ghost", nil)
		resp, err := app.Test(req)
		assert.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	mockRepo.AssertExpectations(t)
}

func TestGetMyProfile(t *testing.T) {
	mockRepo := new(MockUserRepository)
	s := newUserTestServer(mockRepo)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("userID", uint(1))
		return c.Next()
	})
	app.Get("/users/me", s.GetMyProfile)

	mockRepo.On("GetProfile", mock.Anything, uint(1), uint(1)).
		Return(&models.User{ID: 1, Username: "me"}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	resp, _ := app.Test(req)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	mockRepo.AssertExpectations(t)
}

func TestUpdateMyProfile(t *testing.T) {
	mockRepo := new(MockUserRepository)
	s := newUserTestServer(mockRepo)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("userID", uint(1))
		return c.Next()
	})
	app.Put("/users/me", s.UpdateMyProfile)

	t.Run("Updates Bio", func(t *testing.T) {
		mockRepo.On("GetByID", mock.Anything, uint(1)).
			Return(&models.User{ID: 1, Username: "me"}, nil).Once()
		mockRepo.On("Update", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
			return u.Bio == "hello"
		})).Return(nil).Once()

		body, _ := json.Marshal(map[string]string{"bio": "hello"})
		req := httptest.NewRequest(http.MethodPut, "/users/me", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		assert.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	mockRepo.AssertExpectations(t)
}
