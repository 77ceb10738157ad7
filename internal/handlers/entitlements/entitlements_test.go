package entitlements

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"

	"github.com/GlebRadaev/creditsettle/internal/domain"
	"github.com/GlebRadaev/creditsettle/internal/dto"
	"github.com/GlebRadaev/creditsettle/pkg/auth"
)

func NewMock(t *testing.T) (*EntitlementHandler, *MockService) {
	ctrl := gomock.NewController(t)
	service := NewMockService(ctrl)
	handler := New(service)
	return handler, service
}

func TestRegisterHandler(t *testing.T) {
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		body         string
		prepareMock  func(service *MockService)
		expectedCode int
		expectedBody *dto.EntitlementResponseDTO
	}{
		{
			name: "Registered",
			body: `{"resourceId":"outfit-1"}`,
			prepareMock: func(service *MockService) {
				service.EXPECT().Register(gomock.Any(), "outfit-1", "user-1").
					Return(&domain.Entitlement{ResourceID: "outfit-1", OwnerID: "user-1", CreatedAt: created}, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: &dto.EntitlementResponseDTO{ResourceID: "outfit-1", OwnerID: "user-1", CreatedAt: created},
		},
		{
			name: "Owned by someone else",
			body: `{"resourceId":"outfit-1"}`,
			prepareMock: func(service *MockService) {
				service.EXPECT().Register(gomock.Any(), "outfit-1", "user-1").Return(nil, domain.ErrOwnershipMismatch)
			},
			expectedCode: http.StatusConflict,
		},
		{
			name: "Missing resource",
			body: `{}`,
			prepareMock: func(service *MockService) {
				service.EXPECT().Register(gomock.Any(), "", "user-1").Return(nil, domain.ErrInvalidInput)
			},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "Invalid body",
			body:         `{"resourceId":`,
			prepareMock:  func(*MockService) {},
			expectedCode: http.StatusBadRequest,
		},
		{
			name: "Store failure",
			body: `{"resourceId":"outfit-1"}`,
			prepareMock: func(service *MockService) {
				service.EXPECT().Register(gomock.Any(), "outfit-1", "user-1").Return(nil, errors.New("db down"))
			},
			expectedCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, service := NewMock(t)
			tt.prepareMock(service)

			r := httptest.NewRequest(http.MethodPost, "/api/entitlements", strings.NewReader(tt.body)).
				WithContext(auth.WithUserID(context.Background(), "user-1"))
			w := httptest.NewRecorder()
			handler.Register(w, r)

			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedBody != nil {
				var body dto.EntitlementResponseDTO
				require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
				assert.Equal(t, *tt.expectedBody, body)
			}
		})
	}
}
