package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
)

const testSecret = "test-secret"

func TestGenerateJWT(t *testing.T) {
	jwtService := NewJWTService(testSecret)

	tests := []struct {
		name           string
		userID         string
		expirationTime time.Time
		expectError    bool
	}{
		{
			name:           "Valid Token",
			userID:         "user-1",
			expirationTime: time.Now().Add(time.Hour),
			expectError:    false,
		},
		{
			name:           "Expired Token",
			userID:         "user-1",
			expirationTime: time.Now().Add(-time.Hour),
			expectError:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := jwtService.GenerateJWT(tt.userID, tt.expirationTime)

			if tt.expectError {
				assert.Error(t, err)
				assert.Empty(t, token)
			} else {
				assert.NoError(t, err)
				assert.NotEmpty(t, token)
			}
		})
	}
}

func TestValidateToken(t *testing.T) {
	jwtService := NewJWTService(testSecret)

	tests := []struct {
		name           string
		tokenString    string
		setup          func() string
		expectedUserID string
		expectError    bool
	}{
		{
			name: "Valid Token",
			setup: func() string {
				token, _ := jwtService.GenerateJWT("user-1", time.Now().Add(time.Hour))
				return token
			},
			expectedUserID: "user-1",
		},
		{
			name: "Subject only",
			setup: func() string {
				token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
					Subject:   "user-2",
					ExpiresAt: time.Now().Add(time.Hour).Unix(),
					Issuer:    issuer,
				})
				signedToken, _ := token.SignedString([]byte(testSecret))
				return signedToken
			},
			expectedUserID: "user-2",
		},
		{
			name:        "Invalid Token",
			tokenString: "invalid.token.string",
			expectError: true,
		},
		{
			name: "Expired Token",
			setup: func() string {
				token, _ := jwtService.GenerateJWT("user-1", time.Now().Add(-time.Hour))
				return token
			},
			expectError: true,
		},
		{
			name: "Other secret",
			setup: func() string {
				token, _ := NewJWTService("other").GenerateJWT("user-1", time.Now().Add(time.Hour))
				return token
			},
			expectError: true,
		},
		{
			name: "Missing user",
			setup: func() string {
				token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
					ExpiresAt: time.Now().Add(time.Hour).Unix(),
					Issuer:    issuer,
				})
				signedToken, _ := token.SignedString([]byte(testSecret))
				return signedToken
			},
			expectError: true,
		},
		{
			name: "Foreign issuer",
			setup: func() string {
				token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
					Subject:   "user-1",
					ExpiresAt: time.Now().Add(time.Hour).Unix(),
					Issuer:    "another-service",
				})
				signedToken, _ := token.SignedString([]byte(testSecret))
				return signedToken
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tokenString string
			if tt.setup != nil {
				tokenString = tt.setup()
			} else {
				tokenString = tt.tokenString
			}

			claims, err := jwtService.ValidateToken(tokenString)

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, claims)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedUserID, claims.UserID)
			}
		})
	}
}

func TestMiddleware(t *testing.T) {
	jwtService := NewJWTService(testSecret)
	valid, _ := jwtService.GenerateJWT("user-1", time.Now().Add(time.Hour))

	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := jwtService.Middleware(next)

	tests := []struct {
		name         string
		header       string
		expectedCode int
		expectedUser string
	}{
		{name: "No header", expectedCode: http.StatusUnauthorized},
		{name: "Not bearer", header: "Basic abc", expectedCode: http.StatusUnauthorized},
		{name: "Bad token", header: "Bearer nope", expectedCode: http.StatusUnauthorized},
		{name: "Valid token", header: "Bearer " + valid, expectedCode: http.StatusOK, expectedUser: "user-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)
			assert.Equal(t, tt.expectedCode, w.Code)
			assert.Equal(t, tt.expectedUser, seen)
		})
	}
}
