package utils

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatCurrencyVND(t *testing.T) {
	assert.Equal(t, "400.000 ₫", FormatCurrencyVND(decimal.NewFromInt(400000)))
	assert.Equal(t, "0 ₫", FormatCurrencyVND(decimal.Zero))
	assert.Equal(t, "1.234.567,50 ₫", FormatCurrencyVND(decimal.RequireFromString("1234567.5")))
	assert.Equal(t, "-999 ₫", FormatCurrencyVND(decimal.NewFromInt(-999)))
}

func TestNewLogger(t *testing.T) {
	logger := NewLogger("debug", "json")
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	logger = NewLogger("nonsense", "")
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)
}

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)

	token, err := tm.GenerateToken(CustomClaims{Role: "employee", ShiftID: 7})
	require.NoError(t, err)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "employee", claims.Role)
	assert.Equal(t, uint(7), claims.ShiftID)
}

func TestParseTokenRejectsForeignSecret(t *testing.T) {
	token, err := NewTokenManager("other", time.Hour).GenerateToken(CustomClaims{Role: "admin"})
	require.NoError(t, err)

	_, err = NewTokenManager("test-secret", time.Hour).ParseToken(token)
	assert.True(t, IsKind(err, KindUnauthorized))
}

func TestParseTokenExpired(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Minute)
	issued := time.Now()
	tm.now = func() time.Time { return issued }

	token, err := tm.GenerateToken(CustomClaims{Role: "admin"})
	require.NoError(t, err)

	tm.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = tm.ParseToken(token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}

func TestRevokeToken(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)
	token, err := tm.GenerateToken(CustomClaims{Role: "admin", UserID: 1})
	require.NoError(t, err)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)

	tm.Revoke(token, claims)
	_, err = tm.ParseToken(token)
	assert.True(t, IsKind(err, KindUnauthorized))
	assert.True(t, tm.IsRevoked(token))
}
