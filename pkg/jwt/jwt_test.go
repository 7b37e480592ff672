package jwt

import (
	"testing"
	"time"
)

const testSecret = "test-secret"

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken("user-123", AccessToken, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ValidateToken(token, testSecret)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != "user-123" {
		t.Errorf("UserID = %q", claims.UserID)
	}
	if claims.TokenType != AccessToken {
		t.Errorf("TokenType = %q", claims.TokenType)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("user-123", AccessToken, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := ValidateToken(token, "other-secret"); err == nil {
		t.Error("token validated with the wrong secret")
	}
}

func TestValidateExpiredToken(t *testing.T) {
	token, err := GenerateToken("user-123", AccessToken, testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := ValidateToken(token, testSecret); err == nil {
		t.Error("expired token validated")
	}
}

func TestPickupToken(t *testing.T) {
	token, err := GeneratePickupToken("order-456", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GeneratePickupToken: %v", err)
	}

	claims, err := ValidateToken(token, testSecret)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.TokenType != PickupToken {
		t.Errorf("TokenType = %q, want %q", claims.TokenType, PickupToken)
	}
	if claims.OrderID != "order-456" {
		t.Errorf("OrderID = %q", claims.OrderID)
	}
	if claims.UserID != "" {
		t.Errorf("UserID should be empty, got %q", claims.UserID)
	}
}

func TestValidateGarbage(t *testing.T) {
	if _, err := ValidateToken("not-a-token", testSecret); err == nil {
		t.Error("garbage input validated")
	}
}
