package utils

import (
	"testing"
	"time"
)

func TestPushTokenRoundtrip(t *testing.T) {
	token, err := GeneratePushToken("push-secret", "publish", time.Minute)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	claims, err := ValidatePushToken("push-secret", token)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if claims.Stage != "publish" {
		t.Errorf("expected stage claim preserved, got %q", claims.Stage)
	}
}

func TestValidatePushToken_WrongSecret(t *testing.T) {
	token, err := GeneratePushToken("push-secret", "publish", time.Minute)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if _, err := ValidatePushToken("other-secret", token); err == nil {
		t.Error("expected validation with the wrong secret to fail")
	}
}

func TestValidatePushToken_Expired(t *testing.T) {
	token, err := GeneratePushToken("push-secret", "publish", -time.Minute)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if _, err := ValidatePushToken("push-secret", token); err == nil {
		t.Error("expected expired token to fail validation")
	}
}
