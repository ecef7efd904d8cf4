package telephony

import "testing"

func TestWebsocketAuthCodeRoundTrip(t *testing.T) {
	secret, err := ParseWebsocketSecret("deadbeefdeadbeefdeadbeefdeadbeef")
	if err != nil {
		t.Fatalf("failed to parse secret: %v", err)
	}

	code := WebsocketAuthCode(secret, "CA123")
	if code == "" {
		t.Fatal("expected non-empty auth code")
	}
	if !VerifyWebsocketAuthCode(secret, "CA123", code) {
		t.Error("expected code to verify for its own call SID")
	}
	if VerifyWebsocketAuthCode(secret, "CA999", code) {
		t.Error("expected code to fail for a different call SID")
	}
	if VerifyWebsocketAuthCode(secret, "CA123", code+"x") {
		t.Error("expected tampered code to fail")
	}
	if VerifyWebsocketAuthCode(secret, "", code) || VerifyWebsocketAuthCode(secret, "CA123", "") {
		t.Error("expected empty inputs to fail")
	}
}

func TestParseWebsocketSecretRejectsNonHex(t *testing.T) {
	if _, err := ParseWebsocketSecret("not hex"); err == nil {
		t.Error("expected error for non-hex secret")
	}
}

func TestParseWebsocketSecretRejectsEmpty(t *testing.T) {
	if _, err := ParseWebsocketSecret(""); err == nil {
		t.Error("expected error for empty secret")
	}
}
