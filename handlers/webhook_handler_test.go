package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func signSvix(key []byte, svixID, svixTimestamp string, body []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(svixID + "." + svixTimestamp + "." + string(body)))
	return "v1," + base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestValidSvixSignature(t *testing.T) {
	key := []byte("test-signing-key")
	secret := "whsec_" + base64.StdEncoding.EncodeToString(key)
	body := []byte(`{"type":"user.created","data":{"id":"user_123"}}`)
	sig := signSvix(key, "msg_1", "1700000000", body)

	assert.True(t, validSvixSignature(secret, "msg_1", "1700000000", body, sig))

	// tampered body, wrong id, wrong key
	assert.False(t, validSvixSignature(secret, "msg_1", "1700000000", []byte(`{}`), sig))
	assert.False(t, validSvixSignature(secret, "msg_2", "1700000000", body, sig))
	otherSecret := "whsec_" + base64.StdEncoding.EncodeToString([]byte("other-key"))
	assert.False(t, validSvixSignature(otherSecret, "msg_1", "1700000000", body, sig))
}

func TestValidSvixSignature_MultipleHeaderEntries(t *testing.T) {
	key := []byte("test-signing-key")
	secret := "whsec_" + base64.StdEncoding.EncodeToString(key)
	body := []byte(`{"type":"user.deleted"}`)
	good := signSvix(key, "msg_9", "1700000001", body)
	stale := signSvix([]byte("rotated-out-key"), "msg_9", "1700000001", body)

	// svix sends one entry per active secret, space separated
	assert.True(t, validSvixSignature(secret, "msg_9", "1700000001", body, stale+" "+good))
	assert.False(t, validSvixSignature(secret, "msg_9", "1700000001", body, stale))
}

func TestValidSvixSignature_RawSecret(t *testing.T) {
	// secrets without the whsec_ prefix are used as-is
	key := []byte("plain-secret")
	body := []byte(`{"type":"user.updated"}`)
	sig := signSvix(key, "msg_3", "1700000002", body)

	assert.True(t, validSvixSignature("plain-secret", "msg_3", "1700000002", body, sig))
	assert.False(t, validSvixSignature("whsec_!!not-base64!!", "msg_3", "1700000002", body, sig))
}
