package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

func GenerateStationHMACToken(stationID, secret string) string {
	cleanStationID := strings.TrimSpace(stationID)
	cleanSecret := strings.TrimSpace(secret)
	if cleanStationID == "" || cleanSecret == "" {
		return ""
	}

	mac := hmac.New(sha256.New, []byte(cleanSecret))
	_, _ = mac.Write([]byte(cleanStationID))
	return hex.EncodeToString(mac.Sum(nil))
}

func VerifyStationHMACToken(stationID, token, secret string) bool {
	expected := GenerateStationHMACToken(stationID, secret)
	if expected == "" {
		return false
	}

	provided := strings.ToLower(strings.TrimSpace(token))
	if len(provided) != len(expected) {
		return false
	}

	return hmac.Equal([]byte(provided), []byte(expected))
}
