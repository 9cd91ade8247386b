package sqlgen

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// ScramIterations is the PBKDF2 iteration count PostgreSQL uses by default.
	ScramIterations = 4096

	// ScramSaltSize is the salt length in bytes.
	ScramSaltSize = 16
)

// ScramVerifier hashes password into the SCRAM-SHA-256 verifier format
// PostgreSQL accepts in CREATE ROLE ... PASSWORD, so clear text passwords
// never reach the generated scripts or the server logs.
func ScramVerifier(password string, random io.Reader) (string, error) {
	if random == nil {
		random = rand.Reader
	}

	salt := make([]byte, ScramSaltSize)
	if _, err := io.ReadFull(random, salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	salted := pbkdf2.Key([]byte(password), salt, ScramIterations, sha256.Size, sha256.New)
	clientKey := hmacSHA256(salted, "Client Key")
	storedKey := sha256.Sum256(clientKey)
	serverKey := hmacSHA256(salted, "Server Key")

	enc := base64.StdEncoding
	return fmt.Sprintf("SCRAM-SHA-256$%d:%s$%s:%s",
		ScramIterations,
		enc.EncodeToString(salt),
		enc.EncodeToString(storedKey[:]),
		enc.EncodeToString(serverKey),
	), nil
}

func hmacSHA256(key []byte, message string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(message))
	return mac.Sum(nil)
}
