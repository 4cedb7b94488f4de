package main

import (
	"crypto/rand"
	"encoding/base64"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

func randomSecret(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Prints fresh signing secrets in .env format, so the output can be appended directly.
func main() {
	size := flag.Int("bytes", 48, "random bytes per secret")
	flag.Parse()

	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	if *size < 32 {
		logger.Fatalf("-bytes must be at least 32, got %d", *size)
	}

	for _, name := range []string{"JWT_SECRET", "JWT_REFRESH_SECRET"} {
		secret, err := randomSecret(*size)
		if err != nil {
			logger.WithError(err).Fatal("Failed to read random bytes")
		}
		fmt.Printf("%s=%s\n", name, secret)
	}
	logger.Info("Secrets generated; keep them out of version control")
}
