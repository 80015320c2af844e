package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	apperrors "github.com/yanqian/fitbit-export/pkg/errors"
)

// DefaultSecretsFile is read when no secrets path is given.
const DefaultSecretsFile = "fitbit_api_secrets.conf"

// Secrets holds the credentials read from the key=value secrets file.
type Secrets struct {
	ClientID     string
	ClientSecret string
	Host         string
	DBName       string
	Port         string
	DBUser       string
}

// LoadSecrets parses a flat "key = value" file. Blank lines are skipped,
// unknown keys ignored, and any other line without exactly one '=' is an
// error. The OAuth2 client credentials are always required.
func LoadSecrets(path string) (*Secrets, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeSecretsInvalid, "open secrets file", err)
	}
	defer f.Close()

	s := &Secrets{}
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.Split(line, "=")
		if len(parts) != 2 {
			return nil, apperrors.Wrap(apperrors.CodeSecretsInvalid, fmt.Sprintf("%s:%d: expected key = value", path, lineNo), nil)
		}
		key, value := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		switch key {
		case "oauth2_client":
			s.ClientID = value
		case "client_secret":
			s.ClientSecret = value
		case "host":
			s.Host = value
		case "dbname":
			s.DBName = value
		case "port":
			s.Port = value
		case "dbuser":
			s.DBUser = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeSecretsInvalid, "read secrets file", err)
	}

	if missing := missingKeys(map[string]string{
		"oauth2_client": s.ClientID,
		"client_secret": s.ClientSecret,
	}); len(missing) > 0 {
		return nil, apperrors.Wrap(apperrors.CodeSecretsInvalid, "secrets file is missing "+strings.Join(missing, ", "), nil)
	}
	return s, nil
}

// RequireDatabase checks the keys only database mode needs.
func (s *Secrets) RequireDatabase() error {
	if missing := missingKeys(map[string]string{
		"host":   s.Host,
		"dbname": s.DBName,
		"port":   s.Port,
		"dbuser": s.DBUser,
	}); len(missing) > 0 {
		return apperrors.Wrap(apperrors.CodeSecretsInvalid, "database mode requires "+strings.Join(missing, ", "), nil)
	}
	return nil
}

func missingKeys(values map[string]string) []string {
	var missing []string
	for _, key := range []string{"oauth2_client", "client_secret", "host", "dbname", "port", "dbuser"} {
		if v, ok := values[key]; ok && v == "" {
			missing = append(missing, key)
		}
	}
	return missing
}
