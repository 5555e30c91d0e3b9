package secrets

import (
	"errors"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringService groups this app's secrets in the OS keychain.
const KeyringService = "extractor-engine"

// PortalPassword looks up the portal password for a candidate account.
// Empty username means anonymous browsing and resolves to no credential.
func PortalPassword(username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", nil
	}
	pw, err := keyring.Get(KeyringService, keyringAccount(username))
	if err == nil && strings.TrimSpace(pw) != "" {
		return pw, nil
	}
	return "", errors.New("portal password not found in keychain for " + username)
}

func SetPortalPassword(username, password string) error {
	if strings.TrimSpace(username) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password is empty")
	}
	return keyring.Set(KeyringService, keyringAccount(username), password)
}

func DeletePortalPassword(username string) error {
	if strings.TrimSpace(username) == "" {
		return errors.New("keyring account name is empty")
	}
	return keyring.Delete(KeyringService, keyringAccount(username))
}

func keyringAccount(username string) string {
	return "extractor:portal:" + username
}
