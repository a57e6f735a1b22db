// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clint Contributors

// Package secrets keeps the upstream API key out of config files. Values in
// the loaded configuration may use the keyring://service/key URI scheme,
// which resolves through the OS keyring.
package secrets

import (
	"errors"

	clinterr "github.com/clint-dev/clint/pkg/errors"
	"github.com/zalando/go-keyring"
)

// Store provides secure secret storage operations. Implementations may use
// OS keyrings, encrypted files, or other backends.
type Store interface {
	// Store saves a secret value under the given service and key.
	Store(service, key, value string) error

	// Retrieve fetches the secret value for the given service and key.
	// Returns a CodeSecretNotFound error if the key does not exist.
	Retrieve(service, key string) (string, error)

	// Delete removes the secret for the given service and key.
	// Returns a CodeSecretNotFound error if the key does not exist.
	Delete(service, key string) error
}

// KeyringStore implements Store using the OS keyring via zalando/go-keyring.
// On macOS it uses Keychain, on Linux secret-service (D-Bus), and on Windows
// the Credential Manager.
type KeyringStore struct{}

// NewKeyringStore returns a KeyringStore.
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{}
}

func (s *KeyringStore) Store(service, key, value string) error {
	if err := validateRef(service, key); err != nil {
		return err
	}
	if err := keyring.Set(service, key, value); err != nil {
		return clinterr.Wrapf(err, clinterr.CodeSecretResolveFailure, "storing secret %s/%s", service, key)
	}
	return nil
}

func (s *KeyringStore) Retrieve(service, key string) (string, error) {
	if err := validateRef(service, key); err != nil {
		return "", err
	}

	val, err := keyring.Get(service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", clinterr.Errorf(clinterr.CodeSecretNotFound, "secret %s/%s not found", service, key)
		}
		return "", clinterr.Wrapf(err, clinterr.CodeSecretResolveFailure, "retrieving secret %s/%s", service, key)
	}
	return val, nil
}

func (s *KeyringStore) Delete(service, key string) error {
	if err := validateRef(service, key); err != nil {
		return err
	}

	if err := keyring.Delete(service, key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return clinterr.Errorf(clinterr.CodeSecretNotFound, "secret %s/%s not found", service, key)
		}
		return clinterr.Wrapf(err, clinterr.CodeSecretResolveFailure, "deleting secret %s/%s", service, key)
	}
	return nil
}

func validateRef(service, key string) error {
	if service == "" {
		return clinterr.New(clinterr.CodeSecretInvalidInput, "secrets: service must not be empty")
	}
	if key == "" {
		return clinterr.New(clinterr.CodeSecretInvalidInput, "secrets: key must not be empty")
	}
	return nil
}
