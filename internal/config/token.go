/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package config

import keyring "github.com/zalando/go-keyring"

// Service/keys for the OS keyring.
const (
	keyringService = "DashStudio"
	keyringToken   = "backend_token"
)

// TokenStore abstracts the keyring so tests can stub it.
type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

var tokenStore TokenStore = osKeyring{}

// SetTokenStore replaces the keyring implementation; it returns the
// previous store so tests can restore it.
func SetTokenStore(s TokenStore) TokenStore {
	prev := tokenStore
	tokenStore = s
	return prev
}

// osKeyring implements TokenStore on github.com/zalando/go-keyring.
type osKeyring struct{}

func (osKeyring) Get(service, key string) (string, error) { return keyring.Get(service, key) }
func (osKeyring) Set(service, key, value string) error    { return keyring.Set(service, key, value) }
func (osKeyring) Delete(service, key string) error        { return keyring.Delete(service, key) }

// ClearToken removes the backend token from the keyring.
func ClearToken() error { return tokenStore.Delete(keyringService, keyringToken) }
