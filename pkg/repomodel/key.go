package repomodel

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/JoaoClaudiano/gittree/pkg/models"
)

// keySep separates the repository identifier from the fingerprint in a cache key.
const keySep = "#"

type fingerprintInput struct {
	Files   models.FileListing          `json:"files"`
	Modules []models.ModuleDependencies `json:"modules"`
}

// Fingerprint returns the SHA-256 hex digest of the canonical JSON encoding
// of the raw inputs. Identical inputs always produce the same fingerprint.
func Fingerprint(files models.FileListing, modules []models.ModuleDependencies) (string, error) {
	data, err := json.Marshal(fingerprintInput{Files: files, Modules: modules})
	if err != nil {
		return "", fmt.Errorf("encoding fingerprint input: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// CacheKey combines a repository key and a fingerprint into a store key of
// the form owner/name[@branch]#fingerprint.
func CacheKey(key models.RepositoryKey, fingerprint string) string {
	return key.String() + keySep + fingerprint
}

// ParseCacheKey splits a store key produced by CacheKey.
func ParseCacheKey(s string) (models.RepositoryKey, string, error) {
	repo, fp, ok := strings.Cut(s, keySep)
	if !ok || fp == "" {
		return models.RepositoryKey{}, "", fmt.Errorf("%w: cache key %q has no fingerprint", models.ErrMalformedInput, s)
	}
	key, err := models.ParseRepositoryKey(repo)
	if err != nil {
		return models.RepositoryKey{}, "", err
	}
	return key, fp, nil
}
