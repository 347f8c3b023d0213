package commands

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const attemptsFile = "unlock_attempts"

// recordFailedUnlock bumps the on-disk failure counter and wipes the identity
// once the configured threshold is crossed. It reports whether a wipe
// happened.
func recordFailedUnlock() (bool, error) {
	threshold := appCfg.Vault.WipeAfterFailures
	if threshold <= 0 {
		return false, nil
	}

	path := filepath.Join(appCfg.Home, attemptsFile)
	count := 0
	if data, err := os.ReadFile(path); err == nil {
		count, _ = strconv.Atoi(strings.TrimSpace(string(data)))
	}
	count++

	if count >= threshold {
		if err := appCtx.Vault.Wipe(); err != nil {
			return false, err
		}
		_ = os.Remove(path)
		return true, nil
	}
	return false, os.WriteFile(path, []byte(strconv.Itoa(count)), 0o600)
}

// clearFailedUnlocks resets the counter after a successful unlock.
func clearFailedUnlocks() {
	_ = os.Remove(filepath.Join(appCfg.Home, attemptsFile))
}
