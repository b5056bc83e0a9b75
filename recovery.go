package goAccess

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"math/big"
)

// Recovery codes exclude easily confused characters (I, O, 0, 1).
const recoveryCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func generateRecoveryCode(length int) (string, error) {
	max := big.NewInt(int64(len(recoveryCodeAlphabet)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = recoveryCodeAlphabet[n.Int64()]
	}
	return string(buf), nil
}

func generateRecoveryCodes(count, length int) ([]string, []RecoveryCodeRecord, error) {
	codes := make([]string, 0, count)
	records := make([]RecoveryCodeRecord, 0, count)
	for i := 0; i < count; i++ {
		code, err := generateRecoveryCode(length)
		if err != nil {
			return nil, nil, err
		}
		codes = append(codes, code)
		records = append(records, RecoveryCodeRecord{Hash: hashRecoveryCode(code)})
	}
	return codes, records, nil
}

// hashRecoveryCode hashes the exact submitted text. Matching is
// case-sensitive: no normalization happens here or at verification.
func hashRecoveryCode(code string) [32]byte {
	return sha256.Sum256([]byte(code))
}

// matchRecoveryCode scans every record in constant time per record so
// the scan length, not the match position, dominates timing.
func matchRecoveryCode(records []RecoveryCodeRecord, code string) ([32]byte, bool) {
	submitted := hashRecoveryCode(code)

	var matched [32]byte
	found := false
	for _, rec := range records {
		if subtle.ConstantTimeCompare(rec.Hash[:], submitted[:]) == 1 && !found {
			matched = rec.Hash
			found = true
		}
	}
	return matched, found
}
