package goAccess

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// BeginChallenge starts the login-time two-factor challenge after
// primary authentication has succeeded for a principal with a
// provisioned secret. It returns an opaque challenge ID the caller
// stores in the login session. The challenge expires after the
// configured TTL; expiry is equivalent to never having passed primary
// authentication.
func (e *Engine) BeginChallenge(ctx context.Context, principalID string) (string, error) {
	if e == nil || e.challengeStore == nil || e.identity == nil {
		return "", ErrEngineNotReady
	}
	if principalID == "" {
		return "", ErrPrincipalNotFound
	}

	if _, err := e.identity.GetPrincipal(ctx, principalID); err != nil {
		return "", ErrPrincipalNotFound
	}
	twoFactor, err := e.identity.GetTwoFactor(ctx, principalID)
	if err != nil {
		return "", err
	}
	if twoFactor == nil || len(twoFactor.Secret) == 0 {
		return "", ErrTwoFactorNotConfigured
	}

	challengeID := uuid.NewString()
	record := &challengeRecord{
		PrincipalID: principalID,
		ExpiresAt:   time.Now().Add(e.config.Challenge.TTL).Unix(),
	}
	if err := e.challengeStore.Save(ctx, challengeID, record, e.config.Challenge.TTL); err != nil {
		return "", err
	}

	e.metricInc(MetricChallengeBegun)
	e.emitAudit(ctx, auditEventChallengeBegun, true, principalID, nil, nil)

	return challengeID, nil
}

// SubmitCode attempts to complete a challenge with a time-based code.
// A rejected code leaves the challenge pending minus one attempt and
// returns ErrInvalidCode; exhausting the attempt budget or the
// challenge window destroys the challenge. Success consumes the
// challenge exactly once and returns the authenticated principal with a
// signed session token.
func (e *Engine) SubmitCode(ctx context.Context, challengeID, code string) (*ChallengeResult, error) {
	record, err := e.loadChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	twoFactor, err := e.identity.GetTwoFactor(ctx, record.PrincipalID)
	if err != nil {
		return nil, err
	}
	if twoFactor == nil || len(twoFactor.Secret) == 0 || !twoFactor.Confirmed {
		// Secret was removed or unconfirmed since the challenge began.
		_, _ = e.challengeStore.Delete(ctx, challengeID)
		return nil, e.failChallenge(ctx, record.PrincipalID, ErrInvalidCode)
	}
	if code == "" {
		return nil, e.failAttempt(ctx, challengeID, record.PrincipalID, ErrInvalidCode)
	}

	ok, err := e.totp.VerifyCode(twoFactor.Secret, code, time.Now())
	if err != nil || !ok {
		return nil, e.failAttempt(ctx, challengeID, record.PrincipalID, ErrInvalidCode)
	}

	result, err := e.completeChallenge(ctx, challengeID, record.PrincipalID)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricChallengeSuccess)
	e.emitAudit(ctx, auditEventChallengeSuccess, true, record.PrincipalID, nil, func() map[string]string {
		return map[string]string{"method": "totp"}
	})
	return result, nil
}

// SubmitRecoveryCode attempts to complete a challenge with a single-use
// recovery code. The submitted text must match an unused code exactly
// (case-sensitive). On success the matched code is atomically replaced
// with a fresh one, returned once in the result; a failed submission
// consumes no code.
func (e *Engine) SubmitRecoveryCode(ctx context.Context, challengeID, code string) (*ChallengeResult, error) {
	record, err := e.loadChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if code == "" {
		return nil, e.failAttempt(ctx, challengeID, record.PrincipalID, ErrInvalidRecoveryCode)
	}

	records, err := e.identity.GetRecoveryCodes(ctx, record.PrincipalID)
	if err != nil {
		return nil, err
	}

	used, found := matchRecoveryCode(records, code)
	if !found {
		e.metricInc(MetricRecoveryCodeFailed)
		return nil, e.failAttempt(ctx, challengeID, record.PrincipalID, ErrInvalidRecoveryCode)
	}

	replacementCode, err := generateRecoveryCode(e.config.Recovery.CodeLength)
	if err != nil {
		return nil, err
	}
	replacement := RecoveryCodeRecord{Hash: hashRecoveryCode(replacementCode)}

	consumed, err := e.identity.ConsumeRecoveryCode(ctx, record.PrincipalID, used, replacement)
	if err != nil {
		return nil, err
	}
	if !consumed {
		// Lost a race with a concurrent submission of the same code.
		e.metricInc(MetricRecoveryCodeFailed)
		return nil, e.failAttempt(ctx, challengeID, record.PrincipalID, ErrInvalidRecoveryCode)
	}

	result, err := e.completeChallenge(ctx, challengeID, record.PrincipalID)
	if err != nil {
		return nil, err
	}
	result.UsedRecoveryCode = true
	result.ReplacementRecoveryCode = replacementCode

	e.metricInc(MetricChallengeSuccess)
	e.metricInc(MetricRecoveryCodeUsed)
	e.emitAudit(ctx, auditEventRecoveryCodeUsed, true, record.PrincipalID, nil, nil)
	return result, nil
}

// RegenerateRecoveryCodes mints a full replacement set and returns the
// plain-text codes once. Existing codes stop working immediately.
func (e *Engine) RegenerateRecoveryCodes(ctx context.Context, principalID string) ([]string, error) {
	if e == nil || e.identity == nil {
		return nil, ErrEngineNotReady
	}
	if _, err := e.identity.GetPrincipal(ctx, principalID); err != nil {
		return nil, ErrPrincipalNotFound
	}

	codes, records, err := generateRecoveryCodes(e.config.Recovery.CodeCount, e.config.Recovery.CodeLength)
	if err != nil {
		return nil, err
	}
	if err := e.identity.ReplaceRecoveryCodes(ctx, principalID, records); err != nil {
		return nil, err
	}

	e.emitAudit(ctx, auditEventRecoveryRegenerate, true, principalID, nil, nil)
	return codes, nil
}

func (e *Engine) loadChallenge(ctx context.Context, challengeID string) (*challengeRecord, error) {
	if e == nil || e.challengeStore == nil || e.identity == nil || e.tokens == nil {
		return nil, ErrEngineNotReady
	}
	if challengeID == "" {
		return nil, ErrChallengeNotFound
	}

	record, err := e.challengeStore.Get(ctx, challengeID)
	if err != nil {
		if errors.Is(err, ErrChallengeExpired) {
			e.metricInc(MetricChallengeExpired)
		}
		e.metricInc(MetricChallengeFailure)
		e.emitAudit(ctx, auditEventChallengeFailure, false, "", err, func() map[string]string {
			return map[string]string{"reason": "challenge_load_failed"}
		})
		return nil, err
	}
	return record, nil
}

// failAttempt burns one attempt on a pending challenge. Exhausting the
// budget destroys the challenge and upgrades the error.
func (e *Engine) failAttempt(ctx context.Context, challengeID, principalID string, baseErr error) error {
	exceeded, err := e.challengeStore.RecordFailure(ctx, challengeID, e.config.Challenge.MaxAttempts)
	if err != nil {
		if errors.Is(err, ErrChallengeExpired) {
			e.metricInc(MetricChallengeExpired)
			return e.failChallenge(ctx, principalID, err)
		}
		return e.failChallenge(ctx, principalID, err)
	}
	if exceeded {
		return e.failChallenge(ctx, principalID, ErrChallengeAttemptsExceeded)
	}
	return e.failChallenge(ctx, principalID, baseErr)
}

func (e *Engine) failChallenge(ctx context.Context, principalID string, err error) error {
	e.metricInc(MetricChallengeFailure)
	e.emitAudit(ctx, auditEventChallengeFailure, false, principalID, err, nil)
	return err
}

// completeChallenge deletes the challenge exactly once and mints the
// session token. A delete that removed nothing means a concurrent
// submission already consumed the challenge.
func (e *Engine) completeChallenge(ctx context.Context, challengeID, principalID string) (*ChallengeResult, error) {
	deleted, err := e.challengeStore.Delete(ctx, challengeID)
	if err != nil {
		return nil, e.failChallenge(ctx, principalID, err)
	}
	if !deleted {
		return nil, e.failChallenge(ctx, principalID, ErrChallengeNotFound)
	}

	principal, err := e.identity.GetPrincipal(ctx, principalID)
	if err != nil {
		return nil, e.failChallenge(ctx, principalID, ErrPrincipalNotFound)
	}

	token, err := e.tokens.Mint(principal)
	if err != nil {
		return nil, e.failChallenge(ctx, principalID, err)
	}

	return &ChallengeResult{Principal: principal, SessionToken: token}, nil
}
