package otp

// Counter-store key namespace, scoped by email. The spam-lock key is spelled
// once here and used by both the set path and the check path.
const (
	prefixCode         = "otp:"
	prefixCooldown     = "otp_cooldown:"
	prefixRequestCount = "otp_request_count:"
	prefixSpamLock     = "otp_spam_lock:"
	prefixAttempts     = "otp_attempts:"
	prefixLock         = "otp_lock:"
)

func codeKey(email string) string         { return prefixCode + email }
func cooldownKey(email string) string     { return prefixCooldown + email }
func requestCountKey(email string) string { return prefixRequestCount + email }
func spamLockKey(email string) string     { return prefixSpamLock + email }
func attemptsKey(email string) string     { return prefixAttempts + email }
func lockKey(email string) string         { return prefixLock + email }
