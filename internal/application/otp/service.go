package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/abuse-guard/internal/audit"
	"github.com/abuse-guard/internal/counter"
	"github.com/abuse-guard/internal/domain"
)

// Message is the payload handed to the delivery collaborator.
type Message struct {
	Recipient   string
	DisplayName string
	Code        string
	TemplateID  string
}

// Sender delivers a generated code. Implementations live in
// internal/infrastructure (smtp, sns).
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Config holds the escalation thresholds and TTLs. Zero fields are filled
// with the production defaults.
type Config struct {
	CodeTTL       time.Duration // how long an issued code stays valid
	Cooldown      time.Duration // mandatory wait between issuances
	RequestLimit  int           // issuance requests per window before spam lock
	RequestWindow time.Duration // rolling window for issuance counting
	SpamLockTTL   time.Duration // spam lock duration
	MaxAttempts   int           // wrong submissions before account lock
	AttemptTTL    time.Duration // failed-attempt counter lifetime
	LockTTL       time.Duration // account lock duration
}

// DefaultConfig returns the production thresholds: 5-minute codes, 1-minute
// cooldown, 3 requests/hour before a 1-hour spam lock, 3 wrong attempts
// before a 30-minute account lock.
func DefaultConfig() Config {
	return Config{
		CodeTTL:       5 * time.Minute,
		Cooldown:      time.Minute,
		RequestLimit:  3,
		RequestWindow: time.Hour,
		SpamLockTTL:   time.Hour,
		MaxAttempts:   3,
		AttemptTTL:    5 * time.Minute,
		LockTTL:       30 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.CodeTTL <= 0 {
		c.CodeTTL = d.CodeTTL
	}
	if c.Cooldown <= 0 {
		c.Cooldown = d.Cooldown
	}
	if c.RequestLimit <= 0 {
		c.RequestLimit = d.RequestLimit
	}
	if c.RequestWindow <= 0 {
		c.RequestWindow = d.RequestWindow
	}
	if c.SpamLockTTL <= 0 {
		c.SpamLockTTL = d.SpamLockTTL
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.AttemptTTL <= 0 {
		c.AttemptTTL = d.AttemptTTL
	}
	if c.LockTTL <= 0 {
		c.LockTTL = d.LockTTL
	}
	return c
}

// IssueRequest carries the inputs for code issuance.
type IssueRequest struct {
	Email       string
	DisplayName string
	TemplateID  string
}

// Service implements the OTP issuance/verification state machine over a
// counter store. All lock and cooldown state lives in the store; service
// instances hold no per-email memory.
type Service struct {
	store   counter.Store
	sender  Sender
	guard   *Guard
	auditor *audit.Dispatcher
	config  Config
}

// NewService creates the OTP service. auditor may be nil.
func NewService(store counter.Store, sender Sender, auditor *audit.Dispatcher, cfg Config) *Service {
	return &Service{
		store:   store,
		sender:  sender,
		guard:   NewGuard(store),
		auditor: auditor,
		config:  cfg.withDefaults(),
	}
}

// Guard exposes the restriction guard for callers that render wait hints.
func (s *Service) Guard() *Guard { return s.guard }

// Issue generates and delivers a one-time code for email.
//
// Restriction checks short-circuit: the first denial returns immediately and
// no further state is written. Delivery failure likewise leaves no state, so
// a failed send never burns the cooldown.
func (s *Service) Issue(ctx context.Context, req IssueRequest) error {
	restriction, err := s.guard.Check(ctx, req.Email)
	if err != nil {
		return err
	}
	if restriction != domain.RestrictionNone {
		s.emit(audit.EventRestricted, req.Email, restriction.String())
		return restriction.Err()
	}

	requests, err := s.readCount(ctx, requestCountKey(req.Email))
	if err != nil {
		return err
	}
	if requests >= s.config.RequestLimit-1 {
		// This request crosses the threshold: escalate to a spam lock
		// instead of bumping the counter past it.
		if err := s.store.Set(ctx, spamLockKey(req.Email), "1", s.config.SpamLockTTL); err != nil {
			return storeFault(err)
		}
		s.emit(audit.EventSpamLocked, req.Email, "")
		return domain.ErrSpamLocked
	}
	if _, err := s.store.Incr(ctx, requestCountKey(req.Email), s.config.RequestWindow); err != nil {
		return storeFault(err)
	}

	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}

	if err := s.sender.Send(ctx, Message{
		Recipient:   req.Email,
		DisplayName: req.DisplayName,
		Code:        code,
		TemplateID:  req.TemplateID,
	}); err != nil {
		s.emit(audit.EventDeliveryFailed, req.Email, err.Error())
		return fmt.Errorf("%w: %v", domain.ErrDelivery, err)
	}

	if err := s.store.Set(ctx, codeKey(req.Email), code, s.config.CodeTTL); err != nil {
		return storeFault(err)
	}
	if err := s.store.Set(ctx, cooldownKey(req.Email), "1", s.config.Cooldown); err != nil {
		return storeFault(err)
	}

	s.emit(audit.EventOTPIssued, req.Email, "")
	return nil
}

// Verify checks a submitted code against the stored one.
//
// A missing record and an expired one produce the same error by design: the
// response never reveals whether a code was ever issued. Only the account
// lock blocks verification; cooldown and spam lock govern issuance.
func (s *Service) Verify(ctx context.Context, email, submitted string) error {
	restriction, err := s.guard.Check(ctx, email)
	if err != nil {
		return err
	}
	if restriction == domain.RestrictionAccountLocked {
		return domain.ErrAccountLocked
	}

	stored, err := s.store.Get(ctx, codeKey(email))
	if err != nil {
		if errors.Is(err, counter.ErrNotFound) {
			return domain.ErrExpiredOrInvalidCode
		}
		return storeFault(err)
	}

	attempts, err := s.readCount(ctx, attemptsKey(email))
	if err != nil {
		return err
	}

	if submitted == stored {
		if err := s.store.Del(ctx, codeKey(email), attemptsKey(email)); err != nil {
			return storeFault(err)
		}
		s.emit(audit.EventOTPVerified, email, "")
		return nil
	}

	if attempts >= s.config.MaxAttempts-1 {
		if err := s.store.Set(ctx, lockKey(email), "1", s.config.LockTTL); err != nil {
			return storeFault(err)
		}
		if err := s.store.Del(ctx, attemptsKey(email)); err != nil {
			return storeFault(err)
		}
		s.emit(audit.EventAccountLocked, email, "")
		return domain.ErrAccountLocked
	}

	if _, err := s.store.Incr(ctx, attemptsKey(email), s.config.AttemptTTL); err != nil {
		return storeFault(err)
	}
	return &domain.IncorrectCodeError{AttemptsLeft: s.config.MaxAttempts - 1 - attempts}
}

// readCount reads an integer counter, treating an absent key as zero.
func (s *Service) readCount(ctx context.Context, key string) (int, error) {
	v, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, counter.ErrNotFound) {
			return 0, nil
		}
		return 0, storeFault(err)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, nil
	}
	return n, nil
}

func (s *Service) emit(kind, email, detail string) {
	if s.auditor != nil {
		s.auditor.Emit(kind, email, detail)
	}
}

// storeFault maps infrastructure faults to the fail-closed domain error.
func storeFault(err error) error {
	if errors.Is(err, counter.ErrUnavailable) {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return err
}

// generateCode returns a 4-digit code uniform in [1000, 9999).
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(8999))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+1000, 10), nil
}
