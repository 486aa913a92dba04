package services

// Auditor records the outcome of mutations. Implementations must not block
// the caller; the audit trail is best effort.
type Auditor interface {
	LogChange(action, entityType string, entityID uint, description string)
	LogFailure(action, entityType string, entityID uint, err error)
}

type noopAuditor struct{}

func (noopAuditor) LogChange(string, string, uint, string) {}
func (noopAuditor) LogFailure(string, string, uint, error) {}

func auditorOrNoop(a Auditor) Auditor {
	if a == nil {
		return noopAuditor{}
	}
	return a
}

func clockOrSystem(c Clock) Clock {
	if c == nil {
		return SystemClock()
	}
	return c
}

// LoanPolicy bounds the loan period accepted by Issue.
type LoanPolicy struct {
	DefaultDays int
	MaxDays     int
}

// DefaultLoanPolicy lends for two weeks and accepts up to 90 days.
func DefaultLoanPolicy() LoanPolicy {
	return LoanPolicy{DefaultDays: 14, MaxDays: 90}
}

func (p LoanPolicy) withDefaults() LoanPolicy {
	if p.DefaultDays <= 0 {
		p.DefaultDays = 14
	}
	if p.MaxDays < p.DefaultDays {
		p.MaxDays = p.DefaultDays
	}
	return p
}
