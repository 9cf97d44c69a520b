package subscription

import (
	"testing"
	"time"
)

func TestPermits(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		sub  *Subscription
		want bool
	}{
		{"nil", nil, false},
		{"active open-ended", &Subscription{Status: StatusActive}, true},
		{"active within window", &Subscription{Status: StatusActive, EndsAt: &future}, true},
		{"active past end date", &Subscription{Status: StatusActive, EndsAt: &past}, false},
		{"unlimited past end date", &Subscription{Status: StatusUnlimited, EndsAt: &past}, true},
		{"suspended", &Subscription{Status: StatusSuspended}, false},
		{"expired", &Subscription{Status: StatusExpired, EndsAt: &future}, false},
		{"unknown status", &Subscription{Status: "TRIAL"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sub.Permits(now); got != tt.want {
				t.Errorf("Permits() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEffectiveStatus(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)

	s := &Subscription{Status: StatusActive, EndsAt: &past}
	if got := s.EffectiveStatus(now); got != StatusExpired {
		t.Fatalf("expected EXPIRED, got %s", got)
	}

	var none *Subscription
	if got := none.EffectiveStatus(now); got != StatusExpired {
		t.Fatalf("expected EXPIRED for missing subscription, got %s", got)
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusActive, StatusSuspended, StatusExpired, StatusUnlimited} {
		if !s.Valid() {
			t.Errorf("expected %s to be valid", s)
		}
	}
	if Status("active").Valid() {
		t.Error("status names are case-sensitive")
	}
}
