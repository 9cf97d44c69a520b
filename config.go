package gatehouse

// Config holds configuration for the Gatehouse engine.
type Config struct {
	// GuardName is stamped on roles and permissions the engine seeds.
	// Defaults to "web".
	GuardName string `json:"guard_name,omitempty"`

	// AuditDenials records every denied guard verdict in the check log.
	// Defaults to true.
	AuditDenials *bool `json:"audit_denials,omitempty"`

	// AuditAllows records allowed guard verdicts as well.
	AuditAllows bool `json:"audit_allows,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	t := true
	return Config{
		GuardName:    "web",
		AuditDenials: &t,
	}
}

func (c Config) auditDenials() bool { return c.AuditDenials == nil || *c.AuditDenials }

func (c Config) guardName() string {
	if c.GuardName == "" {
		return "web"
	}
	return c.GuardName
}
