package domain

// StudentRecord is the capability-restricted view of an externally managed
// roster row. The roster's schema is considerably richer; only the fields
// the login flow reads are surfaced here, which insulates the core from
// upstream schema churn.
type StudentRecord struct {
	FullName    string
	Phone       string // free-form, as entered by a third party
	PhoneE164   string
	PhoneDigits string
	PhoneRaw    string // legacy import field, inconsistent formatting
}
