package repository

// CodeStore holds short-lived verification codes keyed by an email or phone number.
type CodeStore interface {
	// Issue generates a fresh code for key, replacing any previous one.
	Issue(key string) (string, error)

	// Verify reports whether code is the live code for key. It does not consume the code.
	Verify(key string, code string) bool

	// Remove drops the code for key (used after successful verification).
	Remove(key string)
}

// EmailCodeRepository keeps codes sent to a new address during an email change.
type EmailCodeRepository interface {
	Save(email string, code string)
	Get(email string) (string, bool)
	Delete(email string)
}
