package model

// CredentialRecord is one username/password pair under evaluation. ID and
// Username are passed through untouched. Password is compared byte for byte;
// it is never trimmed, case-folded or re-encoded.
type CredentialRecord struct {
	ID       string
	Username string
	Password string

	// Row is the 1-based position of the record in its source, or 0 when the
	// source has no notion of position.
	Row int

	// PasswordMissing is set by a source when the row carried no password
	// field at all. Such a record is malformed and is never evaluated.
	PasswordMissing bool
}
