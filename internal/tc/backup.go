package tc

import (
	"context"
	"io"
)

// Encryptor handles encryption of catalog snapshots and unlocking for
// restore. Encryption uses the public key only — no user intervention
// required. Decryption requires a passphrase to unlock the private key,
// producing a DecryptionContext for the session.
type Encryptor interface {
	// Setup performs one-time key generation. Called during `tc backup init`.
	// Generates a key pair, stores the public key in plaintext, and encrypts
	// the private key with the provided passphrase.
	Setup(passphrase string) error

	// Encrypt encrypts data read from r and writes ciphertext to w.
	// Uses the public key only — no passphrase required.
	Encrypt(r io.Reader, w io.Writer) error

	// Unlock decrypts the private key using the passphrase and returns a
	// DecryptionContext that can decrypt data for the duration of the session.
	// Returns an error if the passphrase is incorrect.
	Unlock(passphrase string) (DecryptionContext, error)

	// IsConfigured returns true if both key files exist at configured paths.
	IsConfigured() bool
}

// DecryptionContext holds an unlocked private key in memory for the
// duration of a restore session. Created by Encryptor.Unlock. The
// unlocked key is held in memory only and never written to disk.
type DecryptionContext interface {
	// Decrypt decrypts data read from r and writes plaintext to w.
	Decrypt(r io.Reader, w io.Writer) error
}

// BackupTarget stores named catalog snapshots. Operations stream
// through io.Reader/io.Writer so large catalogs never need to fit in
// memory.
type BackupTarget interface {
	// Put stores a snapshot under the given name, replacing any
	// existing snapshot with that name. size is the number of bytes
	// that will be read from r.
	Put(ctx context.Context, name string, r io.Reader, size int64) error

	// Get retrieves the named snapshot and writes it to w.
	Get(ctx context.Context, name string, w io.Writer) error

	// List returns stored snapshot names, newest first.
	List(ctx context.Context) ([]string, error)

	// ValidateSetup verifies that the target is accessible.
	ValidateSetup(ctx context.Context) error
}
