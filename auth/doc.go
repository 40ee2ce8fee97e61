// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides authentication and token generation utilities.

# Admin Keys

Admin keys use HMAC-SHA256 to create deterministic, verifiable keys:

	adminKey := auth.GenerateAdminKey(auth.AdminRealm, salt)
	err := auth.ValidateAdminKey(auth.AdminRealm, adminKey, salt)

The key is URL-safe base64 encoded without padding. Since it's deterministic,
the same realm and salt always produce the same key. This allows validation
without storing the key in the database. Question lifecycle operations
(create, edit, delete, post, close) and voter administration all require it.

# Voter Tokens

Voter tokens are random 24-byte (192-bit) secrets:

	token, err := auth.GenerateVoterToken()

Tokens authenticate chit-signing requests. A token identifies the voter to
the issuance ledger only; it is never stored with a chit or a vote, so it
cannot be used to deanonymize a ballot.

# ID Generation

Random hex IDs for database records:

	id, err := auth.GenerateID(16)  // 32 hex characters
*/
package auth
