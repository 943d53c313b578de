// Copyright (c) 2025 PrevWORKS.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides authentication and token generation utilities.

# Manager Keys

Manager keys use HMAC-SHA256 to create deterministic, verifiable keys:

	managerKey := auth.GenerateManagerKey(programID, salt)
	err := auth.ValidateManagerKey(programID, managerKey, salt)

The key is URL-safe base64 encoded without padding. Since it's
deterministic, the same program ID and salt always produce the same key.
This allows validation without storing the key in the database.

# Resident Tokens

Resident tokens are random 24-byte (192-bit) secrets:

	token, err := auth.GenerateResidentToken()

Tokens are URL-safe base64 encoded and presented in the X-Resident-Token
header. Unlike manager keys they are random, so they are stored on the
resident profile and looked up on every request.

# ID Generation

Random hex IDs where a UUID would be overkill:

	id, err := auth.GenerateID(16)  // 32 hex characters

# IP Hashing

For privacy-preserving submission auditing:

	hash := auth.HashIP(ipAddress, salt)

Returns first 8 bytes (16 hex chars) of HMAC-SHA256. The hash lands on the
resident-owned survey row only, never on the anonymized mirror.
*/
package auth
