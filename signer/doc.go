// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package signer implements the signing entity of the blind voting protocol.

See Applied Cryptography by Bruce Schneier, pp. 106-107, for the original
blind signature protocol. The server signs blinded values with raw RSA
private-key exponentiation:

	signed = blinded^d mod n

and verifies an unblinded signature by comparing

	signature^e mod n

against the integer encoding of the plaintext chit's bytes. Blinding and
unblinding are entirely client-side; the signer never sees the plaintext it
signs, which is the point.

# Key Lifecycle

Keys are generated fresh per Signer and held only in memory. Nothing here
persists a key, and no method exposes the private exponent. If the process
restarts, every signature issued by the old key becomes unverifiable, which
is why startup closes any question left polling: re-signing after a restart
would let voters who already voted vote again.

# Two Kinds of Signer

The central facility holds one Signer for response chits; each posted
question holds its own Signer for me chits. Same capability, two owners:
a me chit must be valid for exactly one question, or an unused me-chit slot
on one question could be laundered into an extra vote on another.
*/
package signer
