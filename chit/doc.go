// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package chit parses voting chits and encodes the big integers they travel as.

# Grammar

A chit is a text token in the fixed form

	<question-id> <secret-number> [payload]

where payload is empty for a me chit and is the chosen response text for a
response chit. The secret number is picked by the voter's client and is
never interpreted server-side beyond equality comparison.

# Wire Encoding

Blinded chits and signatures travel as base-36 strings:

	text := chit.Encode(value)
	value, err := chit.Decode(text)
*/
package chit
