// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the dvoting Central Tabulating
Facility (CTF) server.

dvoting runs anonymous elections with RSA blind signatures: the facility
signs voting tokens ("chits") it cannot read, voters unblind them, and
votes arrive carrying signed chits instead of identities. The facility
can verify that a vote came from an approved voter without ever learning
which voter.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=dvoting.db ADMIN_KEY_SALT=secret go run .

Or with flags:

	go run . -p 3318 -t sqlite -d dvoting.db --admin-salt secret

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite file path or PostgreSQL connection string
  - ADMIN_KEY_SALT (--admin-salt): Secret for admin key HMAC

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): "sqlite" (default) or "postgres"

A .env file in the working directory is loaded at startup; real
environment variables take precedence.

# Key Lifetime

Signing keys are generated in memory and are never written to the
database or disk. The facility key is created at startup; each question
gets its own key when posted. When the process exits every key is gone,
so at startup any question left polling by a previous run is swept into
the closed state: no valid chit for it can ever be signed or verified
again.

# Architecture

The server uses a handler-based architecture with dependency injection:

  - ctf: The counting facility (chit issuance, vote intake, tally)
  - signer: Raw RSA blind signing and verification
  - chit: Chit grammar and base-36 wire codec
  - handlers: HTTP request handlers (questions, voters, voting)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - models: Request/response and domain types
  - auth: Admin keys and voter tokens
  - db: Schema creation and the persistence store
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
