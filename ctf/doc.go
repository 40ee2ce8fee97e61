// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ctf implements the central tabulating facility, the server end of
the blind voting protocol.

Schneier's original protocol has each voter get a chit signed per response
option with nothing stopping a voter from casting several of them. That is
harmless in a two-option race (voting both ways cancels yourself out) but
not in a three-way race, and ranked choice needs a voter's several votes
linked to each other without being linked to the voter. The "me chit" does
both jobs: exactly one is signed per voter per question, it rides along with
every vote cast, and votes sharing a me-chit number are one voter's ballot.

Me chits are signed with a key unique to the question. With a shared key, a
voter indifferent to question 1 could spend question 1's me-chit slot on an
extra me chit for question 2 and vote twice there. Response chits can all
share the facility's key: however many of them a voter collects, the single
me chit still limits them to one countable vote per rank.

# Residency

A posted question's key pair is never written to the database; an insider
with database access must not be able to forge me chits. The facility
therefore keeps every polling question resident in memory (the
PostedQuestion set) and always consults that set before the database. The
issuance ledger - which blinded texts each voter has had signed - is equally
transient. On restart both are gone, so startup closes any question the
database still shows as polling; nothing signed for it can ever verify
again.

# Locking

The facility lock serializes ledger and resident-set mutation. Decisions
(issue, re-issue, reject) are made under the lock; the modular
exponentiation itself runs outside it. Each PostedQuestion guards its own
me-chit map. Vote writes rely on the store's uniqueness constraint, so two
racing identical submissions resolve to one stored Vote.

# Outcomes

ReceiveVote reports one of the models.Outcome codes rather than an error:
every rejection is an expected protocol event, logged to the trouble
channel with pseudonymous chit numbers only.
*/
package ctf
