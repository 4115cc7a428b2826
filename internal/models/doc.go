// Package models defines the core domain models for roomledger.
//
// # Entities
//
//   - User: a registered account
//   - Room: a group of roommates sharing costs, capped at MaxMembers
//   - Membership: a (user, room) link with a role gating privileged actions
//   - Invoice: a shared charge with a split method and per-payer payments
//   - MonthPresence: one member's per-day attendance calendar for one month
//
// # Derived values
//
// Invoice status, remaining balance, and each member's PersonalInvoice view
// are computed from payments and presence data by the allocation package.
// They are never stored; status transitions are therefore impossible to get
// out of sync with the payment list.
//
// # Design principles
//
//  1. Relationships use ID strings, not pointers, to avoid circular references
//  2. Timestamps are Unix seconds throughout
//  3. Amounts are whole currency units (the domain currency has no subdivision);
//     rounding happens exactly once, in the allocation package
package models
