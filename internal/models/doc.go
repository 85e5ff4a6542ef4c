// Package models defines the core domain models for MultiExpenses.
//
// # Models
//
//   - User: Registered account, identified by a unique email
//   - Group: Set of members sharing a ledger
//   - Invitation: Time-limited, multi-use token that grants group membership
//   - Transaction: Ledger entry (expense or income) scoped to one group
//   - Split: Portion of a transaction attributed to one member
//
// # Design Principles
//
// 1. **IDs over pointers**: relationships are expressed with ID strings, never
// with back-references, so models stay free of cycles.
// 2. **Exact money**: amounts are decimal.Decimal; conversion to float happens
// only at the wire boundary.
// 3. **Unix timestamps**: CreatedAt/UpdatedAt are Unix seconds.
package models
