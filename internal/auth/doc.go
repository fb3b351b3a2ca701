// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ShopWarden Contributors

// Package auth implements ShopWarden's credential and session lifecycle.
//
// # Domain Types
//
// Domain types (Identity, ResetTicket) should be created using their
// constructors:
//   - NewIdentity - creates an Identity with normalized email and validated fields
//   - NewResetTicket - creates a ResetTicket with a token hash and expiry
//
// Direct struct initialization bypasses validation and may create invalid
// state. Repository implementations receive pre-validated types from these
// constructors.
//
// # Services
//
// Service types coordinate domain operations:
//   - Service - register, login, logout, password reset, role promotion
//   - ResetTokenService - single-use, time-boxed password reset tickets
//
// Session tokens are stateless signed bearer tokens (see TokenIssuer); they
// are never persisted. Reset tickets live embedded on the identity record,
// at most one active per identity.
package auth
