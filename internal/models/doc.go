// Package models defines the core domain models for the calorie tracker.
//
// # Models
//
//   - Account: a system identity with credentials, one role and one profile
//   - Profile: per-account configuration holding the daily calorie ceiling
//   - FoodRecord: a timestamped log entry of a consumed food and its calories
//   - Role: the closed set of roles governing account management
//
// # Design Principles
//
//  1. **One role per account**: roles are a single enum value, not a set.
//     The zero value RoleNone means "unassigned" and carries no authority.
//  2. **IDs instead of pointers**: a FoodRecord references its owner by ID so
//     records can outlive the account that created them.
//  3. **Point-in-time flags**: ExceededDailyLimit is stamped at creation and
//     never recomputed.
package models
