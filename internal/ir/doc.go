// Package ir provides the stream descriptor and compiled-program types for STLC.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. This keeps the descriptor model the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Stream modes are a closed sum type (Continuous, SingleBurst, MultiBurst);
//     fields that only make sense for one mode live on that mode only
//   - Stream ids are caller-chosen and sparse; NoNext marks a dead end
//   - Rates are stored as a base value and derived on demand
//   - All JSON and YAML tags use snake_case
package ir
