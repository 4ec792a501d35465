// Package errors provides the classified error primitives used across slidebuilder.
//
// Construction-time failures are fatal and carry one of the categories below:
//   - CategoryStructural: a registered constructor lacks a required builder operation
//   - CategoryConfig: unknown content type, tenant, strategy or override target
//   - CategoryReferentialIntegrity: content references an entity outside its aggregate
//
// Business-rule violations are not errors; they are accumulated on the slide's
// validation record instead.
//
// Example usage:
//
//	err := errors.ReferentialIntegrityError("participant not found").
//		WithContext("participant", ref).
//		Build()
package errors
