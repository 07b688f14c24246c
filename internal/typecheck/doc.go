// Package typecheck decides whether a value of one compiled type may flow
// into a receiver of another.
//
// The relation is directional: FirstName inheriting Name makes FirstName
// assignable to Name, never the reverse. Any is an escape hatch on either
// side. A Checker wraps the relation with a strictness Mode so stricter
// checks can be rolled out as warnings before they become errors.
package typecheck
