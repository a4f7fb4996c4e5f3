// Package access is the single authority on who may do what.
//
// Every function is a pure predicate over a domain.Actor and the known
// fields of a target resource. Nothing here reads storage, keeps state or
// returns errors: callers translate a false result into a FORBIDDEN
// response, and translate organization mismatches on required request
// fields into validation failures themselves.
//
// Roles form a total order of privilege:
//
//	platform_admin > org_admin > technician > customer
//
// Platform admins cross tenant boundaries; everybody else is confined to
// the organization carried by their identity assertion. An anonymous actor
// (no subject id) is denied by every predicate.
package access
