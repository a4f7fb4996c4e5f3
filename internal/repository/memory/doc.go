// Package memory holds mutex-guarded in-process repositories. They back the
// service tests and local runs without a database, and follow the same
// ordering, keyset and error contracts as the Postgres implementations.
package memory
