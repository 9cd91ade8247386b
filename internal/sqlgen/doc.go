// Package sqlgen writes the PostgreSQL bootstrap scripts of a build:
// roles with pre-hashed SCRAM-SHA-256 passwords, static table, policy and
// function templates, dynamic form columns, per-role permissions and the
// seed data for secret sequences and the username vending pool.
//
// Scripts are numbered so that psql can run them in lexical order from
// docker-entrypoint-initdb.d.
package sqlgen
