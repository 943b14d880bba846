// Package schema describes the queryable shape of stored entities.
//
// A Descriptor names an entity, its backing table and its typed fields.
// Every descriptor carries an implicit integer primary key named "id";
// reference fields hold the id of a row in the referenced entity.
//
// Descriptors are normally compiled from CUE (see package compiler) and
// collected in a Registry, which plays the role of a generated metamodel:
// query builders validate field references and literal types against it
// before anything reaches storage.
package schema
