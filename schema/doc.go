// Package schema describes preference schemas and type-converter providers
// independently of how they were discovered.
//
// The loader (compiler/load) builds these values from Go source and the
// generator (compiler/gen) consumes them:
//
//   - [Schema]: a record type whose fields are named, defaulted settings
//   - [Field]: one setting with its storage key and default expression
//   - [TypeRef]: a structural reference to a field or converter type
//   - [ConverterProvider]: a type whose methods convert values to and from
//     the primitive storage kinds
//
// TypeRef equality is structural: two references are equal when their names,
// type arguments and nullability are equal.
package schema
