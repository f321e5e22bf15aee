// Package schema compiles declarative configuration schemas and validates
// untyped input against them.
//
// A schema is declared as an explicit Definition: a list of fields (name,
// type descriptor, default, constraints), per-schema constants, and
// field/root checkers. Compile builds the immutable Schema; the result is
// cached process-wide by definition name, so a schema exists at most once.
//
//	train := schema.MustCompile(schema.Definition{
//		Name: "TrainConfig",
//		Fields: []*schema.Field{
//			schema.NewField("max_epoch", schema.Int()).WithDefault(100),
//			schema.NewField("optimizer", schema.String()).
//				WithChoices("adam", "sgd").
//				WithDefault("adam"),
//		},
//	})
//
//	cfg, err := train.Validate(map[string]any{"max_epoch": "200"})
//
// Validation runs a fixed pipeline: root pre checkers on the raw mapping,
// field pre checkers, per-field coercion (explicit value, then environment
// variable, then default), choices, root post checkers on the assembled
// instance, and finally field post checkers. Failures carry the dotted
// path at which they occurred and chain their underlying causes.
//
// Inheritance is explicit composition: Definition.Extends lists base
// schemas whose fields, constants, and checkers are merged in order.
// Checkers always receive the most-derived schema under validation, so a
// checker declared on a base observes constants overridden by the derived
// definition.
package schema
