// Package schema provides a small type system for validating loosely typed
// documents before they are decoded into lattice models.
//
// Element definitions arrive as YAML or JSON maps. A Schema maps field names
// to types (string, int, float, bool, slices, vectors, edge angles, enums and
// nested documents) so that every problem in a document can be reported at
// once instead of failing on the first decode error.
//
// Basic usage:
//
//	s := schema.Schema{
//	    "name":          schema.String(),
//	    "hardware_type": schema.String(),
//	    "physical": schema.Optional(schema.Nested(schema.Schema{
//	        "middle": schema.Optional(schema.Vector()),
//	        "length": schema.Optional(schema.Float()),
//	    })),
//	}
//
//	if err := schema.Validate(s, doc); err != nil {
//	    for _, e := range schema.ValidationErrors(err) {
//	        fmt.Println(e)
//	    }
//	}
//
// Schemas can also be parsed from type strings, which is how the element
// schema is embedded as YAML:
//
//	s, err := schema.ParseTypeMap(map[string]string{
//	    "length":              "float?",
//	    "entrance_edge_angle": "edge_angle?",
//	    "shape":               "enum(circular|planar)?",
//	})
package schema
