// Package translator renders lattices as the input decks of beam dynamics
// codes.
//
// Each code has a Translator. Element level keyword conversion is driven by
// the embedded rules/<code>.yaml tables: a hardware type maps to the code's
// element name, flattened element keys map to the code's keywords, and the
// keyword list of each code element fixes what is written and in which
// order. Code specific quantities (cavity voltages, dipole corners, GPT
// coordinate systems) are computed by the emitters themselves.
//
// Translations run against an Env, which carries the beam parameters, the
// output directory and the counters that hand out namelist indices. The
// field maps and wake tables a deck references are collected in the Env so
// callers can copy them next to the deck:
//
//	env := translator.NewEnv(translator.WithMomentum(250e6))
//	deck, err := translator.ExportLayout(translator.Elegant, layout, env)
//	files := env.FieldFiles()
//
// Ocelot and Wake-T are emitted as Python scripts that build the lattice
// objects, and Xsuite as an xtrack Line JSON document.
package translator
