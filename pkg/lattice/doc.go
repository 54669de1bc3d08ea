// Package lattice composes elements into sections, beam paths and the full
// machine model, and answers positional queries along a path.
//
// A Section is an ordered run of elements. A Layout chains sections into one
// beam path. A Model holds every element and builds sections either from a
// SectionConfig or from each element's machine area, then builds a Layout for
// every entry of the LayoutConfig.
package lattice
