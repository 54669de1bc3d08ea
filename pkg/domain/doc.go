/*
Package domain contains the accelerator element model.

It defines the element and its optional sub-models, the geometry used to
place elements along the beam path, and the decoding of loosely typed element
documents. The package does no I/O; loaders and exporters live in the adapters.

# Key Entities

  - Element: one accelerator component, identified by name and hardware type.
  - Physical: placement along the machine (middle, rotation, length, bend angle).
  - Magnetic, Cavity, Wakefield, Simulation, Aperture, Plasma, Laser: the
    per-kind parameters translators read.
  - Deck: one exported input file for a simulation code.
*/
package domain
