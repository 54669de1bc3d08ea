/*
Package nala models a particle accelerator lattice and translates it into the
input decks of beam dynamics codes.

A lattice is a set of element documents (one YAML file per element, or one
combined file keyed by element name) plus optional layouts.yaml and
sections.yaml files naming the sections and the beam paths they form. The
Machine type loads them into a lattice.Model and exports it to ASTRA, GPT,
Elegant, CSRTrack, Ocelot, Xsuite, Wake-T, Genesis and OPAL.

# Concept

Elements carry their identity (name, hardware type, machine area), their
placement and optional physical sub-models (magnetic, RF, wakefield, laser,
plasma). Sections order the elements of one machine area, and layouts chain
sections into beam paths. Translators walk a section, a layout or the whole
machine, fill the gaps with drifts and write the deck of one code.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/nala"
	)

	func main() {
		machine, err := nala.New("./lattice")
		if err != nil {
			log.Fatal(err)
		}

		deck, err := machine.Export(context.Background(), "elegant", nala.Target{Layout: "SP1"})
		if err != nil {
			log.Fatal(err)
		}
		fmt.Print(deck.Content)
	}

Decks are cached in a ports.DeckStore keyed by code, target and a hash of
the lattice content. Use WithStore and WithLocker to share the cache between
replicas (see pkg/adapters/redis), and Watch to reload the model when the
documents change.
*/
package nala
